// Package memory is an in-process implementation of the repositories with the
// same guard semantics as the Postgres one. Used by tests and local demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
)

// Store holds all tables behind one lock.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*entity.User
	engagements map[string]*entity.Engagement
	contacts    map[string][]string // client -> freelancers, insertion ordered
	works       []entity.PreviousWork
	messages    []entity.Message
	seq         int64
	fail        atomic.Pointer[error]
}

func NewStore() *Store {
	return &Store{
		users:       map[string]*entity.User{},
		engagements: map[string]*entity.Engagement{},
		contacts:    map[string][]string{},
	}
}

// FailWith makes every later call return err until it is called with nil.
// Safe to toggle while other goroutines use the store.
func (s *Store) FailWith(err error) {
	if err == nil {
		s.fail.Store(nil)
		return
	}
	s.fail.Store(&err)
}

func (s *Store) failure() error {
	if p := s.fail.Load(); p != nil {
		return *p
	}
	return nil
}

// AddUser registers a user and returns it. An empty id gets a fresh uuid.
func (s *Store) AddUser(id, name string) *entity.User {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	u := &entity.User{
		Identity:  entity.Identity{ID: id, DisplayName: name, Email: strings.ToLower(name) + "@example.com"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.users[id] = u
	s.mu.Unlock()
	return u
}

// RemoveUser deletes a user record, leaving engagements and messages in place.
func (s *Store) RemoveUser(id string) {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) Engagements() *EngagementRepository { return &EngagementRepository{s: s} }
func (s *Store) Messages() *MessageRepository       { return &MessageRepository{s: s} }

// UserRepository implements repository.UserRepository.
type UserRepository struct{ s *Store }

func (r *UserRepository) Resolve(_ context.Context, userID string) (*entity.Identity, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	id := u.Identity
	return &id, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) HiredContacts(_ context.Context, clientID string) ([]entity.Identity, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Identity, 0, len(r.s.contacts[clientID]))
	for _, fid := range r.s.contacts[clientID] {
		if u, ok := r.s.users[fid]; ok {
			out = append(out, u.Identity)
		}
	}
	return out, nil
}

func (r *UserRepository) PreviousWorks(_ context.Context, freelancerID string) ([]entity.PreviousWork, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	works := lo.Filter(r.s.works, func(w entity.PreviousWork, _ int) bool { return w.FreelancerID == freelancerID })
	sort.SliceStable(works, func(i, j int) bool { return works[i].CompletedAt.After(works[j].CompletedAt) })
	return works, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
