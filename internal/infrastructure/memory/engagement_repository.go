package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
)

// EngagementRepository implements repository.EngagementRepository.
type EngagementRepository struct{ s *Store }

func (r *EngagementRepository) Create(_ context.Context, e *entity.Engagement) error {
	if err := r.s.failure(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	cp := *e
	r.s.engagements[e.ID] = &cp
	if !lo.Contains(r.s.contacts[e.ClientID], e.FreelancerID) {
		r.s.contacts[e.ClientID] = append(r.s.contacts[e.ClientID], e.FreelancerID)
	}
	return nil
}

func (r *EngagementRepository) GetByID(_ context.Context, id string) (*entity.Engagement, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.engagements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *EngagementRepository) Transition(_ context.Context, id, freelancerID string, status entity.EngagementStatus, completion *repository.Completion) (*entity.Engagement, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.engagements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.Status != entity.StatusPending || e.FreelancerID != freelancerID {
		return nil, repository.ErrGuardFailed
	}
	e.Status = status
	if status == entity.StatusCompleted && completion != nil {
		w := completion.Work
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		r.s.works = append(r.s.works, w)
		if u, ok := r.s.users[e.FreelancerID]; ok {
			u.Points += completion.Points
		}
	}
	cp := *e
	return &cp, nil
}

func (r *EngagementRepository) ApplyReview(_ context.Context, id, clientID, review string, rating, points int) (*entity.Engagement, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.engagements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.Status != entity.StatusCompleted || e.ClientID != clientID || e.Reviewed() {
		return nil, repository.ErrGuardFailed
	}
	e.Review = review
	e.Rating = rating

	if u, ok := r.s.users[e.FreelancerID]; ok {
		u.Rating, u.ReviewCount = entity.AggregateRating(r.byFreelancerLocked(e.FreelancerID))
		u.Points += points
	}
	cp := *e
	return &cp, nil
}

func (r *EngagementRepository) ListByFreelancer(_ context.Context, freelancerID string) ([]entity.Engagement, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.byFreelancerLocked(freelancerID), nil
}

func (r *EngagementRepository) ListByClient(_ context.Context, clientID string) ([]entity.Engagement, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filterLocked(func(e *entity.Engagement) bool { return e.ClientID == clientID }), nil
}

func (r *EngagementRepository) byFreelancerLocked(freelancerID string) []entity.Engagement {
	return r.filterLocked(func(e *entity.Engagement) bool { return e.FreelancerID == freelancerID })
}

// filterLocked returns copies newest first.
func (r *EngagementRepository) filterLocked(keep func(*entity.Engagement) bool) []entity.Engagement {
	out := make([]entity.Engagement, 0)
	for _, e := range r.s.engagements {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var _ repository.EngagementRepository = (*EngagementRepository)(nil)
