package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	repo "github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_application.go -package=mocks github.com/oksasatya/gigboard/internal/application EventPublisher,Notifier

// EventPublisher ships JSON documents to a broker. helpers.RabbitPublisher implements it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier pushes real-time events to identity rooms. presence.Broker implements it.
type Notifier interface {
	DeliverMessage(m entity.Message)
	PublishUnread(userID, peerID string, count int)
}

// validID rejects malformed identity or engagement references.
func validID(field, v string) error {
	if _, err := uuid.Parse(v); err != nil {
		return apperr.InvalidArgument("%s must be a valid id", field)
	}
	return nil
}

func validIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := validID(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// resolve maps a resolver miss to NotFound and anything else to Unavailable.
func resolve(ctx context.Context, r repo.IdentityResolver, userID, what string) (*entity.Identity, error) {
	id, err := r.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("%s not found", what)
		}
		return nil, apperr.Unavailable(err, "resolve %s", what)
	}
	return id, nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }

// monotonicClock hands out strictly increasing UTC timestamps at microsecond
// precision, the resolution Postgres keeps.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	if now == nil {
		now = time.Now
	}
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
