package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/gigboard/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrGuardFailed means a conditional write found the row in an unexpected state.
	ErrGuardFailed = errors.New("guard failed")
)

// Completion holds the side effects applied in the same write as a transition to Completed.
type Completion struct {
	Work   entity.PreviousWork
	Points int
}

// EngagementRepository stores engagements as single rows keyed by id.
// Every mutating method is atomic with respect to other writers on the same id.
type EngagementRepository interface {
	// Create inserts e (status Pending) and adds the freelancer to the client's hired contacts.
	Create(ctx context.Context, e *entity.Engagement) error
	GetByID(ctx context.Context, id string) (*entity.Engagement, error)
	// Transition moves a Pending engagement to status. completion is applied only for Completed.
	// Returns ErrGuardFailed if the engagement is not Pending or freelancerID is not its freelancer.
	Transition(ctx context.Context, id, freelancerID string, status entity.EngagementStatus, completion *Completion) (*entity.Engagement, error)
	// ApplyReview stores review and rating on a Completed, unreviewed engagement owned by clientID,
	// then recomputes the freelancer's aggregate rating from committed rows and credits points.
	ApplyReview(ctx context.Context, id, clientID, review string, rating, points int) (*entity.Engagement, error)
	ListByFreelancer(ctx context.Context, freelancerID string) ([]entity.Engagement, error)
	ListByClient(ctx context.Context, clientID string) ([]entity.Engagement, error)
}
