package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	repo "github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

// Engagement event types published after a committed ledger write.
const (
	EventHired     = "engagement.hired"
	EventCompleted = "engagement.completed"
	EventDenied    = "engagement.denied"
	EventReviewed  = "engagement.reviewed"
)

// EngagementEvent is the JSON document put on the engagement queue.
type EngagementEvent struct {
	Type           string    `json:"type"`
	EngagementID   string    `json:"engagement_id"`
	Project        string    `json:"project"`
	Status         string    `json:"status"`
	Rating         int       `json:"rating,omitempty"`
	ActorName      string    `json:"actor_name"`
	RecipientID    string    `json:"recipient_id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientEmail string    `json:"recipient_email"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EngagementService is the engagement-lifecycle ledger: hire, status
// transition, write-once review and rating aggregation.
type EngagementService struct {
	Users       repo.UserRepository
	Engagements repo.EngagementRepository
	Events      EventPublisher
	Logger      *logrus.Logger
	Now         func() time.Time
}

func NewEngagementService(users repo.UserRepository, engagements repo.EngagementRepository, events EventPublisher, logger *logrus.Logger) *EngagementService {
	return &EngagementService{
		Users:       users,
		Engagements: engagements,
		Events:      events,
		Logger:      logger,
		Now:         time.Now,
	}
}

// Hire creates a Pending engagement and records the freelancer as a hired contact of the client.
// Hiring the same freelancer again creates another engagement but no duplicate contact.
func (s *EngagementService) Hire(ctx context.Context, clientID, freelancerID, project string) (*entity.Engagement, error) {
	if err := validIDs("client_id", clientID, "freelancer_id", freelancerID); err != nil {
		return nil, err
	}
	if clientID == freelancerID {
		return nil, apperr.InvalidArgument("cannot hire yourself")
	}
	project = trimmed(project)
	if project == "" {
		return nil, apperr.InvalidArgument("project is required")
	}

	client, err := resolve(ctx, s.Users, clientID, "client")
	if err != nil {
		return nil, err
	}
	freelancer, err := resolve(ctx, s.Users, freelancerID, "freelancer")
	if err != nil {
		return nil, err
	}

	e := &entity.Engagement{
		FreelancerID:          freelancer.ID,
		ClientID:              client.ID,
		FreelancerDisplayName: freelancer.DisplayName,
		ClientDisplayName:     client.DisplayName,
		Project:               project,
		Status:                entity.StatusPending,
		CreatedAt:             s.Now().UTC(),
	}
	if err := s.Engagements.Create(ctx, e); err != nil {
		return nil, apperr.Unavailable(err, "create engagement")
	}

	s.publish(ctx, EventHired, e, client.DisplayName, freelancer)
	return e, nil
}

// UpdateStatus finalizes a Pending engagement as Completed or Denied. Only the
// freelancer may do it, and only once. Completion appends a portfolio entry and
// credits the freelancer in the same write.
func (s *EngagementService) UpdateStatus(ctx context.Context, engagementID, requesterID string, status entity.EngagementStatus) (*entity.Engagement, error) {
	if status != entity.StatusCompleted && status != entity.StatusDenied {
		return nil, apperr.InvalidArgument("status must be %s or %s", entity.StatusCompleted, entity.StatusDenied)
	}
	if err := validIDs("engagement_id", engagementID, "requester_id", requesterID); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if current.FreelancerID != requesterID {
		return nil, apperr.PreconditionFailed("only the freelancer can update the engagement status")
	}
	if current.Status.Terminal() {
		return nil, apperr.PreconditionFailed("engagement status cannot be changed once %s", current.Status)
	}

	var completion *repo.Completion
	if status == entity.StatusCompleted {
		completion = &repo.Completion{
			Work: entity.PreviousWork{
				FreelancerID: current.FreelancerID,
				EngagementID: current.ID,
				Title:        current.Project,
				Description:  fmt.Sprintf("Completed for %s", current.ClientDisplayName),
				Client:       current.ClientDisplayName,
				CompletedAt:  s.Now().UTC(),
			},
			Points: entity.CompletionPoints,
		}
	}

	updated, err := s.Engagements.Transition(ctx, engagementID, requesterID, status, completion)
	if err != nil {
		return nil, s.writeErr(err, "update engagement status")
	}

	typ := EventDenied
	if status == entity.StatusCompleted {
		typ = EventCompleted
	}
	s.publishTo(ctx, typ, updated, updated.FreelancerDisplayName, updated.ClientID)
	return updated, nil
}

// SubmitReview stores the client's write-once review on a Completed engagement,
// then the freelancer's aggregate rating is recomputed and 5 points credited.
func (s *EngagementService) SubmitReview(ctx context.Context, engagementID, requesterID, review string, rating int) (*entity.Engagement, error) {
	review = trimmed(review)
	if review == "" {
		return nil, apperr.InvalidArgument("review is required")
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.InvalidArgument("rating must be an integer between 1 and 5")
	}
	if err := validIDs("engagement_id", engagementID, "requester_id", requesterID); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.StatusCompleted {
		return nil, apperr.PreconditionFailed("reviews can only be submitted for %s engagements", entity.StatusCompleted)
	}
	if current.ClientID != requesterID {
		return nil, apperr.PreconditionFailed("only the client can submit a review")
	}
	if current.Reviewed() {
		return nil, apperr.PreconditionFailed("engagement has already been reviewed")
	}

	updated, err := s.Engagements.ApplyReview(ctx, engagementID, requesterID, review, rating, entity.ReviewPoints)
	if err != nil {
		return nil, s.writeErr(err, "submit review")
	}

	s.publishTo(ctx, EventReviewed, updated, updated.ClientDisplayName, updated.FreelancerID)
	return updated, nil
}

// Get returns an engagement to one of its two parties. Anyone else gets NotFound.
func (s *EngagementService) Get(ctx context.Context, engagementID, callerID string) (*entity.Engagement, error) {
	if err := validID("engagement_id", engagementID); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if _, ok := e.RoleOf(callerID); !ok {
		return nil, apperr.NotFound("engagement not found")
	}
	return e, nil
}

// WorkHistory is the two read projections of the caller's engagements.
type WorkHistory struct {
	AsFreelancer []entity.Engagement `json:"asFreelancer"`
	AsClient     []entity.Engagement `json:"asClient"`
}

func (s *EngagementService) WorkHistory(ctx context.Context, userID string) (*WorkHistory, error) {
	if err := validID("user_id", userID); err != nil {
		return nil, err
	}
	asFreelancer, err := s.Engagements.ListByFreelancer(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable(err, "list engagements as freelancer")
	}
	asClient, err := s.Engagements.ListByClient(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable(err, "list engagements as client")
	}
	return &WorkHistory{AsFreelancer: asFreelancer, AsClient: asClient}, nil
}

func (s *EngagementService) HiredContacts(ctx context.Context, clientID string) ([]entity.Identity, error) {
	if err := validID("client_id", clientID); err != nil {
		return nil, err
	}
	contacts, err := s.Users.HiredContacts(ctx, clientID)
	if err != nil {
		return nil, apperr.Unavailable(err, "list hired contacts")
	}
	return contacts, nil
}

type ReviewView struct {
	EngagementID string    `json:"engagement_id"`
	Review       string    `json:"review"`
	Rating       int       `json:"rating"`
	Project      string    `json:"project"`
	Client       string    `json:"client"`
	Date         time.Time `json:"date"`
}

// Reputation is the public view of a freelancer's ledger-derived standing.
type Reputation struct {
	Freelancer    entity.Identity       `json:"freelancer"`
	Rating        float64               `json:"rating"`
	ReviewCount   int                   `json:"review_count"`
	Points        int                   `json:"points"`
	Reviews       []ReviewView          `json:"reviews"`
	PreviousWorks []entity.PreviousWork `json:"previous_works"`
}

func (s *EngagementService) Reputation(ctx context.Context, freelancerID string) (*Reputation, error) {
	if err := validID("freelancer_id", freelancerID); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, freelancerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("freelancer not found")
		}
		return nil, apperr.Unavailable(err, "load freelancer")
	}
	engagements, err := s.Engagements.ListByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, apperr.Unavailable(err, "list engagements")
	}
	works, err := s.Users.PreviousWorks(ctx, freelancerID)
	if err != nil {
		return nil, apperr.Unavailable(err, "list previous works")
	}

	reviews := lo.FilterMap(engagements, func(e entity.Engagement, _ int) (ReviewView, bool) {
		return ReviewView{
			EngagementID: e.ID,
			Review:       e.Review,
			Rating:       e.Rating,
			Project:      e.Project,
			Client:       e.ClientDisplayName,
			Date:         e.CreatedAt,
		}, e.Reviewed()
	})

	return &Reputation{
		Freelancer:    u.Identity,
		Rating:        u.Rating,
		ReviewCount:   u.ReviewCount,
		Points:        u.Points,
		Reviews:       reviews,
		PreviousWorks: works,
	}, nil
}

func (s *EngagementService) load(ctx context.Context, engagementID string) (*entity.Engagement, error) {
	e, err := s.Engagements.GetByID(ctx, engagementID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("engagement not found")
		}
		return nil, apperr.Unavailable(err, "load engagement")
	}
	return e, nil
}

// writeErr translates a failed guarded write. A guard failure here means a
// concurrent writer finalized or reviewed the engagement after our read.
func (s *EngagementService) writeErr(err error, op string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound("engagement not found")
	case errors.Is(err, repo.ErrGuardFailed):
		return apperr.PreconditionFailed("engagement was modified concurrently")
	default:
		return apperr.Unavailable(err, "%s", op)
	}
}

func (s *EngagementService) publishTo(ctx context.Context, typ string, e *entity.Engagement, actorName, recipientID string) {
	if s.Events == nil {
		return
	}
	recipient, err := s.Users.Resolve(ctx, recipientID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"engagement_id": e.ID, "recipient_id": recipientID}).Warn("resolve event recipient failed")
		}
		return
	}
	s.publish(ctx, typ, e, actorName, recipient)
}

// publish is best effort: the ledger write has already committed.
func (s *EngagementService) publish(ctx context.Context, typ string, e *entity.Engagement, actorName string, recipient *entity.Identity) {
	if s.Events == nil {
		return
	}
	ev := EngagementEvent{
		Type:           typ,
		EngagementID:   e.ID,
		Project:        e.Project,
		Status:         string(e.Status),
		Rating:         e.Rating,
		ActorName:      actorName,
		RecipientID:    recipient.ID,
		RecipientName:  recipient.DisplayName,
		RecipientEmail: recipient.Email,
		OccurredAt:     s.Now().UTC(),
	}
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Events.PublishJSON(pubCtx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"engagement_id": e.ID, "type": typ}).Warn("publish engagement event failed")
	}
}
