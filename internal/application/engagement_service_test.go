package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/internal/infrastructure/memory"
	"github.com/oksasatya/gigboard/internal/mocks"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	store    *memory.Store
	ledger   *EngagementService
	threads  *ThreadIndex
	messages *MessageService
}

func newFixture() *fixture {
	st := memory.NewStore()
	log := quietLogger()
	threads := NewThreadIndex(st.Users(), st.Messages(), log)
	return &fixture{
		store:    st,
		ledger:   NewEngagementService(st.Users(), st.Engagements(), nil, log),
		threads:  threads,
		messages: NewMessageService(st.Users(), st.Messages(), threads, nil, log, 20, 100),
	}
}

func (f *fixture) user(t *testing.T, id string) *entity.User {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestEngagementService_HireCompleteReview(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	c1 := f.store.AddUser("", "Carla")
	f1 := f.store.AddUser("", "Felix")

	// Given a fresh hire
	e, err := f.ledger.Hire(ctx, c1.ID, f1.ID, "  Logo Design ")
	req.NoError(err)
	req.Equal(entity.StatusPending, e.Status)
	req.Equal("Logo Design", e.Project)
	req.Equal("Felix", e.FreelancerDisplayName)
	req.Equal("Carla", e.ClientDisplayName)
	req.Zero(e.Rating)
	req.Empty(e.Review)

	// When the freelancer completes it
	e, err = f.ledger.UpdateStatus(ctx, e.ID, f1.ID, entity.StatusCompleted)
	req.NoError(err)
	req.Equal(entity.StatusCompleted, e.Status)
	req.Equal(10, f.user(t, f1.ID).Points)

	works, err := f.store.Users().PreviousWorks(ctx, f1.ID)
	req.NoError(err)
	req.Len(works, 1)
	req.Equal("Logo Design", works[0].Title)
	req.Equal("Completed for Carla", works[0].Description)
	req.Equal(e.ID, works[0].EngagementID)

	// And the client reviews it
	e, err = f.ledger.SubmitReview(ctx, e.ID, c1.ID, "Great work", 5)
	req.NoError(err)
	req.Equal("Great work", e.Review)
	req.Equal(5, e.Rating)

	// Then the freelancer's aggregate reflects it
	u := f.user(t, f1.ID)
	req.Equal(5.0, u.Rating)
	req.Equal(1, u.ReviewCount)
	req.Equal(15, u.Points)
}

func TestEngagementService_HireValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")
	ghost := "6f1c2d8e-0000-4000-8000-000000000001"

	tests := []struct {
		name         string
		client       string
		freelancer   string
		project      string
		expectedCode apperr.Code
	}{
		{name: "self hire", client: c.ID, freelancer: c.ID, project: "x", expectedCode: apperr.CodeInvalidArgument},
		{name: "blank project", client: c.ID, freelancer: fr.ID, project: "   ", expectedCode: apperr.CodeInvalidArgument},
		{name: "malformed id", client: "not-an-id", freelancer: fr.ID, project: "x", expectedCode: apperr.CodeInvalidArgument},
		{name: "unknown freelancer", client: c.ID, freelancer: ghost, project: "x", expectedCode: apperr.CodeNotFound},
		{name: "unknown client", client: ghost, freelancer: fr.ID, project: "x", expectedCode: apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Hire(ctx, tt.client, tt.freelancer, tt.project)
			require.Equal(t, tt.expectedCode, apperr.CodeOf(err))
		})
	}
	history, err := f.ledger.WorkHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, history.AsClient)
}

func TestEngagementService_HireTwiceKeepsOneContact(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")

	e1, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	req.NoError(err)
	e2, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Banner")
	req.NoError(err)
	req.NotEqual(e1.ID, e2.ID)

	contacts, err := f.ledger.HiredContacts(ctx, c.ID)
	req.NoError(err)
	req.Len(contacts, 1)
	req.Equal(fr.ID, contacts[0].ID)

	history, err := f.ledger.WorkHistory(ctx, c.ID)
	req.NoError(err)
	req.Len(history.AsClient, 2)
	req.Empty(history.AsFreelancer)
}

func TestEngagementService_UpdateStatusGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")

	completed, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	require.NoError(t, err)
	_, err = f.ledger.UpdateStatus(ctx, completed.ID, fr.ID, entity.StatusCompleted)
	require.NoError(t, err)

	pending, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Banner")
	require.NoError(t, err)

	tests := []struct {
		name         string
		id           string
		requester    string
		status       entity.EngagementStatus
		expectedCode apperr.Code
	}{
		{name: "denied after completed", id: completed.ID, requester: fr.ID, status: entity.StatusDenied, expectedCode: apperr.CodePreconditionFailed},
		{name: "same terminal value again", id: completed.ID, requester: fr.ID, status: entity.StatusCompleted, expectedCode: apperr.CodePreconditionFailed},
		{name: "back to pending", id: pending.ID, requester: fr.ID, status: entity.StatusPending, expectedCode: apperr.CodeInvalidArgument},
		{name: "unknown status", id: pending.ID, requester: fr.ID, status: "Archived", expectedCode: apperr.CodeInvalidArgument},
		{name: "client cannot finalize", id: pending.ID, requester: c.ID, status: entity.StatusDenied, expectedCode: apperr.CodePreconditionFailed},
		{name: "missing engagement", id: "6f1c2d8e-0000-4000-8000-000000000002", requester: fr.ID, status: entity.StatusDenied, expectedCode: apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.UpdateStatus(ctx, tt.id, tt.requester, tt.status)
			require.Equal(t, tt.expectedCode, apperr.CodeOf(err))
		})
	}

	// Then state is unchanged
	got, err := f.ledger.Get(ctx, completed.ID, c.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCompleted, got.Status)
	got, err = f.ledger.Get(ctx, pending.ID, fr.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusPending, got.Status)
	require.Equal(t, 10, f.user(t, fr.ID).Points)
}

func TestEngagementService_DeniedAwardsNothing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")

	e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	req.NoError(err)
	e, err = f.ledger.UpdateStatus(ctx, e.ID, fr.ID, entity.StatusDenied)
	req.NoError(err)
	req.Equal(entity.StatusDenied, e.Status)

	req.Zero(f.user(t, fr.ID).Points)
	works, err := f.store.Users().PreviousWorks(ctx, fr.ID)
	req.NoError(err)
	req.Empty(works)

	_, err = f.ledger.SubmitReview(ctx, e.ID, c.ID, "meh", 2)
	req.ErrorIs(err, apperr.ErrPreconditionFailed)
}

func TestEngagementService_ReviewGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")

	pending, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Banner")
	require.NoError(t, err)
	done, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	require.NoError(t, err)
	_, err = f.ledger.UpdateStatus(ctx, done.ID, fr.ID, entity.StatusCompleted)
	require.NoError(t, err)

	tests := []struct {
		name         string
		id           string
		requester    string
		review       string
		rating       int
		expectedCode apperr.Code
	}{
		{name: "rating too low", id: done.ID, requester: c.ID, review: "ok", rating: 0, expectedCode: apperr.CodeInvalidArgument},
		{name: "rating too high", id: done.ID, requester: c.ID, review: "ok", rating: 6, expectedCode: apperr.CodeInvalidArgument},
		{name: "blank review", id: done.ID, requester: c.ID, review: " \t", rating: 4, expectedCode: apperr.CodeInvalidArgument},
		{name: "not completed", id: pending.ID, requester: c.ID, review: "ok", rating: 4, expectedCode: apperr.CodePreconditionFailed},
		{name: "freelancer cannot review", id: done.ID, requester: fr.ID, review: "ok", rating: 4, expectedCode: apperr.CodePreconditionFailed},
		{name: "missing engagement", id: "6f1c2d8e-0000-4000-8000-000000000003", requester: c.ID, review: "ok", rating: 4, expectedCode: apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.SubmitReview(ctx, tt.id, tt.requester, tt.review, tt.rating)
			require.Equal(t, tt.expectedCode, apperr.CodeOf(err))
		})
	}

	// Write once
	_, err = f.ledger.SubmitReview(ctx, done.ID, c.ID, "Great", 5)
	require.NoError(t, err)
	_, err = f.ledger.SubmitReview(ctx, done.ID, c.ID, "Changed my mind", 1)
	require.ErrorIs(t, err, apperr.ErrPreconditionFailed)

	u := f.user(t, fr.ID)
	require.Equal(t, 15, u.Points)
	require.Equal(t, 5.0, u.Rating)
	require.Equal(t, 1, u.ReviewCount)
}

func TestEngagementService_AggregateOverManyReviews(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")

	ratings := []int{5, 4, 4}
	for _, r := range ratings {
		e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Job")
		req.NoError(err)
		_, err = f.ledger.UpdateStatus(ctx, e.ID, fr.ID, entity.StatusCompleted)
		req.NoError(err)
		_, err = f.ledger.SubmitReview(ctx, e.ID, c.ID, "fine", r)
		req.NoError(err)
	}

	rep, err := f.ledger.Reputation(ctx, fr.ID)
	req.NoError(err)
	req.Equal(4.3, rep.Rating)
	req.Equal(3, rep.ReviewCount)
	req.Equal(len(ratings)*(entity.CompletionPoints+entity.ReviewPoints), rep.Points)
	req.Len(rep.Reviews, 3)
	req.Len(rep.PreviousWorks, 3)
	req.Equal("Felix", rep.Freelancer.DisplayName)
}

func TestEngagementService_ConcurrentUpdateStatusOnlyOneWins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")
	e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	req.NoError(err)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []entity.EngagementStatus
		failed    int
	)
	for i := 0; i < callers; i++ {
		status := entity.StatusCompleted
		if i%2 == 1 {
			status = entity.StatusDenied
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.UpdateStatus(ctx, e.ID, fr.ID, status)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded = append(succeeded, status)
				return
			}
			if errors.Is(err, apperr.ErrPreconditionFailed) {
				failed++
			}
		}()
	}
	wg.Wait()

	req.Len(succeeded, 1)
	req.Equal(callers-1, failed)
	got, err := f.ledger.Get(ctx, e.ID, c.ID)
	req.NoError(err)
	req.Equal(succeeded[0], got.Status)

	expectedPoints := 0
	if succeeded[0] == entity.StatusCompleted {
		expectedPoints = entity.CompletionPoints
	}
	req.Equal(expectedPoints, f.user(t, fr.ID).Points)
}

func TestEngagementService_ConcurrentReviewCreditsOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")
	e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	req.NoError(err)
	_, err = f.ledger.UpdateStatus(ctx, e.ID, fr.ID, entity.StatusCompleted)
	req.NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := f.ledger.SubmitReview(ctx, e.ID, c.ID, "done", rating)
			errs <- err
		}(i%5 + 1)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		req.ErrorIs(err, apperr.ErrPreconditionFailed)
	}
	req.Equal(1, ok)
	u := f.user(t, fr.ID)
	req.Equal(entity.CompletionPoints+entity.ReviewPoints, u.Points)
	req.Equal(1, u.ReviewCount)
}

func TestEngagementService_GetIsPartiesOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")
	other := f.store.AddUser("", "Olga")
	e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	require.NoError(t, err)

	_, err = f.ledger.Get(ctx, e.ID, other.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.ledger.Get(ctx, e.ID, fr.ID)
	require.NoError(t, err)
	require.Equal(t, e.ID, got.ID)
}

func TestEngagementService_StorageFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")
	e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	require.NoError(t, err)

	f.store.FailWith(errors.New("connection reset"))
	_, err = f.ledger.UpdateStatus(ctx, e.ID, fr.ID, entity.StatusCompleted)
	require.ErrorIs(t, err, apperr.ErrUnavailable)

	f.store.FailWith(nil)
	got, err := f.ledger.Get(ctx, e.ID, fr.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusPending, got.Status)
}

func TestEngagementService_PublishesEvents(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockEventPublisher(ctrl)

	f := newFixture()
	f.ledger.Events = publisher
	c := f.store.AddUser("", "Carla")
	fr := f.store.AddUser("", "Felix")

	var got []EngagementEvent
	record := func(_ context.Context, body any) error {
		got = append(got, body.(EngagementEvent))
		return nil
	}
	gomock.InOrder(
		publisher.EXPECT().PublishJSON(gomock.Any(), gomock.Any()).DoAndReturn(record),
		publisher.EXPECT().PublishJSON(gomock.Any(), gomock.Any()).DoAndReturn(record),
		// a broker outage never fails the review
		publisher.EXPECT().PublishJSON(gomock.Any(), gomock.Any()).Return(errors.New("channel closed")),
	)

	e, err := f.ledger.Hire(ctx, c.ID, fr.ID, "Logo")
	req.NoError(err)
	_, err = f.ledger.UpdateStatus(ctx, e.ID, fr.ID, entity.StatusCompleted)
	req.NoError(err)
	_, err = f.ledger.SubmitReview(ctx, e.ID, c.ID, "Great", 5)
	req.NoError(err)

	req.Len(got, 2)
	req.Equal(EventHired, got[0].Type)
	req.Equal(fr.ID, got[0].RecipientID)
	req.Equal("felix@example.com", got[0].RecipientEmail)
	req.Equal("Carla", got[0].ActorName)
	req.Equal(EventCompleted, got[1].Type)
	req.Equal(c.ID, got[1].RecipientID)
	req.Equal("Felix", got[1].ActorName)
}

func TestEngagementService_WriteErrTranslation(t *testing.T) {
	s := &EngagementService{}
	require.ErrorIs(t, s.writeErr(fmt.Errorf("tx: %w", repository.ErrGuardFailed), "op"), apperr.ErrPreconditionFailed)
	require.ErrorIs(t, s.writeErr(repository.ErrNotFound, "op"), apperr.ErrNotFound)
	require.ErrorIs(t, s.writeErr(errors.New("conn refused"), "op"), apperr.ErrUnavailable)
}
