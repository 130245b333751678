package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/internal/mocks"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

func TestThreadIndex_LastMessageWins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	a := f.store.AddUser("", "Ann")
	b := f.store.AddUser("", "Ben")

	_, err := f.messages.Send(ctx, a.ID, b.ID, "hi")
	req.NoError(err)
	_, err = f.messages.Send(ctx, b.ID, a.ID, "hello")
	req.NoError(err)

	threads, err := f.threads.ThreadsFor(ctx, a.ID)
	req.NoError(err)
	req.Len(threads, 1)
	req.Equal(b.ID, threads[0].OtherParty.ID)
	req.Equal("Ben", threads[0].OtherParty.DisplayName)
	req.Equal("hello", threads[0].LastMessage)
	req.Equal(1, threads[0].UnreadCount)

	threads, err = f.threads.ThreadsFor(ctx, b.ID)
	req.NoError(err)
	req.Len(threads, 1)
	req.Equal(1, threads[0].UnreadCount)
}

func TestThreadIndex_OrderedByRecency(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	a := f.store.AddUser("", "Ann")
	b := f.store.AddUser("", "Ben")
	c := f.store.AddUser("", "Cy")
	d := f.store.AddUser("", "Dee")

	for _, step := range []struct{ from, to, text string }{
		{a.ID, b.ID, "to ben"},
		{c.ID, a.ID, "from cy"},
		{a.ID, d.ID, "to dee"},
		{b.ID, a.ID, "ben again"},
	} {
		_, err := f.messages.Send(ctx, step.from, step.to, step.text)
		req.NoError(err)
	}

	threads, err := f.threads.ThreadsFor(ctx, a.ID)
	req.NoError(err)
	names := make([]string, len(threads))
	for i, th := range threads {
		names[i] = th.OtherParty.DisplayName
	}
	req.Equal([]string{"Ben", "Dee", "Cy"}, names)
	req.Equal("ben again", threads[0].LastMessage)
}

func TestThreadIndex_NoMessagesNoThreads(t *testing.T) {
	f := newFixture()
	a := f.store.AddUser("", "Ann")

	threads, err := f.threads.ThreadsFor(context.Background(), a.ID)
	require.NoError(t, err)
	require.Empty(t, threads)
}

func TestThreadIndex_UnresolvablePeerIsSkipped(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	a := f.store.AddUser("", "Ann")
	b := f.store.AddUser("", "Ben")
	gone := f.store.AddUser("", "Gone")

	_, err := f.messages.Send(ctx, gone.ID, a.ID, "bye")
	req.NoError(err)
	_, err = f.messages.Send(ctx, b.ID, a.ID, "hey")
	req.NoError(err)
	f.store.RemoveUser(gone.ID)

	threads, err := f.threads.ThreadsFor(ctx, a.ID)
	req.NoError(err)
	req.Len(threads, 1)
	req.Equal(b.ID, threads[0].OtherParty.ID)

	// The badge still counts the sender; it does not need an identity.
	count, err := f.threads.UnreadPeerCount(ctx, a.ID)
	req.NoError(err)
	req.Equal(2, count)
}

func TestThreadIndex_ResolverOutageIsUnavailable(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockIdentityResolver(ctrl)

	f := newFixture()
	a := f.store.AddUser("", "Ann")
	b := f.store.AddUser("", "Ben")
	_, err := f.messages.Send(ctx, b.ID, a.ID, "hey")
	require.NoError(t, err)

	idx := NewThreadIndex(resolver, f.store.Messages(), quietLogger())
	resolver.EXPECT().Resolve(gomock.Any(), b.ID).Return(nil, errors.New("redis timeout"))

	_, err = idx.ThreadsFor(ctx, a.ID)
	require.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestThreadIndex_ResolverNotFoundSkips(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockIdentityResolver(ctrl)

	f := newFixture()
	a := f.store.AddUser("", "Ann")
	b := f.store.AddUser("", "Ben")
	c := f.store.AddUser("", "Cy")
	_, err := f.messages.Send(ctx, b.ID, a.ID, "hey")
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, c.ID, a.ID, "yo")
	require.NoError(t, err)

	idx := NewThreadIndex(resolver, f.store.Messages(), quietLogger())
	resolver.EXPECT().Resolve(gomock.Any(), c.ID).Return(&entity.Identity{ID: c.ID, DisplayName: "Cy"}, nil)
	resolver.EXPECT().Resolve(gomock.Any(), b.ID).Return(nil, repository.ErrNotFound)

	threads, err := idx.ThreadsFor(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Equal(t, "Cy", threads[0].OtherParty.DisplayName)
}

func TestThreadIndex_UnreadPeerCountAfterMarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	a := f.store.AddUser("", "Ann")
	b := f.store.AddUser("", "Ben")
	c := f.store.AddUser("", "Cy")

	_, err := f.messages.Send(ctx, b.ID, a.ID, "one")
	req.NoError(err)
	_, err = f.messages.Send(ctx, c.ID, a.ID, "two")
	req.NoError(err)

	count, err := f.threads.UnreadPeerCount(ctx, a.ID)
	req.NoError(err)
	req.Equal(2, count)

	// When A reads B
	_, err = f.messages.MarkRead(ctx, a.ID, b.ID)
	req.NoError(err)
	count, err = f.threads.UnreadPeerCount(ctx, a.ID)
	req.NoError(err)
	req.Equal(1, count)

	// Then a new message from B brings it back
	_, err = f.messages.Send(ctx, b.ID, a.ID, "three")
	req.NoError(err)
	count, err = f.threads.UnreadPeerCount(ctx, a.ID)
	req.NoError(err)
	req.Equal(2, count)
}
