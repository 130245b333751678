package application

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	repo "github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

// ThreadIndex derives per-user conversation summaries from the message log.
// Nothing it returns is stored.
type ThreadIndex struct {
	Users    repo.IdentityResolver
	Messages repo.MessageRepository
	Logger   *logrus.Logger
}

func NewThreadIndex(users repo.IdentityResolver, messages repo.MessageRepository, logger *logrus.Logger) *ThreadIndex {
	return &ThreadIndex{Users: users, Messages: messages, Logger: logger}
}

// ThreadsFor lists userID's conversations, most recent first. A peer whose
// identity no longer resolves is left out.
func (t *ThreadIndex) ThreadsFor(ctx context.Context, userID string) ([]entity.Thread, error) {
	if err := validID("user_id", userID); err != nil {
		return nil, err
	}
	msgs, err := t.Messages.Involving(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable(err, "scan messages")
	}

	// msgs is newest first, so the first message seen per peer is its latest.
	latest := make(map[string]entity.Message)
	for _, m := range msgs {
		peer := m.Peer(userID)
		if _, ok := latest[peer]; !ok {
			latest[peer] = m
		}
	}
	peers := lo.Uniq(lo.Map(msgs, func(m entity.Message, _ int) string { return m.Peer(userID) }))

	unread, err := t.Messages.UnreadBySender(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable(err, "count unread messages")
	}

	threads := make([]entity.Thread, 0, len(peers))
	for _, peer := range peers {
		identity, err := t.Users.Resolve(ctx, peer)
		if err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				return nil, apperr.Unavailable(err, "resolve thread peer")
			}
			if t.Logger != nil {
				t.Logger.WithFields(logrus.Fields{"user_id": userID, "peer_id": peer}).Warn("thread peer does not resolve, skipped")
			}
			continue
		}
		last := latest[peer]
		threads = append(threads, entity.Thread{
			OtherParty:           *identity,
			LastMessage:          last.Content,
			LastMessageTimestamp: last.Timestamp,
			UnreadCount:          unread[peer],
		})
	}
	return threads, nil
}

// UnreadPeerCount is the number of distinct senders with unread messages for userID.
func (t *ThreadIndex) UnreadPeerCount(ctx context.Context, userID string) (int, error) {
	if err := validID("user_id", userID); err != nil {
		return 0, err
	}
	bySender, err := t.Messages.UnreadBySender(ctx, userID)
	if err != nil {
		return 0, apperr.Unavailable(err, "count unread messages")
	}
	return len(lo.PickBy(bySender, func(_ string, n int) bool { return n > 0 })), nil
}

// UnreadFrom counts unread messages from senderID to receiverID.
func (t *ThreadIndex) UnreadFrom(ctx context.Context, receiverID, senderID string) (int, error) {
	n, err := t.Messages.CountUnread(ctx, receiverID, senderID)
	if err != nil {
		return 0, apperr.Unavailable(err, "count unread messages")
	}
	return n, nil
}
