package application

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	repo "github.com/oksasatya/gigboard/internal/domain/repository"
	"github.com/oksasatya/gigboard/pkg/apperr"
)

// HistoryPage is one page of a conversation, oldest first.
type HistoryPage struct {
	Messages   []entity.Message `json:"messages"`
	HasMore    bool             `json:"hasMore"`
	NextCursor string           `json:"nextCursor,omitempty"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// MessageService is the append-only message store plus the send path that
// fans new messages out to presence rooms.
type MessageService struct {
	Users        repo.IdentityResolver
	Messages     repo.MessageRepository
	Threads      *ThreadIndex
	Presence     Notifier
	Logger       *logrus.Logger
	DefaultLimit int
	MaxLimit     int

	clock *monotonicClock
}

func NewMessageService(users repo.IdentityResolver, messages repo.MessageRepository, threads *ThreadIndex, presence Notifier, logger *logrus.Logger, defaultLimit, maxLimit int) *MessageService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &MessageService{
		Users:        users,
		Messages:     messages,
		Threads:      threads,
		Presence:     presence,
		Logger:       logger,
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
		clock:        newMonotonicClock(time.Now),
	}
}

// Append persists a message without any real-time side effect.
func (s *MessageService) Append(ctx context.Context, senderID, receiverID, content string) (*entity.Message, error) {
	if err := validIDs("sender_id", senderID, "receiver_id", receiverID); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, apperr.InvalidArgument("cannot message yourself")
	}
	content = trimmed(content)
	if content == "" {
		return nil, apperr.InvalidArgument("content is required")
	}
	if _, err := resolve(ctx, s.Users, receiverID, "receiver"); err != nil {
		return nil, err
	}

	m := &entity.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  s.clock.Next(),
	}
	if err := s.Messages.Append(ctx, m); err != nil {
		return nil, apperr.Unavailable(err, "append message")
	}
	return m, nil
}

// Send appends the message, then emits messageDelivered to both rooms and the
// receiver's refreshed unread count. Emission never fails the send.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string) (*entity.Message, error) {
	m, err := s.Append(ctx, senderID, receiverID, content)
	if err != nil {
		return nil, err
	}
	if s.Presence == nil {
		return m, nil
	}
	s.Presence.DeliverMessage(*m)
	s.pushUnread(ctx, receiverID, senderID)
	return m, nil
}

// MarkRead flips every unread message from senderID to receiverID. The reader's
// other sessions get the recomputed count, normally 0.
func (s *MessageService) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	if err := validIDs("receiver_id", receiverID, "sender_id", senderID); err != nil {
		return 0, err
	}
	n, err := s.Messages.MarkRead(ctx, receiverID, senderID)
	if err != nil {
		return 0, apperr.Unavailable(err, "mark messages read")
	}
	if s.Presence != nil {
		s.pushUnread(ctx, receiverID, senderID)
	}
	return n, nil
}

// History returns one page of the conversation between userA and userB.
// Page numbers are offsets from the newest message, so a message arriving
// between two requests shifts the next page by one. Live clients should page
// with NextCursor, which is anchored to the oldest message returned; Page is 0
// on cursor pages.
func (s *MessageService) History(ctx context.Context, userA, userB string, r PageRequest) (*HistoryPage, error) {
	if err := validIDs("user_id", userA, "peer_id", userB); err != nil {
		return nil, err
	}
	cur, err := NewPageCursor(r, s.DefaultLimit, s.MaxLimit)
	if err != nil {
		return nil, err
	}

	rows, err := s.Messages.Conversation(ctx, userA, userB, cur.Window())
	if err != nil {
		return nil, apperr.Unavailable(err, "load conversation")
	}

	page := &HistoryPage{Page: cur.Page, Limit: cur.Limit}
	if len(rows) > cur.Limit {
		page.HasMore = true
		rows = rows[:cur.Limit]
	}
	page.Messages = lo.Reverse(rows)
	if page.Messages == nil {
		page.Messages = []entity.Message{}
	}
	if page.HasMore {
		oldest := page.Messages[0]
		page.NextCursor = EncodeCursor(repo.Boundary{Timestamp: oldest.Timestamp, Seq: oldest.Seq})
	}
	return page, nil
}

func (s *MessageService) pushUnread(ctx context.Context, receiverID, senderID string) {
	if s.Threads == nil {
		return
	}
	count, err := s.Threads.UnreadFrom(ctx, receiverID, senderID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"receiver_id": receiverID, "sender_id": senderID}).Warn("recompute unread count failed")
		}
		return
	}
	s.Presence.PublishUnread(receiverID, senderID, count)
}
