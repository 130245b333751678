package repository

import (
	"context"
	"time"

	"github.com/oksasatya/gigboard/internal/domain/entity"
)

// Boundary addresses a message position; pages fetched "before" it are strictly older.
type Boundary struct {
	Timestamp time.Time
	Seq       int64
}

// Window selects a page of a conversation, newest first.
// When Before is set Offset is ignored.
type Window struct {
	Offset int
	Before *Boundary
	Limit  int
}

// MessageRepository is the append-only message log.
type MessageRepository interface {
	// Append assigns ID and Seq and persists m.
	Append(ctx context.Context, m *entity.Message) error
	// MarkRead flips isRead on every unread message from senderID to receiverID.
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
	// Conversation returns the pair's messages inside w, newest first.
	Conversation(ctx context.Context, userA, userB string, w Window) ([]entity.Message, error)
	// Involving returns every message userID sent or received, newest first.
	Involving(ctx context.Context, userID string) ([]entity.Message, error)
	CountUnread(ctx context.Context, receiverID, senderID string) (int, error)
	// UnreadBySender counts unread messages addressed to receiverID grouped by sender.
	UnreadBySender(ctx context.Context, receiverID string) (map[string]int, error)
}
