package entity

import "time"

// Message is immutable apart from IsRead, which only the receiver flips.
type Message struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}

// Peer returns the other party of the message from userID's perspective.
func (m *Message) Peer(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Thread is a derived per-user conversation summary. Never persisted.
type Thread struct {
	OtherParty           Identity  `json:"other_party"`
	LastMessage          string    `json:"last_message"`
	LastMessageTimestamp time.Time `json:"timestamp"`
	UnreadCount          int       `json:"unread_count"`
}
