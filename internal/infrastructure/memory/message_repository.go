package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
)

// MessageRepository implements repository.MessageRepository. Messages are kept in append order.
type MessageRepository struct{ s *Store }

func (r *MessageRepository) Append(_ context.Context, m *entity.Message) error {
	if err := r.s.failure(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	m.Seq = r.s.seq
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r *MessageRepository) MarkRead(_ context.Context, receiverID, senderID string) (int64, error) {
	if err := r.s.failure(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.messages {
		m := &r.s.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) Conversation(_ context.Context, userA, userB string, w repository.Window) ([]entity.Message, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	skip := w.Offset
	if w.Before != nil {
		skip = 0
	}
	out := make([]entity.Message, 0, w.Limit)
	for i := len(r.s.messages) - 1; i >= 0 && len(out) < w.Limit; i-- {
		m := r.s.messages[i]
		inPair := (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA)
		if !inPair {
			continue
		}
		if w.Before != nil && !olderThan(m, *w.Before) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func olderThan(m entity.Message, b repository.Boundary) bool {
	if m.Timestamp.Equal(b.Timestamp) {
		return m.Seq < b.Seq
	}
	return m.Timestamp.Before(b.Timestamp)
}

func (r *MessageRepository) Involving(_ context.Context, userID string) ([]entity.Message, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Message, 0)
	for i := len(r.s.messages) - 1; i >= 0; i-- {
		m := r.s.messages[i]
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MessageRepository) CountUnread(_ context.Context, receiverID, senderID string) (int, error) {
	if err := r.s.failure(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, m := range r.s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) UnreadBySender(_ context.Context, receiverID string) (map[string]int, error) {
	if err := r.s.failure(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := map[string]int{}
	for _, m := range r.s.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			out[m.SenderID]++
		}
	}
	return out, nil
}

var _ repository.MessageRepository = (*MessageRepository)(nil)
