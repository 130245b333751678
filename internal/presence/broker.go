// Package presence fans chat events out to the live sessions of each identity.
//
// Every session joins exactly one room, named after its own identity. Emission
// never blocks: a session whose buffer is full, or an identity with no session,
// simply misses the event and reconciles by re-querying threads and unread counts.
package presence

import (
	"expvar"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/gigboard/internal/domain/entity"
)

var (
	deliveredEvents = expvar.NewInt("presence_delivered_events")
	droppedEvents   = expvar.NewInt("presence_dropped_events")
	liveSessions    = expvar.NewInt("presence_live_sessions")
)

type EventType string

const (
	EventMessageDelivered EventType = "messageDelivered"
	EventUnreadDelta      EventType = "unreadDelta"
)

type UnreadDelta struct {
	PeerID string `json:"peer_id"`
	Count  int    `json:"count"`
}

// Event is one real-time notification pushed to a room.
type Event struct {
	Type    EventType       `json:"type"`
	Message *entity.Message `json:"message,omitempty"`
	Unread  *UnreadDelta    `json:"unread,omitempty"`
}

// Session is one live connection of an identity.
type Session struct {
	id     uint64
	userID string
	events chan Event
	joined bool
	closed bool
}

func (s *Session) UserID() string { return s.userID }

// Events is closed when the session leaves.
func (s *Session) Events() <-chan Event { return s.events }

// Broker owns the room registry. The zero value is not usable; use NewBroker.
type Broker struct {
	mu     sync.RWMutex
	rooms  map[string]map[uint64]*Session
	buffer int
	nextID atomic.Uint64
	Logger *logrus.Logger
}

func NewBroker(buffer int, logger *logrus.Logger) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{rooms: map[string]map[uint64]*Session{}, buffer: buffer, Logger: logger}
}

// Connect allocates a session for userID. It receives nothing until joined.
func (b *Broker) Connect(userID string) *Session {
	return &Session{
		id:     b.nextID.Add(1),
		userID: userID,
		events: make(chan Event, b.buffer),
	}
}

// Join puts s in its identity's room. Joining twice is a no-op; a session
// that already left cannot rejoin. Reports whether s is a member afterwards.
func (b *Broker) Join(s *Session) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return false
	}
	if s.joined {
		return true
	}
	room, ok := b.rooms[s.userID]
	if !ok {
		room = map[uint64]*Session{}
		b.rooms[s.userID] = room
	}
	room[s.id] = s
	s.joined = true
	liveSessions.Add(1)
	if b.Logger != nil {
		b.Logger.WithFields(logrus.Fields{"user_id": s.userID, "session": s.id}).Debug("presence joined")
	}
	return true
}

// Leave removes s from its room and closes its event channel. Safe to call more than once.
func (b *Broker) Leave(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.joined {
		room := b.rooms[s.userID]
		delete(room, s.id)
		if len(room) == 0 {
			delete(b.rooms, s.userID)
		}
		liveSessions.Add(-1)
	}
	close(s.events)
}

// Online returns the number of live sessions in userID's room.
func (b *Broker) Online(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[userID])
}

// DeliverMessage emits messageDelivered to the sender's and receiver's rooms,
// so the sender's other sessions see the echo too.
func (b *Broker) DeliverMessage(m entity.Message) {
	ev := Event{Type: EventMessageDelivered, Message: &m}
	b.emit(m.ReceiverID, ev)
	if m.SenderID != m.ReceiverID {
		b.emit(m.SenderID, ev)
	}
}

// PublishUnread emits unreadDelta(peerID, count) to userID's room only.
func (b *Broker) PublishUnread(userID, peerID string, count int) {
	b.emit(userID, Event{Type: EventUnreadDelta, Unread: &UnreadDelta{PeerID: peerID, Count: count}})
}

func (b *Broker) emit(userID string, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.rooms[userID] {
		select {
		case s.events <- ev:
			deliveredEvents.Add(1)
		default:
			droppedEvents.Add(1)
			if b.Logger != nil {
				b.Logger.WithFields(logrus.Fields{"user_id": userID, "session": s.id, "type": ev.Type}).Warn("presence buffer full, event dropped")
			}
		}
	}
}
