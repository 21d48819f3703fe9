// Package presence fans check-in events out to live subscribers, such as the
// court map websocket.
package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/sirupsen/logrus"
)

// Message types sent to subscribers.
const (
	TypeSnapshot = "snapshot"
	TypeCheckIn  = "checkin"
)

// Message is one frame of the presence stream.
type Message struct {
	Type         string               `json:"type"`
	PlayerCounts map[string]int       `json:"player_counts,omitempty"`
	Event        *models.CheckInEvent `json:"event,omitempty"`
}

// Subscriber receives messages on C until it is unsubscribed or dropped, at
// which point C is closed.
type Subscriber struct {
	ID string
	C  <-chan Message

	out chan Message
}

// Hub keeps the set of live subscribers. It implements directory.Publisher.
type Hub struct {
	logger logrus.FieldLogger
	buffer int

	mu   sync.Mutex
	subs map[string]*Subscriber
}

// NewHub returns a hub whose subscribers buffer up to buffer messages before
// they are considered too slow and dropped.
func NewHub(logger logrus.FieldLogger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{logger: logger, buffer: buffer, subs: make(map[string]*Subscriber)}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	out := make(chan Message, h.buffer)
	s := &Subscriber{ID: uuid.NewString(), C: out, out: out}

	h.mu.Lock()
	h.subs[s.ID] = s
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(s.ID)
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// PublishCheckIn delivers ev to every subscriber without blocking. A
// subscriber whose buffer is full is dropped.
func (h *Hub) PublishCheckIn(ctx context.Context, ev models.CheckInEvent) error {
	msg := Message{Type: TypeCheckIn, PlayerCounts: ev.PlayerCounts, Event: &ev}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		select {
		case s.out <- msg:
		default:
			h.logger.WithField("subscriber", id).Warn("dropping slow presence subscriber")
			h.remove(id)
		}
	}
	return nil
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.subs {
		h.remove(id)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(id string) {
	s, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(s.out)
}
