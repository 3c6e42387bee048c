// Package broadcast fans events out to long-lived viewer connections.
//
// A Hub owns a registry of Subscribers. Publish encodes an event once and
// appends it to every subscriber's queue; each connection drains its own
// queue on its own goroutine, so a slow viewer never stalls the others.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/metrics"
)

type Hub struct {
	name   string
	logger *slog.Logger

	// pubMu orders publishes so every subscriber sees the same sequence.
	pubMu sync.Mutex

	mu      sync.RWMutex
	subs    map[string]*Subscriber
	closed  bool
	forward func(event.Message)
}

func NewHub(name string, logger *slog.Logger) *Hub {
	return &Hub{
		name:   name,
		logger: logger.With("hub", name),
		subs:   make(map[string]*Subscriber),
	}
}

func (h *Hub) Name() string { return h.name }

// Subscribe registers a new subscriber. After Close it returns a subscriber
// that is already closed.
func (h *Hub) Subscribe() *Subscriber {
	s := newSubscriber()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.close()
		return s
	}
	h.subs[s.id] = s
	n := len(h.subs)
	h.mu.Unlock()

	metrics.HubSubscribers.WithLabelValues(h.name).Set(float64(n))
	h.logger.Info("subscriber connected", "subscriber", s.id, "subscribers", n)
	return s
}

// Unsubscribe removes s and releases its queue. Safe to call more than once
// and concurrently with Publish.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.remove(s, false)
}

func (h *Hub) remove(s *Subscriber, dropped bool) {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	n := len(h.subs)
	h.mu.Unlock()

	s.close()
	if !ok {
		return
	}

	metrics.HubSubscribers.WithLabelValues(h.name).Set(float64(n))
	if dropped {
		metrics.HubSubscribersDropped.WithLabelValues(h.name).Inc()
	}
	h.logger.Info("subscriber removed", "subscriber", s.id, "dropped", dropped, "subscribers", n)
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) snapshot() []*Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	return subs
}

// Publish delivers ev to every subscriber registered when the publish
// starts. It never blocks on a subscriber and never fails: subscribers that
// cannot accept the event are removed.
func (h *Hub) Publish(ev event.Event) {
	msg, err := event.Encode(ev)
	if err != nil {
		h.logger.Error("dropping unencodable event", "kind", ev.Kind(), "error", err)
		return
	}
	h.Deliver(msg)

	h.mu.RLock()
	forward := h.forward
	h.mu.RUnlock()
	if forward != nil {
		forward(msg)
	}
}

// Deliver fans out an already encoded message. Messages arriving from other
// instances come in here so they are not forwarded again.
func (h *Hub) Deliver(msg event.Message) {
	h.pubMu.Lock()
	var dead []*Subscriber
	for _, s := range h.snapshot() {
		if !s.enqueue(msg) {
			dead = append(dead, s)
		}
	}
	h.pubMu.Unlock()

	for _, s := range dead {
		h.remove(s, true)
	}

	metrics.HubEventsPublished.WithLabelValues(h.name, string(msg.Kind)).Inc()
	h.logger.Info("event published", "kind", msg.Kind, "subscribers", h.Len())
}

// OnPublish registers fn to receive every locally published message after
// local delivery. fn must not block.
func (h *Hub) OnPublish(fn func(event.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forward = fn
}

// Close discards every subscriber, ending their sessions, and rejects new
// ones. Called once at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
	metrics.HubSubscribers.WithLabelValues(h.name).Set(0)
	h.logger.Info("hub closed", "released", len(subs))
}
