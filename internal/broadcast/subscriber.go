package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/asterisk/tourney/internal/event"
)

// ErrClosed is returned by Next once the hub has discarded the subscriber.
var ErrClosed = errors.New("subscriber closed")

// Subscriber is one viewer's registration on a Hub. Its queue is unbounded,
// so enqueueing never blocks the publisher.
type Subscriber struct {
	id string

	mu     sync.Mutex
	queue  []event.Message
	closed bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		id:   uuid.NewString(),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *Subscriber) ID() string { return s.id }

// Done is closed when the subscriber has been discarded.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Pending returns the number of queued, undelivered messages.
func (s *Subscriber) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Subscriber) enqueue(m event.Message) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, m)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Subscriber) pop() (event.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return event.Message{}, false
	}
	m := s.queue[0]
	s.queue[0] = event.Message{}
	s.queue = s.queue[1:]
	return m, true
}

// Next blocks until a message is queued, the subscriber is closed, or ctx
// is done. No lock is held while waiting.
func (s *Subscriber) Next(ctx context.Context) (event.Message, error) {
	for {
		if m, ok := s.pop(); ok {
			return m, nil
		}
		select {
		case <-ctx.Done():
			return event.Message{}, ctx.Err()
		case <-s.done:
			return event.Message{}, ErrClosed
		case <-s.wake:
		}
	}
}

// close marks the subscriber dead and releases its queue.
func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
	})
}
