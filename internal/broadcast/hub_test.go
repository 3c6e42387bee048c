package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/asterisk/tourney/internal/event"
)

func slogDiscard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newTestHub() *Hub {
	return NewHub("test", slogDiscard())
}

func next(t *testing.T, s *Subscriber) event.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	m, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return m
}

func TestPublishOrderPerSubscriber(t *testing.T) {
	h := newTestHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish(event.MatchDeleted{MatchID: "e1"})
	h.Publish(event.MatchDeleted{MatchID: "e2"})

	for _, s := range []*Subscriber{a, b} {
		first, second := next(t, s), next(t, s)
		if string(first.Data) != `{"match_id":"e1"}` || string(second.Data) != `{"match_id":"e2"}` {
			t.Errorf("subscriber %s got %s then %s", s.ID(), first.Data, second.Data)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := newTestHub()
	slow := h.Subscribe()
	fast := h.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := range 1000 {
			h.Publish(event.MatchDeleted{MatchID: fmt.Sprint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on an undrained subscriber")
	}

	if got := slow.Pending(); got != 1000 {
		t.Errorf("slow subscriber pending = %d, want 1000", got)
	}
	for i := range 1000 {
		m := next(t, fast)
		if want := fmt.Sprintf(`{"match_id":"%d"}`, i); string(m.Data) != want {
			t.Fatalf("message %d = %s, want %s", i, m.Data, want)
		}
	}
}

func TestDisconnectDuringPublish(t *testing.T) {
	h := newTestHub()

	const n = 50
	subs := make([]*Subscriber, n)
	for i := range subs {
		subs[i] = h.Subscribe()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i += 2 {
			h.Unsubscribe(subs[i])
		}
	}()
	go func() {
		defer wg.Done()
		h.Publish(event.BracketInitialized{MatchesCount: 9})
	}()
	wg.Wait()

	for i := 1; i < n; i += 2 {
		m := next(t, subs[i])
		if m.Kind != event.KindBracketInitialized {
			t.Errorf("subscriber %d got %s", i, m.Kind)
		}
	}
	if got := h.Len(); got != n/2 {
		t.Errorf("Len = %d, want %d", got, n/2)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := newTestHub()
	s := h.Subscribe()

	h.Unsubscribe(s)
	h.Unsubscribe(s)

	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.Len())
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Next after unsubscribe = %v, want ErrClosed", err)
	}

	// Publishing to an empty hub is a no-op.
	h.Publish(event.MatchDeleted{MatchID: "x"})
}

func TestClosedSubscriberIsDroppedOnPublish(t *testing.T) {
	h := newTestHub()
	dead := h.Subscribe()
	live := h.Subscribe()

	dead.close()
	h.Publish(event.MatchDeleted{MatchID: "x"})

	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
	if m := next(t, live); m.Kind != event.KindMatchDeleted {
		t.Errorf("live subscriber got %s", m.Kind)
	}
}

func TestNextCancellation(t *testing.T) {
	h := newTestHub()
	s := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.Next(ctx)
		errc <- err
	}()

	// A publish must not be held up by the waiting reader.
	h.Publish(event.MatchDeleted{MatchID: "x"})
	if err := <-errc; err != nil {
		t.Fatalf("Next = %v, want message", err)
	}

	go func() {
		_, err := s.Next(ctx)
		errc <- err
	}()
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Next after cancel = %v", err)
	}
}

func TestHubClose(t *testing.T) {
	h := newTestHub()
	s := h.Subscribe()

	h.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("subscriber not closed by hub shutdown")
	}

	late := h.Subscribe()
	if _, err := late.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("subscribe after close: Next = %v, want ErrClosed", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}
}

func TestDeliverSkipsForwarding(t *testing.T) {
	h := newTestHub()
	s := h.Subscribe()

	var forwarded []event.Kind
	h.OnPublish(func(m event.Message) { forwarded = append(forwarded, m.Kind) })

	h.Publish(event.MatchDeleted{MatchID: "local"})
	h.Deliver(event.Message{Kind: event.KindMatchDeleted, Data: []byte(`{"match_id":"remote"}`)})

	if got := string(next(t, s).Data); got != `{"match_id":"local"}` {
		t.Errorf("first = %s", got)
	}
	if got := string(next(t, s).Data); got != `{"match_id":"remote"}` {
		t.Errorf("second = %s", got)
	}
	if len(forwarded) != 1 || forwarded[0] != event.KindMatchDeleted {
		t.Errorf("forwarded = %v, want only the local publish", forwarded)
	}
}
