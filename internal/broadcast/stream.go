package broadcast

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/asterisk/tourney/internal/event"
)

const (
	writeTimeout = 10 * time.Second
	defaultPing  = 30 * time.Second
)

// State is the lifecycle of one streaming session.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// Stream serves a Hub to Server-Sent Events clients. Each request becomes
// one Subscriber drained by the request goroutine.
type Stream struct {
	hub    *Hub
	logger *slog.Logger
	ping   time.Duration

	// named selects "event: kind" framing instead of {"type","data"} bodies.
	named bool
	// announce republishes the viewer count whenever membership changes.
	announce bool
}

// NewScoreboardStream streams bracket updates as JSON-only data frames.
func NewScoreboardStream(hub *Hub, logger *slog.Logger, ping time.Duration) *Stream {
	return &Stream{hub: hub, logger: logger, ping: pingOrDefault(ping)}
}

// NewViewerStream streams overlay events as named frames and keeps every
// viewer informed of the current viewer count.
func NewViewerStream(hub *Hub, logger *slog.Logger, ping time.Duration) *Stream {
	return &Stream{hub: hub, logger: logger, ping: pingOrDefault(ping), named: true, announce: true}
}

func pingOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultPing
	}
	return d
}

func (st *Stream) frame(m event.Message) []byte {
	if st.named {
		return m.NamedFrame()
	}
	return m.DataFrame()
}

func (st *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	state := StateConnecting
	sub := st.hub.Subscribe()
	logger := st.logger.With("hub", st.hub.Name(), "subscriber", sub.ID())

	reason := "client gone"
	defer func() {
		state = StateClosed
		st.hub.Unsubscribe(sub)
		if st.announce {
			st.hub.Publish(event.ViewerCount{Count: st.hub.Len()})
		}
		logger.Debug("stream closed", "state", state, "reason", reason)
	}()

	write := func(b []byte) error {
		if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		_, err := w.Write(b)
		return err
	}

	confirm := event.ConnectedFrame
	if st.named {
		msg, _ := event.Encode(event.Connected{ViewerID: sub.ID()})
		confirm = msg.NamedFrame()
	}
	if err := write(confirm); err != nil {
		reason = "write failed"
		return
	}
	if err := rc.Flush(); err != nil {
		reason = "flush failed"
		return
	}
	state = StateOpen
	logger.Debug("stream open", "state", state)

	if st.announce {
		st.hub.Publish(event.ViewerCount{Count: st.hub.Len()})
	}

	ping := time.NewTicker(st.ping)
	defer ping.Stop()

	for {
		wrote := false
		for {
			m, ok := sub.pop()
			if !ok {
				break
			}
			if err := write(st.frame(m)); err != nil {
				reason = "write failed"
				logger.Debug("stream write failed", "error", err)
				return
			}
			wrote = true
		}
		if wrote {
			if err := rc.Flush(); err != nil {
				reason = "flush failed"
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			reason = "discarded by hub"
			return
		case <-sub.wake:
		case <-ping.C:
			if err := write([]byte(": ping\n\n")); err != nil {
				reason = "write failed"
				return
			}
			if err := rc.Flush(); err != nil {
				reason = "flush failed"
				return
			}
		}
	}
}
