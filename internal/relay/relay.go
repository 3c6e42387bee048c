// Package relay links the broadcast hubs of several console instances through
// Redis pub/sub, so a viewer connected to any instance sees every event.
//
// Delivery stays best-effort: when Redis is slow or down, events still reach
// local viewers and remote copies are dropped.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/asterisk/tourney/internal/broadcast"
	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/metrics"
)

const (
	channelPrefix = "tourney:hub:"
	queueSize     = 1024
)

type envelope struct {
	Origin string          `json:"origin"`
	Kind   event.Kind      `json:"kind"`
	Data   json.RawMessage `json:"data"`
}

type outbound struct {
	hub     string
	channel string
	payload []byte
}

type Relay struct {
	rdb    *redis.Client
	origin string
	logger *slog.Logger

	hubs  map[string]*broadcast.Hub
	out   chan outbound
	ready chan struct{}
}

func New(rdb *redis.Client, logger *slog.Logger) *Relay {
	origin := uuid.NewString()
	return &Relay{
		rdb:    rdb,
		origin: origin,
		logger: logger.With("component", "relay", "origin", origin),
		hubs:   make(map[string]*broadcast.Hub),
		out:    make(chan outbound, queueSize),
		ready:  make(chan struct{}),
	}
}

// Open connects to the Redis server at rawURL.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// Attach mirrors h across instances. Call before Run.
func (r *Relay) Attach(h *broadcast.Hub) {
	name := h.Name()
	channel := channelPrefix + name
	r.hubs[channel] = h

	h.OnPublish(func(m event.Message) {
		if instanceLocal(m.Kind) {
			return
		}
		payload, err := json.Marshal(envelope{Origin: r.origin, Kind: m.Kind, Data: m.Data})
		if err != nil {
			r.logger.Error("encoding relay envelope", "hub", name, "kind", m.Kind, "error", err)
			return
		}
		select {
		case r.out <- outbound{hub: name, channel: channel, payload: payload}:
		default:
			metrics.RelayDropped.WithLabelValues(name).Inc()
			r.logger.Warn("relay queue full, event not relayed", "hub", name, "kind", m.Kind)
		}
	})
}

// instanceLocal reports kinds that describe this instance's own viewers.
func instanceLocal(k event.Kind) bool {
	return k == event.KindConnected || k == event.KindViewerCount
}

// Ready is closed once the relay is subscribed to every attached hub.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Check reports whether Redis is reachable.
func (r *Relay) Check(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Run relays events until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	channels := make([]string, 0, len(r.hubs))
	for ch := range r.hubs {
		channels = append(channels, ch)
	}

	pubsub := r.rdb.Subscribe(ctx, channels...)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to relay channels: %w", err)
	}
	close(r.ready)
	r.logger.Info("relay subscribed", "channels", channels)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case o := <-r.out:
				if err := r.rdb.Publish(gctx, o.channel, o.payload).Err(); err != nil {
					if gctx.Err() != nil {
						return nil
					}
					metrics.RelayDropped.WithLabelValues(o.hub).Inc()
					r.logger.Warn("relay publish failed", "hub", o.hub, "error", err)
					continue
				}
				metrics.RelayMessages.WithLabelValues(o.hub, "out").Inc()
			}
		}
	})

	g.Go(func() error {
		msgs := pubsub.Channel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case m, ok := <-msgs:
				if !ok {
					return nil
				}
				r.receive(m)
			}
		}
	})

	return g.Wait()
}

func (r *Relay) receive(m *redis.Message) {
	h, ok := r.hubs[m.Channel]
	if !ok {
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
		r.logger.Warn("discarding malformed relay message", "channel", m.Channel, "error", err)
		return
	}
	if env.Origin == r.origin {
		return
	}
	metrics.RelayMessages.WithLabelValues(h.Name(), "in").Inc()
	h.Deliver(event.Message{Kind: env.Kind, Data: env.Data})
}
