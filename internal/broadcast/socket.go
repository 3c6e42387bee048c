package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/asterisk/tourney/internal/event"
)

// InboundFunc receives text messages sent by a WebSocket viewer.
type InboundFunc func(ctx context.Context, viewerID string, payload []byte)

// Socket serves a Hub to WebSocket viewers. Delivery mirrors Stream; in
// addition, text messages from the viewer are handed to the inbound func.
type Socket struct {
	hub     *Hub
	logger  *slog.Logger
	inbound InboundFunc
}

func NewSocket(hub *Hub, logger *slog.Logger, inbound InboundFunc) *Socket {
	return &Socket{hub: hub, logger: logger, inbound: inbound}
}

func (s *Socket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	sub := s.hub.Subscribe()
	logger := s.logger.With("hub", s.hub.Name(), "subscriber", sub.ID())
	defer func() {
		s.hub.Unsubscribe(sub)
		s.hub.Publish(event.ViewerCount{Count: s.hub.Len()})
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}
			if typ == websocket.MessageText && s.inbound != nil {
				s.inbound(ctx, sub.ID(), msg)
			}
		}
	}()

	send := func(m event.Message) error {
		wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
		defer wcancel()
		return conn.Write(wctx, websocket.MessageText, m.WebSocketText())
	}

	hello, _ := event.Encode(event.Connected{ViewerID: sub.ID()})
	if err := send(hello); err != nil {
		logger.Debug("websocket write failed", "error", err)
		return
	}
	s.hub.Publish(event.ViewerCount{Count: s.hub.Len()})

	for {
		m, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			return
		}
		if err := send(m); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}
