package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/broadcast"
	"github.com/asterisk/tourney/internal/leaderboard"
	"github.com/asterisk/tourney/internal/overlay"
)

// Deps is everything the HTTP surface serves.
type Deps struct {
	Bracket     *bracket.Service
	Overlay     *overlay.Controller
	Leaderboard *leaderboard.Service

	// BracketHub feeds the scoreboard stream, OverlayHub the viewer streams.
	BracketHub *broadcast.Hub
	OverlayHub *broadcast.Hub

	// Health is mounted at /healthz when set.
	Health http.Handler

	PingInterval time.Duration
	CORSOrigins  []string
	// ChatRateLimit is the number of chat messages one IP may send per
	// minute. Zero disables the limit.
	ChatRateLimit int
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, logger *slog.Logger, deps Deps) *Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(logger, deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Streams never go idle, so Shutdown would wait out its timeout unless
	// the hubs release them.
	for _, h := range []*broadcast.Hub{deps.BracketHub, deps.OverlayHub} {
		if h != nil {
			srv.RegisterOnShutdown(h.Close)
		}
	}
	return &Server{srv: srv, logger: logger}
}

func newRouter(logger *slog.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.Header},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(withCredential)

	addRoutes(r, logger, deps)
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes both hubs, ending every
// open stream.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
