// Package health serves /healthz: dependency checks plus live subscriber
// counts for each broadcast hub.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Counter reports a gauge shown next to the checks, such as connected viewers.
type Counter interface {
	Len() int
}

type Handler struct {
	checks map[string]Checker
	counts map[string]Counter
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker, counts map[string]Counter) *Handler {
	return &Handler{checks: checks, counts: counts, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type Result struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type Response struct {
	Status      string            `json:"status"`
	Checks      map[string]Result `json:"checks"`
	Subscribers map[string]int    `json:"subscribers,omitempty"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := Response{
		Status: "ok",
		Checks: make(map[string]Result, len(h.checks)),
	}
	status := http.StatusOK

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, c := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Check(ctx)
			res := Result{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				res.Status = "error"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
			resp.Checks[name] = res
			return nil
		})
	}
	g.Wait()

	if len(h.counts) > 0 {
		resp.Subscribers = make(map[string]int, len(h.counts))
		for name, c := range h.counts {
			resp.Subscribers[name] = c.Len()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
