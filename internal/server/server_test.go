package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/broadcast"
	"github.com/asterisk/tourney/internal/database"
	"github.com/asterisk/tourney/internal/leaderboard"
	"github.com/asterisk/tourney/internal/migrations"
	"github.com/asterisk/tourney/internal/overlay"
	"github.com/asterisk/tourney/internal/storage"
	"github.com/asterisk/tourney/internal/tourney"
)

const testToken = "letmein"

type testServer struct {
	t          *testing.T
	handler    http.Handler
	bracketHub *broadcast.Hub
	overlayHub *broadcast.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db, logger); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	store := storage.New(db)

	pw, err := auth.NewPassword(testToken, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	bracketHub := broadcast.NewHub("bracket", logger)
	overlayHub := broadcast.NewHub("overlay", logger)
	t.Cleanup(bracketHub.Close)
	t.Cleanup(overlayHub.Close)

	deps := Deps{
		Bracket:       bracket.New(store, bracketHub, pw, logger, bracket.Config{}),
		Overlay:       overlay.New(overlayHub, bracketHub, store, pw, logger),
		Leaderboard:   leaderboard.New(store, bracketHub, pw, logger),
		BracketHub:    bracketHub,
		OverlayHub:    overlayHub,
		PingInterval:  time.Second,
		CORSOrigins:   []string{"*"},
		ChatRateLimit: 3,
	}
	return &testServer{
		t:          t,
		handler:    newRouter(logger, deps),
		bracketHub: bracketHub,
		overlayHub: overlayHub,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("encoding body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.Header, token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{"not found", fmt.Errorf("%w: match x", tourney.ErrNotFound), http.StatusNotFound, "not found: match x"},
		{"invalid", fmt.Errorf("%w: bad slot", tourney.ErrInvalidArgument), http.StatusBadRequest, "invalid argument: bad slot"},
		{"unauthorized", fmt.Errorf("%w: missing credential", tourney.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{"conflict", fmt.Errorf("%w: completed", tourney.ErrConflict), http.StatusConflict, "conflict: completed"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			writeServiceError(w, r, slog.New(slog.DiscardHandler), tt.err)

			expectStatus(t, w, tt.want)
			if got := decode[ErrorResponse](t, w).Error; got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/update-score", strings.NewReader("{not json"))
	req.Header.Set(auth.Header, testToken)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusBadRequest)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/update-score", nil)
	req.Header.Set("Origin", "https://console.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", auth.Header)
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, auth.Header) {
		t.Errorf("allow-headers = %q, want %s", got, auth.Header)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(http.MethodGet, "/api/matches", "", nil)

	w := srv.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "tourney_http_request_duration_seconds") {
		t.Error("metrics missing request duration histogram")
	}
}
