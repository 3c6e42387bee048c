package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/database"
	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/migrations"
	"github.com/asterisk/tourney/internal/storage"
	"github.com/asterisk/tourney/internal/tourney"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rec := &recorder{}
	return New(storage.New(db), rec, auth.AllowAll, logger), rec
}

func ptr[T any](v T) *T { return &v }

func TestLapLifecycle(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	lap, err := svc.AddLap(ctx, LapInput{Name: " Ana ", Time: ptr(71.25), Place: "Pit 2"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if lap.ID == "" || lap.Name != "Ana" {
		t.Errorf("added lap = %+v", lap)
	}
	ev, ok := rec.events[0].(event.LapUpdated)
	if !ok || ev.ID != lap.ID || ev.Time == nil || *ev.Time != 71.25 {
		t.Errorf("published %#v", rec.events[0])
	}

	if _, err := svc.UpdateLap(ctx, lap.ID, LapInput{Name: "Ana", Time: ptr(64.5)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	svc.AddLap(ctx, LapInput{Name: "Ben", Time: ptr(66.0)})

	laps, _ := svc.LapTimes(ctx)
	if len(laps) != 2 || laps[0].ID != lap.ID || laps[0].Time != 64.5 {
		t.Errorf("laps = %+v", laps)
	}

	if _, err := svc.UpdateLap(ctx, "missing", LapInput{Name: "X", Time: ptr(1.0)}); !errors.Is(err, tourney.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}

	if err := svc.DeleteLap(ctx, lap.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	last := rec.events[len(rec.events)-1].(event.LapUpdated)
	if last.ID != lap.ID || last.Time != nil {
		t.Errorf("delete published %#v", last)
	}
}

func TestLapValidation(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    LapInput
		field string
	}{
		{"missing name", LapInput{Name: "  ", Time: ptr(1.0)}, "name is required"},
		{"missing time", LapInput{Name: "Ana"}, "time is required"},
		{"zero time", LapInput{Name: "Ana", Time: ptr(0.0)}, "time must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddLap(ctx, tt.in)
			if !errors.Is(err, tourney.ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("err = %q, want mention of %q", err, tt.field)
			}
		})
	}
	if len(rec.events) != 0 {
		t.Errorf("invalid laps published %d events", len(rec.events))
	}
}

func TestTeamStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ts, err := svc.PutTeamStats(ctx, StatsInput{TeamName: "EXODUS", Wins: 2, Points: 6})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ts.Status != tourney.StandingCompeting {
		t.Errorf("default status = %q", ts.Status)
	}
	svc.PutTeamStats(ctx, StatsInput{TeamName: "XLr8", Wins: 3, Points: 9, Status: tourney.StandingQualified})

	all, _ := svc.TeamStats(ctx)
	if len(all) != 2 || all[0].TeamName != "XLr8" {
		t.Errorf("stats = %+v", all)
	}

	if _, err := svc.PutTeamStats(ctx, StatsInput{TeamName: "EXODUS", Status: "retired"}); !errors.Is(err, tourney.ErrInvalidArgument) {
		t.Errorf("bad status err = %v", err)
	}
	if _, err := svc.PutTeamStats(ctx, StatsInput{TeamName: "EXODUS", Wins: -1}); !errors.Is(err, tourney.ErrInvalidArgument) {
		t.Errorf("negative wins err = %v", err)
	}

	if err := svc.DeleteTeamStats(ctx, "EXODUS"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteTeamStats(ctx, "EXODUS"); !errors.Is(err, tourney.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if err := svc.DeleteTeamStats(ctx, ""); !errors.Is(err, tourney.ErrInvalidArgument) {
		t.Errorf("empty name err = %v", err)
	}
}
