package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/asterisk/tourney/internal/database"
	"github.com/asterisk/tourney/internal/migrations"
	"github.com/asterisk/tourney/internal/tourney"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(ctx, db, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func match(id string, round, number int) tourney.Match {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return tourney.Match{
		ID:          id,
		Round:       tourney.RoundOf18,
		RoundNumber: round,
		MatchNumber: number,
		Team1:       "A" + id,
		Team2:       "B" + id,
		Team1Seed:   tourney.Seed(number),
		Status:      tourney.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMatchesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveMatches(ctx, match("c", 2, 1), match("a", 1, 2), match("b", 1, 1)); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := s.Matches(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, m := range all {
		ids = append(ids, m.ID)
	}
	if got := fmt.Sprint(ids); got != "[b a c]" {
		t.Errorf("order = %s, want [b a c]", got)
	}

	m, err := s.Match(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Team1Seed != 2 || m.Team2Seed != tourney.SeedTBD || m.Winner != nil {
		t.Errorf("decoded match = %+v", m)
	}

	winner := m.Team1
	m.Winner = &winner
	m.Status = tourney.StatusCompleted
	if err := s.SaveMatches(ctx, m); err != nil {
		t.Fatalf("update: %v", err)
	}
	m, _ = s.Match(ctx, "a")
	if !m.Decided() {
		t.Errorf("update not persisted: %+v", m)
	}

	if _, err := s.Match(ctx, "missing"); !errors.Is(err, tourney.ErrNotFound) {
		t.Errorf("missing match err = %v", err)
	}
}

func TestReplaceAndDeleteMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveMatches(ctx, match("old1", 1, 1), match("old2", 1, 2))
	if err := s.ReplaceMatches(ctx, []tourney.Match{match("new", 1, 1)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	all, _ := s.Matches(ctx)
	if len(all) != 1 || all[0].ID != "new" {
		t.Fatalf("after replace = %+v", all)
	}

	if err := s.DeleteMatch(ctx, "new"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteMatch(ctx, "new"); !errors.Is(err, tourney.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	all, _ = s.Matches(ctx)
	if len(all) != 0 {
		t.Errorf("expected empty store, got %d", len(all))
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Setting(ctx, SettingIngressServer); !errors.Is(err, tourney.ErrNotFound) {
		t.Fatalf("unset setting err = %v", err)
	}
	s.PutSetting(ctx, SettingIngressServer, "rtmp://a")
	s.PutSetting(ctx, SettingIngressServer, "rtmp://b")

	v, err := s.Setting(ctx, SettingIngressServer)
	if err != nil || v != "rtmp://b" {
		t.Errorf("setting = %q, %v", v, err)
	}
}

func TestLeaderboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.PutLapTime(ctx, tourney.LapTime{ID: "slow", Name: "Ana", Time: 71.2, Timestamp: ts})
	s.PutLapTime(ctx, tourney.LapTime{ID: "fast", Name: "Ben", Time: 64.9, Timestamp: ts})

	laps, err := s.LapTimes(ctx)
	if err != nil {
		t.Fatalf("laps: %v", err)
	}
	if len(laps) != 2 || laps[0].ID != "fast" {
		t.Errorf("laps not ordered by time: %+v", laps)
	}
	if err := s.DeleteLapTime(ctx, "fast"); err != nil {
		t.Errorf("delete lap: %v", err)
	}
	if _, err := s.LapTime(ctx, "fast"); !errors.Is(err, tourney.ErrNotFound) {
		t.Errorf("deleted lap err = %v", err)
	}

	s.PutTeamStats(ctx, tourney.TeamStats{TeamName: "EXODUS", Points: 3, Status: tourney.StandingCompeting})
	s.PutTeamStats(ctx, tourney.TeamStats{TeamName: "XLr8", Points: 9, Status: tourney.StandingQualified})
	s.PutTeamStats(ctx, tourney.TeamStats{TeamName: "EXODUS", Points: 12, Status: tourney.StandingQualified})

	stats, err := s.TeamStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 || stats[0].TeamName != "EXODUS" || stats[0].Points != 12 {
		t.Errorf("stats = %+v", stats)
	}
	if err := s.DeleteTeamStats(ctx, "nobody"); !errors.Is(err, tourney.ErrNotFound) {
		t.Errorf("delete unknown team err = %v", err)
	}
}
