// Package leaderboard keeps lap times and per-team standings shown on the
// scoreboard and the pause screen.
package leaderboard

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/tourney"
)

type Store interface {
	LapTimes(ctx context.Context) ([]tourney.LapTime, error)
	LapTime(ctx context.Context, id string) (tourney.LapTime, error)
	PutLapTime(ctx context.Context, l tourney.LapTime) error
	DeleteLapTime(ctx context.Context, id string) error
	TeamStats(ctx context.Context) ([]tourney.TeamStats, error)
	PutTeamStats(ctx context.Context, ts tourney.TeamStats) error
	DeleteTeamStats(ctx context.Context, teamName string) error
}

type Publisher interface {
	Publish(ev event.Event)
}

type LapInput struct {
	Name  string   `json:"name" validate:"required,max=100"`
	Time  *float64 `json:"time" validate:"required,gt=0"`
	Place string   `json:"place" validate:"max=100"`
}

type StatsInput struct {
	TeamName string               `json:"team_name" validate:"required,max=100"`
	Wins     int                  `json:"wins" validate:"gte=0"`
	Losses   int                  `json:"losses" validate:"gte=0"`
	Points   int                  `json:"points"`
	Status   tourney.TeamStanding `json:"status" validate:"omitempty,oneof=competing qualified eliminated"`
}

type Service struct {
	mu     sync.Mutex
	store  Store
	pub    Publisher
	authz  auth.Authorizer
	logger *slog.Logger
	now    func() time.Time
}

// New returns a leaderboard whose lap changes are published to pub.
func New(store Store, pub Publisher, authz auth.Authorizer, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		pub:    pub,
		authz:  authz,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) LapTimes(ctx context.Context) ([]tourney.LapTime, error) {
	return s.store.LapTimes(ctx)
}

func (s *Service) AddLap(ctx context.Context, in LapInput) (tourney.LapTime, error) {
	return s.saveLap(ctx, uuid.NewString(), in, false)
}

func (s *Service) UpdateLap(ctx context.Context, id string, in LapInput) (tourney.LapTime, error) {
	return s.saveLap(ctx, id, in, true)
}

func (s *Service) saveLap(ctx context.Context, id string, in LapInput, existing bool) (tourney.LapTime, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Place = strings.TrimSpace(in.Place)
	if err := validateStruct(in); err != nil {
		return tourney.LapTime{}, err
	}
	if err := s.authz.Authorize(ctx); err != nil {
		return tourney.LapTime{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing {
		if _, err := s.store.LapTime(ctx, id); err != nil {
			return tourney.LapTime{}, err
		}
	}
	lap := tourney.LapTime{ID: id, Name: in.Name, Time: *in.Time, Place: in.Place, Timestamp: s.now()}
	if err := s.store.PutLapTime(ctx, lap); err != nil {
		return tourney.LapTime{}, err
	}
	s.pub.Publish(event.LapChanged(lap))
	s.logger.Info("lap time saved", "lap_id", id, "name", lap.Name, "time", lap.Time)
	return lap, nil
}

func (s *Service) DeleteLap(ctx context.Context, id string) error {
	if err := s.authz.Authorize(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteLapTime(ctx, id); err != nil {
		return err
	}
	s.pub.Publish(event.LapUpdated{ID: id})
	s.logger.Info("lap time deleted", "lap_id", id)
	return nil
}

func (s *Service) TeamStats(ctx context.Context) ([]tourney.TeamStats, error) {
	return s.store.TeamStats(ctx)
}

// PutTeamStats creates or replaces a team's standing. Status defaults to
// competing.
func (s *Service) PutTeamStats(ctx context.Context, in StatsInput) (tourney.TeamStats, error) {
	in.TeamName = strings.TrimSpace(in.TeamName)
	if in.Status == "" {
		in.Status = tourney.StandingCompeting
	}
	if err := validateStruct(in); err != nil {
		return tourney.TeamStats{}, err
	}
	if err := s.authz.Authorize(ctx); err != nil {
		return tourney.TeamStats{}, err
	}

	ts := tourney.TeamStats{
		TeamName:  in.TeamName,
		Wins:      in.Wins,
		Losses:    in.Losses,
		Points:    in.Points,
		Status:    in.Status,
		UpdatedAt: s.now(),
	}
	if err := s.store.PutTeamStats(ctx, ts); err != nil {
		return tourney.TeamStats{}, err
	}
	s.logger.Info("team stats updated", "team", ts.TeamName, "wins", ts.Wins, "losses", ts.Losses, "points", ts.Points, "status", ts.Status)
	return ts, nil
}

func (s *Service) DeleteTeamStats(ctx context.Context, teamName string) error {
	teamName = strings.TrimSpace(teamName)
	if err := validateStruct(struct {
		TeamName string `json:"team_name" validate:"required"`
	}{teamName}); err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx); err != nil {
		return err
	}
	if err := s.store.DeleteTeamStats(ctx, teamName); err != nil {
		return err
	}
	s.logger.Info("team stats deleted", "team", teamName)
	return nil
}
