package storage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/asterisk/tourney/internal/tourney"
)

// LapTimes returns laps fastest first.
func (s *Store) LapTimes(ctx context.Context) ([]tourney.LapTime, error) {
	laps, err := list[tourney.LapTime](ctx, s.db, `SELECT json(data) FROM lap_times ORDER BY time, id`)
	if err != nil {
		return nil, fmt.Errorf("listing lap times: %w", err)
	}
	return laps, nil
}

func (s *Store) LapTime(ctx context.Context, id string) (tourney.LapTime, error) {
	l, err := get[tourney.LapTime](ctx, s.db, `SELECT json(data) FROM lap_times WHERE id = ?`, id)
	if err != nil {
		return l, fmt.Errorf("lap time %s: %w", id, err)
	}
	return l, nil
}

func (s *Store) PutLapTime(ctx context.Context, l tourney.LapTime) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lap_times (id, time, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET time = excluded.time, data = excluded.data`,
		l.ID, l.Time, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving lap time %s: %w", l.ID, err)
	}
	return nil
}

func (s *Store) DeleteLapTime(ctx context.Context, id string) error {
	if err := del(ctx, s.db, `DELETE FROM lap_times WHERE id = ?`, id); err != nil {
		return fmt.Errorf("lap time %s: %w", id, err)
	}
	return nil
}

// TeamStats returns standings by points, highest first.
func (s *Store) TeamStats(ctx context.Context) ([]tourney.TeamStats, error) {
	stats, err := list[tourney.TeamStats](ctx, s.db, `SELECT json(data) FROM team_stats ORDER BY points DESC, team_name`)
	if err != nil {
		return nil, fmt.Errorf("listing team stats: %w", err)
	}
	return stats, nil
}

func (s *Store) PutTeamStats(ctx context.Context, ts tourney.TeamStats) error {
	data, err := json.Marshal(ts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO team_stats (team_name, points, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(team_name) DO UPDATE SET points = excluded.points, data = excluded.data`,
		ts.TeamName, ts.Points, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving team stats %s: %w", ts.TeamName, err)
	}
	return nil
}

func (s *Store) DeleteTeamStats(ctx context.Context, teamName string) error {
	if err := del(ctx, s.db, `DELETE FROM team_stats WHERE team_name = ?`, teamName); err != nil {
		return fmt.Errorf("team stats %s: %w", teamName, err)
	}
	return nil
}
