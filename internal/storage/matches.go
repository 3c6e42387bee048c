package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/asterisk/tourney/internal/tourney"
)

// Matches returns every match ordered by round then match number.
func (s *Store) Matches(ctx context.Context) ([]tourney.Match, error) {
	ms, err := list[tourney.Match](ctx, s.db,
		`SELECT json(data) FROM matches ORDER BY round_number, match_number, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	return ms, nil
}

func (s *Store) Match(ctx context.Context, id string) (tourney.Match, error) {
	m, err := get[tourney.Match](ctx, s.db, `SELECT json(data) FROM matches WHERE id = ?`, id)
	if err != nil {
		return m, fmt.Errorf("match %s: %w", id, err)
	}
	return m, nil
}

// SaveMatches upserts ms atomically.
func (s *Store) SaveMatches(ctx context.Context, ms ...tourney.Match) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, m := range ms {
			if err := putMatch(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceMatches deletes every match and inserts ms in one transaction.
func (s *Store) ReplaceMatches(ctx context.Context, ms []tourney.Match) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches`); err != nil {
			return fmt.Errorf("purging matches: %w", err)
		}
		for _, m := range ms {
			if err := putMatch(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	if err := del(ctx, s.db, `DELETE FROM matches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("match %s: %w", id, err)
	}
	return nil
}

func putMatch(ctx context.Context, q queryer, m tourney.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO matches (id, round_number, match_number, status, data) VALUES (?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET round_number = excluded.round_number,
		   match_number = excluded.match_number, status = excluded.status, data = excluded.data`,
		m.ID, m.RoundNumber, m.MatchNumber, string(m.Status), string(data),
	)
	if err != nil {
		return fmt.Errorf("saving match %s: %w", m.ID, err)
	}
	return nil
}
