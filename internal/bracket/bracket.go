// Package bracket owns the match collection and the rules for moving teams
// through the tournament: activation, results, round advancement and the
// best-loser qualifier.
//
// Every mutation is authorized, serialized by one mutex, committed to the
// repository in a single transaction and then published to the bracket hub
// while the lock is still held, so viewers see events in commit order.
package bracket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/tourney"
)

type Repository interface {
	Matches(ctx context.Context) ([]tourney.Match, error)
	Match(ctx context.Context, id string) (tourney.Match, error)
	SaveMatches(ctx context.Context, ms ...tourney.Match) error
	ReplaceMatches(ctx context.Context, ms []tourney.Match) error
	DeleteMatch(ctx context.Context, id string) error
}

// Publisher receives every committed bracket event.
type Publisher interface {
	Publish(ev event.Event)
}

type Config struct {
	// QualifierRound names the round whose losers compete for the best-loser
	// slot. Initialization creates matches under this name.
	QualifierRound string
	// QualifierMatches is how many qualifier matches must complete before
	// the quarterfinals are ready.
	QualifierMatches int
}

type Service struct {
	mu     sync.Mutex
	repo   Repository
	pub    Publisher
	authz  auth.Authorizer
	logger *slog.Logger
	cfg    Config

	now   func() time.Time
	newID func() string
}

func New(repo Repository, pub Publisher, authz auth.Authorizer, logger *slog.Logger, cfg Config) *Service {
	if cfg.QualifierRound == "" {
		cfg.QualifierRound = tourney.RoundOf18
	}
	if cfg.QualifierMatches <= 0 {
		cfg.QualifierMatches = 9
	}
	return &Service{
		repo:   repo,
		pub:    pub,
		authz:  authz,
		logger: logger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// mutate runs fn as one serialized, authorized step.
func (s *Service) mutate(ctx context.Context, fn func() error) error {
	if err := s.authz.Authorize(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Service) Matches(ctx context.Context) ([]tourney.Match, error) {
	return s.repo.Matches(ctx)
}

// MatchInput describes a match created by hand.
type MatchInput struct {
	Round       string         `json:"round"`
	RoundNumber int            `json:"round_number"`
	MatchNumber int            `json:"match_number"`
	Team1       string         `json:"team1"`
	Team2       string         `json:"team2"`
	Team1Seed   tourney.Seed   `json:"team1_seed"`
	Team2Seed   tourney.Seed   `json:"team2_seed"`
	Status      tourney.Status `json:"status,omitempty"`
	Court       string         `json:"court,omitempty"`
	TimeSlot    string         `json:"time_slot,omitempty"`
}

func (s *Service) Create(ctx context.Context, in MatchInput) (tourney.Match, error) {
	if in.Status == "" {
		in.Status = tourney.StatusPending
	}
	if !in.Status.Valid() {
		return tourney.Match{}, fmt.Errorf("%w: unknown status %q", tourney.ErrInvalidArgument, in.Status)
	}
	if in.Status == tourney.StatusCompleted {
		return tourney.Match{}, fmt.Errorf("%w: a new match cannot start completed", tourney.ErrInvalidArgument)
	}
	if in.RoundNumber < 0 || in.MatchNumber < 0 {
		return tourney.Match{}, fmt.Errorf("%w: round and match numbers must not be negative", tourney.ErrInvalidArgument)
	}

	var m tourney.Match
	err := s.mutate(ctx, func() error {
		now := s.now()
		m = tourney.Match{
			ID:          s.newID(),
			Round:       in.Round,
			RoundNumber: in.RoundNumber,
			MatchNumber: in.MatchNumber,
			Team1:       in.Team1,
			Team2:       in.Team2,
			Team1Seed:   in.Team1Seed,
			Team2Seed:   in.Team2Seed,
			Status:      in.Status,
			Court:       in.Court,
			TimeSlot:    in.TimeSlot,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.SaveMatches(ctx, m); err != nil {
			return err
		}
		s.pub.Publish(event.MatchCreated{Match: m})
		return nil
	})
	if err != nil {
		return tourney.Match{}, err
	}
	s.logger.Info("match created", "match_id", m.ID, "round", m.Round, "match_number", m.MatchNumber)
	return m, nil
}

// MatchPatch lists the fields an update may change. Nil fields are left
// alone; an empty Winner clears the result.
type MatchPatch struct {
	Round       *string         `json:"round"`
	RoundNumber *int            `json:"round_number"`
	MatchNumber *int            `json:"match_number"`
	Team1       *string         `json:"team1"`
	Team2       *string         `json:"team2"`
	Team1Seed   *tourney.Seed   `json:"team1_seed"`
	Team2Seed   *tourney.Seed   `json:"team2_seed"`
	Team1Score  *int            `json:"team1_score"`
	Team2Score  *int            `json:"team2_score"`
	Winner      *string         `json:"winner"`
	Status      *tourney.Status `json:"status"`
	Court       *string         `json:"court"`
	TimeSlot    *string         `json:"time_slot"`
}

func (p MatchPatch) apply(m *tourney.Match) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&m.Round, p.Round)
	set(&m.Team1, p.Team1)
	set(&m.Team2, p.Team2)
	set(&m.Court, p.Court)
	set(&m.TimeSlot, p.TimeSlot)
	if p.RoundNumber != nil {
		m.RoundNumber = *p.RoundNumber
	}
	if p.MatchNumber != nil {
		m.MatchNumber = *p.MatchNumber
	}
	if p.Team1Seed != nil {
		m.Team1Seed = *p.Team1Seed
	}
	if p.Team2Seed != nil {
		m.Team2Seed = *p.Team2Seed
	}
	if p.Team1Score != nil {
		m.Team1Score = *p.Team1Score
	}
	if p.Team2Score != nil {
		m.Team2Score = *p.Team2Score
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return fmt.Errorf("%w: unknown status %q", tourney.ErrInvalidArgument, *p.Status)
		}
		m.Status = *p.Status
	}
	if m.Team1Score < 0 || m.Team2Score < 0 {
		return fmt.Errorf("%w: scores must not be negative", tourney.ErrInvalidArgument)
	}

	switch {
	case p.Winner != nil && *p.Winner == "":
		m.Winner, m.WinnerSeed, m.WinnerTeam = nil, nil, ""
	case p.Winner != nil:
		slot, ok := slotOf(*m, *p.Winner)
		if !ok {
			return fmt.Errorf("%w: winner %q is not playing in this match", tourney.ErrInvalidArgument, *p.Winner)
		}
		setWinner(m, slot)
	case m.Winner != nil:
		// Renaming a team must not leave a winner that no longer plays.
		if _, ok := slotOf(*m, *m.Winner); !ok {
			return fmt.Errorf("%w: winner %q is not playing in this match", tourney.ErrInvalidArgument, *m.Winner)
		}
	}

	if m.Status == tourney.StatusCompleted {
		m.IsActive = false
	}
	return nil
}

func slotOf(m tourney.Match, team string) (tourney.Slot, bool) {
	switch team {
	case m.Team1:
		return tourney.SlotTeam1, true
	case m.Team2:
		return tourney.SlotTeam2, true
	}
	return "", false
}

func setWinner(m *tourney.Match, slot tourney.Slot) {
	name, seed := m.Team(slot)
	m.Winner = &name
	m.WinnerSeed = &seed
	m.WinnerTeam = slot
}

func (s *Service) Update(ctx context.Context, id string, p MatchPatch) (tourney.Match, error) {
	var m tourney.Match
	err := s.mutate(ctx, func() error {
		var err error
		if m, err = s.repo.Match(ctx, id); err != nil {
			return err
		}
		if err := p.apply(&m); err != nil {
			return err
		}
		m.Touch(s.now())
		if err := s.repo.SaveMatches(ctx, m); err != nil {
			return err
		}
		s.pub.Publish(event.MatchUpdated{Match: m})
		return nil
	})
	if err != nil {
		return tourney.Match{}, err
	}
	s.logger.Info("match updated", "match_id", m.ID, "status", m.Status)
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func() error {
		if err := s.repo.DeleteMatch(ctx, id); err != nil {
			return err
		}
		s.pub.Publish(event.MatchDeleted{MatchID: id})
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("match deleted", "match_id", id)
	return nil
}

// InitializeBracket purges every match and inserts seeding as the pending
// qualifier round. An empty seeding uses DefaultSeeding.
func (s *Service) InitializeBracket(ctx context.Context, seeding []Pairing) ([]tourney.Match, error) {
	if len(seeding) == 0 {
		seeding = DefaultSeeding()
	}
	for i, p := range seeding {
		if p.Team1 == "" || p.Team2 == "" {
			return nil, fmt.Errorf("%w: pairing %d needs two teams", tourney.ErrInvalidArgument, i+1)
		}
	}

	var ms []tourney.Match
	err := s.mutate(ctx, func() error {
		now := s.now()
		ms = make([]tourney.Match, 0, len(seeding))
		for i, p := range seeding {
			ms = append(ms, tourney.Match{
				ID:          s.newID(),
				Round:       s.cfg.QualifierRound,
				RoundNumber: 1,
				MatchNumber: i + 1,
				Team1:       p.Team1,
				Team2:       p.Team2,
				Team1Seed:   p.Team1Seed,
				Team2Seed:   p.Team2Seed,
				Status:      tourney.StatusPending,
				Court:       p.Court,
				TimeSlot:    p.TimeSlot,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		if err := s.repo.ReplaceMatches(ctx, ms); err != nil {
			return err
		}
		s.pub.Publish(event.BracketInitialized{MatchesCount: len(ms)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bracket initialized", "round", s.cfg.QualifierRound, "matches", len(ms))
	return ms, nil
}

// SetActiveMatch makes id the only active match and marks it live.
func (s *Service) SetActiveMatch(ctx context.Context, id string) (tourney.Match, error) {
	if id == "" {
		return tourney.Match{}, fmt.Errorf("%w: match id required", tourney.ErrInvalidArgument)
	}

	var target tourney.Match
	err := s.mutate(ctx, func() error {
		all, err := s.repo.Matches(ctx)
		if err != nil {
			return err
		}

		idx := -1
		for i, m := range all {
			if m.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("match %s: %w", id, tourney.ErrNotFound)
		}
		if all[idx].Status == tourney.StatusCompleted {
			return fmt.Errorf("%w: match %s is already completed", tourney.ErrConflict, id)
		}

		now := s.now()
		var changed []tourney.Match
		for i := range all {
			m := &all[i]
			if i == idx {
				m.IsActive = true
				m.Status = tourney.StatusLive
				m.Touch(now)
				changed = append(changed, *m)
				continue
			}
			if m.IsActive {
				m.IsActive = false
				m.Touch(now)
				changed = append(changed, *m)
			}
		}
		if err := s.repo.SaveMatches(ctx, changed...); err != nil {
			return err
		}
		target = all[idx]
		s.pub.Publish(event.ActiveMatchChanged{Match: target})
		return nil
	})
	if err != nil {
		return tourney.Match{}, err
	}
	s.logger.Info("match activated", "match_id", id)
	return target, nil
}

// SetWinner records the result of a match. Scores are stored as given.
func (s *Service) SetWinner(ctx context.Context, id string, slot tourney.Slot, score1, score2 int) (tourney.Match, error) {
	if id == "" {
		return tourney.Match{}, fmt.Errorf("%w: match id required", tourney.ErrInvalidArgument)
	}
	if !slot.Valid() {
		return tourney.Match{}, fmt.Errorf("%w: winner must be team1 or team2, got %q", tourney.ErrInvalidArgument, slot)
	}
	if score1 < 0 || score2 < 0 {
		return tourney.Match{}, fmt.Errorf("%w: scores must not be negative", tourney.ErrInvalidArgument)
	}

	var m tourney.Match
	err := s.mutate(ctx, func() error {
		var err error
		if m, err = s.repo.Match(ctx, id); err != nil {
			return err
		}
		setWinner(&m, slot)
		m.Team1Score, m.Team2Score = score1, score2
		m.Status = tourney.StatusCompleted
		m.IsActive = false
		m.Touch(s.now())
		if err := s.repo.SaveMatches(ctx, m); err != nil {
			return err
		}
		s.pub.Publish(event.MatchCompleted{Match: m})
		return nil
	})
	if err != nil {
		return tourney.Match{}, err
	}
	s.logger.Info("match completed", "match_id", id, "winner", *m.Winner)
	return m, nil
}

type AdvanceResult struct {
	FromRound int             `json:"from_round"`
	ToRound   int             `json:"to_round"`
	RoundName string          `json:"round_name"`
	Matches   []tourney.Match `json:"new_matches"`
}

// AdvanceRound pairs the winners of round from into new matches of its
// successor round.
func (s *Service) AdvanceRound(ctx context.Context, from int) (AdvanceResult, error) {
	next, ok := tourney.NextRound(from)
	if !ok {
		return AdvanceResult{}, fmt.Errorf("%w: round %d has no successor", tourney.ErrInvalidArgument, from)
	}

	res := AdvanceResult{FromRound: from, ToRound: next.Number, RoundName: next.Name}
	err := s.mutate(ctx, func() error {
		all, err := s.repo.Matches(ctx)
		if err != nil {
			return err
		}
		decided := decidedIn(all, from)
		if len(decided) == 0 {
			return fmt.Errorf("%w: no completed matches in round %d", tourney.ErrInvalidArgument, from)
		}
		res.Matches = pairWinners(decided, next, s.now(), s.newID)
		if len(res.Matches) == 0 {
			return fmt.Errorf("%w: not enough completed matches in round %d to pair", tourney.ErrInvalidArgument, from)
		}
		if err := s.repo.SaveMatches(ctx, res.Matches...); err != nil {
			return err
		}
		s.pub.Publish(event.WinnersAdvanced{FromRound: from, ToRound: next.Number, MatchesCreated: len(res.Matches)})
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	s.logger.Info("winners advanced", "from_round", from, "to_round", next.Number, "matches", len(res.Matches))
	return res, nil
}

// BestLoser returns nil when no qualifier match has completed.
func (s *Service) BestLoser(ctx context.Context) (*Loser, error) {
	all, err := s.repo.Matches(ctx)
	if err != nil {
		return nil, err
	}
	return bestLoser(all, s.cfg.QualifierRound), nil
}

func (s *Service) AdvancementStatus(ctx context.Context) (Advancement, error) {
	all, err := s.repo.Matches(ctx)
	if err != nil {
		return Advancement{}, err
	}
	return advancement(all, s.cfg.QualifierRound, s.cfg.QualifierMatches), nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.repo.Matches(ctx)
	if err != nil {
		return Stats{}, err
	}
	return stats(all), nil
}

// TeamAdvance previews a team moving on; matches are created by AdvanceRound.
type TeamAdvance struct {
	Name        string       `json:"name"`
	Seed        tourney.Seed `json:"seed"`
	FromMatch   string       `json:"from_match"`
	TargetRound string       `json:"target_round"`
}

func (s *Service) AdvanceTeam(ctx context.Context, matchID, team, targetRound string) (TeamAdvance, error) {
	if matchID == "" || team == "" {
		return TeamAdvance{}, fmt.Errorf("%w: match_id and team_name required", tourney.ErrInvalidArgument)
	}
	if targetRound == "" {
		targetRound = tourney.Quarterfinals
	}
	if err := s.authz.Authorize(ctx); err != nil {
		return TeamAdvance{}, err
	}

	m, err := s.repo.Match(ctx, matchID)
	if err != nil {
		return TeamAdvance{}, err
	}
	slot, ok := slotOf(m, team)
	if !ok {
		return TeamAdvance{}, fmt.Errorf("%w: %q is not playing in match %s", tourney.ErrInvalidArgument, team, matchID)
	}
	_, seed := m.Team(slot)
	return TeamAdvance{Name: team, Seed: seed, FromMatch: matchID, TargetRound: targetRound}, nil
}
