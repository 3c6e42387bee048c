package bracket

import (
	"sort"
	"time"

	"github.com/asterisk/tourney/internal/tourney"
)

// Loser is the losing side of a completed match.
type Loser struct {
	Team        string       `json:"team"`
	Score       int          `json:"score"`
	Seed        tourney.Seed `json:"seed"`
	MatchID     string       `json:"match_id"`
	MatchNumber int          `json:"match_number"`
}

// Advancer is a team moving out of the qualifier round.
type Advancer struct {
	Team        string       `json:"team"`
	MatchNumber int          `json:"match_number"`
	Seed        tourney.Seed `json:"seed"`
	IsBestLoser bool         `json:"is_best_loser,omitempty"`
}

// Advancement summarizes the qualifier round. It is derived from the match
// set on every request and never stored.
type Advancement struct {
	TotalMatches          int        `json:"total_matches"`
	CompletedMatches      int        `json:"completed_matches"`
	Winners               []Advancer `json:"winners"`
	BestLoser             *Loser     `json:"best_loser"`
	AdvancingTeams        []Advancer `json:"advancing_teams"`
	ReadyForQuarterfinals bool       `json:"ready_for_quarterfinals"`
}

type Stats struct {
	TotalMatches     int `json:"total_matches"`
	ActiveMatches    int `json:"active_matches"`
	CompletedMatches int `json:"completed_matches"`
	PendingMatches   int `json:"pending_matches"`
	TotalTeams       int `json:"total_teams"`
	EliminatedTeams  int `json:"eliminated_teams"`
	RemainingTeams   int `json:"remaining_teams"`
}

// inRound returns the matches of one round ordered by match number. The sort
// is stable so equal match numbers keep storage order.
func inRound(ms []tourney.Match, keep func(tourney.Match) bool) []tourney.Match {
	var out []tourney.Match
	for _, m := range ms {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out
}

// decidedIn returns the completed matches with a winner in round number n.
func decidedIn(ms []tourney.Match, n int) []tourney.Match {
	return inRound(ms, func(m tourney.Match) bool { return m.RoundNumber == n && m.Decided() })
}

// pairWinners builds the next round from decided matches, pairing positions
// (0,1), (2,3) and so on. A trailing unpaired match does not advance.
func pairWinners(decided []tourney.Match, next tourney.Round, now time.Time, newID func() string) []tourney.Match {
	var out []tourney.Match
	for i := 0; i+1 < len(decided); i += 2 {
		a, b := decided[i], decided[i+1]
		out = append(out, tourney.Match{
			ID:          newID(),
			Round:       next.Name,
			RoundNumber: next.Number,
			MatchNumber: i/2 + 1,
			Team1:       *a.Winner,
			Team2:       *b.Winner,
			Team1Seed:   winnerSeed(a),
			Team2Seed:   winnerSeed(b),
			Status:      tourney.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}

func winnerSeed(m tourney.Match) tourney.Seed {
	if m.WinnerSeed != nil {
		return *m.WinnerSeed
	}
	_, seed := m.Team(m.WinningSlot())
	return seed
}

func loserOf(m tourney.Match) Loser {
	slot := m.WinningSlot().Opponent()
	team, seed := m.Team(slot)
	return Loser{
		Team:        team,
		Score:       m.Score(slot),
		Seed:        seed,
		MatchID:     m.ID,
		MatchNumber: m.MatchNumber,
	}
}

// qualifierMatches returns the matches of the named qualifier round in
// match-number order.
func qualifierMatches(ms []tourney.Match, round string) []tourney.Match {
	return inRound(ms, func(m tourney.Match) bool { return m.Round == round })
}

// bestLoser returns the loser with the strictly highest score among decided
// qualifier matches. On a tie the earlier match keeps the spot.
func bestLoser(ms []tourney.Match, round string) *Loser {
	var best *Loser
	for _, m := range qualifierMatches(ms, round) {
		if !m.Decided() {
			continue
		}
		l := loserOf(m)
		if best == nil || l.Score > best.Score {
			best = &l
		}
	}
	return best
}

func advancement(ms []tourney.Match, round string, expected int) Advancement {
	qualifiers := qualifierMatches(ms, round)

	a := Advancement{
		TotalMatches: len(qualifiers),
		Winners:      []Advancer{},
	}
	for _, m := range qualifiers {
		if !m.Decided() {
			continue
		}
		_, seed := m.Team(m.WinningSlot())
		a.Winners = append(a.Winners, Advancer{
			Team:        *m.Winner,
			MatchNumber: m.MatchNumber,
			Seed:        seed,
		})
	}
	a.CompletedMatches = len(a.Winners)
	a.BestLoser = bestLoser(ms, round)

	a.AdvancingTeams = append([]Advancer{}, a.Winners...)
	if a.BestLoser != nil && a.CompletedMatches == expected {
		a.AdvancingTeams = append(a.AdvancingTeams, Advancer{
			Team:        a.BestLoser.Team,
			MatchNumber: a.BestLoser.MatchNumber,
			Seed:        a.BestLoser.Seed,
			IsBestLoser: true,
		})
	}
	a.ReadyForQuarterfinals = a.CompletedMatches == expected && len(a.AdvancingTeams) == len(a.Winners)+1
	return a
}

func stats(ms []tourney.Match) Stats {
	st := Stats{TotalMatches: len(ms)}
	teams := map[string]bool{}
	eliminated := map[string]bool{}
	for _, m := range ms {
		switch m.Status {
		case tourney.StatusLive:
			st.ActiveMatches++
		case tourney.StatusCompleted:
			st.CompletedMatches++
		case tourney.StatusPending:
			st.PendingMatches++
		}
		for _, t := range []string{m.Team1, m.Team2} {
			if t != "" {
				teams[t] = true
			}
		}
		if m.Decided() {
			if l := loserOf(m); l.Team != "" {
				eliminated[l.Team] = true
			}
		}
	}
	st.TotalTeams = len(teams)
	st.EliminatedTeams = len(eliminated)
	st.RemainingTeams = st.TotalTeams - st.EliminatedTeams
	return st
}
