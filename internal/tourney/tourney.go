// Package tourney defines the core domain types of the tournament console.
// It imports nothing outside the standard library.
package tourney

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusLive, StatusCompleted:
		return true
	}
	return false
}

// Slot names one side of a match.
type Slot string

const (
	SlotTeam1 Slot = "team1"
	SlotTeam2 Slot = "team2"
)

func (s Slot) Valid() bool { return s == SlotTeam1 || s == SlotTeam2 }

// Seed is a bracket seed. The zero value means the seed is not yet known
// and is written as "TBD".
type Seed int

const SeedTBD Seed = 0

func (s Seed) MarshalJSON() ([]byte, error) {
	if s == SeedTBD {
		return []byte(`"TBD"`), nil
	}
	return []byte(fmt.Sprintf("%d", int(s))), nil
}

func (s *Seed) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = SeedTBD
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*s = Seed(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("seed must be an integer or \"TBD\": %w", err)
	}
	if str != "TBD" && str != "" {
		return fmt.Errorf("seed must be an integer or \"TBD\", got %q", str)
	}
	*s = SeedTBD
	return nil
}

type Match struct {
	ID          string    `json:"id"`
	Round       string    `json:"round"`
	RoundNumber int       `json:"round_number"`
	MatchNumber int       `json:"match_number"`
	Team1       string    `json:"team1"`
	Team2       string    `json:"team2"`
	Team1Seed   Seed      `json:"team1_seed"`
	Team2Seed   Seed      `json:"team2_seed"`
	Team1Score  int       `json:"team1_score"`
	Team2Score  int       `json:"team2_score"`
	Winner      *string   `json:"winner"`
	WinnerSeed  *Seed     `json:"winner_seed"`
	WinnerTeam  Slot      `json:"winner_team,omitempty"`
	Status      Status    `json:"status"`
	IsActive    bool      `json:"is_active"`
	Court       string    `json:"court,omitempty"`
	TimeSlot    string    `json:"time_slot,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Team returns the team name and seed occupying slot.
func (m Match) Team(slot Slot) (string, Seed) {
	if slot == SlotTeam2 {
		return m.Team2, m.Team2Seed
	}
	return m.Team1, m.Team1Seed
}

// Score returns the score recorded for slot.
func (m Match) Score(slot Slot) int {
	if slot == SlotTeam2 {
		return m.Team2Score
	}
	return m.Team1Score
}

// Decided reports whether the match is completed with a winner.
func (m Match) Decided() bool {
	return m.Status == StatusCompleted && m.Winner != nil
}

// WinningSlot returns the slot holding the winner. Matches completed before
// winner_team was recorded fall back to comparing names.
func (m Match) WinningSlot() Slot {
	if m.WinnerTeam.Valid() {
		return m.WinnerTeam
	}
	if m.Winner != nil && *m.Winner == m.Team2 && m.Team2 != m.Team1 {
		return SlotTeam2
	}
	return SlotTeam1
}

// Opponent returns the other slot.
func (s Slot) Opponent() Slot {
	if s == SlotTeam1 {
		return SlotTeam2
	}
	return SlotTeam1
}

// Touch advances UpdatedAt to now, never moving it backwards.
func (m *Match) Touch(now time.Time) {
	if now.After(m.UpdatedAt) {
		m.UpdatedAt = now
	}
}

type LapTime struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Time      float64   `json:"time"`
	Place     string    `json:"place,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type TeamStanding string

const (
	StandingCompeting  TeamStanding = "competing"
	StandingQualified  TeamStanding = "qualified"
	StandingEliminated TeamStanding = "eliminated"
)

type TeamStats struct {
	TeamName  string       `json:"team_name"`
	Wins      int          `json:"wins"`
	Losses    int          `json:"losses"`
	Points    int          `json:"points"`
	Status    TeamStanding `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type OverlayTeam struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Subtitle string `json:"subtitle"`
}

// OverlayState is the scoreboard shown on stream overlays.
type OverlayState struct {
	Team1         OverlayTeam `json:"team1"`
	Team2         OverlayTeam `json:"team2"`
	Map           string      `json:"map"`
	Round         string      `json:"round"`
	BestOf        string      `json:"bestOf"`
	MatchTitle    string      `json:"matchTitle"`
	IngressServer string      `json:"ingress_server"`
}
