// Package event defines the closed set of events pushed to viewers and
// encodes them into the wire formats used by the broadcast hubs.
package event

import (
	"time"

	"github.com/asterisk/tourney/internal/tourney"
)

type Kind string

// Scoreboard (bracket hub) kinds.
const (
	KindMatchCreated       Kind = "match_created"
	KindMatchUpdated       Kind = "match_updated"
	KindMatchDeleted       Kind = "match_deleted"
	KindBracketInitialized Kind = "bracket_initialized"
	KindActiveMatchChanged Kind = "active_match_changed"
	KindWinnersAdvanced    Kind = "winners_advanced"
	KindMatchCompleted     Kind = "match_completed"
	KindLapUpdated         Kind = "lap_updated"
	KindPauseScreen        Kind = "pause_screen"
)

// Overlay hub kinds.
const (
	KindConnected        Kind = "connected"
	KindViewerCount      Kind = "viewerCount"
	KindScoreUpdated     Kind = "score_updated"
	KindTeamsUpdated     Kind = "teams_updated"
	KindMatchInfoUpdated Kind = "match_info_updated"
	KindMatchReset       Kind = "match_reset"
	KindMatchStart       Kind = "matchStart"
	KindMatchEnd         Kind = "matchEnd"
	KindShowPause        Kind = "showPause"
	KindHidePause        Kind = "hidePause"
	KindChatMessage      Kind = "chatMessage"
)

// Event is implemented only by the types in this package. The struct itself
// is the JSON payload; Kind names it on the wire.
type Event interface {
	Kind() Kind
	sealed()
}

type MatchCreated struct{ tourney.Match }

type MatchUpdated struct{ tourney.Match }

type MatchDeleted struct {
	MatchID string `json:"match_id"`
}

type BracketInitialized struct {
	MatchesCount int `json:"matches_count"`
}

type ActiveMatchChanged struct{ tourney.Match }

type WinnersAdvanced struct {
	FromRound      int `json:"from_round"`
	ToRound        int `json:"to_round"`
	MatchesCreated int `json:"matches_created"`
}

type MatchCompleted struct{ tourney.Match }

// LapUpdated carries the lap that changed. Deletions only carry the ID.
type LapUpdated struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Time      *float64   `json:"time,omitempty"`
	Place     string     `json:"place,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type PauseScreen struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func (MatchCreated) Kind() Kind       { return KindMatchCreated }
func (MatchUpdated) Kind() Kind       { return KindMatchUpdated }
func (MatchDeleted) Kind() Kind       { return KindMatchDeleted }
func (BracketInitialized) Kind() Kind { return KindBracketInitialized }
func (ActiveMatchChanged) Kind() Kind { return KindActiveMatchChanged }
func (WinnersAdvanced) Kind() Kind    { return KindWinnersAdvanced }
func (MatchCompleted) Kind() Kind     { return KindMatchCompleted }
func (LapUpdated) Kind() Kind         { return KindLapUpdated }
func (PauseScreen) Kind() Kind        { return KindPauseScreen }

func (MatchCreated) sealed()       {}
func (MatchUpdated) sealed()       {}
func (MatchDeleted) sealed()       {}
func (BracketInitialized) sealed() {}
func (ActiveMatchChanged) sealed() {}
func (WinnersAdvanced) sealed()    {}
func (MatchCompleted) sealed()     {}
func (LapUpdated) sealed()         {}
func (PauseScreen) sealed()        {}

// LapChanged builds the event for an added or edited lap.
func LapChanged(l tourney.LapTime) LapUpdated {
	t, ts := l.Time, l.Timestamp
	return LapUpdated{ID: l.ID, Name: l.Name, Time: &t, Place: l.Place, Timestamp: &ts}
}
