package event

import (
	"time"

	"github.com/asterisk/tourney/internal/tourney"
)

type Connected struct {
	ViewerID string `json:"viewerId"`
}

type ViewerCount struct {
	Count int `json:"count"`
}

type ScoreUpdated struct {
	Team  int                  `json:"team"`
	Score int                  `json:"score"`
	State tourney.OverlayState `json:"state"`
}

type TeamsUpdated struct {
	State tourney.OverlayState `json:"state"`
}

type MatchInfoUpdated struct {
	State tourney.OverlayState `json:"state"`
}

type MatchReset struct {
	State tourney.OverlayState `json:"state"`
}

type StartTeam struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
	Icon     string `json:"icon"`
}

type MatchStart struct {
	Team1 StartTeam            `json:"team1"`
	Team2 StartTeam            `json:"team2"`
	State tourney.OverlayState `json:"state"`
}

type EndTeam struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type MatchEnd struct {
	Team1      EndTeam              `json:"team1"`
	Team2      EndTeam              `json:"team2"`
	Winner     *string              `json:"winner"`
	MatchTitle string               `json:"matchTitle"`
	State      tourney.OverlayState `json:"state"`
}

type ShowPause struct {
	Action    string               `json:"action"`
	Timestamp time.Time            `json:"timestamp"`
	State     tourney.OverlayState `json:"state"`
}

type HidePause struct {
	Action    string               `json:"action"`
	Timestamp time.Time            `json:"timestamp"`
	State     tourney.OverlayState `json:"state"`
}

type ChatMessage struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

func (Connected) Kind() Kind        { return KindConnected }
func (ViewerCount) Kind() Kind      { return KindViewerCount }
func (ScoreUpdated) Kind() Kind     { return KindScoreUpdated }
func (TeamsUpdated) Kind() Kind     { return KindTeamsUpdated }
func (MatchInfoUpdated) Kind() Kind { return KindMatchInfoUpdated }
func (MatchReset) Kind() Kind       { return KindMatchReset }
func (MatchStart) Kind() Kind       { return KindMatchStart }
func (MatchEnd) Kind() Kind         { return KindMatchEnd }
func (ShowPause) Kind() Kind        { return KindShowPause }
func (HidePause) Kind() Kind        { return KindHidePause }
func (ChatMessage) Kind() Kind      { return KindChatMessage }

func (Connected) sealed()        {}
func (ViewerCount) sealed()      {}
func (ScoreUpdated) sealed()     {}
func (TeamsUpdated) sealed()     {}
func (MatchInfoUpdated) sealed() {}
func (MatchReset) sealed()       {}
func (MatchStart) sealed()       {}
func (MatchEnd) sealed()         {}
func (ShowPause) sealed()        {}
func (HidePause) sealed()        {}
func (ChatMessage) sealed()      {}
