// Package overlay holds the scoreboard shown on stream overlays and the
// control commands that change it.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/asterisk/tourney/internal/auth"
	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/storage"
	"github.com/asterisk/tourney/internal/tourney"
)

const (
	iconTeam1 = "game-icons:fire-shield"
	iconTeam2 = "game-icons:lightning-shield"

	maxChatLength = 500
)

// Hub is where overlay events go. Len reports the connected viewers.
type Hub interface {
	Publish(ev event.Event)
	Len() int
}

type Publisher interface {
	Publish(ev event.Event)
}

type Settings interface {
	Setting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Defaults returns the overlay shown before any command and after a reset.
func Defaults() tourney.OverlayState {
	return tourney.OverlayState{
		Team1:      tourney.OverlayTeam{Name: "TEAM ALPHA", Subtitle: "Attackers"},
		Team2:      tourney.OverlayTeam{Name: "TEAM OMEGA", Subtitle: "Defenders"},
		Map:        "HAVEN",
		Round:      "1/24",
		BestOf:     "BO3",
		MatchTitle: "Grand Finals — ASTERISK 2025",
	}
}

// Controller applies overlay commands. Each command changes the state under
// the lock and publishes the full resulting state before releasing it.
type Controller struct {
	mu    sync.Mutex
	state tourney.OverlayState

	hub        Hub
	scoreboard Publisher
	settings   Settings
	authz      auth.Authorizer
	logger     *slog.Logger
	now        func() time.Time
}

// New returns a controller showing the defaults. scoreboard receives the
// pause_screen mirror of pause toggles.
func New(hub Hub, scoreboard Publisher, settings Settings, authz auth.Authorizer, logger *slog.Logger) *Controller {
	return &Controller{
		state:      Defaults(),
		hub:        hub,
		scoreboard: scoreboard,
		settings:   settings,
		authz:      authz,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *Controller) State() tourney.OverlayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) ViewerCount() int {
	return c.hub.Len()
}

// apply runs fn on the state as one authorized step and publishes the event
// it returns.
func (c *Controller) apply(ctx context.Context, fn func(s *tourney.OverlayState) (event.Event, error)) (tourney.OverlayState, error) {
	if err := c.authz.Authorize(ctx); err != nil {
		return tourney.OverlayState{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state
	ev, err := fn(&next)
	if err != nil {
		return tourney.OverlayState{}, err
	}
	c.state = next
	c.hub.Publish(ev)
	return next, nil
}

func (c *Controller) UpdateScore(ctx context.Context, team, score int) (tourney.OverlayState, error) {
	if team != 1 && team != 2 {
		return tourney.OverlayState{}, fmt.Errorf("%w: team must be 1 or 2", tourney.ErrInvalidArgument)
	}
	if score < 0 {
		return tourney.OverlayState{}, fmt.Errorf("%w: score must not be negative", tourney.ErrInvalidArgument)
	}
	return c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		if team == 1 {
			s.Team1.Score = score
		} else {
			s.Team2.Score = score
		}
		return event.ScoreUpdated{Team: team, Score: score, State: *s}, nil
	})
}

// TeamPatch changes a team's label. Nil fields are kept.
type TeamPatch struct {
	Name     *string `json:"name"`
	Subtitle *string `json:"subtitle"`
}

func (p *TeamPatch) apply(t *tourney.OverlayTeam) {
	if p == nil {
		return
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Subtitle != nil {
		t.Subtitle = *p.Subtitle
	}
}

func (c *Controller) UpdateTeams(ctx context.Context, team1, team2 *TeamPatch) (tourney.OverlayState, error) {
	return c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		team1.apply(&s.Team1)
		team2.apply(&s.Team2)
		return event.TeamsUpdated{State: *s}, nil
	})
}

type MatchInfo struct {
	Map        *string `json:"map"`
	Round      *string `json:"round"`
	BestOf     *string `json:"bestOf"`
	MatchTitle *string `json:"matchTitle"`
}

func (c *Controller) UpdateMatchInfo(ctx context.Context, info MatchInfo) (tourney.OverlayState, error) {
	return c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		for _, f := range []struct {
			dst *string
			src *string
		}{
			{&s.Map, info.Map},
			{&s.Round, info.Round},
			{&s.BestOf, info.BestOf},
			{&s.MatchTitle, info.MatchTitle},
		} {
			if f.src != nil {
				*f.dst = *f.src
			}
		}
		return event.MatchInfoUpdated{State: *s}, nil
	})
}

// Reset restores the defaults. The ingress server survives.
func (c *Controller) Reset(ctx context.Context) (tourney.OverlayState, error) {
	return c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		ingress := s.IngressServer
		*s = Defaults()
		s.IngressServer = ingress
		return event.MatchReset{State: *s}, nil
	})
}

func (c *Controller) TriggerStart(ctx context.Context) (tourney.OverlayState, error) {
	return c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		return event.MatchStart{
			Team1: event.StartTeam{Name: s.Team1.Name, Subtitle: s.Team1.Subtitle, Icon: iconTeam1},
			Team2: event.StartTeam{Name: s.Team2.Name, Subtitle: s.Team2.Subtitle, Icon: iconTeam2},
			State: *s,
		}, nil
	})
}

// TriggerEnd announces the end of the match. winner is shown as given and
// may be empty.
func (c *Controller) TriggerEnd(ctx context.Context, winner string) (tourney.OverlayState, error) {
	return c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		ev := event.MatchEnd{
			Team1:      event.EndTeam{Name: s.Team1.Name, Score: s.Team1.Score},
			Team2:      event.EndTeam{Name: s.Team2.Name, Score: s.Team2.Score},
			MatchTitle: s.MatchTitle,
			State:      *s,
		}
		if winner != "" {
			ev.Winner = &winner
		}
		return ev, nil
	})
}

func (c *Controller) ShowPause(ctx context.Context) (tourney.OverlayState, error) {
	return c.pause(ctx, true, false)
}

func (c *Controller) HidePause(ctx context.Context) (tourney.OverlayState, error) {
	return c.pause(ctx, false, false)
}

// TogglePause shows or hides the pause screen on overlays and scoreboards.
func (c *Controller) TogglePause(ctx context.Context, action string) (tourney.OverlayState, error) {
	switch action {
	case "", "show":
		return c.pause(ctx, true, true)
	case "hide":
		return c.pause(ctx, false, true)
	}
	return tourney.OverlayState{}, fmt.Errorf("%w: action must be show or hide, got %q", tourney.ErrInvalidArgument, action)
}

func (c *Controller) pause(ctx context.Context, show, mirror bool) (tourney.OverlayState, error) {
	action := "hide"
	if show {
		action = "show"
	}
	st, err := c.apply(ctx, func(s *tourney.OverlayState) (event.Event, error) {
		now := c.now()
		if mirror {
			c.scoreboard.Publish(event.PauseScreen{Action: action, Timestamp: now})
		}
		if show {
			return event.ShowPause{Action: action, Timestamp: now, State: *s}, nil
		}
		return event.HidePause{Action: action, Timestamp: now, State: *s}, nil
	})
	if err != nil {
		return st, err
	}
	c.logger.Info("pause screen toggled", "action", action, "scoreboard", mirror)
	return st, nil
}

// SetIngress stores the stream source URL durably and in the overlay state.
// No event is published; overlays pick it up from the state.
func (c *Controller) SetIngress(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("%w: ingress server URL required", tourney.ErrInvalidArgument)
	}
	if err := c.authz.Authorize(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.settings.PutSetting(ctx, storage.SettingIngressServer, url); err != nil {
		return "", err
	}
	c.state.IngressServer = url
	c.logger.Info("ingress server updated", "ingress_server", url)
	return url, nil
}

// Ingress returns the ingress URL, loading the persisted value when the
// in-memory one is empty.
func (c *Controller) Ingress(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IngressServer != "" {
		return c.state.IngressServer, nil
	}

	url, err := c.settings.Setting(ctx, storage.SettingIngressServer)
	if errors.Is(err, tourney.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	c.state.IngressServer = url
	return url, nil
}

// Chat relays a viewer message to every overlay. Chat is not persisted and
// needs no admin credential.
func (c *Controller) Chat(viewerID, message string) (event.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return event.ChatMessage{}, fmt.Errorf("%w: empty message", tourney.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(message) > maxChatLength {
		return event.ChatMessage{}, fmt.Errorf("%w: message longer than %d characters", tourney.ErrInvalidArgument, maxChatLength)
	}
	if viewerID == "" {
		viewerID = "Unknown"
	}
	if len(viewerID) > 8 {
		viewerID = viewerID[:8]
	}

	msg := event.ChatMessage{
		Message:   message,
		Username:  "Viewer-" + viewerID,
		Timestamp: c.now().Format(time.RFC3339Nano),
	}
	c.hub.Publish(msg)
	return msg, nil
}
