package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/asterisk/tourney/internal/overlay"
	"github.com/asterisk/tourney/internal/tourney"
)

type StateResponse struct {
	State tourney.OverlayState `json:"state"`
}

type UpdateScoreRequest struct {
	Team  int `json:"team"`
	Score int `json:"score"`
}

type UpdateTeamsRequest struct {
	Team1 *overlay.TeamPatch `json:"team1,omitempty"`
	Team2 *overlay.TeamPatch `json:"team2,omitempty"`
}

type EndMatchRequest struct {
	Winner string `json:"winner,omitempty"`
}

type PauseRequest struct {
	// Action is "show" or "hide". Empty means show.
	Action string `json:"action,omitempty"`
}

type ChatRequest struct {
	Message  string `json:"message"`
	ViewerID string `json:"viewerId,omitempty"`
}

type ViewerCountResponse struct {
	Count int `json:"count"`
}

type IngressRequest struct {
	IngressServer string `json:"ingress_server"`
}

type IngressResponse struct {
	IngressServer string `json:"ingress_server"`
}

// stateCommand adapts an overlay command that takes no input.
type stateCommand func(ctx context.Context) (tourney.OverlayState, error)

func handleOverlayCommand(logger *slog.Logger, cmd stateCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := cmd(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, StateResponse{State: st})
	}
}

func handleOverlayState(ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctl.State())
	}
}

func handleUpdateScore(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		handleOverlayCommand(logger, func(ctx context.Context) (tourney.OverlayState, error) {
			return ctl.UpdateScore(ctx, req.Team, req.Score)
		})(w, r)
	}
}

func handleUpdateTeams(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateTeamsRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		handleOverlayCommand(logger, func(ctx context.Context) (tourney.OverlayState, error) {
			return ctl.UpdateTeams(ctx, req.Team1, req.Team2)
		})(w, r)
	}
}

func handleUpdateMatchInfo(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req overlay.MatchInfo
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		handleOverlayCommand(logger, func(ctx context.Context) (tourney.OverlayState, error) {
			return ctl.UpdateMatchInfo(ctx, req)
		})(w, r)
	}
}

func handleEndMatch(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EndMatchRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		handleOverlayCommand(logger, func(ctx context.Context) (tourney.OverlayState, error) {
			return ctl.TriggerEnd(ctx, req.Winner)
		})(w, r)
	}
}

func handlePauseScreen(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PauseRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		handleOverlayCommand(logger, func(ctx context.Context) (tourney.OverlayState, error) {
			return ctl.TogglePause(ctx, req.Action)
		})(w, r)
	}
}

func handleSendChat(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		msg, err := ctl.Chat(req.ViewerID, req.Message)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

// socketChat turns text frames from WebSocket viewers into chat messages.
// Malformed or rejected frames are dropped.
func socketChat(logger *slog.Logger, ctl *overlay.Controller) func(ctx context.Context, viewerID string, payload []byte) {
	return func(_ context.Context, viewerID string, payload []byte) {
		var req ChatRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			logger.Debug("ignoring malformed socket frame", "viewer", viewerID, "error", err)
			return
		}
		if _, err := ctl.Chat(viewerID, req.Message); err != nil {
			logger.Debug("socket chat rejected", "viewer", viewerID, "error", err)
		}
	}
}

func handleViewerCount(ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ViewerCountResponse{Count: ctl.ViewerCount()})
	}
}

func handleSetIngress(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IngressRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		url, err := ctl.SetIngress(r.Context(), req.IngressServer)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, IngressResponse{IngressServer: url})
	}
}

func handleGetIngress(logger *slog.Logger, ctl *overlay.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := ctl.Ingress(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, IngressResponse{IngressServer: url})
	}
}

