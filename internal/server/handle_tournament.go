package server

import (
	"log/slog"
	"net/http"

	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/tourney"
)

type InitializeRequest struct {
	// Seeding replaces the default first-round pairings when non-empty.
	Seeding []bracket.Pairing `json:"seeding,omitempty"`
}

type MatchIDRequest struct {
	MatchID string `json:"match_id"`
}

type SetWinnerRequest struct {
	MatchID    string       `json:"match_id"`
	Winner     tourney.Slot `json:"winner"`
	Team1Score int          `json:"team1_score"`
	Team2Score int          `json:"team2_score"`
}

type AdvanceWinnersRequest struct {
	FromRoundNumber int `json:"from_round_number"`
}

type AdvanceTeamRequest struct {
	MatchID     string `json:"match_id"`
	TeamName    string `json:"team_name"`
	TargetRound string `json:"target_round,omitempty"`
}

type StatsResponse struct {
	Stats bracket.Stats `json:"stats"`
}

type AdvancementResponse struct {
	Advancement bracket.Advancement `json:"advancement"`
}

type BestLoserResponse struct {
	BestLoser *bracket.Loser `json:"best_loser"`
}

type TeamAdvanceResponse struct {
	Team bracket.TeamAdvance `json:"team"`
}

func handleInitialize(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InitializeRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		ms, err := svc.InitializeBracket(r.Context(), req.Seeding)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchesResponse{Matches: ms})
	}
}

func handleSetActiveMatch(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MatchIDRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		m, err := svc.SetActiveMatch(r.Context(), req.MatchID)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchResponse{Match: m})
	}
}

func handleSetWinner(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetWinnerRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		m, err := svc.SetWinner(r.Context(), req.MatchID, req.Winner, req.Team1Score, req.Team2Score)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchResponse{Match: m})
	}
}

func handleAdvanceWinners(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdvanceWinnersRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		res, err := svc.AdvanceRound(r.Context(), req.FromRoundNumber)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleAdvanceTeam(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdvanceTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		t, err := svc.AdvanceTeam(r.Context(), req.MatchID, req.TeamName, req.TargetRound)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, TeamAdvanceResponse{Team: t})
	}
}

func handleStats(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{Stats: st})
	}
}

func handleAdvancement(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.AdvancementStatus(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, AdvancementResponse{Advancement: a})
	}
}

func handleBestLoser(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := svc.BestLoser(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, BestLoserResponse{BestLoser: l})
	}
}
