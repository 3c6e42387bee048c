package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/tourney"
)

type MatchesResponse struct {
	Matches []tourney.Match `json:"matches"`
}

type MatchResponse struct {
	Match tourney.Match `json:"match"`
}

type DeletedResponse struct {
	Deleted string `json:"deleted"`
}

func handleListMatches(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := svc.Matches(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchesResponse{Matches: ms})
	}
}

func handleCreateMatch(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bracket.MatchInput
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		m, err := svc.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, MatchResponse{Match: m})
	}
}

func handleUpdateMatch(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bracket.MatchPatch
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		m, err := svc.Update(r.Context(), chi.URLParam(r, "matchID"), req)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MatchResponse{Match: m})
	}
}

func handleDeleteMatch(logger *slog.Logger, svc *bracket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "matchID")
		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: id})
	}
}
