package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asterisk/tourney/internal/leaderboard"
	"github.com/asterisk/tourney/internal/tourney"
)

type LapTimesResponse struct {
	LapTimes []tourney.LapTime `json:"lap_times"`
}

type LapTimeResponse struct {
	LapTime tourney.LapTime `json:"lap_time"`
}

type TeamStatsListResponse struct {
	TeamStats []tourney.TeamStats `json:"team_stats"`
}

type TeamStatsResponse struct {
	TeamStats tourney.TeamStats `json:"team_stats"`
}

type TeamNameRequest struct {
	TeamName string `json:"team_name"`
}

func handleListLaps(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		laps, err := svc.LapTimes(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, LapTimesResponse{LapTimes: laps})
	}
}

func handleAddLap(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leaderboard.LapInput
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		lap, err := svc.AddLap(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, LapTimeResponse{LapTime: lap})
	}
}

func handleUpdateLap(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leaderboard.LapInput
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		lap, err := svc.UpdateLap(r.Context(), chi.URLParam(r, "lapID"), req)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, LapTimeResponse{LapTime: lap})
	}
}

func handleDeleteLap(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lapID")
		if err := svc.DeleteLap(r.Context(), id); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: id})
	}
}

func handleListTeamStats(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := svc.TeamStats(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, TeamStatsListResponse{TeamStats: all})
	}
}

func handlePutTeamStats(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leaderboard.StatsInput
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		ts, err := svc.PutTeamStats(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, TeamStatsResponse{TeamStats: ts})
	}
}

func handleDeleteTeamStats(logger *slog.Logger, svc *leaderboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamNameRequest
		if err := readJSON(r, &req); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		if err := svc.DeleteTeamStats(r.Context(), req.TeamName); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: req.TeamName})
	}
}
