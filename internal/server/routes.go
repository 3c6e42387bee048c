package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"

	"github.com/asterisk/tourney/internal/broadcast"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Tournament Console API", "/openapi.json", "/docs"))
	r.Handle("/metrics", promhttp.Handler())
	if d.Health != nil {
		r.Mount("/healthz", d.Health)
	}

	r.Route("/api", func(r chi.Router) {
		// Scoreboard: bracket hub.
		r.Method(http.MethodGet, "/sse", broadcast.NewScoreboardStream(d.BracketHub, logger, d.PingInterval))

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", handleListMatches(logger, d.Bracket))
			r.Post("/", handleCreateMatch(logger, d.Bracket))
			r.Put("/{matchID}", handleUpdateMatch(logger, d.Bracket))
			r.Delete("/{matchID}", handleDeleteMatch(logger, d.Bracket))
		})

		r.Route("/tournament", func(r chi.Router) {
			r.Post("/initialize", handleInitialize(logger, d.Bracket))
			r.Post("/set-active-match", handleSetActiveMatch(logger, d.Bracket))
			r.Post("/advance-winners", handleAdvanceWinners(logger, d.Bracket))
			r.Post("/advance-team", handleAdvanceTeam(logger, d.Bracket))
			r.Post("/set-winner", handleSetWinner(logger, d.Bracket))
			r.Get("/stats", handleStats(logger, d.Bracket))
			r.Get("/advancement", handleAdvancement(logger, d.Bracket))
			r.Get("/best-loser", handleBestLoser(logger, d.Bracket))
		})

		// Stream overlay: overlay hub.
		ctl := d.Overlay
		r.Get("/stream-state", handleOverlayState(ctl))
		r.Get("/match-state", handleOverlayState(ctl))
		r.Post("/update-score", handleUpdateScore(logger, ctl))
		r.Post("/update-teams", handleUpdateTeams(logger, ctl))
		r.Post("/update-match-info", handleUpdateMatchInfo(logger, ctl))
		r.Post("/reset", handleOverlayCommand(logger, ctl.Reset))
		r.Post("/control/start-match", handleOverlayCommand(logger, ctl.TriggerStart))
		r.Post("/control/end-match", handleEndMatch(logger, ctl))
		r.Post("/control/show-pause", handleOverlayCommand(logger, ctl.ShowPause))
		r.Post("/control/hide-pause", handleOverlayCommand(logger, ctl.HidePause))
		r.Post("/pause-screen", handlePauseScreen(logger, ctl))
		r.Get("/viewer-count", handleViewerCount(ctl))
		r.Get("/ingress-server", handleGetIngress(logger, ctl))
		r.Post("/ingress-server", handleSetIngress(logger, ctl))

		r.Method(http.MethodGet, "/stream-events", broadcast.NewViewerStream(d.OverlayHub, logger, d.PingInterval))
		r.Method(http.MethodGet, "/stream-ws", broadcast.NewSocket(d.OverlayHub, logger, socketChat(logger, ctl)))

		chat := r.With()
		if d.ChatRateLimit > 0 {
			chat = r.With(httprate.Limit(d.ChatRateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "too many chat messages, slow down")
				}),
			))
		}
		chat.Post("/send-chat", handleSendChat(logger, ctl))

		// Leaderboard.
		r.Get("/lap-times", handleListLaps(logger, d.Leaderboard))
		r.Post("/lap-times", handleAddLap(logger, d.Leaderboard))
		r.Put("/lap-times/{lapID}", handleUpdateLap(logger, d.Leaderboard))
		r.Delete("/lap-times/{lapID}", handleDeleteLap(logger, d.Leaderboard))
		r.Get("/team-stats", handleListTeamStats(logger, d.Leaderboard))
		r.Post("/team-stats", handlePutTeamStats(logger, d.Leaderboard))
		r.Delete("/team-stats", handleDeleteTeamStats(logger, d.Leaderboard))
	})
}
