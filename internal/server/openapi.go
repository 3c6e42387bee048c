package server

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/event"
	"github.com/asterisk/tourney/internal/handler/health"
	"github.com/asterisk/tourney/internal/leaderboard"
	"github.com/asterisk/tourney/internal/overlay"
	"github.com/asterisk/tourney/internal/tourney"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type apiOperation struct {
	method  string
	path    string
	summary string
	desc    string
	admin   bool
	req     any
	resp    any
	status  int
	errors  []int
	content string
}

func apiOperations() []apiOperation {
	return []apiOperation{
		{method: http.MethodGet, path: "/api/sse", summary: "Scoreboard stream",
			desc: "Server-Sent Events stream of bracket events. Each frame is a data line with {type, data}.", content: "text/event-stream"},

		{method: http.MethodGet, path: "/api/matches", summary: "List matches",
			desc: "Returns every match ordered by round and match number.", resp: MatchesResponse{}},
		{method: http.MethodPost, path: "/api/matches", summary: "Create match", admin: true,
			req: bracket.MatchInput{}, resp: MatchResponse{}, status: http.StatusCreated, errors: []int{http.StatusBadRequest}},
		{method: http.MethodPut, path: "/api/matches/{matchID}", summary: "Update match", admin: true,
			desc: "Applies the given fields. Setting winner completes the match.",
			req: bracket.MatchPatch{}, resp: MatchResponse{}, errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{method: http.MethodDelete, path: "/api/matches/{matchID}", summary: "Delete match", admin: true,
			resp: DeletedResponse{}, errors: []int{http.StatusNotFound}},

		{method: http.MethodPost, path: "/api/tournament/initialize", summary: "Initialize bracket", admin: true,
			desc: "Deletes every match and creates the pending qualifier round from the given or default seeding.",
			req: InitializeRequest{}, resp: MatchesResponse{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodPost, path: "/api/tournament/set-active-match", summary: "Set active match", admin: true,
			desc: "Makes one match live and deactivates every other match.",
			req: MatchIDRequest{}, resp: MatchResponse{}, errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict}},
		{method: http.MethodPost, path: "/api/tournament/set-winner", summary: "Set winner", admin: true,
			req: SetWinnerRequest{}, resp: MatchResponse{}, errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{method: http.MethodPost, path: "/api/tournament/advance-winners", summary: "Advance winners", admin: true,
			desc: "Pairs the winners of a round into pending matches of the next round.",
			req: AdvanceWinnersRequest{}, resp: bracket.AdvanceResult{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodPost, path: "/api/tournament/advance-team", summary: "Preview team advancement", admin: true,
			req: AdvanceTeamRequest{}, resp: TeamAdvanceResponse{}, errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{method: http.MethodGet, path: "/api/tournament/stats", summary: "Tournament stats", resp: StatsResponse{}},
		{method: http.MethodGet, path: "/api/tournament/advancement", summary: "Quarterfinal advancement", resp: AdvancementResponse{}},
		{method: http.MethodGet, path: "/api/tournament/best-loser", summary: "Best loser", resp: BestLoserResponse{}},

		{method: http.MethodGet, path: "/api/stream-state", summary: "Overlay state", resp: tourney.OverlayState{}},
		{method: http.MethodGet, path: "/api/match-state", summary: "Overlay state (alias)", resp: tourney.OverlayState{}},
		{method: http.MethodPost, path: "/api/update-score", summary: "Update score", admin: true,
			req: UpdateScoreRequest{}, resp: StateResponse{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodPost, path: "/api/update-teams", summary: "Update teams", admin: true,
			req: UpdateTeamsRequest{}, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/update-match-info", summary: "Update match info", admin: true,
			req: overlay.MatchInfo{}, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/reset", summary: "Reset overlay", admin: true, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/control/start-match", summary: "Play match intro", admin: true, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/control/end-match", summary: "Play match outro", admin: true,
			req: EndMatchRequest{}, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/control/show-pause", summary: "Show pause overlay", admin: true, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/control/hide-pause", summary: "Hide pause overlay", admin: true, resp: StateResponse{}},
		{method: http.MethodPost, path: "/api/pause-screen", summary: "Toggle pause screen",
			desc: "Shows or hides the pause screen on overlays and scoreboards.", admin: true,
			req: PauseRequest{}, resp: StateResponse{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodGet, path: "/api/stream-events", summary: "Overlay stream",
			desc: "Server-Sent Events stream of overlay events with named event lines.", content: "text/event-stream"},
		{method: http.MethodGet, path: "/api/stream-ws", summary: "Overlay WebSocket",
			desc: "WebSocket carrying overlay events. Text frames {\"message\"} are sent as chat.",
			status: http.StatusSwitchingProtocols, content: "text/plain"},
		{method: http.MethodPost, path: "/api/send-chat", summary: "Send chat message",
			desc: "Relays a viewer message to every overlay. Rate limited per IP.",
			req: ChatRequest{}, resp: event.ChatMessage{}, errors: []int{http.StatusBadRequest, http.StatusTooManyRequests}},
		{method: http.MethodGet, path: "/api/viewer-count", summary: "Viewer count", resp: ViewerCountResponse{}},
		{method: http.MethodGet, path: "/api/ingress-server", summary: "Get ingress server", resp: IngressResponse{}},
		{method: http.MethodPost, path: "/api/ingress-server", summary: "Set ingress server", admin: true,
			req: IngressRequest{}, resp: IngressResponse{}, errors: []int{http.StatusBadRequest}},

		{method: http.MethodGet, path: "/api/lap-times", summary: "List lap times", resp: LapTimesResponse{}},
		{method: http.MethodPost, path: "/api/lap-times", summary: "Add lap time", admin: true,
			req: leaderboard.LapInput{}, resp: LapTimeResponse{}, status: http.StatusCreated, errors: []int{http.StatusBadRequest}},
		{method: http.MethodPut, path: "/api/lap-times/{lapID}", summary: "Update lap time", admin: true,
			req: leaderboard.LapInput{}, resp: LapTimeResponse{}, errors: []int{http.StatusBadRequest, http.StatusNotFound}},
		{method: http.MethodDelete, path: "/api/lap-times/{lapID}", summary: "Delete lap time", admin: true,
			resp: DeletedResponse{}, errors: []int{http.StatusNotFound}},
		{method: http.MethodGet, path: "/api/team-stats", summary: "List team stats", resp: TeamStatsListResponse{}},
		{method: http.MethodPost, path: "/api/team-stats", summary: "Save team stats", admin: true,
			req: leaderboard.StatsInput{}, resp: TeamStatsResponse{}, errors: []int{http.StatusBadRequest}},
		{method: http.MethodDelete, path: "/api/team-stats", summary: "Delete team stats", admin: true,
			req: TeamNameRequest{}, resp: DeletedResponse{}, errors: []int{http.StatusBadRequest, http.StatusNotFound}},

		{method: http.MethodGet, path: "/healthz", summary: "Health check",
			desc: "Returns the status of backend dependencies and hub subscriber counts.",
			resp: health.Response{}, errors: []int{http.StatusServiceUnavailable}},
	}
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Tournament Console API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Live bracket, stream overlay and leaderboard control for a tournament broadcast. " +
		"Admin operations require the X-Auth-Token header.")

	for _, op := range apiOperations() {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		desc := op.desc
		if op.admin {
			desc = strings.TrimSpace(desc + " Requires X-Auth-Token.")
		}
		if desc != "" {
			oc.SetDescription(desc)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}

		status := op.status
		if status == 0 {
			status = http.StatusOK
		}
		switch {
		case op.content != "":
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(status), openapi.WithContentType(op.content))
		default:
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(status))
		}

		errs := op.errors
		if op.admin {
			errs = append(errs, http.StatusUnauthorized)
		}
		for _, code := range errs {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(code))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
