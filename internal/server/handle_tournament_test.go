package server

import (
	"net/http"
	"testing"

	"github.com/asterisk/tourney/internal/bracket"
	"github.com/asterisk/tourney/internal/tourney"
)

func initialize(t *testing.T, srv *testServer) []tourney.Match {
	t.Helper()
	w := srv.do(http.MethodPost, "/api/tournament/initialize", testToken, nil)
	expectStatus(t, w, http.StatusOK)
	return decode[MatchesResponse](t, w).Matches
}

func TestTournamentFlow(t *testing.T) {
	srv := newTestServer(t)

	ms := initialize(t, srv)
	if len(ms) != 9 {
		t.Fatalf("initialized %d matches, want 9", len(ms))
	}

	w := srv.do(http.MethodPost, "/api/tournament/set-active-match", testToken, MatchIDRequest{MatchID: ms[0].ID})
	expectStatus(t, w, http.StatusOK)
	if m := decode[MatchResponse](t, w).Match; !m.IsActive || m.Status != tourney.StatusLive {
		t.Errorf("active = %+v", m)
	}

	for i, slot := range []tourney.Slot{tourney.SlotTeam1, tourney.SlotTeam2} {
		w = srv.do(http.MethodPost, "/api/tournament/set-winner", testToken, SetWinnerRequest{
			MatchID: ms[i].ID, Winner: slot, Team1Score: 13, Team2Score: 11 - i,
		})
		expectStatus(t, w, http.StatusOK)
	}

	w = srv.do(http.MethodGet, "/api/tournament/stats", "", nil)
	expectStatus(t, w, http.StatusOK)
	st := decode[StatsResponse](t, w).Stats
	if st.TotalMatches != 9 || st.CompletedMatches != 2 || st.ActiveMatches != 0 {
		t.Errorf("stats = %+v", st)
	}

	w = srv.do(http.MethodGet, "/api/tournament/best-loser", "", nil)
	expectStatus(t, w, http.StatusOK)
	bl := decode[BestLoserResponse](t, w).BestLoser
	if bl == nil || bl.Team != ms[1].Team1 || bl.Score != 13 {
		t.Errorf("best loser = %+v", bl)
	}

	w = srv.do(http.MethodGet, "/api/tournament/advancement", "", nil)
	expectStatus(t, w, http.StatusOK)
	if a := decode[AdvancementResponse](t, w).Advancement; a.ReadyForQuarterfinals || a.CompletedMatches != 2 {
		t.Errorf("advancement = %+v", a)
	}

	w = srv.do(http.MethodPost, "/api/tournament/advance-winners", testToken, AdvanceWinnersRequest{FromRoundNumber: 1})
	expectStatus(t, w, http.StatusOK)
	res := decode[bracket.AdvanceResult](t, w)
	if res.ToRound != 2 || res.RoundName != tourney.Quarterfinals || len(res.Matches) != 1 {
		t.Fatalf("advance = %+v", res)
	}
	if qf := res.Matches[0]; qf.Team1 != ms[0].Team1 || qf.Team2 != ms[1].Team2 {
		t.Errorf("quarterfinal = %s vs %s", qf.Team1, qf.Team2)
	}

	w = srv.do(http.MethodPost, "/api/tournament/advance-team", testToken, AdvanceTeamRequest{MatchID: ms[0].ID, TeamName: ms[0].Team1})
	expectStatus(t, w, http.StatusOK)
	if ta := decode[TeamAdvanceResponse](t, w).Team; ta.TargetRound != tourney.Quarterfinals || ta.FromMatch != ms[0].ID {
		t.Errorf("advance team = %+v", ta)
	}
}

func TestTournamentErrors(t *testing.T) {
	srv := newTestServer(t)
	ms := initialize(t, srv)

	srv.do(http.MethodPost, "/api/tournament/set-winner", testToken, SetWinnerRequest{MatchID: ms[0].ID, Winner: tourney.SlotTeam1})

	tests := []struct {
		name  string
		path  string
		token string
		body  any
		want  int
	}{
		{"initialize without token", "/api/tournament/initialize", "", nil, http.StatusUnauthorized},
		{"active missing id", "/api/tournament/set-active-match", testToken, MatchIDRequest{}, http.StatusBadRequest},
		{"active unknown match", "/api/tournament/set-active-match", testToken, MatchIDRequest{MatchID: "nope"}, http.StatusNotFound},
		{"active completed match", "/api/tournament/set-active-match", testToken, MatchIDRequest{MatchID: ms[0].ID}, http.StatusConflict},
		{"winner bad slot", "/api/tournament/set-winner", testToken, SetWinnerRequest{MatchID: ms[1].ID, Winner: "team3"}, http.StatusBadRequest},
		{"winner negative score", "/api/tournament/set-winner", testToken, SetWinnerRequest{MatchID: ms[1].ID, Winner: tourney.SlotTeam1, Team1Score: -1}, http.StatusBadRequest},
		{"advance past finals", "/api/tournament/advance-winners", testToken, AdvanceWinnersRequest{FromRoundNumber: 5}, http.StatusBadRequest},
		{"advance unplayed round", "/api/tournament/advance-winners", testToken, AdvanceWinnersRequest{FromRoundNumber: 2}, http.StatusBadRequest},
		{"advance team not in match", "/api/tournament/advance-team", testToken, AdvanceTeamRequest{MatchID: ms[0].ID, TeamName: "Ghosts"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, srv.do(http.MethodPost, tt.path, tt.token, tt.body), tt.want)
		})
	}
}

func TestInitializeCustomSeeding(t *testing.T) {
	srv := newTestServer(t)
	body := InitializeRequest{Seeding: []bracket.Pairing{
		{Team1: "A", Team1Seed: 1, Team2: "B", Team2Seed: 2},
		{Team1: "C", Team2: "D"},
	}}
	w := srv.do(http.MethodPost, "/api/tournament/initialize", testToken, body)
	expectStatus(t, w, http.StatusOK)
	if ms := decode[MatchesResponse](t, w).Matches; len(ms) != 2 || ms[1].Team1 != "C" {
		t.Errorf("matches = %+v", ms)
	}

	body.Seeding = []bracket.Pairing{{Team1: "A"}}
	expectStatus(t, srv.do(http.MethodPost, "/api/tournament/initialize", testToken, body), http.StatusBadRequest)
}
