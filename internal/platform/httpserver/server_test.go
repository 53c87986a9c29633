package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agora/contexts/elections/balloting"
	ballotingmemory "agora/contexts/elections/balloting/adapters/memory"
	ballotingentities "agora/contexts/elections/balloting/domain/entities"
	"agora/contexts/elections/balloting/ports"
	"agora/contexts/elections/timeline"
	timelineentities "agora/contexts/elections/timeline/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGate struct {
	vote    bool
	results bool
}

func (g stubGate) Authorize(_ context.Context, action string) (ports.EligibilityDecision, error) {
	switch action {
	case ports.ActionVote:
		if g.vote {
			return ports.EligibilityDecision{Allowed: true}, nil
		}
		return ports.EligibilityDecision{Reason: "stage_closed"}, nil
	case ports.ActionViewResults:
		if g.results {
			return ports.EligibilityDecision{Allowed: true}, nil
		}
		return ports.EligibilityDecision{Reason: "results_not_published"}, nil
	}
	return ports.EligibilityDecision{}, nil
}

func (g stubGate) CurrentPhase(context.Context) (ballotingentities.ElectionPhase, error) {
	return ballotingentities.ElectionPhase{
		VotingActive:     g.vote,
		VotingEnded:      !g.vote,
		ResultsPublished: g.results,
	}, nil
}

type testServer struct {
	*Server
	store *ballotingmemory.Store
}

func newTestServer(t *testing.T, gate stubGate) testServer {
	t.Helper()
	now := time.Now().UTC()
	timelineModule := timeline.NewInMemoryModule([]timelineentities.Stage{{
		StageID:   1,
		Name:      "General voting",
		Category:  timelineentities.CategoryVoting,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}}, nil)
	ballotingModule := balloting.NewInMemoryModule(ballotingmemory.Seed{
		Voters: []ballotingentities.Voter{
			{VoterID: "voter-1", Matric: "MAT/001", Verified: true},
			{VoterID: "voter-2", Matric: "MAT/002", Verified: true},
		},
		Positions: []ballotingentities.Position{
			{PositionID: "pos-1", Name: "President", VoteType: ballotingentities.VoteTypeSingle, MaxSelections: 1},
		},
		Candidates: []ballotingentities.Candidate{
			{CandidateID: "c1", FullName: "Ada Obi", Position: "President"},
			{CandidateID: "c2", FullName: "Bola Ade", Position: "President"},
		},
	}, gate, gate, nil)

	server := New(timelineModule, ballotingModule, nil, ":0").WithMetrics(prometheus.NewRegistry())
	return testServer{Server: server, store: ballotingModule.Store}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestSubmitVoteThenDuplicateIsConflict(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	ballot := `{"voterId":"voter-1","selections":{"President":["c1"]}}`

	rr := server.do(t, http.MethodPost, "/api/v1/votes", ballot)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = server.do(t, http.MethodPost, "/api/v1/votes", ballot)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_voted", decodeError(t, rr)["code"])
}

func TestSubmitVoteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		gate   stubGate
		body   string
		status int
		code   string
	}{
		{"malformed json", stubGate{vote: true}, `{"voterId":`, http.StatusBadRequest, "invalid_json"},
		{"missing voter", stubGate{vote: true}, `{"selections":{"President":["c1"]}}`, http.StatusBadRequest, "invalid_input"},
		{"incomplete", stubGate{vote: true}, `{"voterId":"voter-1","selections":{"President":[]}}`, http.StatusBadRequest, "incomplete_ballot"},
		{"empty selections", stubGate{vote: true}, `{"voterId":"voter-1","selections":{}}`, http.StatusBadRequest, "incomplete_ballot"},
		{"missing selections", stubGate{vote: true}, `{"voterId":"voter-1"}`, http.StatusBadRequest, "incomplete_ballot"},
		{"unknown candidate", stubGate{vote: true}, `{"voterId":"voter-1","selections":{"President":["zz"]}}`, http.StatusBadRequest, "invalid_selection"},
		{"unknown voter", stubGate{vote: true}, `{"voterId":"ghost","selections":{"President":["c1"]}}`, http.StatusNotFound, "voter_not_found"},
		{"window closed", stubGate{}, `{"voterId":"voter-1","selections":{"President":["c1"]}}`, http.StatusConflict, "not_eligible_window_closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.gate)
			rr := server.do(t, http.MethodPost, "/api/v1/votes", tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rr)["code"])
		})
	}
}

func TestSubmitVotePersistenceFailureHidesCause(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	server.store.Fail(ballotingmemory.OpPersistBallot, errors.New("pq: disk full"))

	rr := server.do(t, http.MethodPost, "/api/v1/votes", `{"voterId":"voter-1","selections":{"President":["c1"]}}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, "persistence_error", body["code"])
	assert.NotContains(t, body["message"], "disk full")

	rr = server.do(t, http.MethodGet, "/api/v1/admin/reconciliation?status=pending", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"voter_id":"voter-1"`)
	assert.Contains(t, rr.Body.String(), `"reason":"ballot_persist_failed"`)
}

func TestResultsAreForbiddenUntilPublished(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	rr := server.do(t, http.MethodGet, "/api/v1/results", "")
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "results_not_published", decodeError(t, rr)["code"])
}

func TestResultsAfterPublication(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	rr := server.do(t, http.MethodPost, "/api/v1/votes", `{"voterId":"voter-1","selections":{"President":["c2"]}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	published := newTestServerFromStore(t, server, stubGate{results: true})
	rr = published.do(t, http.MethodGet, "/api/v1/results", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Positions []struct {
			Position string `json:"position"`
			Winner   *struct {
				CandidateID string `json:"candidate_id"`
			} `json:"winner"`
		} `json:"positions"`
		Turnout float64 `json:"turnout"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Positions, 1)
	require.NotNil(t, resp.Positions[0].Winner)
	assert.Equal(t, "c2", resp.Positions[0].Winner.CandidateID)
	assert.InDelta(t, 50.0, resp.Turnout, 0.001)
}

// newTestServerFromStore reuses the ballot store of an earlier server under a
// different gate.
func newTestServerFromStore(t *testing.T, base testServer, gate stubGate) testServer {
	t.Helper()
	store := base.store
	module := balloting.NewModule(balloting.Dependencies{
		Voters:         store,
		Catalog:        store,
		Ballots:        store,
		Tallies:        store,
		Audit:          store,
		Reconciliation: store,
		Eligibility:    gate,
		Phase:          gate,
		Outbox:         store,
		OutboxStore:    store,
		IDGen:          store,
		Clock:          store,
	})
	server := New(base.timeline, module, nil, ":0").WithMetrics(prometheus.NewRegistry())
	return testServer{Server: server, store: store}
}

func TestResolveReconciliationItem(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	item, created, err := server.store.EnqueueReconciliation(context.Background(), ballotingentities.ReconciliationItem{
		ItemID:  "item-1",
		VoterID: "voter-2",
		Reason:  ballotingentities.ReasonClaimedWithoutBallot,
		Status:  ballotingentities.ReconciliationPending,
	})
	require.NoError(t, err)
	require.True(t, created)

	rr := server.do(t, http.MethodPost, "/api/v1/admin/reconciliation/"+item.ItemID+"/resolve",
		`{"actor_id":"admin-1","note":"voter abandoned"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"resolved"`)

	rr = server.do(t, http.MethodPost, "/api/v1/admin/reconciliation/"+item.ItemID+"/resolve",
		`{"actor_id":"admin-1"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "reconciliation_resolved", decodeError(t, rr)["code"])

	rr = server.do(t, http.MethodPost, "/api/v1/admin/reconciliation/missing/resolve", `{"actor_id":"admin-1"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListReconciliationRejectsUnknownStatus(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	rr := server.do(t, http.MethodGet, "/api/v1/admin/reconciliation?status=lost", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReconcileTalliesReportsCorrections(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})
	server.store.Fail(ballotingmemory.OpIncrementCount, errors.New("counter unavailable"))
	rr := server.do(t, http.MethodPost, "/api/v1/votes", `{"voterId":"voter-1","selections":{"President":["c1"]}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	server.store.Fail(ballotingmemory.OpIncrementCount, nil)

	rr = server.do(t, http.MethodPost, "/api/v1/admin/tallies/reconcile", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"corrections":[{"candidate_id":"c1","cached":0,"actual":1}]}`, rr.Body.String())
}

func TestTimelineRoutes(t *testing.T) {
	server := newTestServer(t, stubGate{vote: true})

	rr := server.do(t, http.MethodGet, "/api/v1/timeline/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"is_voting_active":true`)

	rr = server.do(t, http.MethodGet, "/api/v1/timeline/eligibility/vote", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"allowed":true`)

	rr = server.do(t, http.MethodGet, "/api/v1/timeline/eligibility/teleport", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = server.do(t, http.MethodGet, "/api/v1/timeline/stages/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"category":"voting"`)

	rr = server.do(t, http.MethodGet, "/api/v1/timeline/stages/42", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = server.do(t, http.MethodDelete, "/api/v1/timeline/stages/abc", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = server.do(t, http.MethodDelete, "/api/v1/timeline/stages/42", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = server.do(t, http.MethodDelete, "/api/v1/timeline/stages/1", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHealthReportsFailingDependency(t *testing.T) {
	server := newTestServer(t, stubGate{})
	server.WithHealthCheck("postgres", func(context.Context) error { return nil })

	rr := server.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)

	server.WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rr = server.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redis":"connection refused"`)
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	server := newTestServer(t, stubGate{})
	rr := server.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
}
