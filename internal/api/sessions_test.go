package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/AaronLay10/DecisionSim/internal/orchestrator"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

func intPtr(n int) *int { return &n }

func TestScenarioEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	var list []ScenarioSummary
	if code := doJSON(t, "GET", ts.URL+"/scenarios", nil, &list); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(list) != 2 || list[0].ID != "incident-response" || list[1].ID != "startup-pivot" {
		t.Fatalf("unexpected scenario list %+v", list)
	}

	var filtered []ScenarioSummary
	doJSON(t, "GET", ts.URL+"/scenarios?max_difficulty=intermediate", nil, &filtered)
	if len(filtered) != 1 || filtered[0].ID != "startup-pivot" {
		t.Errorf("unexpected filtered list %+v", filtered)
	}

	var errResp ErrorResponse
	if code := doJSON(t, "GET", ts.URL+"/scenarios?max_difficulty=legendary", nil, &errResp); code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown difficulty, got %d", code)
	}

	var one ScenarioSummary
	if code := doJSON(t, "GET", ts.URL+"/scenarios/startup-pivot", nil, &one); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if one.Title != "Competitor Launch" || one.Difficulty != "intermediate" || one.Duration != "10m0s" {
		t.Errorf("unexpected summary %+v", one)
	}

	if code := doJSON(t, "GET", ts.URL+"/scenarios/missing", nil, &errResp); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if !strings.Contains(errResp.Error, "missing") {
		t.Errorf("expected error to name the id, got %q", errResp.Error)
	}

	var doc simulation.GraphDocument
	if code := doJSON(t, "GET", ts.URL+"/scenarios/startup-pivot/graph", nil, &doc); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if doc.RootID != "start" {
		t.Fatalf("unexpected root %q", doc.RootID)
	}
	wantLabels := []string{
		"Cut prices to undercut the competitor",
		"Stay the course and ship as planned",
		"Pivot to differentiate our product",
		"Propose a partnership with a complementary company",
	}
	opts := doc.Nodes["start"].Options
	if len(opts) != len(wantLabels) {
		t.Fatalf("expected %d start options, got %d", len(wantLabels), len(opts))
	}
	for i, want := range wantLabels {
		if opts[i].Label != want {
			t.Errorf("option %d: expected %q, got %q", i, want, opts[i].Label)
		}
	}
	if pivot := doc.Nodes["pivot"].Options; len(pivot) != 3 || pivot[1].Next != "data_driven" {
		t.Errorf("unexpected pivot options %+v", pivot)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	var v orchestrator.View
	code := doJSON(t, "POST", ts.URL+"/sessions", CreateSessionRequest{ScenarioID: "startup-pivot"}, &v)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if v.ID == "" || v.CurrentNode.ID != "start" {
		t.Fatalf("unexpected new session %+v", v)
	}
	base := ts.URL + "/sessions/" + v.ID

	if code := doJSON(t, "POST", base+"/advance", AdvanceRequest{Option: intPtr(2)}, &v); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if v.CurrentNode.ID != "pivot" || v.Score != 15 || len(v.History) != 1 || v.Progress != 50 {
		t.Errorf("unexpected view after pivot %+v", v)
	}

	if code := doJSON(t, "POST", base+"/advance", AdvanceRequest{Option: intPtr(1)}, &v); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !v.Terminated || v.Outcome == nil || v.Outcome.Score != 95 || !v.Outcome.Success || v.Progress != 100 {
		t.Errorf("expected successful terminal view, got %+v", v)
	}

	var errResp ErrorResponse
	if code := doJSON(t, "POST", base+"/advance", AdvanceRequest{Option: intPtr(0)}, &errResp); code != http.StatusConflict {
		t.Errorf("expected 409 after termination, got %d", code)
	}

	if code := doJSON(t, "POST", base+"/reset", nil, &v); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if v.Terminated || v.Score != 0 || v.CurrentNode.ID != "start" {
		t.Errorf("expected fresh session after reset, got %+v", v)
	}

	var list []orchestrator.View
	doJSON(t, "GET", ts.URL+"/sessions", nil, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 live session, got %d", len(list))
	}

	if code := doJSON(t, "DELETE", base, nil, nil); code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", code)
	}
	if code := doJSON(t, "GET", base, nil, &errResp); code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestSessionRequestErrors(t *testing.T) {
	_, ts := newTestServer(t)

	var v orchestrator.View
	doJSON(t, "POST", ts.URL+"/sessions", CreateSessionRequest{ScenarioID: "startup-pivot"}, &v)
	base := ts.URL + "/sessions/" + v.ID

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
		want   int
	}{
		{"unknown scenario", "POST", ts.URL + "/sessions", CreateSessionRequest{ScenarioID: "missing"}, http.StatusNotFound},
		{"missing scenario id", "POST", ts.URL + "/sessions", CreateSessionRequest{}, http.StatusBadRequest},
		{"missing option", "POST", base + "/advance", map[string]string{}, http.StatusBadRequest},
		{"option out of range", "POST", base + "/advance", AdvanceRequest{Option: intPtr(7)}, http.StatusUnprocessableEntity},
		{"negative option", "POST", base + "/advance", AdvanceRequest{Option: intPtr(-1)}, http.StatusUnprocessableEntity},
		{"unknown session", "POST", ts.URL + "/sessions/nope/advance", AdvanceRequest{Option: intPtr(0)}, http.StatusNotFound},
		{"reset unknown session", "POST", ts.URL + "/sessions/nope/reset", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp ErrorResponse
			if code := doJSON(t, tt.method, tt.url, tt.body, &errResp); code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, code, errResp.Error)
			}
			if errResp.OK || errResp.Error == "" {
				t.Errorf("expected error body, got %+v", errResp)
			}
		})
	}

	resp, err := http.Post(base+"/advance", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad JSON, got %d", resp.StatusCode)
	}
}
