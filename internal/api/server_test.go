package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/testgen-hq/pymute/internal/config"
	"github.com/testgen-hq/pymute/internal/score"
)

func testServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		ResultsDir: t.TempDir(),
		Port:       8080,
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s, cfg
}

func writeRun(t *testing.T, cfg *config.Config, module string, id score.RunID, outcomes []score.Outcome) {
	t.Helper()
	path := filepath.Join(cfg.ResultsDir, score.ResultsFileName(module, id))
	store, err := score.NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range outcomes {
		if err := store.Append(o); err != nil {
			t.Fatal(err)
		}
	}
}

func calculatorRun() []score.Outcome {
	return []score.Outcome{
		{Subject: "calculator.py", Kind: score.KindOriginal, Status: score.StatusPass,
			TestsTotal: 4, TestsPassed: 4, ExecutionTime: "0.12s"},
		{Subject: "mutant_calculator_0.py", Kind: score.KindMutant, Status: score.StatusFail,
			TestsTotal: 4, TestsPassed: 3, TestsFailed: 1, ExecutionTime: "0.11s"},
		{Subject: "mutant_calculator_1.py", Kind: score.KindMutant, Status: score.StatusPass,
			TestsTotal: 4, TestsPassed: 4, ExecutionTime: "0.10s"},
	}
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	s, _ := testServer(t)

	rr := doGet(t, s, "/health")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != `{"status":"ok"}` {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestListRuns(t *testing.T) {
	s, cfg := testServer(t)
	writeRun(t, cfg, "calculator", "20250101T000000Z-aaaaaaaa", calculatorRun())
	writeRun(t, cfg, "calculator", "20250102T000000Z-bbbbbbbb", calculatorRun())
	writeRun(t, cfg, "stack", "20250103T000000Z-cccccccc", nil)

	rr := doGet(t, s, "/api/v1/modules/calculator/runs")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var runs []RunSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &runs); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	// Newest first.
	if runs[0].RunID != "20250102T000000Z-bbbbbbbb" {
		t.Errorf("runs[0].RunID = %s", runs[0].RunID)
	}
	if runs[1].RunID != "20250101T000000Z-aaaaaaaa" {
		t.Errorf("runs[1].RunID = %s", runs[1].RunID)
	}
}

func TestListRunsEmpty(t *testing.T) {
	s, _ := testServer(t)

	rr := doGet(t, s, "/api/v1/modules/calculator/runs")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "[]\n" {
		t.Errorf("body = %q, want empty array", rr.Body.String())
	}
}

func TestGetLatestRun(t *testing.T) {
	s, cfg := testServer(t)
	writeRun(t, cfg, "calculator", "20250101T000000Z-aaaaaaaa", calculatorRun())

	rr := doGet(t, s, "/api/v1/modules/calculator/runs/latest")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var rep score.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if rep.Module != "calculator" {
		t.Errorf("Module = %s", rep.Module)
	}
	if rep.RunID != "20250101T000000Z-aaaaaaaa" {
		t.Errorf("RunID = %s", rep.RunID)
	}
	if rep.Score.Killed != 1 || rep.Score.Survived != 1 {
		t.Errorf("score = %+v", rep.Score)
	}
	if len(rep.Survivors) != 1 || rep.Survivors[0] != "mutant_calculator_1.py" {
		t.Errorf("Survivors = %v", rep.Survivors)
	}
}

func TestGetLatestRunNotFound(t *testing.T) {
	s, _ := testServer(t)

	rr := doGet(t, s, "/api/v1/modules/calculator/runs/latest")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error message missing")
	}
}

func TestListSurvivors(t *testing.T) {
	s, cfg := testServer(t)
	writeRun(t, cfg, "calculator", "20250101T000000Z-aaaaaaaa", calculatorRun())

	rr := doGet(t, s, "/api/v1/modules/calculator/survivors")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp SurvivorsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(resp.Survivors) != 1 || resp.Survivors[0] != "mutant_calculator_1.py" {
		t.Errorf("Survivors = %v", resp.Survivors)
	}
}

func TestInvalidModuleName(t *testing.T) {
	s, _ := testServer(t)

	for _, path := range []string{
		"/api/v1/modules/..%2F..%2Fetc/runs",
		"/api/v1/modules/bad-name!/survivors",
	} {
		rr := doGet(t, s, path)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", path, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestRespondJSONNilBody(t *testing.T) {
	rr := httptest.NewRecorder()

	respondJSON(rr, http.StatusNoContent, nil)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Body.Len() != 0 {
		t.Error("body should be empty for nil data")
	}
}

func TestRunIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"mutation_test_results_calculator_20250101T000000Z-aaaaaaaa.csv", "20250101T000000Z-aaaaaaaa"},
		{"mutation_results_calculator_old.csv", ""},
		{"unrelated.txt", ""},
	}
	for _, tt := range tests {
		if got := runIDFromPath("calculator", tt.path); got != tt.want {
			t.Errorf("runIDFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
