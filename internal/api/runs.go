package api

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/testgen-hq/pymute/internal/score"
)

// moduleNameRe keeps URL module parameters from escaping the results
// directory. Module names are plain Python identifiers.
var moduleNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RunSummary is one results file visible under a module.
type RunSummary struct {
	RunID       string `json:"run_id,omitempty"`
	ResultsFile string `json:"results_file"`
	ModifiedAt  string `json:"modified_at"`
}

// SurvivorsResponse lists mutants the suite failed to kill.
type SurvivorsResponse struct {
	Module      string   `json:"module"`
	ResultsFile string   `json:"results_file"`
	Survivors   []string `json:"survivors"`
}

func moduleParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	module := chi.URLParam(r, "module")
	if !moduleNameRe.MatchString(module) {
		respondError(w, http.StatusBadRequest, "invalid module name")
		return "", false
	}
	return module, true
}

// listRuns returns every recorded results file for a module, newest
// run first.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	module, ok := moduleParam(w, r)
	if !ok {
		return
	}

	pattern := filepath.Join(s.cfg.ResultsDir, "mutation_test_results_"+module+"_*.csv")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	runs := make([]RunSummary, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		runs = append(runs, RunSummary{
			RunID:       runIDFromPath(module, path),
			ResultsFile: filepath.Base(path),
			ModifiedAt:  info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	respondJSON(w, http.StatusOK, runs)
}

// getLatestRun rebuilds the report for the most recent run of a module.
func (s *Server) getLatestRun(w http.ResponseWriter, r *http.Request) {
	module, ok := moduleParam(w, r)
	if !ok {
		return
	}

	detector := score.NewDetector(s.cfg.ResultsDir)
	outcomes, path, err := detector.LatestOutcomes(module)
	if err != nil {
		respondError(w, http.StatusNotFound, "no results found for module "+module)
		return
	}

	runID := score.RunID(runIDFromPath(module, path))
	respondJSON(w, http.StatusOK, score.BuildReport(module, runID, outcomes))
}

// listSurvivors returns the surviving mutants of the most recent run.
func (s *Server) listSurvivors(w http.ResponseWriter, r *http.Request) {
	module, ok := moduleParam(w, r)
	if !ok {
		return
	}

	detector := score.NewDetector(s.cfg.ResultsDir)
	outcomes, path, err := detector.LatestOutcomes(module)
	if err != nil {
		log.Debug().Err(err).Str("module", module).Msg("no results for survivors query")
		respondError(w, http.StatusNotFound, "no results found for module "+module)
		return
	}

	survivors := score.SurvivedMutants(outcomes)
	if survivors == nil {
		survivors = []string{}
	}
	respondJSON(w, http.StatusOK, SurvivorsResponse{
		Module:      module,
		ResultsFile: filepath.Base(path),
		Survivors:   survivors,
	})
}

// runIDFromPath recovers the run identifier embedded in a results file
// name. Legacy file names without one yield an empty string.
func runIDFromPath(module, path string) string {
	base := filepath.Base(path)
	prefix := "mutation_test_results_" + module + "_"
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ".csv") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".csv")
}
