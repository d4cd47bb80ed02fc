package score

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Detector locates the most recent results file for a module inside
// the results directory.
type Detector struct {
	resultsDir string
}

// NewDetector returns a detector over the given results directory.
func NewDetector(resultsDir string) *Detector {
	return &Detector{resultsDir: resultsDir}
}

// LatestResults finds the newest results CSV for a module. File names
// produced by this tool embed a sortable run identifier, so the lexically
// greatest match wins. Looser legacy patterns fall back to modification
// time ordering.
func (d *Detector) LatestResults(module string) (string, error) {
	exact := fmt.Sprintf("mutation_test_results_%s_*.csv", module)
	matches, err := filepath.Glob(filepath.Join(d.resultsDir, exact))
	if err != nil {
		return "", fmt.Errorf("failed to scan results directory: %w", err)
	}
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches[len(matches)-1], nil
	}

	for _, pattern := range []string{
		fmt.Sprintf("mutation_results_%s_*.csv", module),
		fmt.Sprintf("*%s*.csv", module),
	} {
		matches, err := filepath.Glob(filepath.Join(d.resultsDir, pattern))
		if err != nil {
			return "", fmt.Errorf("failed to scan results directory: %w", err)
		}
		if latest := newestByMtime(matches); latest != "" {
			return latest, nil
		}
	}

	return "", fmt.Errorf("no results found for module %s in %s", module, d.resultsDir)
}

// LatestOutcomes loads outcomes from the newest results file for a module.
func (d *Detector) LatestOutcomes(module string) ([]Outcome, string, error) {
	path, err := d.LatestResults(module)
	if err != nil {
		return nil, "", err
	}
	outcomes, err := OpenStore(path).ReadOutcomes()
	if err != nil {
		return nil, "", err
	}
	return outcomes, path, nil
}

func newestByMtime(paths []string) string {
	var latest string
	var latestMod int64 = -1
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); mod > latestMod {
			latestMod = mod
			latest = p
		}
	}
	return latest
}

// Partition splits outcomes into the original run and the mutant runs.
func Partition(outcomes []Outcome) (original *Outcome, mutants []Outcome) {
	for i := range outcomes {
		if outcomes[i].Kind == KindOriginal {
			if original == nil {
				o := outcomes[i]
				original = &o
			}
			continue
		}
		mutants = append(mutants, outcomes[i])
	}
	return original, mutants
}

// SurvivedMutants returns the subject names of mutants the suite failed
// to kill, in recorded order.
func SurvivedMutants(outcomes []Outcome) []string {
	var names []string
	for _, o := range outcomes {
		if o.Kind == KindMutant && o.Classification() == Survived {
			names = append(names, o.Subject)
		}
	}
	return names
}
