package score

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var resultsHeader = []string{
	"file_name", "file_type", "status",
	"num_tests", "num_pass", "num_fail",
	"execution_time", "error_msg",
}

// Store persists run outcomes as a CSV file, one row per test run.
// Rows are appended as the run progresses so a crashed run still
// leaves a readable partial record.
type Store struct {
	path string
}

// ResultsFileName builds the per-run results file name for a module.
func ResultsFileName(module string, id RunID) string {
	return fmt.Sprintf("mutation_test_results_%s_%s.csv", module, id)
}

// SummaryFileName builds the per-run summary file name for a module.
func SummaryFileName(module string, id RunID) string {
	return fmt.Sprintf("mutation_summary_%s_%s.txt", module, id)
}

// NewStore creates a results store at path, truncating any previous
// file and writing the header row.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultsHeader); err != nil {
		return nil, fmt.Errorf("failed to write results header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush results header: %w", err)
	}

	return &Store{path: path}, nil
}

// OpenStore opens an existing results file without touching it.
func OpenStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the underlying CSV file.
func (s *Store) Path() string { return s.path }

// Append writes one outcome row to the end of the file.
func (s *Store) Append(o Outcome) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		o.Subject,
		string(o.Kind),
		string(o.Status),
		strconv.Itoa(o.TestsTotal),
		strconv.Itoa(o.TestsPassed),
		strconv.Itoa(o.TestsFailed),
		o.ExecutionTime,
		o.ErrorMsg,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write outcome row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush outcome row: %w", err)
	}
	return nil
}

// ReadOutcomes loads all rows back from the file.
func (s *Store) ReadOutcomes() ([]Outcome, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("results file %s is empty", s.path)
	}

	outcomes := make([]Outcome, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(resultsHeader) {
			return nil, fmt.Errorf("results row %d has %d fields, want %d", i+2, len(rec), len(resultsHeader))
		}
		total, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("results row %d: bad num_tests %q", i+2, rec[3])
		}
		passed, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, fmt.Errorf("results row %d: bad num_pass %q", i+2, rec[4])
		}
		failed, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("results row %d: bad num_fail %q", i+2, rec[5])
		}
		outcomes = append(outcomes, Outcome{
			Subject:       rec[0],
			Kind:          SubjectKind(rec[1]),
			Status:        Status(rec[2]),
			TestsTotal:    total,
			TestsPassed:   passed,
			TestsFailed:   failed,
			ExecutionTime: rec[6],
			ErrorMsg:      rec[7],
		})
	}
	return outcomes, nil
}
