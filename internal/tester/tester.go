// Package tester runs pytest suites against module sources in an
// isolated scratch directory.
package tester

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/testgen-hq/pymute/internal/config"
	"github.com/testgen-hq/pymute/internal/score"
)

var (
	passedRe = regexp.MustCompile(`(\d+) passed`)
	failedRe = regexp.MustCompile(`(\d+) failed`)
)

// Tester runs one module's test suite against arbitrary source
// content. Each run gets a clean copy of the module and a rewritten
// test file inside the scratch directory.
type Tester struct {
	cfg      *config.Config
	module   string
	testFile string
	logger   zerolog.Logger
}

// New creates a tester for the given module using its default
// generated test suite.
func New(cfg *config.Config, module string, logger zerolog.Logger) *Tester {
	return &Tester{
		cfg:      cfg,
		module:   module,
		testFile: cfg.TestFile(module),
		logger:   logger.With().Str("component", "tester").Str("module", module).Logger(),
	}
}

// SetTestFile switches the suite used for subsequent runs, e.g. to a
// killer test file.
func (t *Tester) SetTestFile(path string) {
	t.testFile = path
}

// TestFile returns the suite currently in use.
func (t *Tester) TestFile() string {
	return t.testFile
}

// TestOriginal runs the suite against the unmutated module source.
func (t *Tester) TestOriginal(ctx context.Context) score.Outcome {
	content, err := os.ReadFile(t.cfg.SourceFile(t.module))
	if err != nil {
		return score.Outcome{
			Subject:       t.module + ".py",
			Kind:          score.KindOriginal,
			Status:        score.StatusError,
			TestsFailed:   1,
			ExecutionTime: "0.0s",
			ErrorMsg:      err.Error(),
		}
	}
	o := t.run(ctx, string(content), t.module+".py")
	o.Kind = score.KindOriginal
	return o
}

// TestMutant runs the suite against mutated module source. The label
// becomes the outcome's subject, normally the mutant file name.
func (t *Tester) TestMutant(ctx context.Context, sourceContent, label string) score.Outcome {
	o := t.run(ctx, sourceContent, label)
	o.Kind = score.KindMutant
	return o
}

func (t *Tester) run(ctx context.Context, sourceContent, label string) score.Outcome {
	outcome := score.Outcome{Subject: label}

	if err := os.MkdirAll(t.cfg.ScratchDir, 0o755); err != nil {
		return errorOutcome(outcome, fmt.Errorf("failed to create scratch directory: %w", err))
	}
	clearCaches(t.cfg.ScratchDir)

	modulePath := filepath.Join(t.cfg.ScratchDir, t.module+".py")
	testPath := filepath.Join(t.cfg.ScratchDir, "test_"+t.module+".py")
	defer func() {
		os.Remove(modulePath)
		os.Remove(testPath)
		clearCaches(t.cfg.ScratchDir)
	}()

	if err := os.WriteFile(modulePath, []byte(sourceContent), 0o644); err != nil {
		return errorOutcome(outcome, fmt.Errorf("failed to write module source: %w", err))
	}

	testContent, err := os.ReadFile(t.testFile)
	if err != nil {
		return errorOutcome(outcome, fmt.Errorf("failed to read test suite: %w", err))
	}
	rewritten, found := RewriteImports(string(testContent), t.module)
	if !found {
		t.logger.Warn().Str("subject", label).Str("test_file", t.testFile).
			Msg("No import preamble found in test suite, running it unmodified")
	}
	if err := os.WriteFile(testPath, []byte(rewritten), 0o644); err != nil {
		return errorOutcome(outcome, fmt.Errorf("failed to write test suite: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, t.cfg.TestTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.cfg.PythonBin, "-m", "pytest", testPath, "-v", "--tb=short")
	cmd.Dir = t.cfg.ScratchDir
	cmd.Env = append(os.Environ(),
		"PYTHONDONTWRITEBYTECODE=1",
		"PYTEST_DISABLE_PLUGIN_AUTOLOAD=1",
	)
	// Don't wait on grandchildren holding the output pipe after a kill.
	cmd.WaitDelay = time.Second

	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	outcome.Output = string(output)
	outcome.TestsPassed, outcome.TestsFailed = parseSummary(string(output))
	outcome.TestsTotal = outcome.TestsPassed + outcome.TestsFailed
	outcome.ExecutionTime = fmt.Sprintf("%.2fs", elapsed.Seconds())

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		outcome.Status = score.StatusTimeout
		outcome.TestsTotal = 0
		outcome.TestsPassed = 0
		outcome.TestsFailed = 1
		outcome.ExecutionTime = fmt.Sprintf("%.1fs (timeout)", t.cfg.TestTimeout.Seconds())
		outcome.ErrorMsg = "test run timed out"
		t.logger.Info().Str("subject", label).Msg("Timeout")
	case err == nil:
		outcome.Status = score.StatusPass
		t.logger.Info().Str("subject", label).
			Int("passed", outcome.TestsPassed).Int("total", outcome.TestsTotal).
			Msg("All tests passed")
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.Status = score.StatusFail
			t.logger.Info().Str("subject", label).
				Int("failed", outcome.TestsFailed).Int("total", outcome.TestsTotal).
				Msg("Tests failed")
		} else {
			return errorOutcome(outcome, err)
		}
	}

	return outcome
}

func errorOutcome(o score.Outcome, err error) score.Outcome {
	o.Status = score.StatusError
	o.TestsTotal = 0
	o.TestsPassed = 0
	o.TestsFailed = 1
	o.ExecutionTime = "0.0s"
	o.ErrorMsg = err.Error()
	return o
}

// parseSummary extracts pass and fail counts from the pytest summary
// line, e.g. "2 failed, 6 passed in 0.34s".
func parseSummary(output string) (passed, failed int) {
	if m := passedRe.FindStringSubmatch(output); m != nil {
		passed, _ = strconv.Atoi(m[1])
	}
	if m := failedRe.FindStringSubmatch(output); m != nil {
		failed, _ = strconv.Atoi(m[1])
	}
	return passed, failed
}

// clearCaches removes python bytecode and pytest caches from the
// scratch directory. Cleanup never reaches outside it.
func clearCaches(dir string) {
	for _, name := range []string{"__pycache__", ".pytest_cache"} {
		os.RemoveAll(filepath.Join(dir, name))
	}
}
