// Package killer drives the survivor-killer loop: analyze surviving
// mutants, synthesize targeted tests, verify them, and fold them into
// the main suite.
package killer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/testgen-hq/pymute/internal/config"
	"github.com/testgen-hq/pymute/internal/diffan"
	"github.com/testgen-hq/pymute/internal/llm"
	"github.com/testgen-hq/pymute/internal/score"
)

// Runner executes the current test suite against the live source tree.
type Runner interface {
	SetTestFile(path string)
	TestOriginal(ctx context.Context) score.Outcome
}

// Result reports what the killer loop achieved.
type Result struct {
	KillerTestFile string   `json:"killer_test_file"`
	RepairAttempts int      `json:"repair_attempts"`
	Killed         []string `json:"killed"`
	StillSurviving []string `json:"still_surviving"`
	Merged         bool     `json:"merged"`
	MergeBackup    string   `json:"merge_backup,omitempty"`
}

// Killer drives killer test synthesis for one module.
type Killer struct {
	cfg            *config.Config
	module         string
	synth          llm.Synthesizer
	runner         Runner
	logger         zerolog.Logger
	repairAttempts int
}

// New creates a killer for the given module.
func New(cfg *config.Config, module string, synth llm.Synthesizer, runner Runner, logger zerolog.Logger) *Killer {
	attempts := cfg.RepairAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return &Killer{
		cfg:            cfg,
		module:         module,
		synth:          synth,
		runner:         runner,
		logger:         logger.With().Str("component", "killer").Str("module", module).Logger(),
		repairAttempts: attempts,
	}
}

// KillSurvivors runs the full survivor-killer workflow for the given
// surviving mutant file names. The generated killer suite is kept on
// disk regardless of outcome; the main suite is only rewritten when
// every survivor was killed.
func (k *Killer) KillSurvivors(ctx context.Context, survivors []string) (*Result, error) {
	if len(survivors) == 0 {
		return nil, fmt.Errorf("no surviving mutants to kill")
	}

	sourceFile := k.cfg.SourceFile(k.module)
	existingTestFile := k.cfg.TestFile(k.module)
	killerTestFile := k.cfg.KillerTestFile(k.module)

	sourceContent, err := os.ReadFile(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("source file not found: %w", err)
	}
	existingTests, err := os.ReadFile(existingTestFile)
	if err != nil {
		return nil, fmt.Errorf("test file not found: %w", err)
	}

	// 1. Analyze every surviving mutant against the original source.
	analyses := make([]*diffan.Analysis, 0, len(survivors))
	for _, name := range survivors {
		mutantPath := filepath.Join(k.cfg.MutantsDir, name)
		analysis, err := diffan.AnalyzeFiles(sourceFile, mutantPath)
		if err != nil {
			k.logger.Warn().Err(err).Str("mutant", name).Msg("Skipping unanalyzable mutant")
			continue
		}
		analyses = append(analyses, analysis)
		k.logger.Info().Str("mutant", name).Int("changes", len(analysis.Changes)).Msg("Analyzed survivor")
	}
	if len(analyses) == 0 {
		return nil, fmt.Errorf("no surviving mutants could be analyzed")
	}

	// 2. Synthesize the killer suite.
	k.logger.Info().Int("survivors", len(analyses)).Msg("Generating killer tests")
	prompt := llm.KillerTestPrompt(k.module, string(sourceContent), string(existingTests), analyses)
	code, err := k.synth.Synthesize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("killer test generation failed: %w", err)
	}
	if err := os.WriteFile(killerTestFile, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("failed to save killer tests: %w", err)
	}

	result := &Result{KillerTestFile: killerTestFile}

	// 3. Make the killer suite pass on the original, repairing via the
	// LLM when it does not.
	k.runner.SetTestFile(killerTestFile)
	defer k.runner.SetTestFile(existingTestFile)

	if err := k.repairUntilPassing(ctx, killerTestFile, result); err != nil {
		return result, err
	}

	// 4. Verify against each survivor.
	if err := k.verifyAgainstSurvivors(ctx, sourceFile, survivors, result); err != nil {
		return result, err
	}

	// 5. Merge only when nothing survived the killer suite.
	if len(result.StillSurviving) == 0 && len(result.Killed) > 0 {
		if err := k.merge(ctx, existingTestFile, killerTestFile, result); err != nil {
			return result, err
		}
	} else if len(result.StillSurviving) > 0 {
		k.logger.Warn().Strs("still_surviving", result.StillSurviving).
			Msg("Killer tests left survivors, skipping merge")
	}

	return result, nil
}

func (k *Killer) repairUntilPassing(ctx context.Context, killerTestFile string, result *Result) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			k.logger.Info().Int("attempt", attempt).Int("max", k.repairAttempts).Msg("Repair attempt")
		}

		outcome := k.runner.TestOriginal(ctx)
		if outcome.Status == score.StatusPass && outcome.TestsTotal > 0 {
			k.logger.Info().Int("tests", outcome.TestsTotal).Msg("Killer tests pass on original source")
			return nil
		}

		if attempt >= k.repairAttempts {
			return fmt.Errorf("killer tests still failing on original after %d repair attempts", k.repairAttempts)
		}

		repaired, err := k.synth.Synthesize(ctx, llm.RepairPrompt(k.module, outcome.Output))
		if err != nil {
			return fmt.Errorf("killer test repair failed: %w", err)
		}
		if err := os.WriteFile(killerTestFile, []byte(repaired), 0o644); err != nil {
			return fmt.Errorf("failed to save repaired killer tests: %w", err)
		}
		result.RepairAttempts = attempt + 1
	}
}

// verifyAgainstSurvivors swaps each mutant into the live source file,
// runs the killer suite, and restores the original afterwards. The
// original content is restored on every path, including panics.
func (k *Killer) verifyAgainstSurvivors(ctx context.Context, sourceFile string, survivors []string, result *Result) (err error) {
	backup, err := os.ReadFile(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to back up source: %w", err)
	}
	defer func() {
		if restoreErr := os.WriteFile(sourceFile, backup, 0o644); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore source: %w", restoreErr)
		}
	}()

	for _, name := range survivors {
		mutantContent, readErr := os.ReadFile(filepath.Join(k.cfg.MutantsDir, name))
		if readErr != nil {
			k.logger.Warn().Err(readErr).Str("mutant", name).Msg("Mutant file not found, skipping")
			continue
		}

		if writeErr := os.WriteFile(sourceFile, mutantContent, 0o644); writeErr != nil {
			return fmt.Errorf("failed to swap in mutant %s: %w", name, writeErr)
		}

		outcome := k.runner.TestOriginal(ctx)
		if outcome.Status == score.StatusPass {
			k.logger.Warn().Str("mutant", name).Msg("Mutant still survives")
			result.StillSurviving = append(result.StillSurviving, name)
		} else {
			k.logger.Info().Str("mutant", name).Msg("Mutant killed")
			result.Killed = append(result.Killed, name)
		}

		if writeErr := os.WriteFile(sourceFile, backup, 0o644); writeErr != nil {
			return fmt.Errorf("failed to restore source after %s: %w", name, writeErr)
		}
	}

	k.logger.Info().
		Int("killed", len(result.Killed)).
		Int("still_surviving", len(result.StillSurviving)).
		Msg("Killer verification complete")
	return nil
}

func (k *Killer) merge(ctx context.Context, existingTestFile, killerTestFile string, result *Result) error {
	existing, err := os.ReadFile(existingTestFile)
	if err != nil {
		return fmt.Errorf("failed to read existing suite: %w", err)
	}
	killerTests, err := os.ReadFile(killerTestFile)
	if err != nil {
		return fmt.Errorf("failed to read killer suite: %w", err)
	}

	backupFile := existingTestFile + ".backup_before_merge"
	if err := os.WriteFile(backupFile, existing, 0o644); err != nil {
		return fmt.Errorf("failed to back up existing suite: %w", err)
	}

	k.logger.Info().Str("backup", backupFile).Msg("Merging killer tests into main suite")
	merged, err := k.synth.Synthesize(ctx, llm.MergePrompt(k.module, string(existing), string(killerTests)))
	if err != nil {
		return fmt.Errorf("merge request failed: %w", err)
	}
	if err := os.WriteFile(existingTestFile, []byte(merged), 0o644); err != nil {
		return fmt.Errorf("failed to write merged suite: %w", err)
	}

	// Sanity run of the merged suite against the unmutated source.
	k.runner.SetTestFile(existingTestFile)
	outcome := k.runner.TestOriginal(ctx)
	if outcome.Status != score.StatusPass || outcome.TestsTotal == 0 {
		if restoreErr := os.WriteFile(existingTestFile, existing, 0o644); restoreErr != nil {
			return fmt.Errorf("merged suite broken and restore failed: %v", restoreErr)
		}
		return fmt.Errorf("merged suite failed on original source, restored from backup")
	}

	result.Merged = true
	result.MergeBackup = backupFile
	return nil
}
