// Package pipeline orchestrates a full mutation-testing run: generate,
// test, score, and optionally hunt down survivors.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/testgen-hq/pymute/internal/config"
	"github.com/testgen-hq/pymute/internal/killer"
	"github.com/testgen-hq/pymute/internal/mutagen"
	"github.com/testgen-hq/pymute/internal/score"
)

// Phase marks where a run currently is, for logging and partial results.
type Phase string

const (
	PhaseGenerate Phase = "generate"
	PhaseTest     Phase = "test"
	PhaseScore    Phase = "score"
	PhaseKiller   Phase = "killer"
	PhaseRescore  Phase = "rescore"
	PhaseDone     Phase = "done"
	// PhasePartialDone means the killer stage could not finish; the
	// initial score and survivor list still stand.
	PhasePartialDone Phase = "partial_done"
)

// Options control which stages a run executes.
type Options struct {
	// SkipGeneration reuses mutants already on disk instead of invoking
	// the mutation engine.
	SkipGeneration bool
	// RunKiller enables the LLM survivor-killer stage.
	RunKiller bool
	// TypesCSV is the manifest file name written next to the mutants.
	TypesCSV string
}

// RunResult is the combined outcome of one pipeline run.
type RunResult struct {
	Module      string         `json:"module"`
	RunID       score.RunID    `json:"run_id"`
	Phase       Phase          `json:"phase"`
	ResultsFile string         `json:"results_file"`
	SummaryFile string         `json:"summary_file"`
	Score       score.Score    `json:"score"`
	Survivors   []string       `json:"survivors"`
	Killer      *killer.Result `json:"killer,omitempty"`
	Rescore     *score.Score   `json:"rescore,omitempty"`
	RescoreID   score.RunID    `json:"rescore_run_id,omitempty"`
}

// Perfect reports whether the final score killed every valid mutant.
func (r *RunResult) Perfect() bool {
	if r.Rescore != nil {
		return r.Rescore.Perfect()
	}
	return r.Score.Perfect()
}

// FinalScore returns the rescored value when the killer merged new
// tests, otherwise the initial score.
func (r *RunResult) FinalScore() score.Score {
	if r.Rescore != nil {
		return *r.Rescore
	}
	return r.Score
}

type generator interface {
	GenerateMutants(ctx context.Context) error
	SeparateMutants(csvName string) (*mutagen.Manifest, error)
	MutantFiles() ([]string, error)
}

type runner interface {
	SetTestFile(path string)
	TestOriginal(ctx context.Context) score.Outcome
	TestMutant(ctx context.Context, sourceContent, label string) score.Outcome
}

// SurvivorKiller is the optional stage that tries to kill surviving
// mutants with newly synthesized tests.
type SurvivorKiller interface {
	KillSurvivors(ctx context.Context, survivors []string) (*killer.Result, error)
}

// Controller runs the mutation pipeline for one module.
type Controller struct {
	cfg    *config.Config
	module string
	gen    generator
	runner runner
	killer SurvivorKiller // nil disables the killer stage
	logger zerolog.Logger
}

// New wires a controller from concrete components. Pass a nil killer
// to run without the survivor-killer stage.
func New(cfg *config.Config, module string, gen generator, r runner, sk SurvivorKiller, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:    cfg,
		module: module,
		gen:    gen,
		runner: r,
		killer: sk,
		logger: logger.With().Str("component", "pipeline").Str("module", module).Logger(),
	}
}

// Run executes the pipeline. Mutants are tested strictly one at a time;
// each outcome is appended to the results CSV as soon as it is known.
func (c *Controller) Run(ctx context.Context, opts Options) (*RunResult, error) {
	result := &RunResult{Module: c.module, Phase: PhaseGenerate}

	if opts.TypesCSV == "" {
		opts.TypesCSV = "mutation_types_report.csv"
	}

	if opts.SkipGeneration {
		c.logger.Info().Msg("Skipping mutant generation, reusing existing mutants")
	} else {
		if err := c.gen.GenerateMutants(ctx); err != nil {
			return result, fmt.Errorf("mutant generation failed: %w", err)
		}
		if _, err := c.gen.SeparateMutants(opts.TypesCSV); err != nil {
			return result, fmt.Errorf("mutant separation failed: %w", err)
		}
	}

	mutantFiles, err := c.gen.MutantFiles()
	if err != nil {
		return result, err
	}
	if len(mutantFiles) == 0 {
		return result, fmt.Errorf("no mutants found for module %s", c.module)
	}

	result.Phase = PhaseTest
	runID := score.NewRunID()
	result.RunID = runID

	outcomes, resultsFile, err := c.testAll(ctx, runID, mutantFiles)
	if err != nil {
		return result, err
	}
	result.ResultsFile = resultsFile

	result.Phase = PhaseScore
	result.Score = score.Calculate(outcomes)
	result.Survivors = score.SurvivedMutants(outcomes)

	report := score.BuildReport(c.module, runID, outcomes)
	summaryFile, err := score.WriteSummary(c.cfg.ResultsDir, report)
	if err != nil {
		return result, err
	}
	result.SummaryFile = summaryFile

	c.logger.Info().
		Str("score", result.Score.String()).
		Str("band", result.Score.Band()).
		Int("survivors", len(result.Survivors)).
		Msg("Mutation run scored")

	if c.killer == nil || !opts.RunKiller || len(result.Survivors) == 0 {
		result.Phase = PhaseDone
		return result, nil
	}

	result.Phase = PhaseKiller
	killerResult, err := c.killer.KillSurvivors(ctx, result.Survivors)
	if killerResult != nil {
		result.Killer = killerResult
	}
	if err != nil {
		// A collaborator failure never discards the scored run.
		c.logger.Warn().Err(err).Msg("Survivor killer aborted, reporting partial results")
		result.Phase = PhasePartialDone
		return result, nil
	}

	if !killerResult.Merged {
		c.logger.Info().
			Int("still_surviving", len(killerResult.StillSurviving)).
			Msg("Killer tests not merged, reporting partial results")
		result.Phase = PhasePartialDone
		return result, nil
	}

	result.Phase = PhaseRescore
	rescoreID := score.NewRunID()
	rescored, _, err := c.testAll(ctx, rescoreID, mutantFiles)
	if err != nil {
		return result, fmt.Errorf("rescore failed: %w", err)
	}
	s := score.Calculate(rescored)
	result.Rescore = &s
	result.RescoreID = rescoreID

	if s.Perfect() {
		c.logger.Info().Msg("Perfect mutation score after merging killer tests")
	} else {
		c.logger.Info().Str("score", s.String()).Msg("Rescored after merging killer tests")
	}

	result.Phase = PhaseDone
	return result, nil
}

// testAll runs the suite against the original and every mutant,
// persisting outcomes as it goes. Returns all outcomes in run order.
func (c *Controller) testAll(ctx context.Context, runID score.RunID, mutantFiles []string) ([]score.Outcome, string, error) {
	resultsFile := filepath.Join(c.cfg.ResultsDir, score.ResultsFileName(c.module, runID))
	store, err := score.NewStore(resultsFile)
	if err != nil {
		return nil, "", err
	}

	var outcomes []score.Outcome

	original := c.runner.TestOriginal(ctx)
	outcomes = append(outcomes, original)
	if err := store.Append(original); err != nil {
		return nil, "", err
	}
	if original.Status != score.StatusPass {
		c.logger.Warn().Str("status", string(original.Status)).
			Msg("Suite does not pass on the original source, mutant verdicts will be unreliable")
	}

	for _, path := range mutantFiles {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read mutant %s: %w", path, err)
		}
		outcome := c.runner.TestMutant(ctx, string(content), filepath.Base(path))
		outcomes = append(outcomes, outcome)
		if err := store.Append(outcome); err != nil {
			return nil, "", err
		}
	}

	return outcomes, resultsFile, nil
}
