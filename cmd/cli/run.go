package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/testgen-hq/pymute/internal/config"
	"github.com/testgen-hq/pymute/internal/killer"
	"github.com/testgen-hq/pymute/internal/llm"
	"github.com/testgen-hq/pymute/internal/mutagen"
	"github.com/testgen-hq/pymute/internal/pipeline"
	"github.com/testgen-hq/pymute/internal/tester"
)

// loadConfig resolves the effective configuration: environment
// defaults overlaid with the project file when one exists.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pc, err := config.LoadProjectConfig(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	if err := pc.Merge(cfg); err != nil {
		return nil, fmt.Errorf("invalid project config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSynthesizer builds the LLM backend for the survivor killer. A
// router that cannot be constructed is reported as nil so the caller
// can degrade to a scoring-only run.
func newSynthesizer(cfg *config.Config) llm.Synthesizer {
	router, err := llm.NewRouter(&cfg.LLM)
	if err != nil {
		log.Warn().Err(err).Msg("LLM router unavailable, running without the survivor killer")
		return nil
	}
	if err := router.HealthCheck(); err != nil {
		log.Warn().Err(err).Msg("no LLM provider reachable, running without the survivor killer")
		return nil
	}

	cache := llm.NewCache(cfg.LLM.CacheType, 100, 24*time.Hour)
	return llm.NewSynthesizer(llm.NewCachedRouter(router, cache, 24*time.Hour), llm.Tier3)
}

func runCmd() *cobra.Command {
	var (
		csvReport      string
		skipGeneration bool
		runKiller      bool
	)

	cmd := &cobra.Command{
		Use:   "run <module>",
		Short: "Run mutation testing against a module",
		Long: `Generates mutants for the module, runs its test suite against the
original and every mutant, and reports the mutation score. With
--survivor-killer, surviving mutants are fed to an LLM that writes
additional killer tests.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module := args[0]
			if !strings.HasSuffix(csvReport, ".csv") {
				return fmt.Errorf("csv-report must be a .csv file name, got %q", csvReport)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := checkModuleListed(cfg, module); err != nil {
				return err
			}

			ctx := context.Background()
			logger := log.Logger

			gen := mutagen.NewGenerator(cfg, module, logger)
			runner := tester.New(cfg, module, logger)

			var sk *killer.Killer
			if runKiller {
				if synth := newSynthesizer(cfg); synth != nil {
					sk = killer.New(cfg, module, synth, runner, logger)
				}
			}

			controller := pipeline.New(cfg, module, gen, runner, killerOrNil(sk), logger)
			result, err := controller.Run(ctx, pipeline.Options{
				SkipGeneration: skipGeneration,
				RunKiller:      runKiller,
				TypesCSV:       csvReport,
			})
			if err != nil {
				return err
			}

			printRunResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvReport, "csv-report", "mutation_types_report.csv", "File name for the mutation types CSV manifest")
	cmd.Flags().BoolVar(&skipGeneration, "skip-generation", false, "Reuse mutants already on disk instead of regenerating them")
	cmd.Flags().BoolVar(&runKiller, "survivor-killer", false, "Use an LLM to write tests that kill surviving mutants")

	return cmd
}

// checkModuleListed enforces the project file's module list when one
// is configured.
func checkModuleListed(cfg *config.Config, module string) error {
	if len(cfg.Modules) == 0 {
		return nil
	}
	for _, m := range cfg.Modules {
		if m == module {
			return nil
		}
	}
	return fmt.Errorf("module %s is not listed in %s (modules: %s)",
		module, config.ProjectConfigName, strings.Join(cfg.Modules, ", "))
}

// killerOrNil avoids handing the pipeline a typed nil interface.
func killerOrNil(k *killer.Killer) pipeline.SurvivorKiller {
	if k == nil {
		return nil
	}
	return k
}

func printRunResult(cmd *cobra.Command, result *pipeline.RunResult) {
	s := result.FinalScore()
	cmd.Printf("Module:   %s\n", result.Module)
	cmd.Printf("Run:      %s\n", result.RunID)
	cmd.Printf("Mutants:  %d (%d valid, %d problematic)\n", s.Total, s.Valid, s.Problematic)
	cmd.Printf("Killed:   %d\n", s.Killed)
	cmd.Printf("Survived: %d\n", s.Survived)
	cmd.Printf("Score:    %s (%s)\n", s.String(), s.Band())

	if result.Killer != nil {
		cmd.Printf("Killer tests: %s (%d killed, %d still surviving)\n",
			result.Killer.KillerTestFile, len(result.Killer.Killed), len(result.Killer.StillSurviving))
	}
	if result.Perfect() {
		cmd.Println("All valid mutants killed.")
	} else if len(result.Survivors) > 0 && result.Rescore == nil {
		cmd.Printf("Surviving mutants: %s\n", strings.Join(result.Survivors, ", "))
	}
	if result.Phase == pipeline.PhasePartialDone {
		cmd.Println("Survivor killer did not complete; the score above reflects the unmodified suite.")
	}
}
