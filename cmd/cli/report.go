package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/testgen-hq/pymute/internal/score"
)

func reportCmd() *cobra.Command {
	var (
		format    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "report <module>",
		Short: "Generate a report from the most recent run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module := args[0]

			reportFormat := score.ReportFormat(format)
			switch reportFormat {
			case score.FormatText, score.FormatJSON, score.FormatHTML:
			default:
				return fmt.Errorf("unsupported format %q, want text, json, or html", format)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			detector := score.NewDetector(cfg.ResultsDir)
			outcomes, resultsFile, err := detector.LatestOutcomes(module)
			if err != nil {
				return fmt.Errorf("no results for module %s: %w", module, err)
			}

			runID := score.RunID(runIDFromResultsFile(module, resultsFile))
			rep := score.BuildReport(module, runID, outcomes)

			dir := outputDir
			if dir == "" {
				dir = cfg.ResultsDir
			}

			path, err := score.NewReporter(dir).Generate(rep, reportFormat)
			if err != nil {
				return err
			}

			cmd.Printf("Report written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format (text, json, html)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to the results directory)")

	return cmd
}

// runIDFromResultsFile recovers the run identifier from a results file
// name, or returns an empty string for legacy names without one.
func runIDFromResultsFile(module, path string) string {
	base := filepath.Base(path)
	prefix := "mutation_test_results_" + module + "_"
	if len(base) <= len(prefix)+len(".csv") || base[:len(prefix)] != prefix || filepath.Ext(base) != ".csv" {
		return ""
	}
	return base[len(prefix) : len(base)-len(".csv")]
}
