package main

import (
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/testgen-hq/pymute/internal/mutagen"
	"github.com/testgen-hq/pymute/internal/score"
)

func survivorsCmd() *cobra.Command {
	var csvReport string

	cmd := &cobra.Command{
		Use:   "survivors <module>",
		Short: "List mutants the test suite failed to kill",
		Long: `Reads the most recent results file for the module and prints every
mutant that survived, with its mutation type when the types manifest
is available.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			detector := score.NewDetector(cfg.ResultsDir)
			outcomes, resultsFile, err := detector.LatestOutcomes(module)
			if err != nil {
				return fmt.Errorf("no results for module %s: %w", module, err)
			}

			survivors := score.SurvivedMutants(outcomes)
			if len(survivors) == 0 {
				cmd.Printf("No surviving mutants in %s\n", filepath.Base(resultsFile))
				return nil
			}

			// Mutation types are best effort; runs made with
			// --skip-generation may have no manifest on disk.
			manifest, err := mutagen.ReadManifestCSV(module, filepath.Join(cfg.MutantsDir, csvReport))
			if err != nil {
				manifest = &mutagen.Manifest{}
			}

			cmd.Printf("Surviving mutants from %s:\n\n", filepath.Base(resultsFile))

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Mutant", "Mutation Type"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

			for _, name := range survivors {
				table.Append([]string{name, manifest.TypeOf(name)})
			}

			table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(survivors))})
			table.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&csvReport, "csv-report", "mutation_types_report.csv", "File name of the mutation types CSV manifest")

	return cmd
}
