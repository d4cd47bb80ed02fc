package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:     "pymute",
		Short:   "pymute - mutation testing for Python modules",
		Long:    `pymute generates mutants for Python modules, runs the test suite against each one in isolation, and scores how well the suite detects the injected faults.`,
		Version: version,
	}

	// Add subcommands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(survivorsCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
