// Package mutagen drives the external MutPy engine and splits its
// combined report into individual mutant files.
package mutagen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/testgen-hq/pymute/internal/config"
)

// Generator produces mutants of a single Python module.
type Generator struct {
	cfg    *config.Config
	module string
	logger zerolog.Logger
}

// NewGenerator creates a generator for the given module.
func NewGenerator(cfg *config.Config, module string, logger zerolog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		module: module,
		logger: logger.With().Str("component", "mutagen").Str("module", module).Logger(),
	}
}

// GenerateMutants runs MutPy against the module's source and its
// generated test suite, capturing the combined report to
// mutants_all_<module>.txt. The engine's nonzero exits for unrelated
// reasons are surfaced as errors; the report file is left in place
// either way so partial output can be inspected.
func (g *Generator) GenerateMutants(ctx context.Context) error {
	sourceFile := g.cfg.SourceFile(g.module)
	testFile := g.cfg.TestFile(g.module)
	reportFile := g.cfg.ReportFile(g.module)

	if _, err := os.Stat(sourceFile); err != nil {
		return fmt.Errorf("source file not found: %s", sourceFile)
	}
	if _, err := os.Stat(testFile); err != nil {
		return fmt.Errorf("test file not found: %s", testFile)
	}
	if err := os.MkdirAll(g.cfg.MutantsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create mutants directory: %w", err)
	}

	out, err := os.Create(reportFile)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer out.Close()

	args := []string{g.cfg.MutPyBin,
		"--target", sourceFile,
		"--unit-test", testFile,
		"-m",
	}
	if len(g.cfg.MutationOperators) > 0 {
		args = append(args, "--operator")
		args = append(args, g.cfg.MutationOperators...)
	}

	cmd := exec.CommandContext(ctx, g.cfg.MutPyPython, args...)
	cmd.Dir = g.cfg.WorkspaceRoot
	cmd.Stdout = out
	var stderr strings.Builder
	cmd.Stderr = &stderr

	g.logger.Info().
		Str("target", sourceFile).
		Str("unit_test", testFile).
		Str("report", reportFile).
		Msg("Running mutation engine")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mutation engine failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	g.logger.Info().Msg("Mutant generation completed")
	return nil
}

// SeparateMutants parses the captured report, writes one file per
// mutant into the mutants directory, and records the mutation type of
// each in a CSV manifest. Returns the manifest describing every mutant
// written, in report order.
func (g *Generator) SeparateMutants(csvName string) (*Manifest, error) {
	source, err := os.ReadFile(g.cfg.SourceFile(g.module))
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	report, err := os.ReadFile(g.cfg.ReportFile(g.module))
	if err != nil {
		return nil, fmt.Errorf("failed to read mutation report: %w", err)
	}

	manifest, mutants, err := ParseReport(g.module, string(source), string(report))
	if err != nil {
		return nil, err
	}

	for i, entry := range manifest.Entries {
		path := filepath.Join(g.cfg.MutantsDir, entry.MutantFile)
		if err := os.WriteFile(path, []byte(mutants[i]), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write mutant %s: %w", entry.MutantFile, err)
		}
		g.logger.Debug().Str("mutant", entry.MutantFile).Str("type", entry.MutationType).Msg("Generated mutant")
	}

	csvPath := filepath.Join(g.cfg.MutantsDir, csvName)
	if err := manifest.WriteCSV(csvPath); err != nil {
		return nil, err
	}

	g.logger.Info().Int("count", len(manifest.Entries)).Msg("Separated mutants")
	return manifest, nil
}

// MutantFiles lists mutant files for the module in numeric index order.
// Plain lexical ordering would put mutant_10 before mutant_2.
func (g *Generator) MutantFiles() ([]string, error) {
	pattern := filepath.Join(g.cfg.MutantsDir, fmt.Sprintf("mutant_%s_*.py", g.module))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutant files: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		return mutantIndex(matches[i]) < mutantIndex(matches[j])
	})
	return matches, nil
}

func mutantIndex(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".py")
	idx := base[strings.LastIndex(base, "_")+1:]
	n, err := strconv.Atoi(idx)
	if err != nil {
		return -1
	}
	return n
}
