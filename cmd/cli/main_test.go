package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/testgen-hq/pymute/internal/config"
)

func TestRunIDFromResultsFile(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "current naming scheme",
			input: "mutation_test_results_calculator_20250101T000000Z-deadbeef.csv",
			want:  "20250101T000000Z-deadbeef",
		},
		{
			name:  "nested path",
			input: "test_results/mutation_test_results_calculator_20250101T000000Z-deadbeef.csv",
			want:  "20250101T000000Z-deadbeef",
		},
		{
			name:  "legacy naming scheme",
			input: "mutation_results_calculator_old.csv",
			want:  "",
		},
		{
			name:  "different module",
			input: "mutation_test_results_stack_20250101T000000Z-deadbeef.csv",
			want:  "",
		},
		{
			name:  "wrong extension",
			input: "mutation_test_results_calculator_run.txt",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runIDFromResultsFile("calculator", tt.input)
			if got != tt.want {
				t.Errorf("runIDFromResultsFile(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunCmdRejectsNonCSVReport(t *testing.T) {
	cmd := runCmd()
	cmd.SetArgs([]string{"calculator", "--csv-report", "types.txt"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for a non-.csv report name")
	}
}

func TestCheckModuleListed(t *testing.T) {
	cfg := &config.Config{Modules: []string{"calculator", "stack"}}

	if err := checkModuleListed(cfg, "calculator"); err != nil {
		t.Errorf("listed module rejected: %v", err)
	}
	if err := checkModuleListed(cfg, "queue"); err == nil {
		t.Error("expected an error for an unlisted module")
	}
	if err := checkModuleListed(&config.Config{}, "anything"); err != nil {
		t.Errorf("empty list must allow any module: %v", err)
	}
}

func TestRunCmdRejectsUnlistedModule(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PYMUTE_WORKSPACE", dir)
	content := "modules:\n  - calculator\n"
	if err := os.WriteFile(filepath.Join(dir, config.ProjectConfigName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := runCmd()
	cmd.SetArgs([]string{"queue", "--skip-generation"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error for a module missing from the project file")
	}
	if !strings.Contains(err.Error(), "not listed") {
		t.Errorf("err = %v", err)
	}
}

func TestKillerOrNil(t *testing.T) {
	if killerOrNil(nil) != nil {
		t.Error("nil killer must yield a nil interface")
	}
}
