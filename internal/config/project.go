package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds per-project settings loaded from .pymute.yaml
// in the workspace root. Values here override environment defaults.
type ProjectConfig struct {
	// Modules lists the Python modules this project runs mutation testing on.
	Modules []string `yaml:"modules"`

	Layout struct {
		SourceDir  string `yaml:"source_dir"`
		TestDir    string `yaml:"test_dir"`
		MutantsDir string `yaml:"mutants_dir"`
		ResultsDir string `yaml:"results_dir"`
	} `yaml:"layout"`

	Mutation struct {
		// Timeout per test run, e.g. "30s"
		Timeout string `yaml:"timeout"`
		// RepairAttempts caps LLM repair rounds for killer tests
		RepairAttempts int `yaml:"repair_attempts"`
		// Operators restricts MutPy to specific mutation operators
		Operators []string `yaml:"operators"`
	} `yaml:"mutation"`

	Python struct {
		Bin   string `yaml:"bin"`
		MutPy string `yaml:"mutpy"`
	} `yaml:"python"`
}

// ProjectConfigName is the file name looked up in the workspace root.
const ProjectConfigName = ".pymute.yaml"

// DefaultProjectConfig returns an empty project config. Zero values
// mean "not set" and leave the environment-derived config untouched
// when merged.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{}
}

// LoadProjectConfig reads .pymute.yaml from the given directory.
// A missing file is not an error; defaults are returned.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	pc := DefaultProjectConfig()

	path := filepath.Join(dir, ProjectConfigName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pc, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ProjectConfigName, err)
	}

	if err := yaml.Unmarshal(data, pc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectConfigName, err)
	}

	return pc, nil
}

// Merge applies non-empty project settings on top of a base config.
func (pc *ProjectConfig) Merge(cfg *Config) error {
	if pc.Layout.SourceDir != "" {
		cfg.SourceDir = resolve(cfg.WorkspaceRoot, pc.Layout.SourceDir)
	}
	if pc.Layout.TestDir != "" {
		cfg.TestDir = resolve(cfg.WorkspaceRoot, pc.Layout.TestDir)
	}
	if pc.Layout.MutantsDir != "" {
		cfg.MutantsDir = resolve(cfg.WorkspaceRoot, pc.Layout.MutantsDir)
	}
	if pc.Layout.ResultsDir != "" {
		cfg.ResultsDir = resolve(cfg.WorkspaceRoot, pc.Layout.ResultsDir)
	}
	if pc.Mutation.Timeout != "" {
		d, err := time.ParseDuration(pc.Mutation.Timeout)
		if err != nil {
			return fmt.Errorf("invalid mutation.timeout: %w", err)
		}
		cfg.TestTimeout = d
	}
	if pc.Mutation.RepairAttempts > 0 {
		cfg.RepairAttempts = pc.Mutation.RepairAttempts
	}
	if len(pc.Mutation.Operators) > 0 {
		cfg.MutationOperators = pc.Mutation.Operators
	}
	if len(pc.Modules) > 0 {
		cfg.Modules = pc.Modules
	}
	if pc.Python.Bin != "" {
		cfg.PythonBin = pc.Python.Bin
	}
	if pc.Python.MutPy != "" {
		cfg.MutPyBin = pc.Python.MutPy
	}
	return nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
