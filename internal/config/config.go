// Package config holds application configuration for the mutation pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// WorkspaceRoot is the project directory all relative paths resolve against
	WorkspaceRoot string

	// Layout
	SourceDir  string // Python modules under test
	TestDir    string // generated pytest suites
	MutantsDir string // separated mutant files + mutation reports
	ResultsDir string // per-run results CSVs and summaries
	ScratchDir string // isolated directory for per-mutant test runs

	// Toolchain
	PythonBin  string // python executable used to run pytest
	MutPyBin   string // mut.py script of the mutation engine
	MutPyPython string // python executable of the mutation engine environment

	// Execution
	TestTimeout    time.Duration // wall-clock cap per test run
	RepairAttempts int           // max LLM repair rounds for killer tests

	// Modules the project runs mutation testing on; empty means any.
	Modules []string
	// MutationOperators restricts MutPy to these operators; empty means all.
	MutationOperators []string

	// Server
	Port int

	// LLM
	LLM LLMConfig
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	// Default provider: ollama, anthropic
	DefaultProvider string

	// Ollama settings
	OllamaURL   string
	OllamaTier1 string
	OllamaTier2 string

	// Anthropic settings
	AnthropicKey   string
	AnthropicTier3 string

	// Response cache: memory or none
	CacheType string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	root := getEnv("PYMUTE_WORKSPACE", "")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine workspace root: %w", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	cfg := &Config{
		WorkspaceRoot: root,
		SourceDir:     getEnv("PYMUTE_SOURCE_DIR", filepath.Join(root, "tests", "source")),
		TestDir:       getEnv("PYMUTE_TEST_DIR", filepath.Join(root, "tests", "test_suites")),
		MutantsDir:    getEnv("PYMUTE_MUTANTS_DIR", filepath.Join(root, "generated_mutants")),
		ResultsDir:    getEnv("PYMUTE_RESULTS_DIR", filepath.Join(root, "test_results")),
		ScratchDir:    getEnv("PYMUTE_SCRATCH_DIR", filepath.Join(root, "temp_test_dir")),

		PythonBin:   getEnv("PYMUTE_PYTHON", "python"),
		MutPyBin:    getEnv("PYMUTE_MUTPY", "mut.py"),
		MutPyPython: getEnv("PYMUTE_MUTPY_PYTHON", ""),

		TestTimeout:    getEnvDuration("PYMUTE_TEST_TIMEOUT", 30*time.Second),
		RepairAttempts: getEnvInt("PYMUTE_REPAIR_ATTEMPTS", 5),

		Port: getEnvInt("PORT", 8080),

		LLM: LLMConfig{
			DefaultProvider: getEnv("LLM_DEFAULT_PROVIDER", "ollama"),
			OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaTier1:     getEnv("OLLAMA_TIER1_MODEL", "qwen2.5-coder:7b"),
			OllamaTier2:     getEnv("OLLAMA_TIER2_MODEL", "deepseek-coder-v2:16b"),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicTier3:  getEnv("ANTHROPIC_TIER3_MODEL", "claude-3-5-sonnet-20241022"),
			CacheType:       getEnv("LLM_CACHE", "memory"),
		},
	}

	if cfg.MutPyPython == "" {
		cfg.MutPyPython = cfg.PythonBin
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.TestTimeout <= 0 {
		return fmt.Errorf("test timeout must be positive, got %s", c.TestTimeout)
	}
	if c.RepairAttempts < 0 {
		return fmt.Errorf("repair attempts must not be negative, got %d", c.RepairAttempts)
	}

	if c.LLM.DefaultProvider == "ollama" {
		if c.LLM.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL required when using ollama provider")
		}
	} else if c.LLM.DefaultProvider == "anthropic" {
		if c.LLM.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY required when using anthropic provider")
		}
	}

	return nil
}

// SourceFile returns the path of a module's source file
func (c *Config) SourceFile(module string) string {
	return filepath.Join(c.SourceDir, module+".py")
}

// TestFile returns the path of a module's generated test suite
func (c *Config) TestFile(module string) string {
	return filepath.Join(c.TestDir, "llm_generated_test_"+module+".py")
}

// KillerTestFile returns the path for a module's killer test suite
func (c *Config) KillerTestFile(module string) string {
	return filepath.Join(c.TestDir, "mutants_killer_tests_"+module+".py")
}

// ReportFile returns the path of a module's captured mutation report
func (c *Config) ReportFile(module string) string {
	return filepath.Join(c.MutantsDir, "mutants_all_"+module+".txt")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
