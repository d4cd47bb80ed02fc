package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/testgen-hq/pymute/internal/diffan"
)

func TestKillerTestPrompt(t *testing.T) {
	analyses := []*diffan.Analysis{
		{
			MutantFile: "mutant_calculator_1.py",
			Changes: []diffan.Change{
				{LineNumber: 2, Type: diffan.Modified, Original: "return a + b", Mutated: "return a - b"},
			},
		},
		{
			MutantFile: "mutant_calculator_3.py",
			Changes: []diffan.Change{
				{LineNumber: 7, Type: diffan.Deleted, Original: "raise ValueError"},
			},
		},
	}

	prompt := KillerTestPrompt("calculator", "def add(a, b):\n    return a + b", "import calculator", analyses)

	assert.Contains(t, prompt, "mutants_killer_tests_calculator.py")
	assert.Contains(t, prompt, "### Mutant 1: mutant_calculator_1.py")
	assert.Contains(t, prompt, "### Mutant 2: mutant_calculator_3.py")
	assert.Contains(t, prompt, "`return a + b` -> `return a - b`")
	assert.Contains(t, prompt, "Deleted `raise ValueError`")
	assert.Contains(t, prompt, "def add(a, b)")
	assert.Contains(t, prompt, "import calculator")
}

func TestRepairPrompt(t *testing.T) {
	prompt := RepairPrompt("stack", "E   ImportError: cannot import name 'pop'")

	assert.Contains(t, prompt, "killer test file for stack.py")
	assert.Contains(t, prompt, "ImportError")
	assert.Contains(t, prompt, "TestKillerMutants")
}

func TestMergePrompt(t *testing.T) {
	prompt := MergePrompt("calculator", "def test_a(): pass", "def test_kill(): pass")

	assert.Contains(t, prompt, "llm_generated_test_calculator.py")
	assert.Contains(t, prompt, "mutants_killer_tests_calculator.py")
	assert.Contains(t, prompt, "def test_a(): pass")
	assert.Contains(t, prompt, "def test_kill(): pass")
}

func TestCleanTestCode(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "python fence",
			response: "Here you go:\n```python\nimport pytest\n\ndef test_x():\n    pass\n```\nHope this helps!",
			want:     "import pytest\n\ndef test_x():\n    pass\n",
		},
		{
			name:     "bare fence",
			response: "```\ndef test_y():\n    pass\n```",
			want:     "def test_y():\n    pass\n",
		},
		{
			name:     "no fence",
			response: "def test_z():\n    pass",
			want:     "def test_z():\n    pass\n",
		},
		{
			name:     "unterminated fence",
			response: "```python\ndef test_w():\n    pass",
			want:     "def test_w():\n    pass\n",
		},
		{
			name:     "empty",
			response: "   ",
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTestCode(tt.response))
		})
	}
}
