package diffan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const original = `def add(a, b):
    return a + b


def sub(a, b):
    return a - b
`

func TestAnalyzeModifiedLine(t *testing.T) {
	mutant := strings.Replace(original, "return a + b", "return a - b", 1)

	a := Analyze(original, mutant, "mutant_calculator_0.py")
	if len(a.Changes) != 1 {
		t.Fatalf("got %d changes, want 1: %+v", len(a.Changes), a.Changes)
	}
	c := a.Changes[0]
	if c.Type != Modified {
		t.Errorf("Type = %s, want modified", c.Type)
	}
	if c.LineNumber != 2 {
		t.Errorf("LineNumber = %d, want 2", c.LineNumber)
	}
	if !strings.Contains(c.Original, "a + b") || !strings.Contains(c.Mutated, "a - b") {
		t.Errorf("change = %+v", c)
	}
}

func TestAnalyzeDeletedLine(t *testing.T) {
	mutant := strings.Replace(original, "    return a - b\n", "", 1)

	a := Analyze(original, mutant, "m.py")
	if len(a.Changes) != 1 {
		t.Fatalf("got %d changes: %+v", len(a.Changes), a.Changes)
	}
	if a.Changes[0].Type != Deleted {
		t.Errorf("Type = %s, want deleted", a.Changes[0].Type)
	}
	if a.Changes[0].LineNumber != 6 {
		t.Errorf("LineNumber = %d, want 6", a.Changes[0].LineNumber)
	}
}

func TestAnalyzeInsertedLine(t *testing.T) {
	mutant := strings.Replace(original, "def sub", "x = 1\ndef sub", 1)

	a := Analyze(original, mutant, "m.py")
	if len(a.Changes) != 1 {
		t.Fatalf("got %d changes: %+v", len(a.Changes), a.Changes)
	}
	if a.Changes[0].Type != Inserted {
		t.Errorf("Type = %s, want inserted", a.Changes[0].Type)
	}
	if a.Changes[0].Mutated != "x = 1" {
		t.Errorf("Mutated = %q", a.Changes[0].Mutated)
	}
}

func TestAnalyzeIdentical(t *testing.T) {
	a := Analyze(original, original, "m.py")
	if len(a.Changes) != 0 {
		t.Errorf("got %d changes, want 0", len(a.Changes))
	}
	if !strings.Contains(a.Summary, "No changes detected") {
		t.Errorf("Summary = %q", a.Summary)
	}
}

func TestSummaryFormat(t *testing.T) {
	mutant := strings.Replace(original, "return a + b", "return a * b", 1)
	a := Analyze(original, mutant, "mutant_calculator_3.py")

	for _, want := range []string{
		"=== MUTANT: mutant_calculator_3.py ===",
		"Total changes: 1",
		"Line 2 (modified):",
		"- Original:",
		"+ Mutated:",
	} {
		if !strings.Contains(a.Summary, want) {
			t.Errorf("summary missing %q:\n%s", want, a.Summary)
		}
	}
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	origPath := filepath.Join(dir, "calculator.py")
	mutPath := filepath.Join(dir, "mutant_calculator_0.py")
	if err := os.WriteFile(origPath, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}
	mutant := strings.Replace(original, "a + b", "a - b", 1)
	if err := os.WriteFile(mutPath, []byte(mutant), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := AnalyzeFiles(origPath, mutPath)
	if err != nil {
		t.Fatalf("AnalyzeFiles() error = %v", err)
	}
	if a.MutantFile != "mutant_calculator_0.py" {
		t.Errorf("MutantFile = %s", a.MutantFile)
	}
	if len(a.Changes) != 1 {
		t.Errorf("changes = %+v", a.Changes)
	}
}

func TestAnalyzeFilesMissing(t *testing.T) {
	if _, err := AnalyzeFiles("/nonexistent/a.py", "/nonexistent/b.py"); err == nil {
		t.Error("expected error for missing files")
	}
}

func TestUnifiedDiff(t *testing.T) {
	mutant := strings.Replace(original, "a + b", "a - b", 1)
	text, err := UnifiedDiff(original, mutant, "calculator.py", "mutant_calculator_0.py")
	if err != nil {
		t.Fatalf("UnifiedDiff() error = %v", err)
	}
	for _, want := range []string{"--- original/calculator.py", "+++ mutant/mutant_calculator_0.py", "-    return a + b", "+    return a - b"} {
		if !strings.Contains(text, want) {
			t.Errorf("diff missing %q:\n%s", want, text)
		}
	}
}
