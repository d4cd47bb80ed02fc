// Package diffan reports line-level differences between an original
// module and its mutants, in a form ready for LLM prompts.
package diffan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ChangeType classifies a single line difference.
type ChangeType string

const (
	Modified ChangeType = "modified"
	Deleted  ChangeType = "deleted"
	Inserted ChangeType = "inserted"
)

// Change is one line-level difference between original and mutant.
type Change struct {
	LineNumber int        `json:"line_number"` // 1-based, in the original
	Type       ChangeType `json:"change_type"`
	Original   string     `json:"original"`
	Mutated    string     `json:"mutated"`
}

// Analysis describes how one mutant differs from the original source.
type Analysis struct {
	MutantFile string   `json:"mutant_file"`
	Changes    []Change `json:"changes"`
	Summary    string   `json:"summary"`
}

// AnalyzeFiles compares an original source file with a mutant file.
func AnalyzeFiles(originalPath, mutantPath string) (*Analysis, error) {
	original, err := os.ReadFile(originalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read original: %w", err)
	}
	mutant, err := os.ReadFile(mutantPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mutant: %w", err)
	}
	return Analyze(string(original), string(mutant), filepath.Base(mutantPath)), nil
}

// Analyze compares original and mutant source content.
func Analyze(original, mutant, mutantName string) *Analysis {
	origLines := difflib.SplitLines(original)
	mutLines := difflib.SplitLines(mutant)

	changes := extractChanges(origLines, mutLines)
	return &Analysis{
		MutantFile: mutantName,
		Changes:    changes,
		Summary:    summarize(changes, mutantName),
	}
}

func extractChanges(origLines, mutLines []string) []Change {
	matcher := difflib.NewMatcher(origLines, mutLines)

	var changes []Change
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'r':
			n := op.I2 - op.I1
			if m := op.J2 - op.J1; m > n {
				n = m
			}
			for k := 0; k < n; k++ {
				var orig, mut string
				if op.I1+k < op.I2 {
					orig = strings.TrimRight(origLines[op.I1+k], "\n")
				}
				if op.J1+k < op.J2 {
					mut = strings.TrimRight(mutLines[op.J1+k], "\n")
				}
				if orig == mut {
					continue
				}
				changes = append(changes, Change{
					LineNumber: op.I1 + k + 1,
					Type:       Modified,
					Original:   orig,
					Mutated:    mut,
				})
			}
		case 'd':
			for i := op.I1; i < op.I2; i++ {
				changes = append(changes, Change{
					LineNumber: i + 1,
					Type:       Deleted,
					Original:   strings.TrimRight(origLines[i], "\n"),
				})
			}
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				changes = append(changes, Change{
					LineNumber: op.I1 + 1,
					Type:       Inserted,
					Mutated:    strings.TrimRight(mutLines[j], "\n"),
				})
			}
		}
	}
	return changes
}

func summarize(changes []Change, mutantName string) string {
	if len(changes) == 0 {
		return fmt.Sprintf("No changes detected in %s", mutantName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== MUTANT: %s ===\n", mutantName)
	fmt.Fprintf(&b, "Total changes: %d\n\n", len(changes))

	for _, c := range changes {
		fmt.Fprintf(&b, "Line %d (%s):\n", c.LineNumber, c.Type)
		switch c.Type {
		case Modified:
			fmt.Fprintf(&b, "  - Original: %s\n", c.Original)
			fmt.Fprintf(&b, "  + Mutated:  %s\n", c.Mutated)
		case Deleted:
			fmt.Fprintf(&b, "  - Deleted:  %s\n", c.Original)
		case Inserted:
			fmt.Fprintf(&b, "  + Inserted: %s\n", c.Mutated)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// UnifiedDiff renders a conventional unified diff between original and
// mutant content, for inclusion in reports.
func UnifiedDiff(original, mutant, originalName, mutantName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(mutant),
		FromFile: "original/" + originalName,
		ToFile:   "mutant/" + mutantName,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to build unified diff: %w", err)
	}
	return text, nil
}
