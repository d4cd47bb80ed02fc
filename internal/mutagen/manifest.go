package mutagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry maps one mutant file back to the report entry it came from.
type Entry struct {
	Index        int    // 0-based position in report order
	MutantFile   string // mutant_<module>_<index>.py
	MutationType string // MutPy operator, e.g. AOR, ROR
	SourceLine   int    // 1-based line the mutation replaced
}

// Manifest records every mutant produced from one mutation report.
type Manifest struct {
	Module  string
	Entries []Entry
}

// ParseReport splits a combined MutPy report into individual mutants.
// Each mutation entry in the report opens with a "- [#..." line whose
// fourth field names the operator, followed by a "+" line carrying
// "<lineno>: <replacement>". The returned mutant sources are the
// original with that single line substituted, index-aligned with the
// manifest entries.
func ParseReport(module, source, report string) (*Manifest, []string, error) {
	sourceLines := strings.SplitAfter(source, "\n")

	manifest := &Manifest{Module: module}
	var mutants []string
	mutType := "unknown"

	for _, raw := range strings.Split(report, "\n") {
		ln := strings.TrimLeft(raw, " ")

		if strings.HasPrefix(ln, "- [#") {
			if fields := strings.Fields(ln); len(fields) > 3 {
				mutType = fields[3]
			}
			continue
		}

		if !strings.HasPrefix(ln, "+") {
			continue
		}
		numPart, content, ok := strings.Cut(ln[1:], ":")
		if !ok {
			continue
		}
		lineNum, err := strconv.Atoi(strings.TrimSpace(numPart))
		if err != nil {
			continue
		}
		if lineNum < 1 || lineNum > len(sourceLines) {
			return nil, nil, fmt.Errorf("report references line %d outside source (%d lines)", lineNum, len(sourceLines))
		}
		replacement := strings.TrimPrefix(content, " ")
		if !strings.HasSuffix(replacement, "\n") {
			replacement += "\n"
		}

		mutated := make([]string, len(sourceLines))
		copy(mutated, sourceLines)
		mutated[lineNum-1] = replacement

		index := len(manifest.Entries)
		manifest.Entries = append(manifest.Entries, Entry{
			Index:        index,
			MutantFile:   fmt.Sprintf("mutant_%s_%d.py", module, index),
			MutationType: mutType,
			SourceLine:   lineNum,
		})
		mutants = append(mutants, strings.Join(mutated, ""))
	}

	return manifest, mutants, nil
}

// TypeOf returns the mutation type recorded for a mutant file name.
func (m *Manifest) TypeOf(mutantFile string) string {
	for _, e := range m.Entries {
		if e.MutantFile == mutantFile {
			return e.MutationType
		}
	}
	return "unknown"
}

// WriteCSV persists the manifest in mutant_file,mutation_type form.
func (m *Manifest) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"mutant_file", "mutation_type"}); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	for _, e := range m.Entries {
		if err := w.Write([]string{e.MutantFile, e.MutationType}); err != nil {
			return fmt.Errorf("failed to write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush manifest CSV: %w", err)
	}
	return nil
}

// ReadManifestCSV loads a previously written manifest. Line numbers are
// not stored in the CSV, so SourceLine is zero for loaded entries.
func ReadManifestCSV(module, path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest CSV: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest CSV: %w", err)
	}
	if len(records) == 0 || len(records[0]) != 2 {
		return nil, fmt.Errorf("manifest CSV %s is malformed", path)
	}

	m := &Manifest{Module: module}
	for i, rec := range records[1:] {
		m.Entries = append(m.Entries, Entry{
			Index:        i,
			MutantFile:   rec[0],
			MutationType: rec[1],
		})
	}
	return m, nil
}
