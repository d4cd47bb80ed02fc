package score

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func testReport() *Report {
	outcomes := []Outcome{
		{Subject: "calculator.py", Kind: KindOriginal, Status: StatusPass, TestsTotal: 6, TestsPassed: 6, ExecutionTime: "1.10s"},
		mutant("mutant_calculator_0.py", StatusFail, 6, 4, 2),
		mutant("mutant_calculator_1.py", StatusPass, 6, 6, 0),
	}
	return BuildReport("calculator", "20250101T000000Z-abcd1234", outcomes)
}

func TestBuildReport(t *testing.T) {
	rep := testReport()
	if rep.Score.Total != 2 || rep.Score.Killed != 1 || rep.Score.Survived != 1 {
		t.Errorf("score = %+v", rep.Score)
	}
	if rep.Original == nil || rep.Original.Subject != "calculator.py" {
		t.Errorf("original = %+v", rep.Original)
	}
	if len(rep.Survivors) != 1 || rep.Survivors[0] != "mutant_calculator_1.py" {
		t.Errorf("survivors = %v", rep.Survivors)
	}
}

func TestGenerateTextReport(t *testing.T) {
	dir := t.TempDir()
	path, err := NewReporter(dir).Generate(testReport(), FormatText)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"MUTATION TESTING REPORT", "Module:    calculator", "Score:          50.0%", "mutant_calculator_1.py"} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestGenerateJSONReport(t *testing.T) {
	dir := t.TempDir()
	path, err := NewReporter(dir).Generate(testReport(), FormatJSON)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if got.Module != "calculator" || got.Score.Percent != 50 {
		t.Errorf("round-tripped report = %+v", got)
	}
	if strings.Contains(string(data), "\"Output\"") {
		t.Error("raw pytest output must not appear in JSON reports")
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	dir := t.TempDir()
	path, err := NewReporter(dir).Generate(testReport(), FormatHTML)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"<!DOCTYPE html>", "Mutation Testing Report", "band-moderate", "mutant_calculator_1.py"} {
		if !strings.Contains(html, want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestGenerateUnsupportedFormat(t *testing.T) {
	if _, err := NewReporter(t.TempDir()).Generate(testReport(), "pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSummary(dir, testReport())
	if err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "Mutation score: 50.0% (moderate)") {
		t.Errorf("summary missing score line:\n%s", text)
	}
	if !strings.Contains(text, "mutant_calculator_1.py") {
		t.Error("summary missing surviving mutant")
	}
}
