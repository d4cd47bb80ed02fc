package score

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// ReportFormat represents the output format for mutation reports
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatJSON ReportFormat = "json"
	FormatText ReportFormat = "text"
)

// Report is the fully assembled result of one mutation run for a module.
type Report struct {
	Module      string    `json:"module"`
	RunID       RunID     `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Score       Score     `json:"score"`
	Original    *Outcome  `json:"original,omitempty"`
	Mutants     []Outcome `json:"mutants"`
	Survivors   []string  `json:"survivors"`
}

// BuildReport assembles a report from stored outcomes.
func BuildReport(module string, id RunID, outcomes []Outcome) *Report {
	original, mutants := Partition(outcomes)
	return &Report{
		Module:      module,
		RunID:       id,
		GeneratedAt: time.Now(),
		Score:       Calculate(outcomes),
		Original:    original,
		Mutants:     mutants,
		Survivors:   SurvivedMutants(outcomes),
	}
}

// Reporter renders mutation run reports to the output directory.
type Reporter struct {
	outputDir string
}

// NewReporter creates a report generator writing into outputDir.
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// Generate renders the report in the given format and returns the
// output file path.
func (r *Reporter) Generate(rep *Report, format ReportFormat) (string, error) {
	switch format {
	case FormatHTML:
		return r.generateHTML(rep)
	case FormatJSON:
		return r.generateJSON(rep)
	case FormatText:
		return r.generateText(rep)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (r *Reporter) generateJSON(rep *Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return r.write(rep, "json", data)
}

func (r *Reporter) generateText(rep *Report) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("================================================================================\n")
	buf.WriteString("                        MUTATION TESTING REPORT\n")
	buf.WriteString("================================================================================\n\n")

	buf.WriteString(fmt.Sprintf("Module:    %s\n", rep.Module))
	buf.WriteString(fmt.Sprintf("Run:       %s\n", rep.RunID))
	buf.WriteString(fmt.Sprintf("Generated: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05")))

	s := rep.Score
	buf.WriteString("SUMMARY\n")
	buf.WriteString("-------\n")
	buf.WriteString(fmt.Sprintf("  Total Mutants:  %d\n", s.Total))
	buf.WriteString(fmt.Sprintf("  Killed:         %d\n", s.Killed))
	buf.WriteString(fmt.Sprintf("  Survived:       %d\n", s.Survived))
	buf.WriteString(fmt.Sprintf("  Problematic:    %d\n", s.Problematic))
	buf.WriteString(fmt.Sprintf("  Valid:          %d\n", s.Valid))
	buf.WriteString(fmt.Sprintf("  Score:          %.1f%%\n", s.Percent))
	buf.WriteString(fmt.Sprintf("  Rating:         %s\n\n", s.Band()))

	if rep.Original != nil {
		o := rep.Original
		buf.WriteString("ORIGINAL\n")
		buf.WriteString("--------\n")
		buf.WriteString(fmt.Sprintf("  [%s] %s  %d tests, %d passed, %d failed (%s)\n\n",
			o.Status, o.Subject, o.TestsTotal, o.TestsPassed, o.TestsFailed, o.ExecutionTime))
	}

	if len(rep.Mutants) > 0 {
		buf.WriteString("MUTANT DETAILS\n")
		buf.WriteString("--------------\n\n")
		for _, m := range rep.Mutants {
			icon := "?"
			switch m.Classification() {
			case Killed:
				icon = "✓"
			case Survived:
				icon = "✗"
			case Problematic:
				icon = "!"
			}
			buf.WriteString(fmt.Sprintf("[%s] %s\n", icon, m.Subject))
			buf.WriteString(fmt.Sprintf("    Status:  %s (%s)\n", m.Status, m.Classification()))
			buf.WriteString(fmt.Sprintf("    Tests:   %d total, %d passed, %d failed\n", m.TestsTotal, m.TestsPassed, m.TestsFailed))
			buf.WriteString(fmt.Sprintf("    Time:    %s\n", m.ExecutionTime))
			if m.ErrorMsg != "" {
				buf.WriteString(fmt.Sprintf("    Error:   %s\n", m.ErrorMsg))
			}
			buf.WriteString("\n")
		}
	}

	buf.WriteString("================================================================================\n")

	return r.write(rep, "txt", buf.Bytes())
}

func (r *Reporter) generateHTML(rep *Report) (string, error) {
	type mutantRow struct {
		Subject        string
		Status         Status
		Classification Classification
		Class          string
		Tests          string
		Time           string
		Error          string
	}
	data := struct {
		Module      string
		RunID       RunID
		GeneratedAt string
		Score       Score
		BandClass   string
		Survivors   []string
		Mutants     []mutantRow
	}{
		Module:      rep.Module,
		RunID:       rep.RunID,
		GeneratedAt: rep.GeneratedAt.Format("2006-01-02 15:04:05"),
		Score:       rep.Score,
		BandClass:   "band-" + rep.Score.Band(),
		Survivors:   rep.Survivors,
	}
	for _, m := range rep.Mutants {
		data.Mutants = append(data.Mutants, mutantRow{
			Subject:        m.Subject,
			Status:         m.Status,
			Classification: m.Classification(),
			Class:          "status-" + string(m.Classification()),
			Tests:          fmt.Sprintf("%d / %d / %d", m.TestsTotal, m.TestsPassed, m.TestsFailed),
			Time:           m.ExecutionTime,
			Error:          m.ErrorMsg,
		})
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return r.write(rep, "html", buf.Bytes())
}

func (r *Reporter) write(rep *Report, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := fmt.Sprintf("mutation-report-%s-%s.%s", rep.Module, rep.RunID, ext)
	outputPath := filepath.Join(r.outputDir, filename)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return outputPath, nil
}

// WriteSummary drops a short plain-text summary next to the results
// CSV so a run directory is readable without the full report.
func WriteSummary(dir string, rep *Report) (string, error) {
	var buf bytes.Buffer
	s := rep.Score
	buf.WriteString(fmt.Sprintf("Mutation testing summary for %s (run %s)\n", rep.Module, rep.RunID))
	buf.WriteString(fmt.Sprintf("Generated: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Total mutants:  %d\n", s.Total))
	buf.WriteString(fmt.Sprintf("Killed:         %d\n", s.Killed))
	buf.WriteString(fmt.Sprintf("Survived:       %d\n", s.Survived))
	buf.WriteString(fmt.Sprintf("Problematic:    %d\n", s.Problematic))
	buf.WriteString(fmt.Sprintf("Mutation score: %.1f%% (%s)\n", s.Percent, s.Band()))
	if len(rep.Survivors) > 0 {
		buf.WriteString("\nSurviving mutants:\n")
		for _, name := range rep.Survivors {
			buf.WriteString("  - " + name + "\n")
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}
	path := filepath.Join(dir, SummaryFileName(rep.Module, rep.RunID))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Mutation Report: {{.Module}}</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f5f5f5;
            padding: 20px;
        }
        .container { max-width: 1100px; margin: 0 auto; }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 10px;
            margin-bottom: 20px;
        }
        .header h1 { font-size: 2em; margin-bottom: 10px; }
        .header .subtitle { opacity: 0.9; }
        .card {
            background: white;
            border-radius: 10px;
            padding: 20px;
            margin-bottom: 20px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        .card h2 {
            color: #667eea;
            margin-bottom: 15px;
            padding-bottom: 10px;
            border-bottom: 2px solid #f0f0f0;
        }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 15px;
        }
        .stat-box {
            background: #f8f9fa;
            padding: 20px;
            border-radius: 8px;
            text-align: center;
        }
        .stat-value { font-size: 2em; font-weight: bold; }
        .stat-label { color: #666; font-size: 0.9em; margin-top: 5px; }
        .score { text-align: center; padding: 20px; font-size: 3em; font-weight: bold; }
        .band-excellent { color: #28a745; }
        .band-good { color: #5cb85c; }
        .band-moderate { color: #ffc107; }
        .band-poor { color: #dc3545; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #eee; }
        th { color: #666; font-size: 0.9em; }
        .status-killed { color: #28a745; }
        .status-survived { color: #dc3545; font-weight: bold; }
        .status-problematic { color: #ffc107; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Mutation Testing Report</h1>
            <div class="subtitle">{{.Module}} &middot; run {{.RunID}} &middot; {{.GeneratedAt}}</div>
        </div>
        <div class="card">
            <div class="score {{.BandClass}}">{{printf "%.1f" .Score.Percent}}%</div>
            <div class="stats-grid">
                <div class="stat-box"><div class="stat-value">{{.Score.Total}}</div><div class="stat-label">Total</div></div>
                <div class="stat-box"><div class="stat-value">{{.Score.Killed}}</div><div class="stat-label">Killed</div></div>
                <div class="stat-box"><div class="stat-value">{{.Score.Survived}}</div><div class="stat-label">Survived</div></div>
                <div class="stat-box"><div class="stat-value">{{.Score.Problematic}}</div><div class="stat-label">Problematic</div></div>
            </div>
        </div>
        {{if .Survivors}}
        <div class="card">
            <h2>Surviving Mutants</h2>
            <ul>
            {{range .Survivors}}<li class="status-survived">{{.}}</li>{{end}}
            </ul>
        </div>
        {{end}}
        <div class="card">
            <h2>Mutant Details</h2>
            <table>
                <tr><th>Mutant</th><th>Status</th><th>Verdict</th><th>Tests T/P/F</th><th>Time</th><th>Error</th></tr>
                {{range .Mutants}}
                <tr>
                    <td>{{.Subject}}</td>
                    <td>{{.Status}}</td>
                    <td class="{{.Class}}">{{.Classification}}</td>
                    <td>{{.Tests}}</td>
                    <td>{{.Time}}</td>
                    <td>{{.Error}}</td>
                </tr>
                {{end}}
            </table>
        </div>
    </div>
</body>
</html>
`
