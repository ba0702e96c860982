package report

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/varga-lab/threatscope/internal/detect"
)

//go:embed templates/*.tmpl
var templates embed.FS

// ReportData is the complete data model passed to the HTML template.
type ReportData struct {
	Hostname    string    `json:"hostname"`
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`

	Summary SuiteSummary     `json:"summary"`
	Results []ScenarioResult `json:"results"`

	RuleMatches    []detect.RuleMatch `json:"rule_matches,omitempty"`
	EvidenceHashes []FileHash         `json:"evidence_hashes,omitempty"`

	RunDuration string `json:"run_duration"`
}

// Reporter renders the suite report.
type Reporter struct {
	tmpl *template.Template
}

// New creates a Reporter with the embedded template parsed.
func New() (*Reporter, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"pct": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f*100)
		},
		"f3": func(f float64) string {
			return fmt.Sprintf("%.3f", f)
		},
		"dur": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
		"lower": strings.ToLower,
	}).ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Reporter{tmpl: tmpl}, nil
}

// Render renders the report to an HTML string.
func (r *Reporter) Render(data *ReportData) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.ExecuteTemplate(&buf, "report.html.tmpl", data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Generate writes report.html into the output directory and returns
// its path.
func (r *Reporter) Generate(data ReportData, outputDir string) (string, error) {
	html, err := r.Render(&data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, "report.html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
