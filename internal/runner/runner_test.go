package runner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/varga-lab/threatscope/internal/config"
	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/report"
	"github.com/varga-lab/threatscope/internal/scenario"
)

func TestJudge(t *testing.T) {
	matched := entropy.ComplexityAssessment{
		TopologicalEntropy: 3.0,
		ComplexityLevel:    entropy.High,
		APTCapabilityMatch: true,
	}
	converged := learner.LearningResult{Convergence: true}
	stalled := learner.LearningResult{Convergence: false}

	if !judge(scenario.Entry{}, matched, converged, false) {
		t.Error("matched and converged must pass")
	}
	if judge(scenario.Entry{}, matched, stalled, false) {
		t.Error("non-convergence must fail the full analysis")
	}
	if !judge(scenario.Entry{}, matched, stalled, true) {
		t.Error("assess-only must ignore convergence")
	}

	mismatch := matched
	mismatch.APTCapabilityMatch = false
	if judge(scenario.Entry{}, mismatch, converged, false) {
		t.Error("capability mismatch must fail")
	}

	if judge(scenario.Entry{MinEntropy: 3.5}, matched, converged, false) {
		t.Error("entropy at or below the floor must fail")
	}
	if !judge(scenario.Entry{MinEntropy: 2.0}, matched, converged, false) {
		t.Error("entropy above the floor must pass")
	}

	if judge(scenario.Entry{RequireExceeds: true}, matched, converged, false) {
		t.Error("require_exceeds without ExceedsThreshold must fail")
	}
	exceeds := matched
	exceeds.ExceedsThreshold = true
	if !judge(scenario.Entry{RequireExceeds: true}, exceeds, converged, false) {
		t.Error("require_exceeds with ExceedsThreshold must pass")
	}

	expectHigh := scenario.Entry{ExpectLevels: []entropy.ComplexityLevel{entropy.High}}
	if !judge(expectHigh, matched, converged, false) {
		t.Error("expected level HIGH must pass")
	}
	expectLow := scenario.Entry{ExpectLevels: []entropy.ComplexityLevel{entropy.Low}}
	if judge(expectLow, matched, converged, false) {
		t.Error("unexpected level must fail")
	}
}

func TestAssessmentEvents_SkipsErrored(t *testing.T) {
	results := []report.ScenarioResult{
		{
			Key:  "good",
			Name: "good scenario",
			Assessment: entropy.ComplexityAssessment{
				TopologicalEntropy: 2.5,
				ComplexityLevel:    entropy.Medium,
				APTCapabilityMatch: true,
			},
			Learning: learner.LearningResult{Convergence: true},
			Success:  true,
		},
		{Key: "broken", Name: "broken scenario", Error: "oracle unavailable"},
	}

	events := assessmentEvents(results)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (errored results carry no verdict)", len(events))
	}
	if events[0]["key"] != "good" || events[0]["event_kind"] != "assessment" {
		t.Errorf("event = %+v", events[0])
	}
	if events[0]["complexity_level"] != "MEDIUM" {
		t.Errorf("complexity_level = %v, want MEDIUM", events[0]["complexity_level"])
	}
}

func TestRun_FullSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("full suite run")
	}

	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()

	r := New(cfg, Options{Version: "test"})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	runDirs, err := os.ReadDir(cfg.Output.Dir)
	if err != nil || len(runDirs) != 1 {
		t.Fatalf("expected one run directory, got %v (%v)", runDirs, err)
	}
	runDir := filepath.Join(cfg.Output.Dir, runDirs[0].Name())

	data, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var summary struct {
		TotalScenarios int      `json:"total_scenarios"`
		Passed         int      `json:"passed"`
		Failed         int      `json:"failed"`
		FailedNames    []string `json:"failed_scenarios"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if summary.TotalScenarios != 11 {
		t.Errorf("total = %d, want the 11 built-in scenarios", summary.TotalScenarios)
	}
	if summary.Failed != 0 {
		t.Errorf("failed scenarios: %v", summary.FailedNames)
	}

	for _, f := range []string{"report.html", "manifest.json", "apt_lateral_movement.json"} {
		if _, err := os.Stat(filepath.Join(runDir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
}

func TestRun_OnlyFilter(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()

	r := New(cfg, Options{Only: []string{"insider_threat_exfiltration"}, Version: "test"})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r = New(cfg, Options{Only: []string{"no_such_key"}, Version: "test"})
	if err := r.Run(context.Background()); err == nil {
		t.Error("expected error when the filter selects nothing")
	}
}
