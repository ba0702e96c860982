// Package runner coordinates the Load → Assess → Learn → Detect → Report pipeline.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/varga-lab/threatscope/internal/browser"
	"github.com/varga-lab/threatscope/internal/config"
	"github.com/varga-lab/threatscope/internal/detect"
	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/oracle"
	"github.com/varga-lab/threatscope/internal/primitive"
	"github.com/varga-lab/threatscope/internal/report"
	"github.com/varga-lab/threatscope/internal/scenario"
	"github.com/varga-lab/threatscope/internal/server"
)

// Options holds CLI flags for the runner.
type Options struct {
	Only        []string
	ScenarioDir string
	AssessOnly  bool
	Verbose     bool
	Version     string
	Serve       bool
	ServePort   int
}

// Runner executes the scenario analysis pipeline.
type Runner struct {
	cfg  *config.Config
	opts Options
}

// New creates a Runner over a validated config.
func New(cfg *config.Config, opts Options) *Runner {
	return &Runner{cfg: cfg, opts: opts}
}

// Run executes the full pipeline. One scenario's failure never aborts
// the suite: errors are recorded on that scenario's result and the run
// continues.
func (r *Runner) Run(ctx context.Context) error {
	entries, err := r.loadScenarios()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no scenarios selected")
	}

	hostname, _ := os.Hostname()
	startTime := time.Now()

	thresholds, err := r.cfg.EntropyThresholds()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	engine := entropy.NewEngine(thresholds)

	outputDir := generateOutputDir(r.cfg.Output.Dir)
	if r.opts.Verbose {
		fmt.Fprintf(os.Stderr, "[runner] output: %s\n", outputDir)
	}

	writer, err := report.NewWriter(outputDir)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}

	// --- Stage 1+2: Assess and Learn ---
	fmt.Fprintf(os.Stderr, "[*] Analyzing %d scenario(s)...\n", len(entries))

	agg := &report.Aggregator{}
	results := make([]report.ScenarioResult, 0, len(entries))
	for i, entry := range entries {
		res := r.runScenario(ctx, engine, agg, entry, int64(i))
		if err := writer.SaveResult(res); err != nil {
			fmt.Fprintf(os.Stderr, "[runner] warning: %v\n", err)
		}
		results = append(results, res)

		status := "✓"
		if !res.Success {
			status = "✗"
		}
		width := len(fmt.Sprintf("%d", len(entries)))
		fmt.Fprintf(os.Stderr, "  [%*d/%d] %-34s %s  %s\n",
			width, i+1, len(entries), entry.Key, status,
			res.Duration.Round(time.Millisecond))
		if r.opts.Verbose {
			fmt.Fprintf(os.Stderr, "        %s\n", res.Details)
		}
	}

	// --- Stage 3: Detection rules ---
	var matches []detect.RuleMatch
	detector, detErr := detect.NewDefault()
	if detErr != nil {
		fmt.Fprintf(os.Stderr, "[runner] warning: detect engine init: %v\n", detErr)
	} else {
		matches = detector.MatchAll(ctx, assessmentEvents(results))
		if len(matches) > 0 {
			fmt.Fprintf(os.Stderr, "[*] Detection: %d rule match(es)\n", len(matches))
		}
	}

	// --- Stage 4: Report ---
	fmt.Fprintf(os.Stderr, "[*] Generating report...\n")

	summary := report.Summarize(results)
	if err := writer.SaveSummary(summary); err != nil {
		fmt.Fprintf(os.Stderr, "[runner] warning: %v\n", err)
	}
	if err := writer.SaveManifest(hostname); err != nil {
		fmt.Fprintf(os.Stderr, "[runner] warning: manifest: %v\n", err)
	}

	reportData := report.ReportData{
		Hostname:       hostname,
		GeneratedAt:    time.Now().UTC(),
		Version:        r.opts.Version,
		Summary:        summary,
		Results:        results,
		RuleMatches:    matches,
		EvidenceHashes: writer.Hashes(),
		RunDuration:    time.Since(startTime).Round(time.Millisecond).String(),
	}

	rep, err := report.New()
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}
	reportPath, err := rep.Generate(reportData, outputDir)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "[*] Report generated: %s\n", reportPath)

	// Print final summary
	fmt.Printf("\n=== threatscope suite ===\n")
	fmt.Printf("Scenarios: %d | Passed: %d | Failed: %d (%.1f%% pass)\n",
		summary.TotalScenarios, summary.Passed, summary.Failed, summary.PassRate*100)
	fmt.Printf("Average entropy: %.3f | Average accuracy: %.3f\n",
		summary.AverageEntropy, summary.AverageAccuracy)
	if len(summary.FailedScenarios) > 0 {
		fmt.Printf("Failed scenarios:\n")
		for _, name := range summary.FailedScenarios {
			fmt.Printf("  - %s\n", name)
		}
	}
	fmt.Printf("Report: %s\n", reportPath)

	if r.opts.Serve {
		return r.serve(ctx, rep, reportData, entries, results)
	}
	return nil
}

// loadScenarios loads the built-in catalog plus any user directory and
// applies the config enable-map and --only filters.
func (r *Runner) loadScenarios() ([]scenario.Entry, error) {
	entries, err := scenario.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if r.opts.ScenarioDir != "" {
		user, err := scenario.LoadDir(r.opts.ScenarioDir)
		if err != nil {
			return nil, fmt.Errorf("load scenarios: %w", err)
		}
		entries = append(entries, user...)
	}
	entries = scenario.FilterEnabled(entries, r.cfg.Scenarios)
	entries = scenario.FilterOnly(entries, r.opts.Only)
	return entries, nil
}

// runScenario analyzes a single scenario: entropy assessment, then an
// independent learner run against a fresh oracle for the same scenario.
func (r *Runner) runScenario(ctx context.Context, engine *entropy.Engine, agg *report.Aggregator, entry scenario.Entry, index int64) report.ScenarioResult {
	start := time.Now()
	res := report.ScenarioResult{
		Key:  entry.Key,
		Name: entry.Scenario.Name,
	}

	assessment, err := engine.AssessThreatComplexity(&entry.Scenario, entry.APTLevel)
	if err != nil {
		res.Error = err.Error()
		res.Details = fmt.Sprintf("assessment failed: %v", err)
		res.Duration = time.Since(start)
		return res
	}
	res.Assessment = assessment

	if !r.opts.AssessOnly {
		// Every scenario gets its own learner and oracle; the seed is
		// offset per scenario so runs stay reproducible but
		// independent.
		l := learner.New(r.cfg.Learner.MaxIterations, r.cfg.Learner.SampleSize, r.cfg.Learner.Seed+index)
		learning, err := l.LearnThreatAutomaton(ctx, oracle.FromScenario(&entry.Scenario))
		if err != nil {
			res.Error = err.Error()
			res.Details = fmt.Sprintf("learning failed: %v", err)
			res.Duration = time.Since(start)
			return res
		}
		res.Learning = learning
	}

	res.Escalation = agg.Escalate(res.Assessment, res.Learning)
	res.Success = judge(entry, res.Assessment, res.Learning, r.opts.AssessOnly)
	res.Details = fmt.Sprintf("entropy=%.3f level=%s match=%v convergence=%v iterations=%d accuracy=%.3f escalation=%s",
		assessment.TopologicalEntropy, assessment.ComplexityLevel,
		assessment.APTCapabilityMatch, res.Learning.Convergence,
		res.Learning.Iterations, res.Learning.LearningAccuracy, res.Escalation.Level)
	res.Duration = time.Since(start)
	return res
}

// judge combines the entropy classification and automaton convergence
// into the scenario's pass/fail capability-match verdict.
func judge(entry scenario.Entry, assessment entropy.ComplexityAssessment, learning learner.LearningResult, assessOnly bool) bool {
	if !assessment.APTCapabilityMatch {
		return false
	}
	if !assessOnly && !learning.Convergence {
		return false
	}
	if entry.MinEntropy > 0 && assessment.TopologicalEntropy <= entry.MinEntropy {
		return false
	}
	if entry.RequireExceeds && !assessment.ExceedsThreshold {
		return false
	}
	if len(entry.ExpectLevels) > 0 {
		found := false
		for _, l := range entry.ExpectLevels {
			if assessment.ComplexityLevel == l {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// assessmentEvents flattens successful results into detection events.
func assessmentEvents(results []report.ScenarioResult) []detect.Event {
	var events []detect.Event
	for _, res := range results {
		if res.Error != "" {
			continue
		}
		events = append(events, detect.Event{
			"event_kind":           "assessment",
			"scenario":             res.Name,
			"key":                  res.Key,
			"apt_level":            res.Assessment.APTLevel.String(),
			"complexity_level":     res.Assessment.ComplexityLevel.String(),
			"topological_entropy":  res.Assessment.TopologicalEntropy,
			"exceeds_threshold":    res.Assessment.ExceedsThreshold,
			"apt_capability_match": res.Assessment.APTCapabilityMatch,
			"over_band":            res.Assessment.OverBand,
			"convergence":          res.Learning.Convergence,
			"iterations":           res.Learning.Iterations,
			"learning_accuracy":    res.Learning.LearningAccuracy,
			"success":              res.Success,
		})
	}
	return events
}

// serve starts the local report viewer and blocks until the context is
// cancelled. The reassess callback re-judges every scenario under a
// forced tier without re-running the learner.
func (r *Runner) serve(ctx context.Context, rep *report.Reporter, data report.ReportData, entries []scenario.Entry, results []report.ScenarioResult) error {
	html, err := rep.Render(&data)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	summaryJSON, err := marshalSummary(data.Summary)
	if err != nil {
		return err
	}

	thresholds, err := r.cfg.EntropyThresholds()
	if err != nil {
		return err
	}
	engine := entropy.NewEngine(thresholds)
	agg := &report.Aggregator{}

	reassess := func(ctx context.Context, aptLevel string) (*report.ReportData, error) {
		level, err := primitive.ParseAPTLevel(aptLevel)
		if err != nil {
			return nil, err
		}
		reassessed := make([]report.ScenarioResult, 0, len(entries))
		for i, entry := range entries {
			res := results[i]
			if res.Error != "" {
				reassessed = append(reassessed, res)
				continue
			}
			assessment, err := engine.AssessThreatComplexity(&entry.Scenario, level)
			if err != nil {
				return nil, err
			}
			res.Assessment = assessment
			res.Escalation = agg.Escalate(assessment, res.Learning)
			res.Success = judge(entry, assessment, res.Learning, r.opts.AssessOnly)
			reassessed = append(reassessed, res)
		}
		newData := data
		newData.Results = reassessed
		newData.Summary = report.Summarize(reassessed)
		newData.GeneratedAt = time.Now().UTC()
		return &newData, nil
	}

	srv := server.New(html, summaryJSON, reassess)
	srv.SetRenderFunc(rep.Render)
	defer srv.Stop()

	addr, err := srv.Start(ctx, r.opts.ServePort)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	url := "http://" + addr
	fmt.Printf("Serving report at %s (Ctrl-C to stop)\n", url)
	if r.cfg.Output.OpenBrowser {
		browser.Open(url)
	}

	<-ctx.Done()
	return nil
}

// generateOutputDir returns a timestamped run directory under the base
// output directory.
func generateOutputDir(base string) string {
	return filepath.Join(base, time.Now().Format("20060102-150405"))
}

func marshalSummary(summary report.SuiteSummary) ([]byte, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return data, nil
}
