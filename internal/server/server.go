// Package server provides a local HTTP viewer for the suite report.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/varga-lab/threatscope/internal/report"
)

// ReassessFunc re-judges the suite under a forced capability tier and
// returns new ReportData. The learner results are reused; only the
// entropy classification changes.
type ReassessFunc func(ctx context.Context, aptLevel string) (*report.ReportData, error)

// RenderFunc renders ReportData to an HTML string.
type RenderFunc func(data *report.ReportData) (string, error)

// Server is a local HTTP server that serves the report and handles
// what-if reassessment under a different tier.
type Server struct {
	mu          sync.RWMutex
	reportHTML  string
	summaryJSON []byte
	reassess    ReassessFunc
	renderFn    RenderFunc
	httpServer  *http.Server
}

// New creates a Server with the rendered report and summary.
func New(html string, summary []byte, reassess ReassessFunc) *Server {
	return &Server{
		reportHTML:  html,
		summaryJSON: summary,
		reassess:    reassess,
	}
}

// SetRenderFunc sets the function used to render ReportData to HTML.
func (s *Server) SetRenderFunc(fn RenderFunc) {
	s.renderFn = fn
}

// Start begins listening on the given port (0 = OS-assigned) on
// loopback only. Returns "host:port".
func (s *Server) Start(ctx context.Context, port int) (string, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/summary.json", s.handleSummary)
	mux.HandleFunc("/re-assess", s.handleReassess)
	mux.HandleFunc("/", s.handleReport)

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}

	s.httpServer = &http.Server{Handler: mux}
	go s.httpServer.Serve(ln) //nolint:errcheck

	return ln.Addr().String(), nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	summary := s.summaryJSON
	s.mu.RUnlock()

	if len(summary) == 0 {
		http.Error(w, "summary not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(summary) //nolint:errcheck
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	html := s.reportHTML
	s.mu.RUnlock()

	if html == "" {
		http.Error(w, "report not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

type reassessRequest struct {
	APTLevel string `json:"apt_level"`
}

func (s *Server) handleReassess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req reassessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.APTLevel == "" {
		http.Error(w, "apt_level is required", http.StatusBadRequest)
		return
	}
	if s.reassess == nil {
		http.Error(w, "reassessment not configured", http.StatusServiceUnavailable)
		return
	}

	newData, err := s.reassess(r.Context(), req.APTLevel)
	if err != nil {
		http.Error(w, fmt.Sprintf("reassessment failed: %v", err), http.StatusBadRequest)
		return
	}

	if s.renderFn == nil {
		http.Error(w, "render function not configured", http.StatusInternalServerError)
		return
	}

	html, err := s.renderFn(newData)
	if err != nil {
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
		return
	}

	s.UpdateReport(html)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// UpdateReport sets the current report HTML (thread-safe).
func (s *Server) UpdateReport(html string) {
	s.mu.Lock()
	s.reportHTML = html
	s.mu.Unlock()
}
