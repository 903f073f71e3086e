// Package web exposes run status over HTTP for watch-mode deployments.
package web

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"

	"github.com/rdswitchboard/graph-exporter/pkg/export"
	"github.com/rdswitchboard/graph-exporter/pkg/logging"
)

// Server serves export status and the produced documents index
type Server struct {
	router  *mux.Router
	output  string
	mu      sync.RWMutex
	summary *export.Summary
}

// NewServer creates a status server. output is the filesystem output
// directory, or empty when the run writes only to a bucket.
func NewServer(output string) *Server {
	s := &Server{
		router: mux.NewRouter(),
		output: output,
	}
	s.setupRoutes()
	return s
}

// SetSummary stores the result of the most recent run
func (s *Server) SetSummary(summary *export.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/api/documents", s.handleDocuments).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleSummary returns the summary of the last completed run, or 404 when no
// run has finished yet.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	summary := s.summary
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if summary == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no completed run"})
		return
	}
	json.NewEncoder(w).Encode(summary)
}

// handleDocuments lists the document keys present in the output directory
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.output == "" {
		json.NewEncoder(w).Encode([]string{})
		return
	}

	keys := []string{}
	err := filepath.WalkDir(s.output, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		rel, err := filepath.Rel(s.output, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		logging.ErrorContext(r.Context(), "failed to list documents", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	json.NewEncoder(w).Encode(keys)
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting status server", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}
