package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rdswitchboard/graph-exporter/pkg/export"
)

func TestHealthEndpoint(t *testing.T) {
	s := NewServer("")
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request ID header")
	}
}

func TestSummaryBeforeAndAfterRun(t *testing.T) {
	s := NewServer("")

	req := httptest.NewRequest("GET", "/api/summary", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status before any run = %d, want 404", rec.Code)
	}

	s.SetSummary(&export.Summary{RunID: "run-1", Exported: 7, Documents: 9})

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var got export.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Summary is not valid JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Exported != 7 || got.Documents != 9 {
		t.Errorf("Unexpected summary: %+v", got)
	}
}

func TestDocumentsListsOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ands"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"ands/a.json", "ands/b.json"} {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Non-document files are not listed.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewServer(dir)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var keys []string
	if err := json.Unmarshal(rec.Body.Bytes(), &keys); err != nil {
		t.Fatalf("Document list is not valid JSON: %v", err)
	}
	if len(keys) != 2 || keys[0] != "ands/a.json" || keys[1] != "ands/b.json" {
		t.Errorf("Unexpected document keys: %v", keys)
	}
}

func TestDocumentsWithoutOutputDirectory(t *testing.T) {
	s := NewServer("")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var keys []string
	if err := json.Unmarshal(rec.Body.Bytes(), &keys); err != nil {
		t.Fatalf("Document list is not valid JSON: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Expected empty list, got %v", keys)
	}
}
