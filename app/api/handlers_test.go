package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lysyi3m/nostr-comb/app/database"
)

type stubRepo struct {
	count    int
	countErr error
	recent   []database.Publication
}

func (s *stubRepo) IsPublished(string) (bool, error) { return false, nil }

func (s *stubRepo) Record(database.Publication) error { return nil }

func (s *stubRepo) Count() (int, error) { return s.count, s.countErr }

func (s *stubRepo) Recent(int) ([]database.Publication, error) { return s.recent, nil }

func TestGetHealth(t *testing.T) {
	handler := NewHandler(&stubRepo{count: 7}, nil, "test")
	server := NewServer(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["publications"] != float64(7) {
		t.Errorf("Expected 7 publications, got %v", body["publications"])
	}
}

func TestGetStats(t *testing.T) {
	repo := &stubRepo{
		count: 2,
		recent: []database.Publication{
			{Identifier: "posts/one", Title: "One", EventID: "e1", ConfirmedCount: 3, RelayCount: 5},
			{Identifier: "posts/two", Title: "Two", EventID: "e2", ConfirmedCount: 5, RelayCount: 5},
		},
	}
	// No runner attached: stats must still work before the first cycle
	handler := NewHandler(repo, nil, "test")
	server := NewServer(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/stats", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["total_publications"] != float64(2) {
		t.Errorf("Expected 2 total publications, got %v", body["total_publications"])
	}
	recent, ok := body["recent"].([]interface{})
	if !ok || len(recent) != 2 {
		t.Errorf("Expected 2 recent publications, got %v", body["recent"])
	}
}
