package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stratamem/strata/internal/engine"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	eng, err := engine.New(engine.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(eng, "test")
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestStoreMemory(t *testing.T) {
	srv := testServer(t)

	body := `{"content":{"note":"deploy friday"},"importance":0.8,"tags":["ops"]}`
	req := httptest.NewRequest("POST", "/api/memories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["id"] == "" || resp["id"] == nil {
		t.Error("expected a server-assigned id")
	}
	if resp["stored"] != true {
		t.Errorf("stored = %v, want true", resp["stored"])
	}
}

func TestStoreMemoryDeduped(t *testing.T) {
	srv := testServer(t)

	body := `{"content":{"note":"same thing"}}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/memories", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("store %d: status = %d, want %d", i, w.Code, http.StatusCreated)
		}

		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		want := i == 0
		if resp["stored"] != want {
			t.Errorf("store %d: stored = %v, want %v", i, resp["stored"], want)
		}
	}
}

func TestStoreMemoryValidation(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing content", `{"importance":0.5}`},
		{"importance out of range", `{"content":{"a":1},"importance":1.5}`},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/api/memories", strings.NewReader(tt.body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", tt.name, w.Code, http.StatusBadRequest)
		}
	}
}

func TestBulkStore(t *testing.T) {
	srv := testServer(t)

	body := `{"memories":[
		{"content":{"note":"first"}},
		{"content":{"note":"second"}},
		{"content":{"note":"first"}},
		{"importance":0.5}
	]}`
	req := httptest.NewRequest("POST", "/api/memories/bulk", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]int
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["stored"] != 2 {
		t.Errorf("stored = %d, want 2", resp["stored"])
	}
	if resp["deduped"] != 1 {
		t.Errorf("deduped = %d, want 1", resp["deduped"])
	}
	if resp["failed"] != 1 {
		t.Errorf("failed = %d, want 1", resp["failed"])
	}
}

func storeTestMemory(t *testing.T, srv *Server, content string, importance float64) {
	t.Helper()
	body := fmt.Sprintf(`{"content":%s,"importance":%f}`, content, importance)
	req := httptest.NewRequest("POST", "/api/memories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("store: status = %d; body: %s", w.Code, w.Body.String())
	}
}

func TestSearch(t *testing.T) {
	srv := testServer(t)
	storeTestMemory(t, srv, `"release checklist"`, 0.8)
	storeTestMemory(t, srv, `"grocery list"`, 0.2)

	req := httptest.NewRequest("GET", "/api/search?q=release+checklist", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Query   string `json:"query"`
		Count   int    `json:"count"`
		Results []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Results[0].Score < 0.7 {
		t.Errorf("score = %f, want >= 0.7", resp.Results[0].Score)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/search", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSearchRejectsBadSort(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/search?q=x&sort=bogus", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSearchZeroThreshold(t *testing.T) {
	srv := testServer(t)
	storeTestMemory(t, srv, `{"note":"obscure fragment"}`, 0.5)

	// threshold=0 disables the relevance floor entirely.
	req := httptest.NewRequest("GET", "/api/search?q=unrelated&threshold=0", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1 with zero threshold", resp.Count)
	}
}

func TestCompactAndStats(t *testing.T) {
	srv := testServer(t)
	for i := 0; i < 60; i++ {
		storeTestMemory(t, srv, fmt.Sprintf(`{"note":"memo-%03d"}`, i), 0.5)
	}

	req := httptest.NewRequest("POST", "/api/compact", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("compact status = %d; body: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/stats", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var stats engine.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.ShortTermCount != 35 {
		t.Errorf("ShortTermCount = %d, want 35", stats.ShortTermCount)
	}
	if stats.LongTermCount != 20 {
		t.Errorf("LongTermCount = %d, want 20", stats.LongTermCount)
	}
	if stats.CompactionCycles != 1 {
		t.Errorf("CompactionCycles = %d, want 1", stats.CompactionCycles)
	}
}
