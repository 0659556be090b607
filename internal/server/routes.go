package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stratamem/strata/internal/engine"
)

// memoryRequest is the JSON body for storing a single memory.
// Importance defaults to 0.5 when omitted; id and created_at are filled
// server-side when absent.
type memoryRequest struct {
	ID         string          `json:"id"`
	Content    json.RawMessage `json:"content"`
	Importance *float64        `json:"importance"`
	Tags       []string        `json:"tags"`
	Metadata   map[string]any  `json:"metadata"`
	CreatedAt  *time.Time      `json:"created_at"`
}

func (req *memoryRequest) toRecord() (*engine.Record, string) {
	if len(req.Content) == 0 {
		return nil, "content required"
	}

	importance := 0.5
	if req.Importance != nil {
		importance = *req.Importance
		if importance < 0 || importance > 1 {
			return nil, "importance must be in [0,1]"
		}
	}

	rec := &engine.Record{
		ID:         req.ID,
		Content:    req.Content,
		Importance: importance,
		Tags:       req.Tags,
		Metadata:   req.Metadata,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if req.CreatedAt != nil {
		rec.CreatedAt = *req.CreatedAt
	}
	return rec, ""
}

func (s *Server) handleStoreMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, problem := req.toRecord()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	stored, err := s.engine.Store(rec)
	if err != nil {
		var serr *engine.SerializationError
		if errors.As(err, &serr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     rec.ID,
		"stored": stored,
	})
}

func (s *Server) handleBulkStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Memories []memoryRequest `json:"memories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Memories) == 0 {
		writeError(w, http.StatusBadRequest, "memories required")
		return
	}

	stored, deduped, failed := 0, 0, 0
	for i := range req.Memories {
		rec, problem := req.Memories[i].toRecord()
		if problem != "" {
			failed++
			continue
		}
		ok, err := s.engine.Store(rec)
		switch {
		case err != nil:
			failed++
		case ok:
			stored++
		default:
			deduped++
		}
	}

	writeJSON(w, http.StatusCreated, map[string]int{
		"stored":  stored,
		"deduped": deduped,
		"failed":  failed,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	opts := engine.RetrieveOpts{}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if t := r.URL.Query().Get("threshold"); t != "" {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			opts.Threshold = f
			if f == 0 {
				opts.Threshold = -1 // explicit zero means no floor
			}
		}
	}
	if a := r.URL.Query().Get("archived"); a == "true" || a == "1" {
		opts.IncludeArchived = true
	}
	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		switch engine.SortOrder(sortBy) {
		case engine.SortRelevance, engine.SortRecency, engine.SortImportance:
			opts.SortBy = engine.SortOrder(sortBy)
		default:
			writeError(w, http.StatusBadRequest, "sort must be relevance, recency, or importance")
			return
		}
	}

	results := s.engine.Retrieve(query, opts)

	type resultJSON struct {
		ID          string          `json:"id"`
		Content     json.RawMessage `json:"content"`
		Importance  float64         `json:"importance"`
		Tags        []string        `json:"tags,omitempty"`
		Score       float64         `json:"score"`
		AccessCount int             `json:"access_count"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	out := make([]resultJSON, len(results))
	for i, res := range results {
		out[i] = resultJSON{
			ID:          res.Record.ID,
			Content:     res.Record.Content,
			Importance:  res.Record.Importance,
			Tags:        res.Record.Tags,
			Score:       res.Score,
			AccessCount: res.Record.AccessCount,
			CreatedAt:   res.Record.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(out),
		"results": out,
	})
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	s.engine.Compact()
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}
