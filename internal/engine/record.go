package engine

import (
	"bytes"
	"encoding/json"
	"time"
)

// Record is a single remembered unit. A record lives in exactly one tier
// at a time: it is born in short-term, may be promoted to long-term or
// archive during compaction, and may be aged out of the archive.
type Record struct {
	ID             string          `json:"id"`
	Content        json.RawMessage `json:"content"`
	Importance     float64         `json:"importance"`
	Tags           []string        `json:"tags,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	AccessCount    int             `json:"access_count"`

	// RetentionScore is recomputed during each compaction cycle and is
	// not meaningful between cycles.
	RetentionScore float64 `json:"retention_score"`

	// canonical is the cached canonical string form of Content, set when
	// the record enters the engine. Similarity and relevance operate on
	// this, never on Content directly.
	canonical string
}

// Canonical returns the canonical string form of the record's content.
func (r *Record) Canonical() string {
	return r.canonical
}

// Canonicalizer converts opaque record content into the canonical string
// used for similarity and relevance comparison. Content is otherwise
// opaque to the engine.
type Canonicalizer func(content json.RawMessage) (string, error)

// CanonicalJSON is the default Canonicalizer: a compact re-encoding of
// the raw JSON payload. Empty content canonicalizes to the empty string.
func CanonicalJSON(content json.RawMessage) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}
