package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stratamem/strata/internal/engine"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSnapshot() *engine.Snapshot {
	now := time.Now().Truncate(time.Millisecond)
	return &engine.Snapshot{
		ShortTerm: []*engine.Record{
			{
				ID:             "st-1",
				Content:        json.RawMessage(`{"note":"short one"}`),
				Importance:     0.9,
				Tags:           []string{"critical", "ops"},
				Metadata:       map[string]any{"source": "test"},
				CreatedAt:      now,
				LastAccessedAt: now,
				AccessCount:    3,
				RetentionScore: 0.75,
			},
			{ID: "st-2", Content: json.RawMessage(`{"note":"short two"}`), Importance: 0.4, CreatedAt: now},
		},
		LongTerm: []*engine.Record{
			{ID: "lt-1", Content: json.RawMessage(`{"note":"long one"}`), Importance: 0.6, CreatedAt: now},
		},
		Archive: []*engine.Record{
			{ID: "ar-1", Content: json.RawMessage(`{"note":"archived"}`), Importance: 0.2, CreatedAt: now},
		},
		CompressionRatio: 0.85,
		Cycles:           7,
		Discarded:        2,
	}
}

func TestLoadEmpty(t *testing.T) {
	db := testDB(t)

	snap, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap != nil {
		t.Errorf("Load on empty db = %+v, want nil", snap)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	db := testDB(t)
	orig := testSnapshot()

	if err := db.Save(orig); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil after Save")
	}

	if len(got.ShortTerm) != 2 || len(got.LongTerm) != 1 || len(got.Archive) != 1 {
		t.Fatalf("tier sizes = %d/%d/%d, want 2/1/1",
			len(got.ShortTerm), len(got.LongTerm), len(got.Archive))
	}
	if got.CompressionRatio != 0.85 || got.Cycles != 7 || got.Discarded != 2 {
		t.Errorf("state = ratio %f cycles %d discarded %d, want 0.85/7/2",
			got.CompressionRatio, got.Cycles, got.Discarded)
	}

	rec := got.ShortTerm[0]
	if rec.ID != "st-1" {
		t.Errorf("first short-term record = %s, want st-1 (position order)", rec.ID)
	}
	if rec.AccessCount != 3 {
		t.Errorf("AccessCount = %d, want 3", rec.AccessCount)
	}
	if rec.RetentionScore != 0.75 {
		t.Errorf("RetentionScore = %f, want 0.75", rec.RetentionScore)
	}
	if len(rec.Tags) != 2 || rec.Tags[0] != "critical" {
		t.Errorf("Tags = %v, want [critical ops]", rec.Tags)
	}
	if rec.Metadata["source"] != "test" {
		t.Errorf("Metadata = %v, want source=test", rec.Metadata)
	}
	if string(rec.Content) != `{"note":"short one"}` {
		t.Errorf("Content = %s", rec.Content)
	}
	if !rec.CreatedAt.Equal(orig.ShortTerm[0].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, orig.ShortTerm[0].CreatedAt)
	}
	if rec.LastAccessedAt.IsZero() {
		t.Error("LastAccessedAt lost in roundtrip")
	}

	if !got.ShortTerm[1].LastAccessedAt.IsZero() {
		t.Error("never-accessed record gained a LastAccessedAt")
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	db := testDB(t)

	if err := db.Save(testSnapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	second := &engine.Snapshot{
		ShortTerm: []*engine.Record{
			{ID: "only", Content: json.RawMessage(`{"note":"replacement"}`), CreatedAt: time.Now()},
		},
		CompressionRatio: 0.5,
		Cycles:           8,
	}
	if err := db.Save(second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.ShortTerm) != 1 || len(got.LongTerm) != 0 || len(got.Archive) != 0 {
		t.Errorf("tier sizes = %d/%d/%d, want 1/0/0",
			len(got.ShortTerm), len(got.LongTerm), len(got.Archive))
	}
	if got.Cycles != 8 {
		t.Errorf("Cycles = %d, want 8", got.Cycles)
	}
}

func TestCountByTier(t *testing.T) {
	db := testDB(t)
	if err := db.Save(testSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for tier, want := range map[string]int{"short": 2, "long": 1, "archive": 1} {
		got, err := db.CountByTier(tier)
		if err != nil {
			t.Fatalf("CountByTier(%s): %v", tier, err)
		}
		if got != want {
			t.Errorf("CountByTier(%s) = %d, want %d", tier, got, want)
		}
	}
}
