package engine

import (
	"encoding/json"
	"testing"
)

// memSnapshotter keeps the last saved snapshot in memory.
type memSnapshotter struct {
	saved *Snapshot
	loads int
}

func (m *memSnapshotter) Save(snap *Snapshot) error {
	m.saved = snap
	return nil
}

func (m *memSnapshotter) Load() (*Snapshot, error) {
	m.loads++
	return m.saved, nil
}

func TestFlushWithoutSnapshotter(t *testing.T) {
	eng := testEngine(t)
	if err := eng.Flush(); err != nil {
		t.Errorf("Flush without snapshotter: %v", err)
	}
	if err := eng.Restore(); err != nil {
		t.Errorf("Restore without snapshotter: %v", err)
	}
}

func TestFlushRestoreRoundtrip(t *testing.T) {
	eng := testEngine(t)
	snap := &memSnapshotter{}
	eng.SetSnapshotter(snap)

	seedRecords(t, eng, "seed", 60, 0.5)
	eng.Compact()
	if err := eng.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	restored := testEngine(t)
	restored.SetSnapshotter(snap)
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	orig := eng.Stats()
	got := restored.Stats()
	if got != orig {
		t.Errorf("stats after restore = %+v, want %+v", got, orig)
	}

	// Restored records must be searchable again (canonical form rebuilt).
	results := restored.Retrieve("seed-topic-000", RetrieveOpts{Threshold: -1, Limit: 1})
	if len(results) != 1 {
		t.Fatalf("retrieve after restore: got %d results, want 1", len(results))
	}
}

func TestRestoreEmptySnapshot(t *testing.T) {
	eng := testEngine(t)
	eng.SetSnapshotter(&memSnapshotter{})
	if err := eng.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := eng.Stats().TotalMemories; got != 0 {
		t.Errorf("TotalMemories = %d, want 0", got)
	}
}

func TestFlushCopiesRecords(t *testing.T) {
	eng := testEngine(t)
	snap := &memSnapshotter{}
	eng.SetSnapshotter(snap)

	mustStore(t, eng, &Record{ID: "a", Content: json.RawMessage(`"flush copy"`)})
	if err := eng.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Mutating live state after the flush must not leak into the saved copy.
	eng.Retrieve("flush copy", RetrieveOpts{Threshold: -1})
	if got := snap.saved.ShortTerm[0].AccessCount; got != 0 {
		t.Errorf("snapshot AccessCount = %d, want 0", got)
	}
}
