package engine

import "fmt"

// Snapshot is the full persistable engine state.
type Snapshot struct {
	ShortTerm []*Record
	LongTerm  []*Record
	Archive   []*Record

	CompressionRatio float64
	Cycles           int
	Discarded        int
}

// Snapshotter persists and restores engine state. The engine itself
// stays in-memory; snapshots only bound how much a restart can lose.
type Snapshotter interface {
	Save(snap *Snapshot) error
	Load() (*Snapshot, error)
}

// Flush saves a snapshot through the configured Snapshotter. A no-op
// when none is configured.
func (e *Engine) Flush() error {
	e.mu.Lock()
	snap := e.snapshotLocked()
	s := e.snap
	e.mu.Unlock()

	if s == nil {
		return nil
	}
	if err := s.Save(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Restore replaces engine state from the configured Snapshotter.
// A missing snapshot leaves the engine empty; restored records are
// re-canonicalized so similarity and relevance keep working. Records
// whose content no longer canonicalizes are skipped rather than
// poisoning the tier.
func (e *Engine) Restore() error {
	e.mu.Lock()
	s := e.snap
	e.mu.Unlock()

	if s == nil {
		return nil
	}
	snap, err := s.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.shortTerm = e.recanonicalize(snap.ShortTerm)
	e.longTerm = e.recanonicalize(snap.LongTerm)
	e.archive = e.recanonicalize(snap.Archive)
	if snap.CompressionRatio > 0 {
		e.compressionRatio = snap.CompressionRatio
	}
	e.cycles = snap.Cycles
	e.discarded = snap.Discarded
	return nil
}

func (e *Engine) recanonicalize(recs []*Record) []*Record {
	out := recs[:0]
	for _, rec := range recs {
		canonical, err := e.canon(rec.Content)
		if err != nil {
			continue
		}
		rec.canonical = canonical
		out = append(out, rec)
	}
	return out
}

// snapshotLocked copies record structs so Save can run outside the
// engine lock without racing retrieval's access-count bumps.
func (e *Engine) snapshotLocked() *Snapshot {
	clone := func(recs []*Record) []*Record {
		out := make([]*Record, len(recs))
		for i, rec := range recs {
			c := *rec
			out[i] = &c
		}
		return out
	}
	return &Snapshot{
		ShortTerm:        clone(e.shortTerm),
		LongTerm:         clone(e.longTerm),
		Archive:          clone(e.archive),
		CompressionRatio: e.compressionRatio,
		Cycles:           e.cycles,
		Discarded:        e.discarded,
	}
}
