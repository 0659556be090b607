package engine

// Stats is a point-in-time aggregate view of the engine.
type Stats struct {
	TotalMemories      int     `json:"total_memories"`
	ShortTermCount     int     `json:"short_term_count"`
	LongTermCount      int     `json:"long_term_count"`
	ArchiveCount       int     `json:"archive_count"`
	AvgImportance      float64 `json:"avg_importance"`
	CompressionRatio   float64 `json:"compression_ratio"`
	RetentionThreshold float64 `json:"retention_threshold"`
	CompactionCycles   int     `json:"compaction_cycles"`
	Discarded          int     `json:"discarded"`
}

// Stats returns current aggregates. Pure read, no mutation.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		ShortTermCount:     len(e.shortTerm),
		LongTermCount:      len(e.longTerm),
		ArchiveCount:       len(e.archive),
		CompressionRatio:   e.compressionRatio,
		RetentionThreshold: e.cfg.RetentionThreshold,
		CompactionCycles:   e.cycles,
		Discarded:          e.discarded,
	}
	s.TotalMemories = s.ShortTermCount + s.LongTermCount + s.ArchiveCount

	if s.TotalMemories > 0 {
		sum := 0.0
		for _, tier := range [][]*Record{e.shortTerm, e.longTerm, e.archive} {
			for _, rec := range tier {
				sum += rec.Importance
			}
		}
		s.AvgImportance = sum / float64(s.TotalMemories)
	}
	return s
}
