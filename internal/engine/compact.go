package engine

import (
	"math"
	"sort"
	"time"
)

// Tags that mark a record as privileged during compaction scoring.
var retentionBoostTags = map[string]bool{
	"critical":        true,
	"important":       true,
	"user-preference": true,
	"system-config":   true,
}

// Compact runs one compression cycle: retention-scores the short-term
// tier, keeps the top 35 records, promotes the next 20 to long-term, and
// archives the remainder when their score clears the archive floor.
// Records below the floor are discarded permanently; that loss is
// intentional and only surfaces through the discard counter. The archive
// is then swept of records older than 30 days unless their importance
// exceeds 0.8.
//
// A no-op while short-term holds 50 records or fewer.
func (e *Engine) Compact() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compactLocked(time.Now())
}

func (e *Engine) compactLocked(now time.Time) {
	if len(e.shortTerm) <= compactMinShortTerm {
		return
	}

	considered := len(e.shortTerm)
	for _, rec := range e.shortTerm {
		rec.RetentionScore = retentionScore(rec, now)
	}

	// Equal scores tie-break on id so ranks are stable across repeated
	// sorts within a cycle.
	sort.Slice(e.shortTerm, func(i, j int) bool {
		a, b := e.shortTerm[i], e.shortTerm[j]
		if a.RetentionScore != b.RetentionScore {
			return a.RetentionScore > b.RetentionScore
		}
		return a.ID < b.ID
	})

	promoteEnd := shortTermKeep + longTermPromote
	if promoteEnd > considered {
		promoteEnd = considered
	}

	promoted := e.shortTerm[shortTermKeep:promoteEnd]
	overflow := e.shortTerm[promoteEnd:]

	e.longTerm = append(e.longTerm, promoted...)

	archived := 0
	for _, rec := range overflow {
		if rec.RetentionScore > archiveScoreFloor {
			e.archive = append(e.archive, rec)
			archived++
		} else {
			e.discarded++
		}
	}

	e.shortTerm = append([]*Record(nil), e.shortTerm[:shortTermKeep]...)

	retained := shortTermKeep + len(promoted) + archived
	e.compressionRatio = float64(retained) / float64(considered)

	e.sweepArchiveLocked(now)
	e.cycles++
}

// sweepArchiveLocked drops archive records past the retention window,
// keeping high-importance records regardless of age.
func (e *Engine) sweepArchiveLocked(now time.Time) {
	cutoff := now.Add(-archiveMaxAge)
	kept := e.archive[:0]
	for _, rec := range e.archive {
		if rec.CreatedAt.After(cutoff) || rec.Importance > archiveKeepImportance {
			kept = append(kept, rec)
		}
	}
	for i := len(kept); i < len(e.archive); i++ {
		e.archive[i] = nil
	}
	e.archive = kept
}

// retentionScore ranks a record for compaction:
//
//	importance + min(0.3, accessCount x 0.05)
//	x e^(-ageInDays x 0.1)
//	x 1.5 when tagged critical/important/user-preference/system-config
//
// clamped to [0, 1]. Distinct from the retrieval-time relevance score.
func retentionScore(rec *Record, now time.Time) float64 {
	score := rec.Importance + math.Min(0.3, float64(rec.AccessCount)*0.05)

	ageDays := now.Sub(rec.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score *= math.Exp(-ageDays * 0.1)

	for _, tag := range rec.Tags {
		if retentionBoostTags[tag] {
			score *= 1.5
			break
		}
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
