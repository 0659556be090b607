package engine

import (
	"math"
	"sort"
	"strings"
	"time"
)

// SortOrder selects the ranking applied to retrieval results.
type SortOrder string

const (
	SortRelevance  SortOrder = "relevance"
	SortRecency    SortOrder = "recency"
	SortImportance SortOrder = "importance"
)

// RetrieveOpts controls retrieval behavior.
type RetrieveOpts struct {
	Limit           int       // max results (0 = default 10)
	Threshold       float64   // minimum relevance (0 = default 0.7, negative = no floor)
	IncludeArchived bool      // include the archive tier in the candidate set
	SortBy          SortOrder // default SortRelevance
}

func (o RetrieveOpts) limit() int {
	if o.Limit <= 0 {
		return 10
	}
	return o.Limit
}

func (o RetrieveOpts) threshold() float64 {
	if o.Threshold == 0 {
		return 0.7
	}
	if o.Threshold < 0 {
		return 0
	}
	return o.Threshold
}

func (o RetrieveOpts) sortBy() SortOrder {
	if o.SortBy == "" {
		return SortRelevance
	}
	return o.SortBy
}

// SearchResult is a score-annotated retrieval hit.
type SearchResult struct {
	Record *Record `json:"record"`
	Score  float64 `json:"score"`
}

// Retrieve searches short-term and long-term memory (plus the archive if
// requested) for records relevant to query. Records that make the final
// cut get their access count bumped and last-access stamped; those
// mutations land on the stored records, so repeated retrieval compounds.
func (e *Engine) Retrieve(query string, opts RetrieveOpts) []SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	threshold := opts.threshold()

	candidates := make([]*Record, 0, len(e.shortTerm)+len(e.longTerm)+len(e.archive))
	candidates = append(candidates, e.shortTerm...)
	candidates = append(candidates, e.longTerm...)
	if opts.IncludeArchived {
		candidates = append(candidates, e.archive...)
	}

	var results []SearchResult
	for _, rec := range candidates {
		score := relevanceScore(rec, query, now)
		if score < threshold {
			continue
		}
		results = append(results, SearchResult{Record: rec, Score: score})
	}

	switch opts.sortBy() {
	case SortRecency:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
		})
	case SortImportance:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Record.Importance > results[j].Record.Importance
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	if limit := opts.limit(); len(results) > limit {
		results = results[:limit]
	}

	// Access bump applies only to the records actually returned.
	for _, r := range results {
		r.Record.AccessCount++
		r.Record.LastAccessedAt = now
	}

	return results
}

// relevanceScore ranks a record against a query:
//
//	+0.8 canonical content contains the query as a substring
//	+0.6 joined tags contain the query as a substring
//	+0.4 x fraction of query words present as whole content tokens
//	x (1 + importance x 0.2)
//	x (1 + ln(accessCount+1) x 0.1)
//	x max(0.5, 1 - ageInDays x 0.01)
//
// clamped to [0, 1]. All string comparison is lowercase.
func relevanceScore(rec *Record, query string, now time.Time) float64 {
	q := strings.ToLower(query)
	content := strings.ToLower(rec.canonical)

	score := 0.0
	if strings.Contains(content, q) {
		score += 0.8
	}
	if strings.Contains(strings.ToLower(strings.Join(rec.Tags, " ")), q) {
		score += 0.6
	}

	if words := strings.Fields(q); len(words) > 0 {
		toks := tokenSet(content)
		hits := 0
		for _, w := range words {
			if toks[w] {
				hits++
			}
		}
		score += 0.4 * float64(hits) / float64(len(words))
	}

	score *= 1 + rec.Importance*0.2
	score *= 1 + math.Log(float64(rec.AccessCount)+1)*0.1

	ageDays := now.Sub(rec.CreatedAt).Hours() / 24
	score *= math.Max(0.5, 1-ageDays*0.01)

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
