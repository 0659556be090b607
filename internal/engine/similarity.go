package engine

import "strings"

// tokenSet lowercases a canonical string and splits it on whitespace into
// a set of tokens.
func tokenSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// similarity computes Jaccard similarity between the token sets of two
// canonical strings. Exact string match short-circuits to 1.0.
//
// This is a deliberately cheap lexical proxy, not semantic similarity.
// Two records phrased differently about the same thing will not match;
// that is the documented contract, not a defect.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for tok := range setA {
		if setB[tok] {
			shared++
		}
	}

	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
