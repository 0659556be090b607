package engine

import "time"

// Store adds a record to the short-term tier. A record whose content is
// more than 90% similar to an existing short-term record is silently
// dropped; Store reports the drop through its return value but callers
// get no error. Crossing the short-term high-water mark triggers a
// synchronous compaction.
func (e *Engine) Store(rec *Record) (bool, error) {
	canonical, err := e.canon(rec.Content)
	if err != nil {
		return false, &SerializationError{Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.shortTerm {
		if similarity(canonical, existing.canonical) > dedupThreshold {
			return false, nil
		}
	}

	rec.canonical = canonical
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Importance < 0 {
		rec.Importance = 0
	} else if rec.Importance > 1 {
		rec.Importance = 1
	}
	e.shortTerm = append(e.shortTerm, rec)

	if len(e.shortTerm) > storeCompactTrigger {
		e.compactLocked(time.Now())
	}
	return true, nil
}
