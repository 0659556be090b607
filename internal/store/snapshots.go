package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stratamem/strata/internal/engine"
)

// Tier labels used in the memories table.
const (
	tierShort   = "short"
	tierLong    = "long"
	tierArchive = "archive"
)

// Save replaces the persisted snapshot with the given engine state.
// The whole write runs in one transaction so a crash mid-save leaves the
// previous snapshot intact.
func (db *DB) Save(snap *engine.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM memories"); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}

	tiers := []struct {
		label string
		recs  []*engine.Record
	}{
		{tierShort, snap.ShortTerm},
		{tierLong, snap.LongTerm},
		{tierArchive, snap.Archive},
	}
	for _, tier := range tiers {
		for pos, rec := range tier.recs {
			if err := insertRecord(tx, tier.label, pos, rec); err != nil {
				return err
			}
		}
	}

	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		INSERT INTO engine_state (id, compression_ratio, cycles, discarded, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			compression_ratio = excluded.compression_ratio,
			cycles            = excluded.cycles,
			discarded         = excluded.discarded,
			saved_at          = excluded.saved_at
	`, snap.CompressionRatio, snap.Cycles, snap.Discarded, now); err != nil {
		return fmt.Errorf("save engine state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func insertRecord(tx *sql.Tx, tier string, pos int, rec *engine.Record) error {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags for %s: %w", rec.ID, err)
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", rec.ID, err)
	}

	var lastAccess any
	if !rec.LastAccessedAt.IsZero() {
		lastAccess = rec.LastAccessedAt.UnixMilli()
	}

	_, err = tx.Exec(`
		INSERT INTO memories (id, tier, position, content, importance, tags, metadata,
			retention_score, access_count, last_access, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, tier, pos, string(rec.Content), rec.Importance, string(tags), string(meta),
		rec.RetentionScore, rec.AccessCount, lastAccess, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads the persisted snapshot. Returns nil when nothing has been
// saved yet.
func (db *DB) Load() (*engine.Snapshot, error) {
	snap := &engine.Snapshot{}

	var savedAt int64
	err := db.QueryRow(`
		SELECT compression_ratio, cycles, discarded, saved_at FROM engine_state WHERE id = 1
	`).Scan(&snap.CompressionRatio, &snap.Cycles, &snap.Discarded, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load engine state: %w", err)
	}

	rows, err := db.Query(`
		SELECT id, tier, content, importance, tags, metadata,
			retention_score, access_count, last_access, created_at
		FROM memories ORDER BY tier, position
	`)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec        engine.Record
			tier       string
			content    sql.NullString
			tags, meta sql.NullString
			lastAccess sql.NullInt64
			createdAt  int64
		)
		if err := rows.Scan(&rec.ID, &tier, &content, &rec.Importance, &tags, &meta,
			&rec.RetentionScore, &rec.AccessCount, &lastAccess, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		if content.Valid && content.String != "" {
			rec.Content = json.RawMessage(content.String)
		}
		if tags.Valid && tags.String != "" && tags.String != "null" {
			if err := json.Unmarshal([]byte(tags.String), &rec.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags for %s: %w", rec.ID, err)
			}
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", rec.ID, err)
			}
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		if lastAccess.Valid {
			rec.LastAccessedAt = time.UnixMilli(lastAccess.Int64)
		}

		switch tier {
		case tierShort:
			snap.ShortTerm = append(snap.ShortTerm, &rec)
		case tierLong:
			snap.LongTerm = append(snap.LongTerm, &rec)
		case tierArchive:
			snap.Archive = append(snap.Archive, &rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// CountByTier returns the persisted record count for a tier label.
func (db *DB) CountByTier(tier string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM memories WHERE tier = ?", tier).Scan(&count)
	return count, err
}
