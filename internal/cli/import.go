package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/config"
	"github.com/stratamem/strata/internal/engine"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Bulk-import memories from a JSON file",
	Long:  "Import an array of memory objects ({content, importance, tags, metadata}) into the short-term tier. Near-duplicates are dropped by the usual dedup rule.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

type importEntry struct {
	ID         string          `json:"id"`
	Content    json.RawMessage `json:"content"`
	Importance *float64        `json:"importance"`
	Tags       []string        `json:"tags"`
	Metadata   map[string]any  `json:"metadata"`
	CreatedAt  *time.Time      `json:"created_at"`
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var entries []importEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if len(entries) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	eng, db, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, deduped, failed := 0, 0, 0
	for _, entry := range entries {
		importance := 0.5
		if entry.Importance != nil {
			importance = *entry.Importance
		}

		rec := &engine.Record{
			ID:         entry.ID,
			Content:    entry.Content,
			Importance: importance,
			Tags:       entry.Tags,
			Metadata:   entry.Metadata,
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if entry.CreatedAt != nil {
			rec.CreatedAt = *entry.CreatedAt
		}

		ok, err := eng.Store(rec)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", rec.ID, err)
			failed++
		case ok:
			stored++
		default:
			deduped++
		}
	}

	if err := eng.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	fmt.Printf("imported %d memories (%d near-duplicates dropped, %d failed)\n", stored, deduped, failed)
	return nil
}
