package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/config"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Run one compaction cycle",
	Long:  "Retention-score the short-term tier, promote survivors to long-term and archive, and sweep aged archive records.",
	RunE:  runCompact,
}

func runCompact(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	eng, db, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	before := eng.Stats()
	eng.Compact()
	after := eng.Stats()

	if err := eng.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	if after.CompactionCycles == before.CompactionCycles {
		fmt.Printf("nothing to compact (short-term: %d, needs > 50)\n", before.ShortTermCount)
		return nil
	}

	fmt.Printf("compacted: short-term %d -> %d, long-term %d -> %d, archive %d -> %d\n",
		before.ShortTermCount, after.ShortTermCount,
		before.LongTermCount, after.LongTermCount,
		before.ArchiveCount, after.ArchiveCount)
	fmt.Printf("compression ratio: %.3f, discarded so far: %d\n", after.CompressionRatio, after.Discarded)
	return nil
}
