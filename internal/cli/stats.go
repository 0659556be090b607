package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory tier statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	eng, db, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s := eng.Stats()

	fmt.Println("## Memory Stats")
	fmt.Println()
	fmt.Printf("  total:       %d\n", s.TotalMemories)
	fmt.Printf("  short-term:  %d\n", s.ShortTermCount)
	fmt.Printf("  long-term:   %d\n", s.LongTermCount)
	fmt.Printf("  archive:     %d\n", s.ArchiveCount)
	fmt.Println()
	fmt.Printf("  avg importance:      %.3f\n", s.AvgImportance)
	fmt.Printf("  compression ratio:   %.3f\n", s.CompressionRatio)
	fmt.Printf("  retention threshold: %.3f\n", s.RetentionThreshold)
	fmt.Printf("  compaction cycles:   %d\n", s.CompactionCycles)
	fmt.Printf("  discarded:           %d\n", s.Discarded)

	return nil
}
