package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stratamem/strata/internal/config"
	"github.com/stratamem/strata/internal/engine"
	"github.com/stratamem/strata/internal/server"
	"github.com/stratamem/strata/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	eng, db, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	eng.StartCycle()
	defer func() {
		eng.StopCycle()
		if err := eng.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "flush snapshot: %v\n", err)
		}
	}()

	srv := server.New(eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "strata serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		fmt.Fprintf(os.Stderr, "  cycle: every %s\n", cfg.Memory.CleanupInterval)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// openEngine builds the engine from config, opens the snapshot database,
// and restores persisted state.
func openEngine(cfg config.Config) (*engine.Engine, *store.DB, error) {
	eng, err := engine.New(engine.Config{
		CompressionRatio:   cfg.Memory.CompressionRatio,
		RetentionThreshold: cfg.Memory.RetentionThreshold,
		CleanupInterval:    cfg.Memory.CleanupInterval,
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		if env := os.Getenv("STRATA_DB"); env != "" {
			dbPath = env
		} else {
			dbPath, err = store.DefaultDBPath()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve db path: %w", err)
			}
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	eng.SetSnapshotter(db)
	if err := eng.Restore(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("restore snapshot: %w", err)
	}
	return eng, db, nil
}
