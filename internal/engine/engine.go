package engine

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// Tier size and compaction thresholds. Store triggers a synchronous
// compaction once short-term exceeds storeCompactTrigger; Compact itself
// only acts once short-term exceeds compactMinShortTerm.
const (
	storeCompactTrigger = 100
	compactMinShortTerm = 50
	shortTermKeep       = 35 // floor(compactMinShortTerm * 0.7)
	longTermPromote     = 20
	archiveScoreFloor   = 0.3
	dedupThreshold      = 0.9

	archiveMaxAge         = 30 * 24 * time.Hour
	archiveKeepImportance = 0.8
)

// Config holds engine construction parameters. CompressionRatio and
// RetentionThreshold are reporting values surfaced through Stats; they do
// not participate in dedup or compaction decisions.
type Config struct {
	CompressionRatio   float64
	RetentionThreshold float64
	CleanupInterval    time.Duration
}

// DefaultConfig returns the engine defaults: 0.7 compression ratio, 0.8
// retention threshold, 5 minute compaction cycle.
func DefaultConfig() Config {
	return Config{
		CompressionRatio:   0.7,
		RetentionThreshold: 0.8,
		CleanupInterval:    5 * time.Minute,
	}
}

// Validate checks the configuration and returns a ConfigError describing
// the first invalid field.
func (c Config) Validate() error {
	if math.IsNaN(c.CompressionRatio) || math.IsInf(c.CompressionRatio, 0) ||
		c.CompressionRatio < 0 || c.CompressionRatio > 1 {
		return &ConfigError{Field: "compression_ratio", Reason: fmt.Sprintf("must be in [0,1], got %v", c.CompressionRatio)}
	}
	if math.IsNaN(c.RetentionThreshold) || math.IsInf(c.RetentionThreshold, 0) ||
		c.RetentionThreshold < 0 || c.RetentionThreshold > 1 {
		return &ConfigError{Field: "retention_threshold", Reason: fmt.Sprintf("must be in [0,1], got %v", c.RetentionThreshold)}
	}
	if c.CleanupInterval <= 0 {
		return &ConfigError{Field: "cleanup_interval", Reason: fmt.Sprintf("must be positive, got %v", c.CleanupInterval)}
	}
	return nil
}

// Engine owns the three memory tiers and their aggregate stats. All
// operations are serialized behind a single mutex; the engine holds no
// I/O of its own. Persistence, when configured, goes through an optional
// Snapshotter.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	canon     Canonicalizer
	shortTerm []*Record
	longTerm  []*Record
	archive   []*Record

	compressionRatio float64
	cycles           int
	discarded        int

	snap Snapshotter

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates an Engine with the given configuration. A nil canonicalizer
// falls back to CanonicalJSON.
func New(cfg Config, canon Canonicalizer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if canon == nil {
		canon = CanonicalJSON
	}
	return &Engine{
		cfg:              cfg,
		canon:            canon,
		compressionRatio: cfg.CompressionRatio,
	}, nil
}

// SetSnapshotter configures the persistence provider. The engine saves a
// snapshot after each periodic compaction cycle and on Flush.
func (e *Engine) SetSnapshotter(s Snapshotter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = s
}

// StartCycle launches the background compaction cycle. Starting an
// already running engine is a no-op, so restart after Stop never leaves
// duplicate tickers.
func (e *Engine) StartCycle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.wg.Add(1)
	go e.runCycle(e.stopCh, e.cfg.CleanupInterval)
}

func (e *Engine) runCycle(stop <-chan struct{}, interval time.Duration) {
	defer e.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Compact()
			if err := e.Flush(); err != nil {
				log.Printf("cycle: snapshot failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}

// StopCycle stops the background compaction cycle and waits for it to
// exit. Safe to call repeatedly.
func (e *Engine) StopCycle() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.wg.Wait()
}
