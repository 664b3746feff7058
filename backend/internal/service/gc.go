package service

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/ebrain/board/shared/logger"
	"github.com/ebrain/board/shared/middleware/metrics"
)

// BlobSweeper removes blobs that no attachment or thumbnail metadata references.
// It closes the gap left when a transaction rolls back after its files were written.
type BlobSweeper struct {
	storage         BlobPathLister
	blobs           BlobWalker
	safetyThreshold time.Duration
	now             func() time.Time

	mu               sync.Mutex
	lastCleanupStats CleanupStats
}

// CleanupStats tracks metrics from the last sweep.
type CleanupStats struct {
	RunAt         time.Time
	FilesScanned  int
	OrphanedFiles int
	FilesDeleted  int
	DurationMs    int64
	Errors        []string
}

type BlobPathLister interface {
	GetAllBlobPaths(ctx context.Context) ([]string, error)
}

// NewBlobSweeper keeps orphans younger than safetyThreshold, since they may belong
// to a transaction that has not committed yet.
func NewBlobSweeper(storage BlobPathLister, blobs BlobWalker, safetyThreshold time.Duration) *BlobSweeper {
	return &BlobSweeper{
		storage:         storage,
		blobs:           blobs,
		safetyThreshold: safetyThreshold,
		now:             time.Now,
	}
}

// StartBackgroundCleanup sweeps every interval until ctx is done.
func (gc *BlobSweeper) StartBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started blob sweeper", "interval", interval, "safety_threshold", gc.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.RunCleanup(ctx); err != nil {
					logger.Log.Error("blob sweep failed", "error", err)
					continue
				}
				stats := gc.GetLastCleanupStats()
				logger.Log.Info("blob sweep completed",
					"scanned", stats.FilesScanned,
					"orphans", stats.OrphanedFiles,
					"deleted", stats.FilesDeleted,
					"duration_ms", stats.DurationMs,
					"errors", len(stats.Errors),
				)
			case <-ctx.Done():
				logger.Log.Info("blob sweeper shutting down")
				return
			}
		}
	}()
}

// RunCleanup executes a single sweep.
func (gc *BlobSweeper) RunCleanup(ctx context.Context) error {
	start := gc.now()
	stats := CleanupStats{RunAt: start, Errors: []string{}}

	known, err := gc.storage.GetAllBlobPaths(ctx)
	if err != nil {
		return err
	}
	knownSet := make(map[string]bool, len(known))
	for _, p := range known {
		knownSet[normalizeBlobPath(p)] = true
	}

	stored, err := gc.blobs.Walk(ctx)
	if err != nil {
		return err
	}
	stats.FilesScanned = len(stored)

	for _, p := range stored {
		if knownSet[normalizeBlobPath(p)] {
			continue
		}

		modTime, err := gc.blobs.ModTime(ctx, p)
		if err != nil {
			stats.Errors = append(stats.Errors, "stat error: "+p+": "+err.Error())
			continue
		}
		if gc.now().Sub(modTime) < gc.safetyThreshold {
			continue
		}

		stats.OrphanedFiles++
		if err := gc.blobs.Delete(ctx, p); err != nil {
			stats.Errors = append(stats.Errors, "delete error: "+p+": "+err.Error())
			continue
		}
		stats.FilesDeleted++
	}
	metrics.BlobsSwept.Add(float64(stats.FilesDeleted))

	stats.DurationMs = gc.now().Sub(start).Milliseconds()
	gc.mu.Lock()
	gc.lastCleanupStats = stats
	gc.mu.Unlock()
	return nil
}

func (gc *BlobSweeper) GetLastCleanupStats() CleanupStats {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.lastCleanupStats
}

func normalizeBlobPath(p string) string {
	return path.Clean("/" + p)[1:]
}
