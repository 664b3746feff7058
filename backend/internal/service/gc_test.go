package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobSweeperRunCleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes old orphans only", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		blobs.put("free/kept.txt", []byte("k"), timeAgo(2*time.Hour))
		blobs.put("free/orphan.txt", []byte("o"), timeAgo(2*time.Hour))
		blobs.put("free/fresh.txt", []byte("f"), timeAgo(time.Minute))
		blobs.put("thumbnail/t.jpg", []byte("t"), timeAgo(2*time.Hour))

		st := &MockStorage{
			getAllBlobPathsFunc: func(ctx context.Context) ([]string, error) {
				return []string{"free/kept.txt", "/thumbnail/t.jpg"}, nil
			},
		}
		gc := NewBlobSweeper(st, blobs, time.Hour)
		require.NoError(t, gc.RunCleanup(ctx))

		assert.Equal(t, []string{"free/fresh.txt", "free/kept.txt", "thumbnail/t.jpg"}, blobs.paths())
		stats := gc.GetLastCleanupStats()
		assert.Equal(t, 4, stats.FilesScanned)
		assert.Equal(t, 1, stats.OrphanedFiles)
		assert.Equal(t, 1, stats.FilesDeleted)
		assert.Empty(t, stats.Errors)
	})

	t.Run("records delete errors and continues", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		blobs.put("free/a", []byte("a"), timeAgo(2*time.Hour))
		blobs.put("free/b", []byte("b"), timeAgo(2*time.Hour))
		blobs.deleteErr = func(p string) error {
			if p == "free/a" {
				return stderrors.New("permission denied")
			}
			return nil
		}
		gc := NewBlobSweeper(&MockStorage{}, blobs, time.Hour)
		require.NoError(t, gc.RunCleanup(ctx))

		stats := gc.GetLastCleanupStats()
		assert.Equal(t, 2, stats.OrphanedFiles)
		assert.Equal(t, 1, stats.FilesDeleted)
		assert.Len(t, stats.Errors, 1)
	})

	t.Run("metadata failure aborts", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		blobs.put("free/a", []byte("a"), timeAgo(2*time.Hour))
		st := &MockStorage{
			getAllBlobPathsFunc: func(ctx context.Context) ([]string, error) {
				return nil, stderrors.New("db down")
			},
		}
		gc := NewBlobSweeper(st, blobs, time.Hour)
		assert.Error(t, gc.RunCleanup(ctx))
		assert.Len(t, blobs.paths(), 1)
	})
}

func TestBlobSweeperBackground(t *testing.T) {
	blobs := NewMockBlobStorage()
	blobs.put("free/orphan", []byte("o"), timeAgo(2*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gc := NewBlobSweeper(&MockStorage{}, blobs, time.Hour)
	gc.StartBackgroundCleanup(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return len(blobs.paths()) == 0 }, time.Second, 10*time.Millisecond)
}
