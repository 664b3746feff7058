// Package fs keeps blobs on the local filesystem under a single root directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ebrain/board/backend/internal/service"
	internal_errors "github.com/ebrain/board/shared/errors"
)

type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.BlobWalker = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// resolve maps a slash separated blob path to a file under the root.
// Paths that would leave the root are rejected.
func (s *Storage) resolve(blobPath string) (string, error) {
	clean := path.Clean("/" + blobPath)
	if clean == "/" {
		return "", fmt.Errorf("empty blob path %q", blobPath)
	}
	full := filepath.Join(s.rootPath, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	rel, err := filepath.Rel(s.rootPath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("blob path %q escapes storage root", blobPath)
	}
	return full, nil
}

// Save writes r to dir/name, creating dir lazily. A partial file is removed on failure.
func (s *Storage) Save(ctx context.Context, dir, name string, r io.Reader) (int64, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return 0, fmt.Errorf("invalid blob name %q", name)
	}
	fullPath, err := s.resolve(path.Join(dir, name))
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create subdirectories: %w", err)
	}

	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}

	n, err := io.Copy(dst, &ctxReader{ctx: ctx, r: r})
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath) // best effort
		return 0, fmt.Errorf("failed to copy file data: %w", err)
	}
	return n, nil
}

func (s *Storage) Read(_ context.Context, blobPath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(blobPath)
	if err != nil {
		return nil, internal_errors.NotFound(internal_errors.CodeFileNotFound, "file not found")
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, internal_errors.NotFound(internal_errors.CodeFileNotFound, "file not found")
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a single blob. A missing blob is not an error.
func (s *Storage) Delete(_ context.Context, blobPath string) error {
	fullPath, err := s.resolve(blobPath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Walk lists every regular file under the root as a slash separated relative path.
func (s *Storage) Walk(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.rootPath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk storage root: %w", err)
	}
	return paths, nil
}

func (s *Storage) ModTime(_ context.Context, blobPath string) (time.Time, error) {
	fullPath, err := s.resolve(blobPath)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.ModTime(), nil
}

// ctxReader stops a long copy once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
