package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebrain/board/shared/domain"
	internal_errors "github.com/ebrain/board/shared/errors"
)

const attachmentColumns = "id, board_kind, post_id, original_name, physical_name, storage_path, extension, size_bytes, created_at"

func (s *Storage) CreateAttachment(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error) {
	var id domain.AttachmentId
	err := s.q.QueryRowContext(ctx, `
	INSERT INTO attachments (board_kind, post_id, original_name, physical_name, storage_path, extension, size_bytes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`,
		string(a.Kind), a.PostId, a.OriginalName, a.PhysicalName, a.StoragePath, a.Extension, a.SizeBytes, a.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create attachment: %w", err)
	}
	return id, nil
}

func (s *Storage) ListAttachments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Attachment, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+attachmentColumns+" FROM attachments WHERE board_kind = $1 AND post_id = $2 ORDER BY id",
		string(kind), postId)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []domain.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

func (s *Storage) GetAttachment(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+attachmentColumns+" FROM attachments WHERE id = $1", id)
	a, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound(internal_errors.CodeFileNotFound, "file not found")
		}
		return nil, err
	}
	return a, nil
}

// DeleteAttachments drops the rows of one post. Thumbnails cascade.
func (s *Storage) DeleteAttachments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM attachments WHERE board_kind = $1 AND post_id = $2", string(kind), postId); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	return nil
}

func (s *Storage) CreateThumbnail(ctx context.Context, t *domain.Thumbnail) (domain.ThumbnailId, error) {
	var id domain.ThumbnailId
	err := s.q.QueryRowContext(ctx, `
	INSERT INTO thumbnails (file_id, physical_name, storage_path, extension, size_bytes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`,
		t.FileId, t.PhysicalName, t.StoragePath, t.Extension, t.SizeBytes, t.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create thumbnail: %w", err)
	}
	return id, nil
}

func (s *Storage) GetThumbnailByFile(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, error) {
	var t domain.Thumbnail
	err := s.q.QueryRowContext(ctx, `
	SELECT id, file_id, physical_name, storage_path, extension, size_bytes, created_at
	FROM thumbnails WHERE file_id = $1`, fileId,
	).Scan(&t.Id, &t.FileId, &t.PhysicalName, &t.StoragePath, &t.Extension, &t.SizeBytes, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get thumbnail: %w", err)
	}
	return &t, nil
}

func (s *Storage) ListThumbnails(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Thumbnail, error) {
	rows, err := s.q.QueryContext(ctx, `
	SELECT t.id, t.file_id, t.physical_name, t.storage_path, t.extension, t.size_bytes, t.created_at
	FROM thumbnails t
	JOIN attachments a ON a.id = t.file_id
	WHERE a.board_kind = $1 AND a.post_id = $2
	ORDER BY t.id`, string(kind), postId)
	if err != nil {
		return nil, fmt.Errorf("list thumbnails: %w", err)
	}
	defer rows.Close()

	thumbnails := []domain.Thumbnail{}
	for rows.Next() {
		var t domain.Thumbnail
		if err := rows.Scan(&t.Id, &t.FileId, &t.PhysicalName, &t.StoragePath, &t.Extension, &t.SizeBytes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thumbnail: %w", err)
		}
		thumbnails = append(thumbnails, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thumbnails: %w", err)
	}
	return thumbnails, nil
}

func (s *Storage) GetAllBlobPaths(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `
	SELECT storage_path, physical_name FROM attachments
	UNION ALL
	SELECT storage_path, physical_name FROM thumbnails`)
	if err != nil {
		return nil, fmt.Errorf("query blob paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var storagePath, physicalName string
		if err := rows.Scan(&storagePath, &physicalName); err != nil {
			return nil, fmt.Errorf("scan blob path: %w", err)
		}
		paths = append(paths, domain.BlobPath(storagePath, physicalName))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blob paths: %w", err)
	}
	return paths, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (*domain.Attachment, error) {
	var (
		a    domain.Attachment
		kind string
	)
	err := row.Scan(&a.Id, &kind, &a.PostId, &a.OriginalName, &a.PhysicalName, &a.StoragePath, &a.Extension, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	a.Kind = domain.BoardKind(kind)
	return &a, nil
}
