package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebrain/board/backend/internal/search"
	"github.com/ebrain/board/shared/domain"
	internal_errors "github.com/ebrain/board/shared/errors"
	sharedpg "github.com/ebrain/board/shared/storage/pg"
)

const postColumns = `p.id, p.category_id, p.author_type, p.author_id, p.author_name, p.title, p.content,
	p.view_count, p.is_fixed, p.is_secret, p.is_deleted, p.created_at, p.edited_at`

func errPostNotFound() error {
	return internal_errors.NotFound(internal_errors.CodeBoardNotFound, "post not found")
}

// ListPosts runs a COUNT over the same predicate and then fetches the page.
func (s *Storage) ListPosts(ctx context.Context, kind domain.BoardKind, q search.Query) ([]domain.PostSummary, int64, error) {
	table := sharedpg.TableName(kind)
	where := ""
	if q.Where != "" {
		where = "WHERE " + q.Where
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s p %s", table, where)
	if err := s.q.QueryRowContext(ctx, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	if total == 0 {
		return []domain.PostSummary{}, 0, nil
	}

	n := len(q.Args)
	query := fmt.Sprintf(`
	SELECT p.id, p.category_id, p.author_type, p.author_id, p.author_name, p.title,
		p.view_count, p.is_fixed, p.is_secret, p.created_at, p.edited_at,
		EXISTS (
			SELECT 1 FROM attachments a WHERE a.board_kind = $%[1]d AND a.post_id = p.id
		) AS has_attachment,
		(
			SELECT t.file_id FROM attachments a
			JOIN thumbnails t ON t.file_id = a.id
			WHERE a.board_kind = $%[1]d AND a.post_id = p.id
			ORDER BY a.id
			LIMIT 1
		) AS thumbnail_file_id
	FROM %[2]s p
	%[3]s
	ORDER BY %[4]s
	LIMIT $%[5]d OFFSET $%[6]d`, n+1, table, where, q.OrderBy, n+2, n+3)

	args := make([]any, 0, n+3)
	args = append(args, q.Args...)
	args = append(args, string(kind), q.Limit, q.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.PostSummary, 0, q.Limit)
	for rows.Next() {
		var (
			p         domain.PostSummary
			category  sql.NullInt64
			editedAt  sql.NullTime
			thumbnail sql.NullInt64
		)
		if err := rows.Scan(&p.Id, &category, &p.Author.Type, &p.Author.Id, &p.Author.Name, &p.Title,
			&p.ViewCount, &p.IsFixed, &p.IsSecret, &p.CreatedAt, &editedAt,
			&p.HasAttachment, &thumbnail); err != nil {
			return nil, 0, fmt.Errorf("scan post summary: %w", err)
		}
		p.Kind = kind
		p.CategoryId = category.Int64
		p.EditedAt = nullableTime(editedAt)
		if thumbnail.Valid {
			id := thumbnail.Int64
			p.ThumbnailFileId = &id
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, total, nil
}

func (s *Storage) GetPost(ctx context.Context, kind domain.BoardKind, id domain.PostId) (*domain.Post, error) {
	query := fmt.Sprintf("SELECT %s FROM %s p WHERE p.id = $1", postColumns, sharedpg.TableName(kind))

	var (
		p        domain.Post
		category sql.NullInt64
		editedAt sql.NullTime
	)
	err := s.q.QueryRowContext(ctx, query, id).Scan(&p.Id, &category, &p.Author.Type, &p.Author.Id, &p.Author.Name,
		&p.Title, &p.Content, &p.ViewCount, &p.IsFixed, &p.IsSecret, &p.IsDeleted, &p.CreatedAt, &editedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errPostNotFound()
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	p.Kind = kind
	p.CategoryId = category.Int64
	p.EditedAt = nullableTime(editedAt)
	return &p, nil
}

func (s *Storage) CreatePost(ctx context.Context, kind domain.BoardKind, p domain.PostInsert) (domain.PostId, error) {
	query := fmt.Sprintf(`
	INSERT INTO %s (category_id, author_type, author_id, author_name, title, content, is_fixed, is_secret, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`, sharedpg.TableName(kind))

	var id domain.PostId
	err := s.q.QueryRowContext(ctx, query, nullableId(p.CategoryId), string(p.Author.Type), p.Author.Id, p.Author.Name,
		p.Title, p.Content, p.IsFixed, p.IsSecret, p.CreatedAt).Scan(&id)
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return 0, internal_errors.Validation(internal_errors.CodeIllegalBoardData, "unknown category")
		}
		return 0, fmt.Errorf("create post: %w", err)
	}
	return id, nil
}

func (s *Storage) UpdatePost(ctx context.Context, kind domain.BoardKind, p *domain.Post) error {
	query := fmt.Sprintf(`
	UPDATE %s SET
		category_id = $1, title = $2, content = $3,
		is_fixed = $4, is_secret = $5, is_deleted = $6, edited_at = $7
	WHERE id = $8`, sharedpg.TableName(kind))

	res, err := s.q.ExecContext(ctx, query, nullableId(p.CategoryId), p.Title, p.Content,
		p.IsFixed, p.IsSecret, p.IsDeleted, p.EditedAt, p.Id)
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return internal_errors.Validation(internal_errors.CodeIllegalBoardData, "unknown category")
		}
		return fmt.Errorf("update post: %w", err)
	}
	return expectAffected(res, errPostNotFound)
}

func (s *Storage) DeletePost(ctx context.Context, kind domain.BoardKind, id domain.PostId) error {
	res, err := s.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", sharedpg.TableName(kind)), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectAffected(res, errPostNotFound)
}

// IncreaseViewCount is one statement so concurrent readers never lose an update.
func (s *Storage) IncreaseViewCount(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count", sharedpg.TableName(kind))

	var count int64
	if err := s.q.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errPostNotFound()
		}
		return 0, fmt.Errorf("increase view count: %w", err)
	}
	return count, nil
}

func (s *Storage) CountFixed(ctx context.Context, kind domain.BoardKind) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_fixed = true", sharedpg.TableName(kind))
	if err := s.q.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fixed posts: %w", err)
	}
	return count, nil
}

// LockFixed takes a transaction scoped advisory lock keyed by board kind.
// Two writers pinning posts of the same kind serialise on it, so count-then-insert cannot overshoot the cap.
func (s *Storage) LockFixed(ctx context.Context, kind domain.BoardKind) error {
	if _, err := s.q.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "fixed:"+string(kind)); err != nil {
		return fmt.Errorf("lock fixed posts: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result, notFound func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}
