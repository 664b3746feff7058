package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebrain/board/shared/domain"
	internal_errors "github.com/ebrain/board/shared/errors"
)

func errCommentNotFound() error {
	return internal_errors.NotFound(internal_errors.CodeCommentNotFound, "comment not found")
}

func (s *Storage) ListComments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Comment, error) {
	rows, err := s.q.QueryContext(ctx, `
	SELECT id, board_kind, post_id, author_type, author_id, author_name, content, created_at, edited_at
	FROM comments
	WHERE board_kind = $1 AND post_id = $2
	ORDER BY created_at, id`, string(kind), postId)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (s *Storage) CreateComment(ctx context.Context, c *domain.Comment) (domain.CommentId, error) {
	var id domain.CommentId
	err := s.q.QueryRowContext(ctx, `
	INSERT INTO comments (board_kind, post_id, author_type, author_id, author_name, content, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`,
		string(c.Kind), c.PostId, string(c.Author.Type), c.Author.Id, c.Author.Name, c.Content, c.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create comment: %w", err)
	}
	return id, nil
}

func (s *Storage) GetComment(ctx context.Context, id domain.CommentId) (*domain.Comment, error) {
	row := s.q.QueryRowContext(ctx, `
	SELECT id, board_kind, post_id, author_type, author_id, author_name, content, created_at, edited_at
	FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errCommentNotFound()
		}
		return nil, err
	}
	return c, nil
}

func (s *Storage) DeleteComment(ctx context.Context, id domain.CommentId) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectAffected(res, errCommentNotFound)
}

func (s *Storage) DeleteCommentsByPost(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM comments WHERE board_kind = $1 AND post_id = $2", string(kind), postId); err != nil {
		return fmt.Errorf("delete comments of post: %w", err)
	}
	return nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var (
		c        domain.Comment
		kind     string
		editedAt sql.NullTime
	)
	err := row.Scan(&c.Id, &kind, &c.PostId, &c.Author.Type, &c.Author.Id, &c.Author.Name, &c.Content, &c.CreatedAt, &editedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	c.Kind = domain.BoardKind(kind)
	c.EditedAt = nullableTime(editedAt)
	return &c, nil
}
