package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebrain/board/shared/domain"
	internal_errors "github.com/ebrain/board/shared/errors"
	sharedpg "github.com/ebrain/board/shared/storage/pg"
)

func errAnswerNotFound() error {
	return internal_errors.NotFound(internal_errors.CodeAnswerNotFound, "answer not found")
}

func (s *Storage) GetAnswer(ctx context.Context, inquiryId domain.PostId) (*domain.Answer, error) {
	var (
		a        domain.Answer
		editedAt sql.NullTime
	)
	err := s.q.QueryRowContext(ctx, `
	SELECT id, inquiry_id, author_type, author_id, author_name, content, created_at, edited_at
	FROM answers WHERE inquiry_id = $1`, inquiryId,
	).Scan(&a.Id, &a.InquiryId, &a.Author.Type, &a.Author.Id, &a.Author.Name, &a.Content, &a.CreatedAt, &editedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get answer: %w", err)
	}
	a.EditedAt = nullableTime(editedAt)
	return &a, nil
}

// CreateAnswer relies on the unique inquiry_id to keep one answer per inquiry.
func (s *Storage) CreateAnswer(ctx context.Context, a *domain.Answer) (domain.AnswerId, error) {
	var id domain.AnswerId
	err := s.q.QueryRowContext(ctx, `
	INSERT INTO answers (inquiry_id, author_type, author_id, author_name, content, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`,
		a.InquiryId, string(a.Author.Type), a.Author.Id, a.Author.Name, a.Content, a.CreatedAt,
	).Scan(&id)
	if err != nil {
		switch {
		case sharedpg.IsUniqueViolation(err):
			return 0, internal_errors.Validation(internal_errors.CodeIllegalBoardData, "inquiry already answered")
		case sharedpg.IsForeignKeyViolation(err):
			return 0, internal_errors.NotFound(internal_errors.CodeBoardNotFound, "inquiry not found")
		}
		return 0, fmt.Errorf("create answer: %w", err)
	}
	return id, nil
}

func (s *Storage) UpdateAnswer(ctx context.Context, a *domain.Answer) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE answers SET content = $1, edited_at = $2 WHERE inquiry_id = $3",
		a.Content, a.EditedAt, a.InquiryId)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	return expectAffected(res, errAnswerNotFound)
}

func (s *Storage) DeleteAnswer(ctx context.Context, inquiryId domain.PostId) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM answers WHERE inquiry_id = $1", inquiryId)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	return expectAffected(res, errAnswerNotFound)
}
