package pg

import (
	"context"
	"fmt"

	"github.com/ebrain/board/shared/domain"
)

func (s *Storage) ListCategories(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, board_kind, name FROM categories WHERE board_kind = $1 ORDER BY id", string(kind))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var (
			c       domain.Category
			rowKind string
		)
		if err := rows.Scan(&c.Id, &rowKind, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = domain.BoardKind(rowKind)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
