package service

import (
	"context"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/logger"
)

type CategoryService interface {
	List(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error)
	Exists(ctx context.Context, kind domain.BoardKind, id domain.CategoryId) (bool, error)
}

// Categories serves category lists through an optional cache.
type Categories struct {
	storage CategoryStorage
	cache   CategoryCache
}

// NewCategories accepts a nil cache.
func NewCategories(storage CategoryStorage, cache CategoryCache) *Categories {
	return &Categories{storage: storage, cache: cache}
}

func (c *Categories) List(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return nil, err
	}
	if !p.HasCategory {
		return []domain.Category{}, nil
	}

	if c.cache != nil {
		cats, ok, err := c.cache.Get(ctx, kind)
		if err != nil {
			logger.Log.Warn("category cache read failed", "kind", kind, "error", err)
		} else if ok {
			return cats, nil
		}
	}

	cats, err := c.storage.ListCategories(ctx, kind)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, kind, cats); err != nil {
			logger.Log.Warn("category cache write failed", "kind", kind, "error", err)
		}
	}
	return cats, nil
}

func (c *Categories) Exists(ctx context.Context, kind domain.BoardKind, id domain.CategoryId) (bool, error) {
	cats, err := c.List(ctx, kind)
	if err != nil {
		return false, err
	}
	for _, cat := range cats {
		if cat.Id == id {
			return true, nil
		}
	}
	return false, nil
}
