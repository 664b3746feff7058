package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebrain/board/backend/internal/search"
	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/logger"
	"github.com/ebrain/board/shared/middleware/metrics"
)

// to mock service in tests
type PostService interface {
	List(ctx context.Context, kind domain.BoardKind, criteria domain.SearchCriteria, identity *domain.Identity) (*domain.PostPage, error)
	Get(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (*domain.Post, error)
	Create(ctx context.Context, kind domain.BoardKind, data domain.PostCreationData, identity *domain.Identity) (domain.PostId, error)
	Update(ctx context.Context, kind domain.BoardKind, id domain.PostId, data domain.PostUpdateData, identity *domain.Identity) error
	Delete(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error
	Moderate(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error
	IncreaseViewCount(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error)
	CheckAuthor(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (bool, error)
	CountFixed(ctx context.Context, kind domain.BoardKind) (int, error)
}

type PostsConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Posts is the board store shared by every kind; Policy supplies the differences.
type Posts struct {
	storage     Storage
	attachments *Attachments
	thumbnails  *Thumbnails
	categories  CategoryService
	sanitizer   *Sanitizer
	cfg         PostsConfig
	now         func() time.Time
}

func NewPosts(storage Storage, attachments *Attachments, thumbnails *Thumbnails, categories CategoryService, sanitizer *Sanitizer, cfg PostsConfig) *Posts {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = domain.DefaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	return &Posts{
		storage:     storage,
		attachments: attachments,
		thumbnails:  thumbnails,
		categories:  categories,
		sanitizer:   sanitizer,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *Posts) List(ctx context.Context, kind domain.BoardKind, criteria domain.SearchCriteria, identity *domain.Identity) (*domain.PostPage, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return nil, err
	}

	if criteria.PageSize == 0 {
		criteria.PageSize = s.cfg.DefaultPageSize
	}
	criteria.PageSize = min(criteria.PageSize, s.cfg.MaxPageSize)

	var author *domain.Identity
	if criteria.My {
		if !p.AuthorFilter {
			return nil, errors.Validation(errors.CodeIllegalBoardData, "my filter is not supported on this board")
		}
		if err := RequireAuthenticated(identity); err != nil {
			return nil, err
		}
		author = identity
	}

	q, err := search.Build(criteria, p.SearchOptions(author))
	if err != nil {
		return nil, err
	}

	posts, total, err := s.storage.ListPosts(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.PostSummary{}
	}
	return &domain.PostPage{
		Posts:      posts,
		TotalCount: total,
		PageNumber: criteria.PageNumber,
		PageSize:   criteria.PageSize,
	}, nil
}

// Get returns a post with attachments, comments and, for inquiries, the answer.
// Soft-deleted posts are returned as well.
func (s *Posts) Get(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (*domain.Post, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return nil, err
	}

	post, err := s.storage.GetPost(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := RequireVisible(p, post, identity); err != nil {
		return nil, err
	}

	if post.Attachments, err = s.attachments.ListByPost(ctx, kind, id); err != nil {
		return nil, err
	}
	if post.Comments, err = s.storage.ListComments(ctx, kind, id); err != nil {
		return nil, err
	}
	if kind == domain.KindInquiry {
		if post.Answer, err = s.storage.GetAnswer(ctx, id); err != nil {
			return nil, err
		}
	}

	if post.ContentHTML, err = s.sanitizer.RenderHTML(post.Content); err != nil {
		logger.Log.Warn("failed to render post content", "kind", kind, "post_id", id, "error", err)
	}
	return post, nil
}

func (s *Posts) Create(ctx context.Context, kind domain.BoardKind, data domain.PostCreationData, identity *domain.Identity) (domain.PostId, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return 0, err
	}
	if err := RequireAuthenticated(identity); err != nil {
		return 0, err
	}
	if p.AdminAuthored && !identity.IsAdmin() {
		return 0, errors.Forbidden(errors.CodeAdminOnly, "only administrators can write on this board")
	}

	title, err := s.sanitizer.CleanField("title", data.Title, domain.MaxTitleLen)
	if err != nil {
		return 0, err
	}
	content, err := s.sanitizer.CheckText("content", data.Content, domain.MaxContentLen)
	if err != nil {
		return 0, err
	}
	if err := p.CheckFiles(len(data.Files)); err != nil {
		return 0, err
	}

	insert := domain.PostInsert{
		Author:    identity.Author(),
		Title:     title,
		Content:   content,
		IsFixed:   p.FixedCap > 0 && data.IsFixed,
		IsSecret:  p.SecretVisibility && data.IsSecret,
		CreatedAt: s.now(),
	}
	if p.HasCategory {
		if err := s.checkCategory(ctx, kind, data.CategoryId); err != nil {
			return 0, err
		}
		insert.CategoryId = data.CategoryId
	}

	thumbSrc, err := s.thumbnailSource(p, data.Files)
	if err != nil {
		return 0, err
	}

	journal := &BlobJournal{}
	var id domain.PostId
	err = s.storage.WithTx(ctx, func(tx Storage) error {
		if insert.IsFixed {
			if err := s.checkFixedCap(ctx, tx, p); err != nil {
				return err
			}
		}

		var err error
		if id, err = tx.CreatePost(ctx, kind, insert); err != nil {
			return err
		}
		return s.saveFiles(ctx, tx, p, id, data.Files, thumbSrc, journal)
	})
	if err != nil {
		s.attachments.DiscardJournal(ctx, journal)
		return 0, err
	}

	metrics.PostsCreated.WithLabelValues(string(kind)).Inc()
	return id, nil
}

// Update loads the post, applies the provided fields and saves it.
// New files replace the whole attachment set; old blobs are removed after commit.
func (s *Posts) Update(ctx context.Context, kind domain.BoardKind, id domain.PostId, data domain.PostUpdateData, identity *domain.Identity) error {
	p, err := PolicyFor(kind)
	if err != nil {
		return err
	}
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}

	var title, content string
	if data.Title != nil {
		if title, err = s.sanitizer.CleanField("title", *data.Title, domain.MaxTitleLen); err != nil {
			return err
		}
	}
	if data.Content != nil {
		if content, err = s.sanitizer.CheckText("content", *data.Content, domain.MaxContentLen); err != nil {
			return err
		}
	}
	if len(data.Files) > 0 {
		if err := p.CheckFiles(len(data.Files)); err != nil {
			return err
		}
	}
	if p.HasCategory && data.CategoryId != nil {
		if err := s.checkCategory(ctx, kind, *data.CategoryId); err != nil {
			return err
		}
	}
	thumbSrc, err := s.thumbnailSource(p, data.Files)
	if err != nil {
		return err
	}

	journal := &BlobJournal{}
	var replaced []string
	err = s.storage.WithTx(ctx, func(tx Storage) error {
		post, err := tx.GetPost(ctx, kind, id)
		if err != nil {
			return err
		}
		if err := RequireOwner(identity, post.Author, errors.CodeNotMyBoard); err != nil {
			return err
		}
		if post.IsDeleted {
			return errors.NotFound(errors.CodeBoardNotFound, "post was deleted")
		}

		if data.Title != nil {
			post.Title = title
		}
		if data.Content != nil {
			post.Content = content
		}
		if p.HasCategory && data.CategoryId != nil {
			post.CategoryId = *data.CategoryId
		}
		if p.SecretVisibility && data.IsSecret != nil {
			post.IsSecret = *data.IsSecret
		}
		if p.FixedCap > 0 && data.IsFixed != nil && *data.IsFixed != post.IsFixed {
			if *data.IsFixed {
				if err := s.checkFixedCap(ctx, tx, p); err != nil {
					return err
				}
			}
			post.IsFixed = *data.IsFixed
		}

		if len(data.Files) > 0 {
			if replaced, err = s.attachments.WithStorage(tx).DetachByPost(ctx, kind, id); err != nil {
				return err
			}
			if err := s.saveFiles(ctx, tx, p, id, data.Files, thumbSrc, journal); err != nil {
				return err
			}
		}

		now := s.now()
		post.EditedAt = &now
		return tx.UpdatePost(ctx, kind, post)
	})
	if err != nil {
		s.attachments.DiscardJournal(ctx, journal)
		return err
	}

	s.attachments.DeleteBlobs(ctx, replaced)
	return nil
}

// Delete is the author's delete: soft for Free/Gallery, hard for Inquiry.
func (s *Posts) Delete(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error {
	p, err := PolicyFor(kind)
	if err != nil {
		return err
	}
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}

	switch {
	case p.SoftDelete:
		return s.softDelete(ctx, kind, id, identity)

	case p.HardDeleteByOwner:
		post, err := s.storage.GetPost(ctx, kind, id)
		if err != nil {
			return err
		}
		if err := RequireOwner(identity, post.Author, errors.CodeNotMyBoard); err != nil {
			return err
		}
		return s.removePost(ctx, kind, id)

	default:
		return errors.Forbidden(errors.CodeAdminOnly, "posts of this board are deleted by administrators")
	}
}

// HardDelete is the administrator delete of admin-authored posts.
func (s *Posts) HardDelete(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error {
	p, err := PolicyFor(kind)
	if err != nil {
		return err
	}
	if err := RequireAdmin(identity); err != nil {
		return err
	}
	if !p.AdminAuthored {
		return errors.Forbidden(errors.CodeAdminOnly, "posts of this board cannot be hard deleted")
	}
	if _, err := s.storage.GetPost(ctx, kind, id); err != nil {
		return err
	}
	return s.removePost(ctx, kind, id)
}

// Moderate is the administrator delete on the admin surface. It follows the
// board's own delete rule without an ownership check.
func (s *Posts) Moderate(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) error {
	p, err := PolicyFor(kind)
	if err != nil {
		return err
	}
	if err := RequireAdmin(identity); err != nil {
		return err
	}

	switch {
	case p.AdminAuthored:
		return s.HardDelete(ctx, kind, id, identity)
	case p.SoftDelete:
		return s.softDelete(ctx, kind, id, nil)
	case p.HardDeleteByOwner:
		if _, err := s.storage.GetPost(ctx, kind, id); err != nil {
			return err
		}
		return s.removePost(ctx, kind, id)
	default:
		return errors.Forbidden(errors.CodeAdminOnly, "posts of this board cannot be deleted")
	}
}

// softDelete blanks the post and marks it deleted. A nil owner skips the ownership check.
// Deleting an already deleted post is a no-op.
func (s *Posts) softDelete(ctx context.Context, kind domain.BoardKind, id domain.PostId, owner *domain.Identity) error {
	return s.storage.WithTx(ctx, func(tx Storage) error {
		post, err := tx.GetPost(ctx, kind, id)
		if err != nil {
			return err
		}
		if owner != nil {
			if err := RequireOwner(owner, post.Author, errors.CodeNotMyBoard); err != nil {
				return err
			}
		}
		if post.IsDeleted {
			return nil
		}
		post.IsDeleted = true
		post.Content = domain.DeletedContent
		return tx.UpdatePost(ctx, kind, post)
	})
}

// removePost deletes blobs and attachment metadata first, then the comments and the row.
func (s *Posts) removePost(ctx context.Context, kind domain.BoardKind, id domain.PostId) error {
	if err := s.attachments.DeleteByPost(ctx, kind, id); err != nil {
		return err
	}
	return s.storage.WithTx(ctx, func(tx Storage) error {
		if err := tx.DeleteCommentsByPost(ctx, kind, id); err != nil {
			return err
		}
		return tx.DeletePost(ctx, kind, id)
	})
}

func (s *Posts) IncreaseViewCount(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error) {
	if _, err := PolicyFor(kind); err != nil {
		return 0, err
	}
	count, err := s.storage.IncreaseViewCount(ctx, kind, id)
	if err != nil {
		return 0, err
	}
	metrics.PostViews.WithLabelValues(string(kind)).Inc()
	return count, nil
}

// CheckAuthor reports whether identity wrote the post; anonymous requesters never did.
func (s *Posts) CheckAuthor(ctx context.Context, kind domain.BoardKind, id domain.PostId, identity *domain.Identity) (bool, error) {
	if _, err := PolicyFor(kind); err != nil {
		return false, err
	}
	post, err := s.storage.GetPost(ctx, kind, id)
	if err != nil {
		return false, err
	}
	return identity.Owns(post.Author), nil
}

func (s *Posts) CountFixed(ctx context.Context, kind domain.BoardKind) (int, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return 0, err
	}
	if p.FixedCap == 0 {
		return 0, nil
	}
	return s.storage.CountFixed(ctx, kind)
}

func (s *Posts) checkCategory(ctx context.Context, kind domain.BoardKind, id domain.CategoryId) error {
	ok, err := s.categories.Exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Validation(errors.CodeIllegalBoardData, fmt.Sprintf("unknown category %d", id))
	}
	return nil
}

func (s *Posts) checkFixedCap(ctx context.Context, tx Storage, p Policy) error {
	if err := tx.LockFixed(ctx, p.Kind); err != nil {
		return err
	}
	count, err := tx.CountFixed(ctx, p.Kind)
	if err != nil {
		return err
	}
	return p.CheckFixedCap(count)
}

// thumbnailSource buffers the first file when the kind thumbnails it,
// leaving a fresh reader in its place.
func (s *Posts) thumbnailSource(p Policy, files []*domain.PendingFile) ([]byte, error) {
	if !p.Thumbnails || len(files) == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(files[0].Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	files[0].Data = bytes.NewReader(data)
	return data, nil
}

func (s *Posts) saveFiles(ctx context.Context, tx Storage, p Policy, id domain.PostId, files []*domain.PendingFile, thumbSrc []byte, journal *BlobJournal) error {
	if len(files) == 0 {
		return nil
	}
	saved, err := s.attachments.WithStorage(tx).Save(ctx, p.Kind, id, files, journal)
	if err != nil {
		return err
	}
	if thumbSrc != nil && len(saved) > 0 {
		if _, err := s.thumbnails.WithStorage(tx).Generate(ctx, thumbSrc, saved[0].Id, journal); err != nil {
			return err
		}
	}
	return nil
}
