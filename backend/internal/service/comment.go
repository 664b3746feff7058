package service

import (
	"context"
	"time"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

type CommentService interface {
	List(ctx context.Context, kind domain.BoardKind, postId domain.PostId, identity *domain.Identity) ([]domain.Comment, error)
	Create(ctx context.Context, kind domain.BoardKind, postId domain.PostId, content string, identity *domain.Identity) (domain.CommentId, error)
	Delete(ctx context.Context, id domain.CommentId, identity *domain.Identity) error
	DeleteAny(ctx context.Context, id domain.CommentId, identity *domain.Identity) error
}

// Comments hang off any post through its (kind, post id) pair.
type Comments struct {
	storage   Storage
	sanitizer *Sanitizer
	now       func() time.Time
}

func NewComments(storage Storage, sanitizer *Sanitizer) *Comments {
	return &Comments{storage: storage, sanitizer: sanitizer, now: time.Now}
}

// visiblePost loads the post and applies the secret gate of its kind.
func (c *Comments) visiblePost(ctx context.Context, kind domain.BoardKind, postId domain.PostId, identity *domain.Identity) (*domain.Post, error) {
	p, err := PolicyFor(kind)
	if err != nil {
		return nil, err
	}
	post, err := c.storage.GetPost(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	if err := RequireVisible(p, post, identity); err != nil {
		return nil, err
	}
	return post, nil
}

func (c *Comments) List(ctx context.Context, kind domain.BoardKind, postId domain.PostId, identity *domain.Identity) ([]domain.Comment, error) {
	if _, err := c.visiblePost(ctx, kind, postId, identity); err != nil {
		return nil, err
	}
	comments, err := c.storage.ListComments(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

func (c *Comments) Create(ctx context.Context, kind domain.BoardKind, postId domain.PostId, content string, identity *domain.Identity) (domain.CommentId, error) {
	if err := RequireAuthenticated(identity); err != nil {
		return 0, err
	}
	post, err := c.visiblePost(ctx, kind, postId, identity)
	if err != nil {
		return 0, err
	}
	if post.IsDeleted {
		return 0, errors.NotFound(errors.CodeBoardNotFound, "post was deleted")
	}

	text, err := c.sanitizer.CleanField("comment", content, domain.MaxCommentLen)
	if err != nil {
		return 0, err
	}

	return c.storage.CreateComment(ctx, &domain.Comment{
		Kind:      kind,
		PostId:    postId,
		Author:    identity.Author(),
		Content:   text,
		CreatedAt: c.now(),
	})
}

// Delete removes a comment written by identity.
func (c *Comments) Delete(ctx context.Context, id domain.CommentId, identity *domain.Identity) error {
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}
	comment, err := c.storage.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwner(identity, comment.Author, errors.CodeNotMyComment); err != nil {
		return err
	}
	return c.storage.DeleteComment(ctx, id)
}

// DeleteAny is the moderation path: any administrator removes any comment.
func (c *Comments) DeleteAny(ctx context.Context, id domain.CommentId, identity *domain.Identity) error {
	if err := RequireAdmin(identity); err != nil {
		return err
	}
	if _, err := c.storage.GetComment(ctx, id); err != nil {
		return err
	}
	return c.storage.DeleteComment(ctx, id)
}
