package service

import (
	"context"
	"io"
	"time"

	"github.com/ebrain/board/backend/internal/search"
	"github.com/ebrain/board/shared/domain"
)

// PostStorage persists posts of every kind; kind selects the table.
type PostStorage interface {
	ListPosts(ctx context.Context, kind domain.BoardKind, q search.Query) ([]domain.PostSummary, int64, error)
	// GetPost fails with NotFound (A001) when no row exists.
	GetPost(ctx context.Context, kind domain.BoardKind, id domain.PostId) (*domain.Post, error)
	CreatePost(ctx context.Context, kind domain.BoardKind, p domain.PostInsert) (domain.PostId, error)
	// UpdatePost saves mutable fields: category, title, content, flags and edited_at.
	UpdatePost(ctx context.Context, kind domain.BoardKind, p *domain.Post) error
	DeletePost(ctx context.Context, kind domain.BoardKind, id domain.PostId) error
	// IncreaseViewCount is a single atomic increment and returns the new count.
	IncreaseViewCount(ctx context.Context, kind domain.BoardKind, id domain.PostId) (int64, error)
	CountFixed(ctx context.Context, kind domain.BoardKind) (int, error)
	// LockFixed serialises fixed-post checks of one kind until the transaction ends.
	LockFixed(ctx context.Context, kind domain.BoardKind) error
}

type AttachmentStorage interface {
	CreateAttachment(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error)
	ListAttachments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Attachment, error)
	GetAttachment(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error)
	// DeleteAttachments removes attachment rows of a post; their thumbnail rows go with them.
	DeleteAttachments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error

	CreateThumbnail(ctx context.Context, t *domain.Thumbnail) (domain.ThumbnailId, error)
	// GetThumbnailByFile returns nil, nil when the attachment has no thumbnail.
	GetThumbnailByFile(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, error)
	ListThumbnails(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Thumbnail, error)

	// GetAllBlobPaths lists every blob referenced by attachment or thumbnail metadata.
	GetAllBlobPaths(ctx context.Context) ([]string, error)
}

type CommentStorage interface {
	ListComments(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Comment, error)
	CreateComment(ctx context.Context, c *domain.Comment) (domain.CommentId, error)
	GetComment(ctx context.Context, id domain.CommentId) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id domain.CommentId) error
	DeleteCommentsByPost(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error
}

type AnswerStorage interface {
	// GetAnswer returns nil, nil when the inquiry has no answer.
	GetAnswer(ctx context.Context, inquiryId domain.PostId) (*domain.Answer, error)
	CreateAnswer(ctx context.Context, a *domain.Answer) (domain.AnswerId, error)
	UpdateAnswer(ctx context.Context, a *domain.Answer) error
	DeleteAnswer(ctx context.Context, inquiryId domain.PostId) error
}

type CategoryStorage interface {
	ListCategories(ctx context.Context, kind domain.BoardKind) ([]domain.Category, error)
}

// Storage is everything the services need from the relational store.
type Storage interface {
	PostStorage
	AttachmentStorage
	CommentStorage
	AnswerStorage
	CategoryStorage

	// WithTx runs fn in one transaction. Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Storage) error) error
}

// BlobStorage keeps file bytes. Paths are slash separated and relative to the store root.
type BlobStorage interface {
	// Save writes r to dir/name and returns the number of bytes written.
	Save(ctx context.Context, dir, name string, r io.Reader) (int64, error)
	// Read fails with NotFound (A002) for a missing blob.
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete succeeds when the blob is already gone.
	Delete(ctx context.Context, path string) error
}

// BlobWalker is a BlobStorage that can enumerate its content for the orphan sweep.
type BlobWalker interface {
	BlobStorage
	Walk(ctx context.Context) ([]string, error)
	ModTime(ctx context.Context, path string) (time.Time, error)
}

// CategoryCache is an optional read-through cache for category lists.
type CategoryCache interface {
	Get(ctx context.Context, kind domain.BoardKind) ([]domain.Category, bool, error)
	Set(ctx context.Context, kind domain.BoardKind, categories []domain.Category) error
}
