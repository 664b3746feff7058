package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFiles(st *MockStorage, blobs *MockBlobStorage) *Files {
	return NewFiles(st, NewAttachments(st, blobs), NewThumbnails(st, blobs, 300))
}

func TestReadAttachment(t *testing.T) {
	ctx := context.Background()
	blobs := NewMockBlobStorage()
	blobs.put("gallery/a.png", []byte("png"), time.Now())
	blobs.put("inquiry/s.pdf", []byte("pdf"), time.Now())

	st := &MockStorage{
		getAttachmentFunc: func(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error) {
			switch id {
			case 1:
				return &domain.Attachment{Id: 1, Kind: domain.KindGallery, PostId: 10, StoragePath: "/gallery", PhysicalName: "a.png", OriginalName: "cat.png"}, nil
			case 2:
				return &domain.Attachment{Id: 2, Kind: domain.KindInquiry, PostId: 20, StoragePath: "/inquiry", PhysicalName: "s.pdf"}, nil
			}
			return nil, errors.NotFound(errors.CodeFileNotFound, "file not found")
		},
		getPostFunc: func(ctx context.Context, kind domain.BoardKind, id domain.PostId) (*domain.Post, error) {
			require.Equal(t, domain.KindInquiry, kind)
			return &domain.Post{Id: id, Kind: kind, IsSecret: true, Author: alice.Author()}, nil
		},
	}
	files := newTestFiles(st, blobs)

	t.Run("public file for anyone", func(t *testing.T) {
		att, rc, err := files.ReadAttachment(ctx, 1, nil)
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "png", string(data))
		assert.Equal(t, "cat.png", att.OriginalName)
	})

	t.Run("secret inquiry file for its author", func(t *testing.T) {
		_, rc, err := files.ReadAttachment(ctx, 2, alice)
		require.NoError(t, err)
		rc.Close()
	})

	t.Run("secret inquiry file hidden from others", func(t *testing.T) {
		_, _, err := files.ReadAttachment(ctx, 2, bob)
		assert.ErrorIs(t, err, errors.ErrForbidden)

		_, _, err = files.ReadAttachment(ctx, 2, nil)
		assert.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	t.Run("unknown file", func(t *testing.T) {
		_, _, err := files.ReadAttachment(ctx, 99, alice)
		assert.ErrorIs(t, err, errors.NotFound(errors.CodeFileNotFound, ""))
	})
}

func TestReadThumbnail(t *testing.T) {
	ctx := context.Background()
	blobs := NewMockBlobStorage()
	blobs.put("thumbnail/t.jpg", []byte("jpg"), time.Now())

	st := &MockStorage{
		getAttachmentFunc: func(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error) {
			return &domain.Attachment{Id: id, Kind: domain.KindGallery, PostId: 10}, nil
		},
		getThumbnailByFileFunc: func(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, error) {
			if fileId == 1 {
				return &domain.Thumbnail{Id: 5, FileId: 1, StoragePath: "/thumbnail", PhysicalName: "t.jpg"}, nil
			}
			return nil, nil
		},
	}
	files := newTestFiles(st, blobs)

	thumb, rc, err := files.ReadThumbnail(ctx, 1, nil)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, domain.ThumbnailId(5), thumb.Id)

	_, _, err = files.ReadThumbnail(ctx, 2, nil)
	assert.ErrorIs(t, err, errors.NotFound(errors.CodeFileNotFound, ""))
}
