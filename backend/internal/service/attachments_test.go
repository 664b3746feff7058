package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

func pending(name, body string) *domain.PendingFile {
	return &domain.PendingFile{OriginalName: name, MimeType: "text/plain", SizeBytes: int64(len(body)), Data: strings.NewReader(body)}
}

func sequentialNames() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
}

func TestAttachmentsSave(t *testing.T) {
	ctx := context.Background()

	t.Run("writes blob then metadata", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		var created []domain.Attachment
		st := &MockStorage{
			createAttachmentFunc: func(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error) {
				_, err := blobs.Read(ctx, a.BlobPath())
				require.NoError(t, err, "blob must exist before metadata")
				created = append(created, *a)
				return domain.AttachmentId(len(created)), nil
			},
		}
		svc := NewAttachments(st, blobs)
		svc.newName = sequentialNames()

		journal := &BlobJournal{}
		saved, err := svc.Save(ctx, domain.KindFree, 7, []*domain.PendingFile{pending("Report.PDF", "abc"), pending("noext", "z")}, journal)
		require.NoError(t, err)
		require.Len(t, saved, 2)

		assert.Equal(t, domain.AttachmentId(1), saved[0].Id)
		assert.Equal(t, "uuid-1.pdf", saved[0].PhysicalName)
		assert.Equal(t, "/free", saved[0].StoragePath)
		assert.Equal(t, "pdf", saved[0].Extension)
		assert.Equal(t, int64(3), saved[0].SizeBytes)
		assert.Equal(t, domain.PostId(7), saved[0].PostId)
		assert.Equal(t, "Report.PDF", saved[0].OriginalName)

		assert.Equal(t, "uuid-2", saved[1].PhysicalName)
		assert.Equal(t, "", saved[1].Extension)
		assert.Equal(t, []string{"free/uuid-1.pdf", "free/uuid-2"}, journal.Paths())
	})

	t.Run("metadata failure leaves the blob in the journal", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		st := &MockStorage{
			createAttachmentFunc: func(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error) {
				return 0, stderrors.New("db down")
			},
		}
		svc := NewAttachments(st, blobs)
		journal := &BlobJournal{}
		_, err := svc.Save(ctx, domain.KindFree, 1, []*domain.PendingFile{pending("a.txt", "a")}, journal)
		require.Error(t, err)
		require.Len(t, journal.Paths(), 1)

		svc.DiscardJournal(ctx, journal)
		assert.Empty(t, blobs.paths())
	})

	t.Run("blob failure writes no metadata", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		blobs.saveErr = stderrors.New("disk full")
		st := &MockStorage{
			createAttachmentFunc: func(ctx context.Context, a *domain.Attachment) (domain.AttachmentId, error) {
				t.Fatal("metadata must not be written")
				return 0, nil
			},
		}
		_, err := NewAttachments(st, blobs).Save(ctx, domain.KindFree, 1, []*domain.PendingFile{pending("a.txt", "a")}, &BlobJournal{})
		assert.Error(t, err)
	})
}

func TestAttachmentsRead(t *testing.T) {
	ctx := context.Background()
	blobs := NewMockBlobStorage()
	blobs.put("free/x.txt", []byte("hello"), timeAgo(0))

	st := &MockStorage{
		getAttachmentFunc: func(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error) {
			switch id {
			case 1:
				return &domain.Attachment{Id: 1, StoragePath: "/free", PhysicalName: "x.txt"}, nil
			case 2:
				return &domain.Attachment{Id: 2, StoragePath: "/free", PhysicalName: "gone.txt"}, nil
			}
			return nil, errors.NotFound(errors.CodeFileNotFound, "file not found")
		},
	}
	svc := NewAttachments(st, blobs)

	att, rc, err := svc.Read(ctx, 1)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, domain.AttachmentId(1), att.Id)

	_, _, err = svc.Read(ctx, 2)
	assert.ErrorIs(t, err, &errors.ErrorWithStatusCode{Kind: errors.KindNotFound, Code: errors.CodeFileNotFound})

	_, _, err = svc.Read(ctx, 3)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func attachmentFixture(blobs *MockBlobStorage) *MockStorage {
	blobs.put("gallery/a.png", []byte("a"), timeAgo(0))
	blobs.put("gallery/b.png", []byte("b"), timeAgo(0))
	blobs.put("thumbnail/t.jpg", []byte("t"), timeAgo(0))
	return &MockStorage{
		listAttachmentsFunc: func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Attachment, error) {
			return []domain.Attachment{
				{Id: 1, StoragePath: "/gallery", PhysicalName: "a.png"},
				{Id: 2, StoragePath: "/gallery", PhysicalName: "b.png"},
			}, nil
		},
		listThumbnailsFunc: func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Thumbnail, error) {
			return []domain.Thumbnail{{Id: 9, FileId: 1, StoragePath: "/thumbnail", PhysicalName: "t.jpg"}}, nil
		},
	}
}

func TestAttachmentsListByPost(t *testing.T) {
	st := attachmentFixture(NewMockBlobStorage())
	atts, err := NewAttachments(st, NewMockBlobStorage()).ListByPost(context.Background(), domain.KindGallery, 1)
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.True(t, atts[0].HasThumbnail)
	assert.False(t, atts[1].HasThumbnail)
}

func TestAttachmentsDeleteByPost(t *testing.T) {
	ctx := context.Background()

	t.Run("removes blobs including thumbnails then metadata", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		st := attachmentFixture(blobs)
		metadataDeleted := false
		st.deleteAttachmentsFunc = func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
			assert.Empty(t, blobs.paths(), "blobs go first")
			metadataDeleted = true
			return nil
		}

		require.NoError(t, NewAttachments(st, blobs).DeleteByPost(ctx, domain.KindGallery, 1))
		assert.True(t, metadataDeleted)
	})

	t.Run("blob failure keeps metadata and a retry completes", func(t *testing.T) {
		blobs := NewMockBlobStorage()
		st := attachmentFixture(blobs)
		calls := 0
		st.deleteAttachmentsFunc = func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
			calls++
			return nil
		}
		fail := true
		blobs.deleteErr = func(p string) error {
			if fail && p == "gallery/b.png" {
				return stderrors.New("io error")
			}
			return nil
		}
		svc := NewAttachments(st, blobs)

		require.Error(t, svc.DeleteByPost(ctx, domain.KindGallery, 1))
		assert.Equal(t, 0, calls)

		fail = false
		require.NoError(t, svc.DeleteByPost(ctx, domain.KindGallery, 1))
		assert.Equal(t, 1, calls)
		assert.Empty(t, blobs.paths())
	})

	t.Run("no attachments", func(t *testing.T) {
		st := &MockStorage{
			deleteAttachmentsFunc: func(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
				t.Fatal("nothing to delete")
				return nil
			},
		}
		assert.NoError(t, NewAttachments(st, NewMockBlobStorage()).DeleteByPost(ctx, domain.KindFree, 1))
	})
}

func TestAttachmentsDetachByPost(t *testing.T) {
	blobs := NewMockBlobStorage()
	st := attachmentFixture(blobs)
	paths, err := NewAttachments(st, blobs).DetachByPost(context.Background(), domain.KindGallery, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gallery/a.png", "gallery/b.png", "thumbnail/t.jpg"}, paths)
	assert.Len(t, blobs.paths(), 3, "blobs stay until the caller commits")
}

func TestBlobJournalDiscardIgnoresFailures(t *testing.T) {
	blobs := NewMockBlobStorage()
	blobs.put("free/a", []byte("a"), timeAgo(0))
	blobs.put("free/b", []byte("b"), timeAgo(0))
	blobs.deleteErr = func(p string) error {
		if p == "free/a" {
			return stderrors.New("busy")
		}
		return nil
	}

	j := &BlobJournal{}
	j.Record("free/a")
	j.Record("free/b")
	j.Discard(context.Background(), blobs)

	assert.Equal(t, []string{"free/a"}, blobs.paths())
}
