package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/logger"
	"github.com/ebrain/board/shared/middleware/metrics"
)

// BlobJournal records blobs written during one operation so they can be removed
// if the surrounding transaction does not commit.
type BlobJournal struct {
	mu    sync.Mutex
	paths []string
}

func (j *BlobJournal) Record(path string) {
	j.mu.Lock()
	j.paths = append(j.paths, path)
	j.mu.Unlock()
}

func (j *BlobJournal) Paths() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.paths...)
}

// Discard deletes every recorded blob. Failures are logged and left to the sweeper.
func (j *BlobJournal) Discard(ctx context.Context, blobs BlobStorage) {
	deleteBlobsBestEffort(ctx, blobs, j.Paths())
}

func deleteBlobsBestEffort(ctx context.Context, blobs BlobStorage, paths []string) {
	for _, p := range paths {
		if err := blobs.Delete(ctx, p); err != nil {
			logger.Log.Warn("failed to delete blob", "path", p, "error", err)
		}
	}
}

// Attachments stores uploaded files and their metadata.
type Attachments struct {
	storage AttachmentStorage
	blobs   BlobStorage
	now     func() time.Time
	newName func() string
}

func NewAttachments(storage AttachmentStorage, blobs BlobStorage) *Attachments {
	return &Attachments{
		storage: storage,
		blobs:   blobs,
		now:     time.Now,
		newName: func() string { return uuid.NewString() },
	}
}

// WithStorage returns a copy that writes metadata through st, typically a transaction.
func (a *Attachments) WithStorage(st AttachmentStorage) *Attachments {
	c := *a
	c.storage = st
	return &c
}

func attachmentDir(kind domain.BoardKind) string {
	return string(kind)
}

// Save writes each file under <kind>/<uuid>.<ext> and then its metadata row.
// Every written blob is recorded in journal before metadata is inserted.
func (a *Attachments) Save(ctx context.Context, kind domain.BoardKind, postId domain.PostId, files []*domain.PendingFile, journal *BlobJournal) ([]domain.Attachment, error) {
	saved := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		ext := domain.FileExtension(f.OriginalName)
		physical := a.newName()
		if ext != "" {
			physical += "." + ext
		}

		dir := attachmentDir(kind)
		size, err := a.blobs.Save(ctx, dir, physical, f.Data)
		if err != nil {
			return nil, fmt.Errorf("save attachment blob: %w", err)
		}

		att := domain.Attachment{
			Kind:         kind,
			PostId:       postId,
			OriginalName: f.OriginalName,
			PhysicalName: physical,
			StoragePath:  "/" + dir,
			Extension:    ext,
			SizeBytes:    size,
			CreatedAt:    a.now(),
		}
		journal.Record(att.BlobPath())

		id, err := a.storage.CreateAttachment(ctx, &att)
		if err != nil {
			return nil, err
		}
		att.Id = id
		saved = append(saved, att)
	}
	metrics.AttachmentsStored.Add(float64(len(saved)))
	return saved, nil
}

// ListByPost returns the attachments of a post with HasThumbnail filled in.
func (a *Attachments) ListByPost(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]domain.Attachment, error) {
	atts, err := a.storage.ListAttachments(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	if len(atts) == 0 {
		return atts, nil
	}
	thumbs, err := a.storage.ListThumbnails(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	withThumb := make(map[domain.AttachmentId]bool, len(thumbs))
	for _, t := range thumbs {
		withThumb[t.FileId] = true
	}
	for i := range atts {
		atts[i].HasThumbnail = withThumb[atts[i].Id]
	}
	return atts, nil
}

func (a *Attachments) Get(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, error) {
	return a.storage.GetAttachment(ctx, id)
}

// Read opens the bytes of an attachment. The caller closes the reader.
func (a *Attachments) Read(ctx context.Context, id domain.AttachmentId) (*domain.Attachment, io.ReadCloser, error) {
	att, err := a.storage.GetAttachment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := a.blobs.Read(ctx, att.BlobPath())
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			logger.Log.Error("attachment metadata without blob", "file_id", id, "path", att.BlobPath())
			return nil, nil, errors.NotFound(errors.CodeFileNotFound, "file not found")
		}
		return nil, nil, err
	}
	return att, rc, nil
}

// blobPathsOf lists attachment and thumbnail blobs of a post.
func (a *Attachments) blobPathsOf(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]string, error) {
	atts, err := a.storage.ListAttachments(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	if len(atts) == 0 {
		return nil, nil
	}
	thumbs, err := a.storage.ListThumbnails(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(atts)+len(thumbs))
	for _, att := range atts {
		paths = append(paths, att.BlobPath())
	}
	for _, t := range thumbs {
		paths = append(paths, t.BlobPath())
	}
	return paths, nil
}

// DeleteByPost removes the blobs of a post and then its metadata.
// A failed blob delete stops before metadata is touched, so a retry finishes the job.
func (a *Attachments) DeleteByPost(ctx context.Context, kind domain.BoardKind, postId domain.PostId) error {
	paths, err := a.blobPathsOf(ctx, kind, postId)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	for _, p := range paths {
		if err := a.blobs.Delete(ctx, p); err != nil {
			return fmt.Errorf("delete blob %s: %w", p, err)
		}
	}
	return a.storage.DeleteAttachments(ctx, kind, postId)
}

// DetachByPost removes only the metadata and returns the blob paths it referenced.
// Callers delete the blobs once the surrounding transaction has committed.
func (a *Attachments) DetachByPost(ctx context.Context, kind domain.BoardKind, postId domain.PostId) ([]string, error) {
	paths, err := a.blobPathsOf(ctx, kind, postId)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}
	if err := a.storage.DeleteAttachments(ctx, kind, postId); err != nil {
		return nil, err
	}
	return paths, nil
}

// DeleteBlobs deletes blobs that no metadata references any more.
func (a *Attachments) DeleteBlobs(ctx context.Context, paths []string) {
	deleteBlobsBestEffort(ctx, a.blobs, paths)
}

// DiscardJournal removes the blobs of an operation that did not commit.
func (a *Attachments) DiscardJournal(ctx context.Context, journal *BlobJournal) {
	journal.Discard(ctx, a.blobs)
}
