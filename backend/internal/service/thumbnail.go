package service

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/middleware/metrics"
)

const (
	thumbnailDir     = "thumbnail"
	thumbnailExt     = "jpg"
	thumbnailQuality = 85
)

// Thumbnails produces square JPEG previews for gallery attachments.
type Thumbnails struct {
	storage AttachmentStorage
	blobs   BlobStorage
	size    int
	now     func() time.Time
	newName func() string
}

func NewThumbnails(storage AttachmentStorage, blobs BlobStorage, size int) *Thumbnails {
	return &Thumbnails{
		storage: storage,
		blobs:   blobs,
		size:    size,
		now:     time.Now,
		newName: func() string { return uuid.NewString() },
	}
}

func (t *Thumbnails) WithStorage(st AttachmentStorage) *Thumbnails {
	c := *t
	c.storage = st
	return &c
}

// Generate scales src to exactly size x size, stores it as JPEG and records its metadata for fileId.
func (t *Thumbnails) Generate(ctx context.Context, src []byte, fileId domain.AttachmentId, journal *BlobJournal) (*domain.Thumbnail, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, errors.Validation(errors.CodeIllegalFileData, "attachment is not a supported image")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, SquareThumbnail(img, t.size), &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, err
	}

	physical := t.newName() + "." + thumbnailExt
	size, err := t.blobs.Save(ctx, thumbnailDir, physical, &buf)
	if err != nil {
		return nil, err
	}

	thumb := &domain.Thumbnail{
		FileId:       fileId,
		PhysicalName: physical,
		StoragePath:  "/" + thumbnailDir,
		Extension:    thumbnailExt,
		SizeBytes:    size,
		CreatedAt:    t.now(),
	}
	journal.Record(thumb.BlobPath())

	id, err := t.storage.CreateThumbnail(ctx, thumb)
	if err != nil {
		return nil, err
	}
	thumb.Id = id
	metrics.ThumbnailsGenerated.Inc()
	return thumb, nil
}

// GetByAttachment fails with NotFound (A002) when the attachment has no thumbnail.
func (t *Thumbnails) GetByAttachment(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, error) {
	thumb, err := t.storage.GetThumbnailByFile(ctx, fileId)
	if err != nil {
		return nil, err
	}
	if thumb == nil {
		return nil, errors.NotFound(errors.CodeFileNotFound, "thumbnail not found")
	}
	return thumb, nil
}

// Read opens the thumbnail bytes of an attachment.
func (t *Thumbnails) Read(ctx context.Context, fileId domain.AttachmentId) (*domain.Thumbnail, io.ReadCloser, error) {
	thumb, err := t.GetByAttachment(ctx, fileId)
	if err != nil {
		return nil, nil, err
	}
	rc, err := t.blobs.Read(ctx, thumb.BlobPath())
	if err != nil {
		return nil, nil, err
	}
	return thumb, rc, nil
}

// SquareThumbnail crops the centre square of img and scales it to size x size.
func SquareThumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, xdraw.Src, nil)
	return dst
}
