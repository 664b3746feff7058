package domain

import (
	"io"
	"path"
	"strings"
	"time"
)

// Attachment is tied to a post through its (Kind, PostId) tag, not a foreign key.
type Attachment struct {
	Id           AttachmentId `json:"id"`
	Kind         BoardKind    `json:"boardKind"`
	PostId       PostId       `json:"postId"`
	OriginalName string       `json:"originalName"`
	PhysicalName string       `json:"-"`
	StoragePath  string       `json:"-"`
	Extension    string       `json:"extension"`
	SizeBytes    int64        `json:"sizeBytes"`
	CreatedAt    time.Time    `json:"createdAt"`
	HasThumbnail bool         `json:"hasThumbnail,omitempty"`
}

// BlobPath is the key of the file bytes inside blob storage.
func (a Attachment) BlobPath() string {
	return BlobPath(a.StoragePath, a.PhysicalName)
}

type Thumbnail struct {
	Id           ThumbnailId  `json:"id"`
	FileId       AttachmentId `json:"fileId"`
	PhysicalName string       `json:"-"`
	StoragePath  string       `json:"-"`
	Extension    string       `json:"extension"`
	SizeBytes    int64        `json:"sizeBytes"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (t Thumbnail) BlobPath() string {
	return BlobPath(t.StoragePath, t.PhysicalName)
}

// PendingFile is an upload that has been validated but not stored yet.
type PendingFile struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Data         io.Reader
}

func BlobPath(storagePath, physicalName string) string {
	return path.Join(strings.TrimPrefix(storagePath, "/"), physicalName)
}

// FileExtension returns the lower-cased text after the last dot, or "".
func FileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
