package validation

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"

	"github.com/ebrain/board/shared/domain"
)

// AttachmentLimits mirrors the attachment section of the public config.
type AttachmentLimits struct {
	AllowedMimeTypes []string
	MaxCount         int
	MaxTotalSize     int64
}

// ValidateAttachments checks every uploaded file against limits and opens it.
// On error no file is left open.
func ValidateAttachments(fileHeaders []*multipart.FileHeader, limits AttachmentLimits) ([]*domain.PendingFile, error) {
	if len(fileHeaders) == 0 {
		return nil, nil
	}
	if limits.MaxCount > 0 && len(fileHeaders) > limits.MaxCount {
		return nil, errTooManyAttachments(limits.MaxCount)
	}

	allowedMimes := BuildAllowedMimeMap(limits.AllowedMimeTypes)

	var total int64
	for _, fileHeader := range fileHeaders {
		mimeType, err := DetectMimeType(fileHeader)
		if err != nil {
			return nil, err
		}
		if !allowedMimes[mimeType] {
			return nil, errInvalidMimeType(mimeType, fileHeader.Filename)
		}
		total += fileHeader.Size
	}
	if limits.MaxTotalSize > 0 && total > limits.MaxTotalSize {
		return nil, errAttachmentsTooLarge()
	}

	pendingFiles := make([]*domain.PendingFile, 0, len(fileHeaders))
	for _, fileHeader := range fileHeaders {
		file, err := fileHeader.Open()
		if err != nil {
			ClosePendingFiles(pendingFiles)
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		mimeType, _ := DetectMimeType(fileHeader)
		pendingFiles = append(pendingFiles, &domain.PendingFile{
			OriginalName: filepath.Base(fileHeader.Filename),
			MimeType:     mimeType,
			SizeBytes:    fileHeader.Size,
			Data:         file,
		})
	}

	return pendingFiles, nil
}

// ClosePendingFiles closes the readers that came from a multipart form.
func ClosePendingFiles(files []*domain.PendingFile) {
	for _, pf := range files {
		if closer, ok := pf.Data.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
}

func BuildAllowedMimeMap(mimes []string) map[string]bool {
	allowedMimes := make(map[string]bool, len(mimes))
	for _, m := range mimes {
		allowedMimes[m] = true
	}
	return allowedMimes
}

func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	// generic or missing, fall back to the extension
	if mimeType == "" || mimeType == "application/octet-stream" {
		if detected := mime.TypeByExtension(filepath.Ext(fileHeader.Filename)); detected != "" {
			mimeType = detected
		}
	}
	if mimeType == "" {
		return "", errInvalidMimeType("unknown", fileHeader.Filename)
	}

	// drop parameters like "; charset=utf-8"
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	return mimeType, nil
}
