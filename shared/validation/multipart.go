package validation

import (
	stderrors "errors"
	"net/http"
)

// ValidateAndParseMultipart caps the body at maxSize and parses the multipart form.
// Exceeding the cap makes the server stop reading and close the connection,
// so browsers may see a reset instead of the 413 body.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return ErrPayloadTooLarge
		}
		return errInvalidMultipart
	}

	return nil
}

// CalculateMaxRequestSize adds room for form fields and multipart framing.
func CalculateMaxRequestSize(maxAttachmentSize int64, bufferSize int64) int64 {
	return maxAttachmentSize + bufferSize
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
