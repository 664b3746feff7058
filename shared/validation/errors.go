package validation

import (
	"net/http"
	"strconv"

	"github.com/ebrain/board/shared/errors"
)

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = &errors.ErrorWithStatusCode{
	Kind:       errors.KindValidation,
	Code:       errors.CodeIllegalFileData,
	Message:    "payload too large",
	StatusCode: http.StatusRequestEntityTooLarge,
}

func errInvalidMimeType(mimeType, filename string) error {
	return errors.Validation(errors.CodeIllegalFileData, "file type "+mimeType+" is not allowed: "+filename)
}

func errTooManyAttachments(max int) error {
	return errors.Validation(errors.CodeIllegalFileData, "too many attachments, at most "+strconv.Itoa(max)+" allowed")
}

var errInvalidMultipart = errors.Validation(errors.CodeIllegalBoardData, "request is not a valid multipart form")

func errAttachmentsTooLarge() error {
	return errors.Validation(errors.CodeIllegalFileData, "total attachment size exceeds the limit")
}
