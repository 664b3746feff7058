package errors

import "net/http"

// Kind classifies a failure that was detected on purpose.
// Anything that is not an *ErrorWithStatusCode is treated as internal at handler level.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failed"
	case KindCapacity:
		return "capacity_exceeded"
	default:
		return "internal"
	}
}

// Stable machine-readable codes returned to clients.
const (
	CodeBoardNotFound    = "A001"
	CodeFileNotFound     = "A002"
	CodeNotLoggedIn      = "A005"
	CodeNotMyBoard       = "A006"
	CodeIllegalFileData  = "A008"
	CodeIllegalBoardData = "A013"
	CodeCommentNotFound  = "A015"
	CodeNotMyComment     = "A016"
	CodeAnswerNotFound   = "A017"
	CodeFixedLimit       = "A020"
	CodeAdminOnly        = "A021"
	CodeInternal         = "INTERNAL"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Kind       Kind
	Code       string
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Is matches by kind, and by code when the target carries one.
// errors.Is(err, ErrNotFound) holds for every not-found error regardless of its code.
func (e *ErrorWithStatusCode) Is(target error) bool {
	t, ok := target.(*ErrorWithStatusCode)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

var (
	ErrUnauthorized = &ErrorWithStatusCode{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &ErrorWithStatusCode{Kind: KindForbidden, StatusCode: http.StatusForbidden, Message: "forbidden"}
	ErrNotFound     = &ErrorWithStatusCode{Kind: KindNotFound, StatusCode: http.StatusNotFound, Message: "not found"}
	ErrValidation   = &ErrorWithStatusCode{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: "validation failed"}
	ErrCapacity     = &ErrorWithStatusCode{Kind: KindCapacity, StatusCode: http.StatusConflict, Message: "capacity exceeded"}
)

func Unauthorized(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindUnauthorized, Code: CodeNotLoggedIn, Message: message, StatusCode: http.StatusUnauthorized}
}

func Forbidden(code, message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindForbidden, Code: code, Message: message, StatusCode: http.StatusForbidden}
}

func NotFound(code, message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindNotFound, Code: code, Message: message, StatusCode: http.StatusNotFound}
}

func Validation(code, message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindValidation, Code: code, Message: message, StatusCode: http.StatusBadRequest}
}

func Capacity(code, message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Kind: KindCapacity, Code: code, Message: message, StatusCode: http.StatusConflict}
}
