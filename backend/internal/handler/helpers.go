package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/utils"
	"github.com/ebrain/board/shared/validation"
)

// multipartOverhead leaves room for the json field and multipart framing.
const multipartOverhead = 1 << 20

const dateLayout = "2006-01-02"

// maxPage bounds the requested page so the row offset stays small.
const maxPage = 100000

// parseBody accepts either a JSON body or a multipart form with a "json" field and "attachments" files.
// The returned cleanup closes any opened upload and is never nil.
func parseBody[T any](w http.ResponseWriter, r *http.Request, h *Handler) (body T, files []*domain.PendingFile, cleanup func(), err error) {
	cleanup = func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err = utils.DecodeValidate(r.Body, &body)
		return
	}

	maxRequestSize := validation.CalculateMaxRequestSize(h.cfg.Public.MaxTotalAttachmentSize, multipartOverhead)
	if err = validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		return
	}
	defer func() {
		if err != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	jsonPayload := r.FormValue("json")
	if jsonPayload == "" {
		err = errors.Validation(errors.CodeIllegalBoardData, "missing json payload in multipart form")
		return
	}
	if err = utils.DecodeValidate(io.NopCloser(strings.NewReader(jsonPayload)), &body); err != nil {
		return
	}

	files, err = validation.ValidateAttachments(r.MultipartForm.File["attachments"], h.attachmentLimits())
	if err != nil {
		return
	}

	form := r.MultipartForm
	cleanup = func() {
		validation.ClosePendingFiles(files)
		form.RemoveAll()
	}
	return
}

func parseKind(r *http.Request) (domain.BoardKind, error) {
	kind, ok := domain.ParseBoardKind(chi.URLParam(r, "kind"))
	if !ok {
		return "", errors.NotFound(errors.CodeBoardNotFound, "unknown board")
	}
	return kind, nil
}

// parseIdParam reads a positive integer URL parameter.
func parseIdParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validation(errors.CodeIllegalBoardData, fmt.Sprintf("invalid %s: must be a positive integer", name))
	}
	return id, nil
}

// parseKindAndId reads {kind} and {id} together.
func parseKindAndId(r *http.Request) (domain.BoardKind, domain.PostId, error) {
	kind, err := parseKind(r)
	if err != nil {
		return "", 0, err
	}
	id, err := parseIdParam(r, "id")
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

// parseSearchCriteria reads list query parameters.
// Page numbers are 1-based on the wire and 0-based in criteria.
func parseSearchCriteria(r *http.Request) (domain.SearchCriteria, error) {
	q := r.URL.Query()
	c := domain.SearchCriteria{
		SearchText:    q.Get("searchText"),
		SortField:     q.Get("sortField"),
		SortDirection: q.Get("sortDirection"),
		My:            q.Get("my") == "true",
	}

	invalid := func(field string) error {
		return errors.Validation(errors.CodeIllegalBoardData, "invalid "+field)
	}

	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return c, invalid("startDate")
		}
		c.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return c, invalid("endDate")
		}
		c.EndDate = &t
	}
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, invalid("categoryId")
		}
		c.CategoryId = &id
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 || page > maxPage {
			return c, invalid("page")
		}
		c.PageNumber = page - 1
	}
	if v := q.Get("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return c, invalid("pageSize")
		}
		c.PageSize = size
	}
	return c, nil
}
