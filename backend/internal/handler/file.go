package handler

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ebrain/board/shared/logger"
	mw "github.com/ebrain/board/shared/middleware"
	"github.com/ebrain/board/shared/utils"
)

// DownloadFile streams an attachment with its metadata in X-File-* headers.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "fileId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	att, rc, err := h.files.ReadAttachment(r.Context(), id, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(att.Extension))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.OriginalName}))
	w.Header().Set("X-File-Name", url.PathEscape(att.OriginalName))
	w.Header().Set("X-File-Size", strconv.FormatInt(att.SizeBytes, 10))
	w.Header().Set("X-File-Extension", att.Extension)
	w.Header().Set("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logger.Log.Warn("file download interrupted", "file_id", id, "error", err)
	}
}

func (h *Handler) DownloadThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "fileId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thumb, rc, err := h.files.ReadThumbnail(r.Context(), id, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(thumb.Extension))
	w.Header().Set("Content-Length", strconv.FormatInt(thumb.SizeBytes, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logger.Log.Warn("thumbnail download interrupted", "file_id", id, "error", err)
	}
}

func contentTypeFor(ext string) string {
	if ext != "" {
		if t := mime.TypeByExtension("." + ext); t != "" {
			return t
		}
	}
	return "application/octet-stream"
}
