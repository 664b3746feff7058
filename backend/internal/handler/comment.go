package handler

import (
	"net/http"

	"github.com/ebrain/board/shared/api"
	mw "github.com/ebrain/board/shared/middleware"
	"github.com/ebrain/board/shared/utils"
)

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comments, err := h.comments.List(r.Context(), kind, id, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.CommentListResponse{Comments: comments})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	commentId, err := h.comments.Create(r.Context(), kind, id, body.Content, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: commentId})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentId, err := parseIdParam(r, "commentId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.comments.Delete(r.Context(), commentId, mw.GetIdentityFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAnyComment is the moderation delete of the admin surface.
func (h *Handler) DeleteAnyComment(w http.ResponseWriter, r *http.Request) {
	commentId, err := parseIdParam(r, "commentId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.comments.DeleteAny(r.Context(), commentId, mw.GetIdentityFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
