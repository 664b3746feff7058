package handler

import (
	"net/http"

	"github.com/ebrain/board/shared/api"
	"github.com/ebrain/board/shared/domain"
	mw "github.com/ebrain/board/shared/middleware"
	"github.com/ebrain/board/shared/utils"
)

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	criteria, err := parseSearchCriteria(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	page, err := h.posts.List(r.Context(), kind, criteria, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.PostListResponse{PostPage: *page})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.posts.Get(r.Context(), kind, id, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.PostResponse{Post: *post})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	body, files, cleanup, err := parseBody[api.CreatePostRequest](w, r, h)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer cleanup()

	id, err := h.posts.Create(r.Context(), kind, domain.PostCreationData{
		Kind:       kind,
		CategoryId: body.CategoryId,
		Title:      body.Title,
		Content:    body.Content,
		IsFixed:    body.IsFixed,
		IsSecret:   body.IsSecret,
		Files:      files,
	}, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	body, files, cleanup, err := parseBody[api.UpdatePostRequest](w, r, h)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer cleanup()

	err = h.posts.Update(r.Context(), kind, id, domain.PostUpdateData{
		CategoryId: body.CategoryId,
		Title:      body.Title,
		Content:    body.Content,
		IsFixed:    body.IsFixed,
		IsSecret:   body.IsSecret,
		Files:      files,
	}, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePost soft deletes free and gallery posts and hard deletes inquiries of their author.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), kind, id, mw.GetIdentityFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ModeratePost is the admin delete: notices are removed, free and gallery posts are soft deleted.
func (h *Handler) ModeratePost(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.posts.Moderate(r.Context(), kind, id, mw.GetIdentityFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) IncreaseViewCount(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if _, err := h.posts.IncreaseViewCount(r.Context(), kind, id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CheckAuthor(w http.ResponseWriter, r *http.Request) {
	kind, id, err := parseKindAndId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	isAuthor, err := h.posts.CheckAuthor(r.Context(), kind, id, mw.GetIdentityFromContext(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.CheckAuthorResponse{IsAuthor: isAuthor})
}

type fixedCountResponse struct {
	Count int `json:"count"`
}

// CountFixed lets the admin client show how many pins are left.
func (h *Handler) CountFixed(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	n, err := h.posts.CountFixed(r.Context(), kind)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, fixedCountResponse{Count: n})
}
