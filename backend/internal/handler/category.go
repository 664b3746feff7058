package handler

import (
	"net/http"

	"github.com/ebrain/board/shared/api"
	"github.com/ebrain/board/shared/utils"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	categories, err := h.categories.List(r.Context(), kind)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.CategoryListResponse{Categories: categories})
}
