package api

import "github.com/ebrain/board/shared/domain"

// Request DTOs

// CreatePostRequest is the "json" part of a multipart create, or the whole body when no files are sent.
type CreatePostRequest struct {
	CategoryId domain.CategoryId `json:"categoryId"`
	Title      string            `json:"title" validate:"required,max=99"`
	Content    string            `json:"content" validate:"required,max=3999"`
	IsFixed    bool              `json:"isFixed,omitempty"`
	IsSecret   bool              `json:"isSecret,omitempty"`
}

// UpdatePostRequest only changes the fields that are present.
type UpdatePostRequest struct {
	CategoryId *domain.CategoryId `json:"categoryId,omitempty"`
	Title      *string            `json:"title,omitempty" validate:"omitempty,min=1,max=99"`
	Content    *string            `json:"content,omitempty" validate:"omitempty,min=1,max=3999"`
	IsFixed    *bool              `json:"isFixed,omitempty"`
	IsSecret   *bool              `json:"isSecret,omitempty"`
}

// Response DTOs

type CreatedResponse struct {
	Id int64 `json:"id"`
}

type PostResponse struct {
	domain.Post
}

type PostListResponse struct {
	domain.PostPage
}

type CheckAuthorResponse struct {
	IsAuthor bool `json:"isAuthor"`
}

type CategoryListResponse struct {
	Categories []domain.Category `json:"categories"`
}
