package api

import "github.com/ebrain/board/shared/domain"

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type CommentListResponse struct {
	Comments []domain.Comment `json:"comments"`
}

// AnswerRequest is used for both creating and replacing an inquiry answer.
type AnswerRequest struct {
	Content string `json:"content" validate:"required,max=3999"`
}

type AnswerResponse struct {
	domain.Answer
}
