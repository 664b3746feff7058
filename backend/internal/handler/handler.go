package handler

import (
	"context"

	"github.com/ebrain/board/backend/internal/service"
	"github.com/ebrain/board/shared/config"
	"github.com/ebrain/board/shared/validation"
)

// HealthChecker is satisfied by the relational storage.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	posts      service.PostService
	comments   service.CommentService
	answers    service.AnswerService
	categories service.CategoryService
	files      service.FileService
	health     HealthChecker
	cfg        *config.Config
}

type Services struct {
	Posts      service.PostService
	Comments   service.CommentService
	Answers    service.AnswerService
	Categories service.CategoryService
	Files      service.FileService
}

func New(s Services, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		posts:      s.Posts,
		comments:   s.Comments,
		answers:    s.Answers,
		categories: s.Categories,
		files:      s.Files,
		health:     health,
		cfg:        cfg,
	}
}

func (h *Handler) attachmentLimits() validation.AttachmentLimits {
	return validation.AttachmentLimits{
		AllowedMimeTypes: h.cfg.Public.AllowedMimeTypes,
		MaxCount:         h.cfg.Public.MaxAttachments,
		MaxTotalSize:     h.cfg.Public.MaxTotalAttachmentSize,
	}
}
