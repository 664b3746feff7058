package service

import (
	"context"
	"time"

	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

type AnswerService interface {
	Get(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) (*domain.Answer, error)
	Create(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) (domain.AnswerId, error)
	Update(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) error
	Delete(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) error
}

// Answers manages the single administrator reply of an inquiry.
type Answers struct {
	storage   Storage
	sanitizer *Sanitizer
	now       func() time.Time
}

func NewAnswers(storage Storage, sanitizer *Sanitizer) *Answers {
	return &Answers{storage: storage, sanitizer: sanitizer, now: time.Now}
}

func errAnswerNotFound() error {
	return errors.NotFound(errors.CodeAnswerNotFound, "answer not found")
}

func (a *Answers) Get(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) (*domain.Answer, error) {
	if err := RequireAdmin(identity); err != nil {
		return nil, err
	}
	answer, err := a.storage.GetAnswer(ctx, inquiryId)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, errAnswerNotFound()
	}
	return answer, nil
}

func (a *Answers) Create(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) (domain.AnswerId, error) {
	if err := RequireAdmin(identity); err != nil {
		return 0, err
	}
	text, err := a.sanitizer.CleanField("answer", content, domain.MaxContentLen)
	if err != nil {
		return 0, err
	}
	if _, err := a.storage.GetPost(ctx, domain.KindInquiry, inquiryId); err != nil {
		return 0, err
	}
	return a.storage.CreateAnswer(ctx, &domain.Answer{
		InquiryId: inquiryId,
		Author:    identity.Author(),
		Content:   text,
		CreatedAt: a.now(),
	})
}

func (a *Answers) Update(ctx context.Context, inquiryId domain.PostId, content string, identity *domain.Identity) error {
	if err := RequireAdmin(identity); err != nil {
		return err
	}
	text, err := a.sanitizer.CleanField("answer", content, domain.MaxContentLen)
	if err != nil {
		return err
	}
	answer, err := a.storage.GetAnswer(ctx, inquiryId)
	if err != nil {
		return err
	}
	if answer == nil {
		return errAnswerNotFound()
	}
	now := a.now()
	answer.Content = text
	answer.EditedAt = &now
	return a.storage.UpdateAnswer(ctx, answer)
}

func (a *Answers) Delete(ctx context.Context, inquiryId domain.PostId, identity *domain.Identity) error {
	if err := RequireAdmin(identity); err != nil {
		return err
	}
	return a.storage.DeleteAnswer(ctx, inquiryId)
}
