package service

import (
	"context"
	"io"

	"github.com/ebrain/board/shared/domain"
)

type FileService interface {
	ReadAttachment(ctx context.Context, id domain.AttachmentId, identity *domain.Identity) (*domain.Attachment, io.ReadCloser, error)
	ReadThumbnail(ctx context.Context, fileId domain.AttachmentId, identity *domain.Identity) (*domain.Thumbnail, io.ReadCloser, error)
}

// Files serves downloads. Files of a secret post are gated like the post itself.
type Files struct {
	posts       PostStorage
	attachments *Attachments
	thumbnails  *Thumbnails
}

func NewFiles(posts PostStorage, attachments *Attachments, thumbnails *Thumbnails) *Files {
	return &Files{posts: posts, attachments: attachments, thumbnails: thumbnails}
}

func (f *Files) ReadAttachment(ctx context.Context, id domain.AttachmentId, identity *domain.Identity) (*domain.Attachment, io.ReadCloser, error) {
	att, err := f.attachments.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := f.checkVisible(ctx, att, identity); err != nil {
		return nil, nil, err
	}
	return f.attachments.Read(ctx, id)
}

func (f *Files) ReadThumbnail(ctx context.Context, fileId domain.AttachmentId, identity *domain.Identity) (*domain.Thumbnail, io.ReadCloser, error) {
	att, err := f.attachments.Get(ctx, fileId)
	if err != nil {
		return nil, nil, err
	}
	if err := f.checkVisible(ctx, att, identity); err != nil {
		return nil, nil, err
	}
	return f.thumbnails.Read(ctx, fileId)
}

func (f *Files) checkVisible(ctx context.Context, att *domain.Attachment, identity *domain.Identity) error {
	policy, err := PolicyFor(att.Kind)
	if err != nil {
		return err
	}
	if !policy.SecretVisibility {
		return nil
	}
	post, err := f.posts.GetPost(ctx, att.Kind, att.PostId)
	if err != nil {
		return err
	}
	return RequireVisible(policy, post, identity)
}
