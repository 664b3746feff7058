package service

import (
	"fmt"

	"github.com/ebrain/board/backend/internal/search"
	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

// Policy holds the rules that differ between board kinds.
type Policy struct {
	Kind domain.BoardKind

	HasCategory bool
	// FixedCap > 0 enables pinning with at most FixedCap fixed posts.
	FixedCap int
	// AdminAuthored kinds are written and hard deleted by administrators only.
	AdminAuthored bool
	// SoftDelete kinds blank their content instead of dropping the row.
	SoftDelete bool
	// HardDeleteByOwner kinds drop the row, attachments included, when the author deletes.
	HardDeleteByOwner bool

	AllowsAttachments  bool
	AttachmentRequired bool
	// Thumbnails are generated for the first attachment of a post.
	Thumbnails bool

	// SecretVisibility lets authors hide a post from everyone else.
	SecretVisibility bool
	// AuthorFilter enables the "my posts" list filter.
	AuthorFilter bool
}

const noticeFixedCap = 5

var policies = map[domain.BoardKind]Policy{
	domain.KindNotice: {
		Kind:          domain.KindNotice,
		HasCategory:   true,
		FixedCap:      noticeFixedCap,
		AdminAuthored: true,
	},
	domain.KindFree: {
		Kind:              domain.KindFree,
		HasCategory:       true,
		SoftDelete:        true,
		AllowsAttachments: true,
	},
	domain.KindGallery: {
		Kind:               domain.KindGallery,
		HasCategory:        true,
		SoftDelete:         true,
		AllowsAttachments:  true,
		AttachmentRequired: true,
		Thumbnails:         true,
	},
	domain.KindInquiry: {
		Kind:              domain.KindInquiry,
		HardDeleteByOwner: true,
		AllowsAttachments: true,
		SecretVisibility:  true,
		AuthorFilter:      true,
	},
}

func PolicyFor(kind domain.BoardKind) (Policy, error) {
	p, ok := policies[kind]
	if !ok {
		return Policy{}, errors.NotFound(errors.CodeBoardNotFound, fmt.Sprintf("unknown board kind %q", kind))
	}
	return p, nil
}

// SearchOptions derives the builder options for a list request.
// author is only applied when the kind supports the author filter.
func (p Policy) SearchOptions(author *domain.Identity) search.Options {
	opts := search.Options{
		ExcludeDeleted: p.SoftDelete,
		FixedFirst:     p.FixedCap > 0,
		HasCategory:    p.HasCategory,
	}
	if p.AuthorFilter && author != nil {
		id, typ := author.Id, author.Type
		opts.AuthorID = &id
		opts.AuthorType = &typ
	}
	return opts
}

// CheckFixedCap rejects pinning one more post when current fixed posts already fill the cap.
func (p Policy) CheckFixedCap(current int) error {
	if p.FixedCap <= 0 {
		return errors.Validation(errors.CodeIllegalBoardData, "posts of this board cannot be fixed")
	}
	if current >= p.FixedCap {
		return errors.Capacity(errors.CodeFixedLimit, fmt.Sprintf("at most %d posts can be fixed", p.FixedCap))
	}
	return nil
}

// CheckFiles enforces the attachment count rules of the kind.
func (p Policy) CheckFiles(n int) error {
	if n > 0 && !p.AllowsAttachments {
		return errors.Validation(errors.CodeIllegalFileData, "this board does not accept attachments")
	}
	if n == 0 && p.AttachmentRequired {
		return errors.Validation(errors.CodeIllegalFileData, "at least one attachment is required")
	}
	return nil
}
