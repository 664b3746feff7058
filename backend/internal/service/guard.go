package service

import (
	"github.com/ebrain/board/shared/domain"
	"github.com/ebrain/board/shared/errors"
)

func RequireAuthenticated(identity *domain.Identity) error {
	if identity == nil {
		return errors.Unauthorized("login required")
	}
	return nil
}

func RequireAdmin(identity *domain.Identity) error {
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}
	if !identity.IsAdmin() {
		return errors.Forbidden(errors.CodeAdminOnly, "administrator only")
	}
	return nil
}

// RequireOwner compares author type and id. Roles grant nothing here:
// an administrator cannot change another author's content through this check.
func RequireOwner(identity *domain.Identity, author domain.Author, code string) error {
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}
	if !identity.Owns(author) {
		return errors.Forbidden(code, "not the author")
	}
	return nil
}

// RequireVisible gates secret posts to their author.
func RequireVisible(p Policy, post *domain.Post, identity *domain.Identity) error {
	if !p.SecretVisibility || !post.IsSecret {
		return nil
	}
	return RequireOwner(identity, post.Author, errors.CodeNotMyBoard)
}
