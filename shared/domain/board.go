package domain

import "strings"

// BoardKind tags which board a post, attachment or comment belongs to.
type BoardKind string

const (
	KindNotice  BoardKind = "notice"
	KindFree    BoardKind = "free"
	KindGallery BoardKind = "gallery"
	KindInquiry BoardKind = "inquiry"
)

var AllKinds = []BoardKind{KindNotice, KindFree, KindGallery, KindInquiry}

func ParseBoardKind(s string) (BoardKind, bool) {
	k := BoardKind(strings.ToLower(s))
	for _, known := range AllKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

type AuthorType string

const (
	AuthorAdmin  AuthorType = "admin"
	AuthorMember AuthorType = "member"
)

// Author is who wrote a post, comment or answer. Immutable after creation.
type Author struct {
	Type AuthorType `json:"authorType"`
	Id   string     `json:"authorId"`
	Name string     `json:"authorName"`
}

// Identity is the requester resolved by the auth layer.
// A nil *Identity means the request is anonymous.
type Identity Author

func (i *Identity) Author() Author {
	return Author(*i)
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Type == AuthorAdmin
}

// Owns reports whether the identity wrote something authored by a.
func (i *Identity) Owns(a Author) bool {
	return i != nil && i.Type == a.Type && i.Id == a.Id
}
