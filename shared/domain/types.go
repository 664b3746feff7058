package domain

type (
	PostId       = int64
	AttachmentId = int64
	ThumbnailId  = int64
	CommentId    = int64
	AnswerId     = int64
	CategoryId   = int64

	PostTitle   = string
	PostContent = string
)

// CategoryAll is the category filter sentinel meaning "every category".
const CategoryAll CategoryId = -1

// DeletedContent replaces the content of a soft-deleted post.
const DeletedContent = "삭제된 게시물입니다."

// Field length limits, in characters.
const (
	MaxTitleLen      = 99
	MaxContentLen    = 3999
	MaxCommentLen    = 4000
	MaxAuthorIdLen   = 11
	MaxAuthorNameLen = 50
)
