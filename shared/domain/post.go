package domain

import "time"

type Post struct {
	Id          PostId      `json:"id"`
	Kind        BoardKind   `json:"boardKind"`
	CategoryId  CategoryId  `json:"categoryId,omitempty"`
	Author      Author      `json:"author"`
	Title       PostTitle   `json:"title"`
	Content     PostContent `json:"content"`
	ContentHTML string      `json:"contentHtml,omitempty"`
	ViewCount   int64       `json:"viewCount"`
	IsFixed     bool        `json:"isFixed"`
	IsSecret    bool        `json:"isSecret"`
	IsDeleted   bool        `json:"isDeleted"`
	CreatedAt   time.Time   `json:"createdAt"`
	EditedAt    *time.Time  `json:"editedAt,omitempty"`

	// populated on detail reads
	Attachments []Attachment `json:"attachments,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
	Answer      *Answer      `json:"answer,omitempty"`
}

// PostSummary is a list row. Content is never part of it.
type PostSummary struct {
	Id            PostId     `json:"id"`
	Kind          BoardKind  `json:"boardKind"`
	CategoryId    CategoryId `json:"categoryId,omitempty"`
	Author        Author     `json:"author"`
	Title         PostTitle  `json:"title"`
	ViewCount     int64      `json:"viewCount"`
	IsFixed       bool       `json:"isFixed"`
	IsSecret      bool       `json:"isSecret"`
	CreatedAt     time.Time  `json:"createdAt"`
	EditedAt      *time.Time `json:"editedAt,omitempty"`
	HasAttachment bool       `json:"hasAttachment"`
	// attachment whose thumbnail represents the post (gallery)
	ThumbnailFileId *AttachmentId `json:"thumbnailFileId,omitempty"`
}

type PostPage struct {
	Posts      []PostSummary `json:"posts"`
	TotalCount int64         `json:"totalCount"`
	PageNumber int           `json:"pageNumber"`
	PageSize   int           `json:"pageSize"`
}

type PostCreationData struct {
	Kind       BoardKind
	CategoryId CategoryId
	Title      PostTitle
	Content    PostContent
	IsFixed    bool
	IsSecret   bool
	Files      []*PendingFile
}

// PostUpdateData carries only the fields the caller wants changed.
// Non-empty Files replaces the whole attachment set.
type PostUpdateData struct {
	CategoryId *CategoryId
	Title      *PostTitle
	Content    *PostContent
	IsFixed    *bool
	IsSecret   *bool
	Files      []*PendingFile
}

// PostInsert is what the store persists on creation.
type PostInsert struct {
	CategoryId CategoryId
	Author     Author
	Title      PostTitle
	Content    PostContent
	IsFixed    bool
	IsSecret   bool
	CreatedAt  time.Time
}
