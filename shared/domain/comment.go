package domain

import "time"

type Comment struct {
	Id        CommentId  `json:"id"`
	Kind      BoardKind  `json:"boardKind"`
	PostId    PostId     `json:"postId"`
	Author    Author     `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// Answer is the single administrator reply to an inquiry.
type Answer struct {
	Id        AnswerId   `json:"id"`
	InquiryId PostId     `json:"inquiryId"`
	Author    Author     `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

type Category struct {
	Id   CategoryId `json:"id"`
	Kind BoardKind  `json:"boardKind"`
	Name string     `json:"name"`
}
