package models

import "time"

// Comment is a single message attached to a post
type Comment struct {
	ID              int64     `json:"id"`
	PostID          int64     `json:"post_id"`
	ParentCommentID *int64    `json:"parent_comment_id"` // nil for top-level comments
	Content         string    `json:"content"`
	Author          string    `json:"author"` // display name captured at submission time
	UserID          string    `json:"user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewComment is the row written on insert. ID and CreatedAt are assigned by the backend.
type NewComment struct {
	PostID          int64  `json:"post_id"`
	ParentCommentID *int64 `json:"parent_comment_id"`
	Content         string `json:"content"`
	UserID          string `json:"user_id"`
	Author          string `json:"author"`
}

// CommentNode is a comment with its replies in submission order
type CommentNode struct {
	Comment
	Children []*CommentNode `json:"children"`
}
