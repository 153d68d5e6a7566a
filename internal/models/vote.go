package models

// Vote is one user's +1 or -1 on a post. A user has at most one vote per post.
type Vote struct {
	ID     int64  `json:"id"`
	PostID int64  `json:"post_id"`
	UserID string `json:"user_id"`
	Vote   int    `json:"vote"`
}

type NewVote struct {
	PostID int64  `json:"post_id"`
	UserID string `json:"user_id"`
	Vote   int    `json:"vote"`
}
