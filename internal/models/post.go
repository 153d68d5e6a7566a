package models

import "time"

// Post is a community post
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url"`
	CommunityID *int64    `json:"community_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewPost struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url"`
	CommunityID *int64 `json:"community_id"`
}

// PostWithCounts is a post as listed on a community page
type PostWithCounts struct {
	Post
	LikeCount     int    `json:"like_count"`
	CommentCount  int    `json:"comment_count"`
	CommunityName string `json:"community_name"`
}
