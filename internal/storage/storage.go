package storage

import (
	"context"
	"errors"

	"github.com/MosinFAM/redditclone/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// CommentStorage is the backend surface the comment section consumes
type CommentStorage interface {
	// GetCommentsByPostID returns every comment of the post ordered by created_at ascending
	GetCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error)
	// AddComment inserts a comment; the backend assigns id and created_at
	AddComment(ctx context.Context, c models.NewComment) (*models.Comment, error)
}

type PostStorage interface {
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPostByID(ctx context.Context, id int64) (*models.Post, error)
	AddPost(ctx context.Context, p models.NewPost) (*models.Post, error)
	GetCommunityPosts(ctx context.Context, communityName string) ([]models.PostWithCounts, error)
}

type CommunityStorage interface {
	GetAllCommunities(ctx context.Context) ([]models.Community, error)
	CommunityExists(ctx context.Context, name string) (bool, error)
	AddCommunity(ctx context.Context, c models.NewCommunity) (*models.Community, error)
}

type VoteStorage interface {
	GetVotesByPostID(ctx context.Context, postID int64) ([]models.Vote, error)
	// GetUserVote returns nil, nil when the user has not voted on the post
	GetUserVote(ctx context.Context, postID int64, userID string) (*models.Vote, error)
	AddVote(ctx context.Context, v models.NewVote) error
	UpdateVote(ctx context.Context, id int64, value int) error
	DeleteVote(ctx context.Context, id int64) error
}

// Storage - интерфейс для всех типов хранилищ (in-memory, PostgreSQL и REST-бэкенд)
type Storage interface {
	CommentStorage
	PostStorage
	CommunityStorage
	VoteStorage
	Close() error
}
