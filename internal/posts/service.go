// Package posts lists and creates posts.
package posts

import (
	"context"
	"errors"
	"strings"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/MosinFAM/redditclone/internal/storage"
)

var (
	ErrTitleRequired   = errors.New("post title is required")
	ErrContentRequired = errors.New("post content is required")
)

type Service struct {
	store storage.PostStorage
}

func NewService(store storage.PostStorage) *Service {
	return &Service{store: store}
}

// List returns every post, newest first
func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	return s.store.GetAllPosts(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Post, error) {
	return s.store.GetPostByID(ctx, id)
}

// CommunityPosts returns the posts of a community with their like and comment counts
func (s *Service) CommunityPosts(ctx context.Context, communityName string) ([]models.PostWithCounts, error) {
	return s.store.GetCommunityPosts(ctx, communityName)
}

// Create stores a post. Only signed-in users may post.
func (s *Service) Create(ctx context.Context, identity auth.Identity, p models.NewPost) (*models.Post, error) {
	if err := identity.Require(); err != nil {
		return nil, err
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, ErrContentRequired
	}

	post, err := s.store.AddPost(ctx, p)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Failed to create post")
		return nil, err
	}
	logger.FromContext(ctx).Info().Int64("post_id", post.ID).Msg("Post created")
	return post, nil
}
