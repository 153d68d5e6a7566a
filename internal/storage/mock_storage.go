package storage

import (
	"context"

	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of Storage for service and handler tests
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

func (m *MockStorage) AddComment(ctx context.Context, c models.NewComment) (*models.Comment, error) {
	args := m.Called(ctx, c)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *MockStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockStorage) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockStorage) AddPost(ctx context.Context, p models.NewPost) (*models.Post, error) {
	args := m.Called(ctx, p)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockStorage) GetCommunityPosts(ctx context.Context, communityName string) ([]models.PostWithCounts, error) {
	args := m.Called(ctx, communityName)
	posts, _ := args.Get(0).([]models.PostWithCounts)
	return posts, args.Error(1)
}

func (m *MockStorage) GetAllCommunities(ctx context.Context) ([]models.Community, error) {
	args := m.Called(ctx)
	communities, _ := args.Get(0).([]models.Community)
	return communities, args.Error(1)
}

func (m *MockStorage) CommunityExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) AddCommunity(ctx context.Context, c models.NewCommunity) (*models.Community, error) {
	args := m.Called(ctx, c)
	community, _ := args.Get(0).(*models.Community)
	return community, args.Error(1)
}

func (m *MockStorage) GetVotesByPostID(ctx context.Context, postID int64) ([]models.Vote, error) {
	args := m.Called(ctx, postID)
	votes, _ := args.Get(0).([]models.Vote)
	return votes, args.Error(1)
}

func (m *MockStorage) GetUserVote(ctx context.Context, postID int64, userID string) (*models.Vote, error) {
	args := m.Called(ctx, postID, userID)
	vote, _ := args.Get(0).(*models.Vote)
	return vote, args.Error(1)
}

func (m *MockStorage) AddVote(ctx context.Context, v models.NewVote) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockStorage) UpdateVote(ctx context.Context, id int64, value int) error {
	return m.Called(ctx, id, value).Error(0)
}

func (m *MockStorage) DeleteVote(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}
