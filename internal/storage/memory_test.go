package storage

import (
	"context"
	"testing"

	"github.com/MosinFAM/redditclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestGetAllPosts_Empty(t *testing.T) {
	storage := NewMemoryStorage()

	posts, err := storage.GetAllPosts(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, posts)
}

func TestGetAllPosts_NewestFirst(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	_, err := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})
	require.NoError(t, err)
	_, err = storage.AddPost(ctx, models.NewPost{Title: "Post 2", Content: "Content"})
	require.NoError(t, err)

	posts, err := storage.GetAllPosts(ctx)

	assert.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Post 2", posts[0].Title)
	assert.Equal(t, "Post 1", posts[1].Title)
}

func TestGetPostByID_NotFound(t *testing.T) {
	storage := NewMemoryStorage()

	post, err := storage.GetPostByID(context.Background(), 404)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, post)
}

func TestGetPostByID_Found(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	post, err := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})
	require.NoError(t, err)

	fetchedPost, err := storage.GetPostByID(ctx, post.ID)

	assert.NoError(t, err)
	assert.Equal(t, post.ID, fetchedPost.ID)
	assert.Equal(t, post.Title, fetchedPost.Title)
}

func TestAddPost_UnknownCommunity(t *testing.T) {
	storage := NewMemoryStorage()

	post, err := storage.AddPost(context.Background(), models.NewPost{Title: "t", Content: "c", CommunityID: ptr(7)})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, post)
}

func TestAddComment_NoPost(t *testing.T) {
	storage := NewMemoryStorage()

	comment, err := storage.AddComment(context.Background(), models.NewComment{PostID: 1, Content: "Test comment"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, comment)
}

func TestAddComment_ParentFromOtherPost(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	p1, _ := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})
	p2, _ := storage.AddPost(ctx, models.NewPost{Title: "Post 2", Content: "Content"})
	parent, err := storage.AddComment(ctx, models.NewComment{PostID: p1.ID, Content: "root"})
	require.NoError(t, err)

	comment, err := storage.AddComment(ctx, models.NewComment{PostID: p2.ID, ParentCommentID: &parent.ID, Content: "reply"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, comment)
}

func TestAddComment_Success(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	post, err := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})
	require.NoError(t, err)

	comment, err := storage.AddComment(ctx, models.NewComment{
		PostID: post.ID, Content: "Test comment", UserID: "u1", Author: "alice",
	})

	assert.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.False(t, comment.CreatedAt.IsZero())
	assert.Equal(t, "Test comment", comment.Content)
	assert.Equal(t, "alice", comment.Author)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Nil(t, comment.ParentCommentID)
}

func TestGetCommentsByPostID_AscendingCreatedAt(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	post, _ := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})
	first, _ := storage.AddComment(ctx, models.NewComment{PostID: post.ID, Content: "first"})
	_, _ = storage.AddComment(ctx, models.NewComment{PostID: post.ID, ParentCommentID: &first.ID, Content: "reply"})
	_, _ = storage.AddComment(ctx, models.NewComment{PostID: post.ID, Content: "second"})

	comments, err := storage.GetCommentsByPostID(ctx, post.ID)

	assert.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "reply", comments[1].Content)
	assert.Equal(t, "second", comments[2].Content)
	for i := 1; i < len(comments); i++ {
		assert.True(t, comments[i].CreatedAt.After(comments[i-1].CreatedAt))
	}
}

func TestGetCommentsByPostID_ReturnsCopy(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	post, _ := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})
	_, _ = storage.AddComment(ctx, models.NewComment{PostID: post.ID, Content: "original"})

	comments, _ := storage.GetCommentsByPostID(ctx, post.ID)
	comments[0].Content = "mutated"

	again, _ := storage.GetCommentsByPostID(ctx, post.ID)
	assert.Equal(t, "original", again[0].Content)
}

func TestAddCommunity_Conflict(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	_, err := storage.AddCommunity(ctx, models.NewCommunity{Name: "golang", Description: "gophers"})
	require.NoError(t, err)

	exists, err := storage.CommunityExists(ctx, "golang")
	assert.NoError(t, err)
	assert.True(t, exists)

	_, err = storage.AddCommunity(ctx, models.NewCommunity{Name: "golang", Description: "again"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetCommunityPosts_Counts(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	community, _ := storage.AddCommunity(ctx, models.NewCommunity{Name: "golang", Description: "gophers"})
	post, _ := storage.AddPost(ctx, models.NewPost{Title: "in", Content: "c", CommunityID: &community.ID})
	_, _ = storage.AddPost(ctx, models.NewPost{Title: "out", Content: "c"})
	_, _ = storage.AddComment(ctx, models.NewComment{PostID: post.ID, Content: "hi"})
	require.NoError(t, storage.AddVote(ctx, models.NewVote{PostID: post.ID, UserID: "u1", Vote: 1}))
	require.NoError(t, storage.AddVote(ctx, models.NewVote{PostID: post.ID, UserID: "u2", Vote: -1}))

	posts, err := storage.GetCommunityPosts(ctx, "golang")

	assert.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "in", posts[0].Title)
	assert.Equal(t, 1, posts[0].LikeCount)
	assert.Equal(t, 1, posts[0].CommentCount)
	assert.Equal(t, "golang", posts[0].CommunityName)
}

func TestVotes_Lifecycle(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	post, _ := storage.AddPost(ctx, models.NewPost{Title: "Post 1", Content: "Content"})

	vote, err := storage.GetUserVote(ctx, post.ID, "u1")
	assert.NoError(t, err)
	assert.Nil(t, vote)

	require.NoError(t, storage.AddVote(ctx, models.NewVote{PostID: post.ID, UserID: "u1", Vote: 1}))
	assert.ErrorIs(t, storage.AddVote(ctx, models.NewVote{PostID: post.ID, UserID: "u1", Vote: -1}), ErrConflict)

	vote, err = storage.GetUserVote(ctx, post.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, vote)

	require.NoError(t, storage.UpdateVote(ctx, vote.ID, -1))
	votes, _ := storage.GetVotesByPostID(ctx, post.ID)
	require.Len(t, votes, 1)
	assert.Equal(t, -1, votes[0].Vote)

	require.NoError(t, storage.DeleteVote(ctx, vote.ID))
	votes, _ = storage.GetVotesByPostID(ctx, post.ID)
	assert.Empty(t, votes)
	assert.ErrorIs(t, storage.DeleteVote(ctx, vote.ID), ErrNotFound)
}
