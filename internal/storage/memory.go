package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/models"
)

// MemoryStorage - хранилище в памяти
type MemoryStorage struct {
	posts       map[int64]models.Post
	comments    map[int64][]models.Comment // комментарии по ID поста, в порядке вставки
	communities map[int64]models.Community
	votes       map[int64]models.Vote
	lastID      int64
	lastTime    time.Time
	now         func() time.Time
	mu          sync.RWMutex
}

// NewMemoryStorage создает новое in-memory хранилище
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		posts:       make(map[int64]models.Post),
		comments:    make(map[int64][]models.Comment),
		communities: make(map[int64]models.Community),
		votes:       make(map[int64]models.Vote),
		now:         time.Now,
	}
}

// nextID и stamp вызываются под s.mu; время строго возрастает, как created_at в БД
func (s *MemoryStorage) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *MemoryStorage) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = t
	return t
}

// GetCommentsByPostID возвращает комментарии к посту по возрастанию created_at
func (s *MemoryStorage) GetCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logger.FromContext(ctx).Debug().Int64("post_id", postID).Msg("Fetching comments from memory")
	result := make([]models.Comment, len(s.comments[postID]))
	copy(result, s.comments[postID])
	return result, nil
}

// AddComment добавляет комментарий в память
func (s *MemoryStorage) AddComment(ctx context.Context, c models.NewComment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.FromContext(ctx).Debug().Int64("post_id", c.PostID).Msg("Adding comment to memory")
	if _, exists := s.posts[c.PostID]; !exists {
		return nil, fmt.Errorf("post %d: %w", c.PostID, ErrNotFound)
	}
	if c.ParentCommentID != nil && !s.hasComment(c.PostID, *c.ParentCommentID) {
		return nil, fmt.Errorf("parent comment %d of post %d: %w", *c.ParentCommentID, c.PostID, ErrNotFound)
	}

	comment := models.Comment{
		ID:              s.nextID(),
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		Author:          c.Author,
		UserID:          c.UserID,
		CreatedAt:       s.stamp(),
	}
	s.comments[c.PostID] = append(s.comments[c.PostID], comment)
	return &comment, nil
}

func (s *MemoryStorage) hasComment(postID, id int64) bool {
	for _, c := range s.comments[postID] {
		if c.ID == id {
			return true
		}
	}
	return false
}

// GetAllPosts возвращает все посты, новые первыми
func (s *MemoryStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logger.FromContext(ctx).Debug().Msg("Fetching all posts from memory")
	result := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		result = append(result, post)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// GetPostByID возвращает пост по ID
func (s *MemoryStorage) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return &post, nil
}

// AddPost добавляет новый пост
func (s *MemoryStorage) AddPost(ctx context.Context, p models.NewPost) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CommunityID != nil {
		if _, exists := s.communities[*p.CommunityID]; !exists {
			return nil, fmt.Errorf("community %d: %w", *p.CommunityID, ErrNotFound)
		}
	}

	post := models.Post{
		ID:          s.nextID(),
		Title:       p.Title,
		Content:     p.Content,
		ImageURL:    p.ImageURL,
		CommunityID: p.CommunityID,
		CreatedAt:   s.stamp(),
	}
	logger.FromContext(ctx).Debug().Int64("post_id", post.ID).Msg("Adding new post to memory")
	s.posts[post.ID] = post
	return &post, nil
}

// GetCommunityPosts возвращает посты сообщества со счётчиками лайков и комментариев
func (s *MemoryStorage) GetCommunityPosts(ctx context.Context, communityName string) ([]models.PostWithCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var community *models.Community
	for _, c := range s.communities {
		if c.Name == communityName {
			community = &c
			break
		}
	}
	result := make([]models.PostWithCounts, 0)
	if community == nil {
		return result, nil
	}

	for _, post := range s.posts {
		if post.CommunityID == nil || *post.CommunityID != community.ID {
			continue
		}
		likes := 0
		for _, v := range s.votes {
			if v.PostID == post.ID && v.Vote == 1 {
				likes++
			}
		}
		result = append(result, models.PostWithCounts{
			Post:          post,
			LikeCount:     likes,
			CommentCount:  len(s.comments[post.ID]),
			CommunityName: community.Name,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// GetAllCommunities возвращает все сообщества, новые первыми
func (s *MemoryStorage) GetAllCommunities(ctx context.Context) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Community, 0, len(s.communities))
	for _, c := range s.communities {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *MemoryStorage) CommunityExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.communityExists(name), nil
}

func (s *MemoryStorage) communityExists(name string) bool {
	for _, c := range s.communities {
		if c.Name == name {
			return true
		}
	}
	return false
}

// AddCommunity добавляет сообщество; имя уникально
func (s *MemoryStorage) AddCommunity(ctx context.Context, c models.NewCommunity) (*models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.communityExists(c.Name) {
		return nil, fmt.Errorf("community %q: %w", c.Name, ErrConflict)
	}
	community := models.Community{
		ID:          s.nextID(),
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		CreatedAt:   s.stamp(),
	}
	logger.FromContext(ctx).Debug().Str("name", c.Name).Msg("Adding community to memory")
	s.communities[community.ID] = community
	return &community, nil
}

// GetVotesByPostID возвращает голоса за пост
func (s *MemoryStorage) GetVotesByPostID(ctx context.Context, postID int64) ([]models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Vote, 0)
	for _, v := range s.votes {
		if v.PostID == postID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStorage) GetUserVote(ctx context.Context, postID int64, userID string) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.votes {
		if v.PostID == postID && v.UserID == userID {
			return &v, nil
		}
	}
	return nil, nil
}

func (s *MemoryStorage) AddVote(ctx context.Context, v models.NewVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[v.PostID]; !exists {
		return fmt.Errorf("post %d: %w", v.PostID, ErrNotFound)
	}
	for _, existing := range s.votes {
		if existing.PostID == v.PostID && existing.UserID == v.UserID {
			return fmt.Errorf("vote of %s on post %d: %w", v.UserID, v.PostID, ErrConflict)
		}
	}
	id := s.nextID()
	s.votes[id] = models.Vote{ID: id, PostID: v.PostID, UserID: v.UserID, Vote: v.Vote}
	return nil
}

func (s *MemoryStorage) UpdateVote(ctx context.Context, id int64, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.votes[id]
	if !exists {
		return fmt.Errorf("vote %d: %w", id, ErrNotFound)
	}
	v.Vote = value
	s.votes[id] = v
	return nil
}

func (s *MemoryStorage) DeleteVote(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.votes[id]; !exists {
		return fmt.Errorf("vote %d: %w", id, ErrNotFound)
	}
	delete(s.votes, id)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
