package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/models"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые отображаются в ErrConflict / ErrNotFound
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStorage - хранилище в PostgreSQL
type PostgresStorage struct {
	DB *sql.DB
}

// NewPostgresStorage создаёт экземпляр PostgreSQL-хранилища
func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{DB: db}
}

// mapPQError переводит ошибки ограничений в ошибки хранилища, сохраняя текст БД
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", pqErr.Message, ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s: %w", pqErr.Message, ErrNotFound)
	}
	return err
}

func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// GetCommentsByPostID возвращает комментарии к посту по возрастанию created_at
func (s *PostgresStorage) GetCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error) {
	log := logger.FromContext(ctx)
	log.Debug().Int64("post_id", postID).Msg("Fetching comments from database")

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, post_id, parent_comment_id, content, author, user_id, created_at
		FROM comments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching comments")
		return nil, err
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.PostID, &parent, &c.Content, &c.Author, &c.UserID, &c.CreatedAt); err != nil {
			log.Error().Err(err).Msg("Error scanning comment row")
			return nil, err
		}
		c.ParentCommentID = nullableID(parent)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddComment добавляет комментарий; id и created_at назначает БД
func (s *PostgresStorage) AddComment(ctx context.Context, c models.NewComment) (*models.Comment, error) {
	logger.FromContext(ctx).Debug().Int64("post_id", c.PostID).Msg("Adding comment to database")

	comment := models.Comment{
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		Author:          c.Author,
		UserID:          c.UserID,
	}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, parent_comment_id, content, user_id, author)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		c.PostID, c.ParentCommentID, c.Content, c.UserID, c.Author).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("DB Insert Error")
		return nil, mapPQError(err)
	}
	return &comment, nil
}

// GetAllPosts возвращает все посты, новые первыми
func (s *PostgresStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, content, image_url, community_id, created_at FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner, extra ...any) (models.Post, error) {
	var p models.Post
	var community sql.NullInt64
	dest := append([]any{&p.ID, &p.Title, &p.Content, &p.ImageURL, &community, &p.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Post{}, err
	}
	p.CommunityID = nullableID(community)
	return p, nil
}

// GetPostByID возвращает пост по ID
func (s *PostgresStorage) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, title, content, image_url, community_id, created_at FROM posts WHERE id = $1`, id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// AddPost добавляет новый пост в БД
func (s *PostgresStorage) AddPost(ctx context.Context, p models.NewPost) (*models.Post, error) {
	post := models.Post{Title: p.Title, Content: p.Content, ImageURL: p.ImageURL, CommunityID: p.CommunityID}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, image_url, community_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		p.Title, p.Content, p.ImageURL, p.CommunityID).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("DB Insert Error")
		return nil, mapPQError(err)
	}
	return &post, nil
}

// GetCommunityPosts вызывает функцию get_community_posts_with_counts
func (s *PostgresStorage) GetCommunityPosts(ctx context.Context, communityName string) ([]models.PostWithCounts, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, content, image_url, community_id, created_at, like_count, comment_count, community_name
		FROM get_community_posts_with_counts($1)`, communityName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.PostWithCounts, 0)
	for rows.Next() {
		var pc models.PostWithCounts
		post, err := scanPost(rows, &pc.LikeCount, &pc.CommentCount, &pc.CommunityName)
		if err != nil {
			return nil, err
		}
		pc.Post = post
		posts = append(posts, pc)
	}
	return posts, rows.Err()
}

// GetAllCommunities возвращает все сообщества, новые первыми
func (s *PostgresStorage) GetAllCommunities(ctx context.Context) ([]models.Community, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, description, user_id, created_at FROM communities ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	communities := make([]models.Community, 0)
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.UserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

func (s *PostgresStorage) CommunityExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM communities WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

func (s *PostgresStorage) AddCommunity(ctx context.Context, c models.NewCommunity) (*models.Community, error) {
	community := models.Community{Name: c.Name, Description: c.Description, UserID: c.UserID}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO communities (name, description, user_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.Name, c.Description, c.UserID).Scan(&community.ID, &community.CreatedAt)
	if err != nil {
		return nil, mapPQError(err)
	}
	return &community, nil
}

func (s *PostgresStorage) GetVotesByPostID(ctx context.Context, postID int64) ([]models.Vote, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, post_id, user_id, vote FROM votes WHERE post_id = $1 ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make([]models.Vote, 0)
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.PostID, &v.UserID, &v.Vote); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (s *PostgresStorage) GetUserVote(ctx context.Context, postID int64, userID string) (*models.Vote, error) {
	var v models.Vote
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, post_id, user_id, vote FROM votes WHERE post_id = $1 AND user_id = $2`, postID, userID).
		Scan(&v.ID, &v.PostID, &v.UserID, &v.Vote)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStorage) AddVote(ctx context.Context, v models.NewVote) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO votes (post_id, user_id, vote) VALUES ($1, $2, $3)`, v.PostID, v.UserID, v.Vote)
	return mapPQError(err)
}

func (s *PostgresStorage) UpdateVote(ctx context.Context, id int64, value int) error {
	return s.execOne(ctx, `UPDATE votes SET vote = $2 WHERE id = $1`, id, value)
}

func (s *PostgresStorage) DeleteVote(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM votes WHERE id = $1`, id)
}

// execOne выполняет запрос, который должен затронуть ровно одну строку голоса
func (s *PostgresStorage) execOne(ctx context.Context, query string, id int64, args ...any) error {
	res, err := s.DB.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vote %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.DB.Close()
}
