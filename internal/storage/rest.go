package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/models"

	"github.com/supabase-community/postgrest-go"
)

const (
	restPrefix = "/rest/v1"
	restSchema = "public"
	// код PostgREST для .single() без строк
	pgrstNoRows = "PGRST116"
)

// BackendError - ошибка, которую вернул REST-бэкенд; Message отдаётся пользователю как есть
type BackendError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error %s", e.Code)
	}
	return e.Message
}

// Unwrap сопоставляет коды ошибок бэкенда ошибкам хранилища
func (e *BackendError) Unwrap() error {
	switch e.Code {
	case pgUniqueViolation:
		return ErrConflict
	case pgForeignKeyViolation, pgrstNoRows:
		return ErrNotFound
	}
	return nil
}

// postgrest-go сообщает ошибки бэкенда в виде "(code) message"
var backendErrPattern = regexp.MustCompile(`(?s)^\(([^)]*)\) (.*)$`)

func toBackendError(err error) error {
	if err == nil {
		return nil
	}
	if m := backendErrPattern.FindStringSubmatch(err.Error()); m != nil {
		return &BackendError{Code: m[1], Message: m[2]}
	}
	return err
}

type authTokenKey struct{}

// WithAuthToken передаёт проверенный токен пользователя в REST-бэкенд,
// чтобы политики доступа бэкенда видели автора запроса
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey{}, token)
}

// AuthToken возвращает токен, переданный через WithAuthToken
func AuthToken(ctx context.Context) string {
	token, _ := ctx.Value(authTokenKey{}).(string)
	return token
}

// RestStorage - хранилище поверх REST API хостинг-бэкенда (PostgREST-совместимого)
type RestStorage struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewRestStorage создаёт клиент бэкенда; timeout == 0 означает без ограничения
func NewRestStorage(baseURL, apiKey string, timeout time.Duration) *RestStorage {
	return &RestStorage{
		baseURL: strings.TrimRight(baseURL, "/") + restPrefix,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// client создаёт postgrest-клиент на один запрос: ClientError у клиента общий и «залипает»,
// а заголовок Authorization зависит от пользователя
func (s *RestStorage) client(ctx context.Context) *postgrest.Client {
	bearer := s.apiKey
	if token := AuthToken(ctx); token != "" {
		bearer = token
	}
	return postgrest.NewClient(s.baseURL, restSchema, map[string]string{
		"apikey":        s.apiKey,
		"Authorization": "Bearer " + bearer,
	})
}

func (s *RestStorage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// selectInto выполняет запрос и декодирует ответ в out
func (s *RestStorage) selectInto(ctx context.Context, table string, q *postgrest.FilterBuilder, out any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	logger.FromContext(ctx).Debug().Str("table", table).Msg("Calling backend")
	if _, err := q.ExecuteToWithContext(ctx, out); err != nil {
		return toBackendError(err)
	}
	return nil
}

// exec выполняет запрос без разбора ответа
func (s *RestStorage) exec(ctx context.Context, table string, q *postgrest.FilterBuilder) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	logger.FromContext(ctx).Debug().Str("table", table).Msg("Calling backend")
	_, _, err := q.ExecuteWithContext(ctx)
	return toBackendError(err)
}

func idParam(v int64) string { return strconv.FormatInt(v, 10) }

var ascending = &postgrest.OrderOpts{Ascending: true}
var descending = &postgrest.OrderOpts{Ascending: false}

// GetCommentsByPostID возвращает комментарии к посту по возрастанию created_at
func (s *RestStorage) GetCommentsByPostID(ctx context.Context, postID int64) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	q := s.client(ctx).From("comments").Select("*", "", false).
		Eq("post_id", idParam(postID)).
		Order("created_at", ascending)
	if err := s.selectInto(ctx, "comments", q, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *RestStorage) AddComment(ctx context.Context, c models.NewComment) (*models.Comment, error) {
	var inserted []models.Comment
	q := s.client(ctx).From("comments").Insert([]models.NewComment{c}, false, "", "representation", "")
	if err := s.selectInto(ctx, "comments", q, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, errors.New("backend returned no inserted comment")
	}
	return &inserted[0], nil
}

func (s *RestStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	posts := make([]models.Post, 0)
	q := s.client(ctx).From("posts").Select("*", "", false).Order("created_at", descending)
	if err := s.selectInto(ctx, "posts", q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *RestStorage) GetPostByID(ctx context.Context, postID int64) (*models.Post, error) {
	var posts []models.Post
	q := s.client(ctx).From("posts").Select("*", "", false).Eq("id", idParam(postID))
	if err := s.selectInto(ctx, "posts", q, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	return &posts[0], nil
}

func (s *RestStorage) AddPost(ctx context.Context, p models.NewPost) (*models.Post, error) {
	var inserted []models.Post
	q := s.client(ctx).From("posts").Insert([]models.NewPost{p}, false, "", "representation", "")
	if err := s.selectInto(ctx, "posts", q, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, errors.New("backend returned no inserted post")
	}
	return &inserted[0], nil
}

// GetCommunityPosts вызывает RPC get_community_posts_with_counts.
// Rpc не проверяет HTTP-статус, поэтому объект ошибки распознаётся по телу ответа.
func (s *RestStorage) GetCommunityPosts(ctx context.Context, communityName string) ([]models.PostWithCounts, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	client := s.client(ctx)
	body := map[string]string{"community_name_param": communityName}
	logger.FromContext(ctx).Debug().Str("rpc", "get_community_posts_with_counts").Msg("Calling backend")
	raw := client.Rpc("get_community_posts_with_counts", "", body)
	if client.ClientError != nil {
		return nil, client.ClientError
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		backendErr := &BackendError{}
		if err := json.Unmarshal([]byte(trimmed), backendErr); err != nil {
			return nil, fmt.Errorf("decode rpc error: %w", err)
		}
		return nil, backendErr
	}

	posts := make([]models.PostWithCounts, 0)
	if trimmed == "" {
		return posts, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &posts); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	return posts, nil
}

func (s *RestStorage) GetAllCommunities(ctx context.Context) ([]models.Community, error) {
	communities := make([]models.Community, 0)
	q := s.client(ctx).From("communities").Select("*", "", false).Order("created_at", descending)
	if err := s.selectInto(ctx, "communities", q, &communities); err != nil {
		return nil, err
	}
	return communities, nil
}

func (s *RestStorage) CommunityExists(ctx context.Context, name string) (bool, error) {
	var found []struct {
		ID int64 `json:"id"`
	}
	q := s.client(ctx).From("communities").Select("id", "", false).Eq("name", name).Limit(1, "")
	if err := s.selectInto(ctx, "communities", q, &found); err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (s *RestStorage) AddCommunity(ctx context.Context, c models.NewCommunity) (*models.Community, error) {
	var inserted []models.Community
	q := s.client(ctx).From("communities").Insert([]models.NewCommunity{c}, false, "", "representation", "")
	if err := s.selectInto(ctx, "communities", q, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, errors.New("backend returned no inserted community")
	}
	return &inserted[0], nil
}

func (s *RestStorage) GetVotesByPostID(ctx context.Context, postID int64) ([]models.Vote, error) {
	votes := make([]models.Vote, 0)
	q := s.client(ctx).From("votes").Select("*", "", false).Eq("post_id", idParam(postID))
	if err := s.selectInto(ctx, "votes", q, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (s *RestStorage) GetUserVote(ctx context.Context, postID int64, userID string) (*models.Vote, error) {
	var votes []models.Vote
	q := s.client(ctx).From("votes").Select("*", "", false).
		Eq("post_id", idParam(postID)).
		Eq("user_id", userID).
		Limit(1, "")
	if err := s.selectInto(ctx, "votes", q, &votes); err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

func (s *RestStorage) AddVote(ctx context.Context, v models.NewVote) error {
	q := s.client(ctx).From("votes").Insert([]models.NewVote{v}, false, "", "minimal", "")
	return s.exec(ctx, "votes", q)
}

func (s *RestStorage) UpdateVote(ctx context.Context, voteID int64, value int) error {
	q := s.client(ctx).From("votes").Update(map[string]int{"vote": value}, "minimal", "").Eq("id", idParam(voteID))
	return s.exec(ctx, "votes", q)
}

func (s *RestStorage) DeleteVote(ctx context.Context, voteID int64) error {
	q := s.client(ctx).From("votes").Delete("minimal", "").Eq("id", idParam(voteID))
	return s.exec(ctx, "votes", q)
}

func (s *RestStorage) Close() error { return nil }
