package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/comments"
	"github.com/MosinFAM/redditclone/internal/communities"
	"github.com/MosinFAM/redditclone/internal/metrics"
	"github.com/MosinFAM/redditclone/internal/models"
	"github.com/MosinFAM/redditclone/internal/posts"
	"github.com/MosinFAM/redditclone/internal/storage"
	"github.com/MosinFAM/redditclone/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	aliceID    = "6f1c2a34-2d5b-4c1e-9a57-1f0e3b6d8c21"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, sub, name string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":           sub,
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{"name": name},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newRouter(t *testing.T, store storage.Storage) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	section := comments.NewSection(store, comments.SectionOptions{TTL: time.Minute}, m)
	t.Cleanup(section.Close)

	h := &Handler{
		Comments:    comments.NewService(store, section, m),
		Posts:       posts.NewService(store),
		Communities: communities.NewService(store),
		Votes:       votes.NewService(store, m),
		Verifier:    auth.NewVerifier(testSecret),
		Metrics:     m,
		CommentPoll: 20 * time.Millisecond,
		VotePoll:    5 * time.Second,
	}
	return NewRouter(h, Options{Logger: zerolog.Nop(), CORSOrigins: []string{"*"}, Gatherer: reg}), reg
}

func do(t *testing.T, router http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func seedPost(t *testing.T, store *storage.MemoryStorage) int64 {
	t.Helper()
	post, err := store.AddPost(context.Background(), models.NewPost{Title: "Post", Content: "Content"})
	require.NoError(t, err)
	return post.ID
}

func TestHealthz(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())

	w := do(t, router, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetComments_Tree(t *testing.T) {
	store := storage.NewMemoryStorage()
	ctx := context.Background()
	id := seedPost(t, store)
	first, err := store.AddComment(ctx, models.NewComment{PostID: id, Content: "first", Author: "alice"})
	require.NoError(t, err)
	_, err = store.AddComment(ctx, models.NewComment{PostID: id, ParentCommentID: &first.ID, Content: "reply", Author: "bob"})
	require.NoError(t, err)
	_, err = store.AddComment(ctx, models.NewComment{PostID: id, Content: "second", Author: "bob"})
	require.NoError(t, err)
	router, _ := newRouter(t, store)

	w := do(t, router, http.MethodGet, "/api/posts/1/comments", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20", w.Header().Get(pollIntervalHeader))
	var body commentTree
	decode(t, w, &body)
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.Comments, 2)
	assert.Equal(t, "first", body.Comments[0].Content)
	require.Len(t, body.Comments[0].Children, 1)
	assert.Equal(t, "reply", body.Comments[0].Children[0].Content)
	assert.Equal(t, "second", body.Comments[1].Content)
	assert.Empty(t, body.Comments[1].Children)
}

func TestGetComments_SeesDirectInsert(t *testing.T) {
	store := storage.NewMemoryStorage()
	id := seedPost(t, store)
	router, _ := newRouter(t, store)

	w := do(t, router, http.MethodGet, "/api/posts/1/comments", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var before commentTree
	decode(t, w, &before)
	assert.Equal(t, 0, before.Count)

	_, err := store.AddComment(context.Background(), models.NewComment{PostID: id, Content: "from elsewhere", Author: "bob"})
	require.NoError(t, err)

	w = do(t, router, http.MethodGet, "/api/posts/1/comments", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var after commentTree
	decode(t, w, &after)
	assert.Equal(t, 1, after.Count)
	require.Len(t, after.Comments, 1)
	assert.Equal(t, "from elsewhere", after.Comments[0].Content)
}

func TestGetComments_InvalidID(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())

	for _, path := range []string{"/api/posts/abc/comments", "/api/posts/0/comments"} {
		w := do(t, router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestSubmitComment_Success(t *testing.T) {
	store := storage.NewMemoryStorage()
	id := seedPost(t, store)
	router, reg := newRouter(t, store)

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", token(t, aliceID, "alice"), `{"content":"hello"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Comment models.Comment `json:"comment"`
		Draft   comments.Draft `json:"draft"`
	}
	decode(t, w, &body)
	assert.Equal(t, "hello", body.Comment.Content)
	assert.Equal(t, "alice", body.Comment.Author)
	assert.Equal(t, id, body.Comment.PostID)
	assert.Empty(t, body.Draft.Text)

	w = do(t, router, http.MethodGet, "/api/posts/1/comments", "", "")
	var tree commentTree
	decode(t, w, &tree)
	assert.Equal(t, 1, tree.Count)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSubmitComment_Reply(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedPost(t, store)
	router, _ := newRouter(t, store)
	bearer := token(t, aliceID, "alice")

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", bearer, `{"content":"question"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, router, http.MethodPost, "/api/posts/1/comments", bearer, `{"content":"answer","parent_comment_id":2}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodGet, "/api/posts/1/comments", "", "")
	var tree commentTree
	decode(t, w, &tree)
	require.Len(t, tree.Comments, 1)
	require.Len(t, tree.Comments[0].Children, 1)
	assert.Equal(t, "answer", tree.Comments[0].Children[0].Content)
}

func TestSubmitComment_Anonymous(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	router, _ := newRouter(t, mockStorage)

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", "", `{"content":"hello"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Error string         `json:"error"`
		Draft comments.Draft `json:"draft"`
	}
	decode(t, w, &body)
	assert.Equal(t, auth.ErrUnauthorized.Error(), body.Error)
	assert.Equal(t, "hello", body.Draft.Text)
	mockStorage.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything)
}

func TestSubmitComment_InvalidToken(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	router, _ := newRouter(t, mockStorage)

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", "not-a-jwt", `{"content":"hello"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockStorage.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything)
}

func TestSubmitComment_Empty(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	router, _ := newRouter(t, mockStorage)

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", token(t, aliceID, "alice"), `{"content":"   "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockStorage.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything)
}

func TestSubmitComment_MalformedBody(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", token(t, aliceID, "alice"), `{"content":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitComment_BackendFailure(t *testing.T) {
	mockStorage := new(storage.MockStorage)
	mockStorage.On("AddComment", mock.Anything, mock.AnythingOfType("models.NewComment")).
		Return(nil, errors.New("permission denied for table comments"))
	router, _ := newRouter(t, mockStorage)

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", token(t, aliceID, "alice"), `{"content":"hello"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body struct {
		Error string         `json:"error"`
		Draft comments.Draft `json:"draft"`
	}
	decode(t, w, &body)
	assert.Equal(t, "permission denied for table comments", body.Error)
	assert.Equal(t, "hello", body.Draft.Text)
	mockStorage.AssertNotCalled(t, "GetCommentsByPostID", mock.Anything, mock.Anything)
}

func TestSubmitComment_ForwardsBearerToStorage(t *testing.T) {
	bearer := token(t, aliceID, "alice")
	mockStorage := new(storage.MockStorage)
	mockStorage.On("AddComment",
		mock.MatchedBy(func(ctx context.Context) bool { return storage.AuthToken(ctx) == bearer }),
		mock.AnythingOfType("models.NewComment")).
		Return(nil, errors.New("stop here"))
	router, _ := newRouter(t, mockStorage)

	w := do(t, router, http.MethodPost, "/api/posts/1/comments", bearer, `{"content":"hello"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	mockStorage.AssertExpectations(t)
}

func TestSubmitComment_UnknownPost(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())

	w := do(t, router, http.MethodPost, "/api/posts/7/comments", token(t, aliceID, "alice"), `{"content":"hello"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPosts(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())
	bearer := token(t, aliceID, "alice")

	w := do(t, router, http.MethodPost, "/api/posts", bearer, `{"title":"Hello","content":"World","image_url":"https://cdn.example.com/a.png"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Post
	decode(t, w, &created)

	w = do(t, router, http.MethodGet, "/api/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Post
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	w = do(t, router, http.MethodGet, "/api/posts/404", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/posts", bearer, `{"title":"","content":"World"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/posts", "", `{"title":"Hello","content":"World"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommunities(t *testing.T) {
	store := storage.NewMemoryStorage()
	router, _ := newRouter(t, store)
	bearer := token(t, aliceID, "alice")

	w := do(t, router, http.MethodPost, "/api/communities", bearer, `{"name":"golang","description":"All things Go"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var community models.Community
	decode(t, w, &community)

	w = do(t, router, http.MethodPost, "/api/communities", bearer, `{"name":"golang","description":"Again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/api/communities", bearer, `{"name":"go lang","description":"Spaces"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := store.AddPost(context.Background(), models.NewPost{Title: "In golang", Content: "Body", CommunityID: &community.ID})
	require.NoError(t, err)

	w = do(t, router, http.MethodGet, "/api/communities/golang/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.PostWithCounts
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "golang", list[0].CommunityName)

	w = do(t, router, http.MethodGet, "/api/communities", "", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestVotes(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedPost(t, store)
	router, _ := newRouter(t, store)
	bearer := token(t, aliceID, "alice")

	w := do(t, router, http.MethodPost, "/api/posts/1/votes", bearer, `{"vote":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	var cast struct {
		Action   string `json:"action"`
		Total    int    `json:"total"`
		UserVote int    `json:"user_vote"`
	}
	decode(t, w, &cast)
	assert.Equal(t, "insert", cast.Action)
	assert.Equal(t, 1, cast.Total)

	w = do(t, router, http.MethodGet, "/api/posts/1/votes", bearer, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5000", w.Header().Get(pollIntervalHeader))
	var tally votes.Tally
	decode(t, w, &tally)
	assert.Equal(t, votes.Tally{Total: 1, UserVote: 1}, tally)

	w = do(t, router, http.MethodPost, "/api/posts/1/votes", bearer, `{"vote":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/posts/1/votes", "", `{"vote":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())

	w := do(t, router, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "redditclone_live_comment_streams")
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newRouter(t, storage.NewMemoryStorage())
	req := httptest.NewRequest(http.MethodOptions, "/api/posts/1/comments", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{comments.ErrEmptyContent, http.StatusBadRequest},
		{communities.ErrNameTooLong, http.StatusBadRequest},
		{storage.ErrNotFound, http.StatusNotFound},
		{communities.ErrCommunityExists, http.StatusConflict},
		{&comments.PersistenceError{Op: "add comment", Err: errors.New("boom")}, http.StatusBadGateway},
		{&comments.PersistenceError{Op: "add comment", Err: storage.ErrNotFound}, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
