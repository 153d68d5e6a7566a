// Package api exposes the forum over HTTP with gin.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/comments"
	"github.com/MosinFAM/redditclone/internal/communities"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/metrics"
	"github.com/MosinFAM/redditclone/internal/posts"
	"github.com/MosinFAM/redditclone/internal/storage"
	"github.com/MosinFAM/redditclone/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	identityKey        = "identity"
	pollIntervalHeader = "X-Poll-Interval"
)

// Handler holds the services behind the HTTP routes
type Handler struct {
	Comments    *comments.Service
	Posts       *posts.Service
	Communities *communities.Service
	Votes       *votes.Service
	// Verifier is nil when no JWT secret is configured; every caller is then anonymous.
	Verifier *auth.Verifier
	Metrics  *metrics.Metrics

	CommentPoll time.Duration
	VotePoll    time.Duration
}

// Options configures the router around a Handler
type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
}

// NewRouter registers every route and wraps the router in CORS handling
func NewRouter(h *Handler, opts Options) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(opts.Logger))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api", h.identify)
	api.GET("/communities", h.listCommunities)
	api.POST("/communities", h.createCommunity)
	api.GET("/communities/:name/posts", h.communityPosts)

	api.GET("/posts", h.listPosts)
	api.POST("/posts", h.createPost)
	api.GET("/posts/:id", h.getPost)
	api.GET("/posts/:id/comments", h.getComments)
	api.POST("/posts/:id/comments", h.submitComment)
	api.GET("/posts/:id/comments/live", h.liveComments)
	api.GET("/posts/:id/votes", h.getVotes)
	api.POST("/posts/:id/votes", h.castVote)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader, pollIntervalHeader},
	})
	return c.Handler(r)
}

// identify resolves the caller from the bearer token.
// A missing token means an anonymous caller, a bad one is rejected.
func (h *Handler) identify(c *gin.Context) {
	var identity auth.Identity
	if token := auth.BearerToken(c.Request); token != "" {
		if h.Verifier == nil {
			abortWithError(c, auth.ErrInvalidToken, nil)
			return
		}
		id, err := h.Verifier.Identify(token)
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug().Err(err).Msg("Rejected bearer token")
			abortWithError(c, auth.ErrInvalidToken, nil)
			return
		}
		identity = id
		c.Request = c.Request.WithContext(storage.WithAuthToken(c.Request.Context(), token))
	}
	c.Set(identityKey, identity)
	c.Next()
}

func identityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, comments.ErrInvalidPost, nil)
		return 0, false
	}
	return id, true
}

func setPollInterval(c *gin.Context, d time.Duration) {
	if d > 0 {
		c.Header(pollIntervalHeader, strconv.FormatInt(d.Milliseconds(), 10))
	}
}
