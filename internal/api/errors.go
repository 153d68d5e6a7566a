package api

import (
	"errors"
	"net/http"

	"github.com/MosinFAM/redditclone/internal/auth"
	"github.com/MosinFAM/redditclone/internal/comments"
	"github.com/MosinFAM/redditclone/internal/communities"
	"github.com/MosinFAM/redditclone/internal/logger"
	"github.com/MosinFAM/redditclone/internal/posts"
	"github.com/MosinFAM/redditclone/internal/storage"
	"github.com/MosinFAM/redditclone/internal/votes"

	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("malformed request body")

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest),
		errors.Is(err, comments.ErrEmptyContent),
		errors.Is(err, comments.ErrInvalidPost),
		errors.Is(err, votes.ErrInvalidVote),
		errors.Is(err, posts.ErrTitleRequired),
		errors.Is(err, posts.ErrContentRequired),
		errors.Is(err, communities.ErrNameCharset),
		errors.Is(err, communities.ErrNameTooShort),
		errors.Is(err, communities.ErrNameTooLong),
		errors.Is(err, communities.ErrDescriptionEmpty):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, communities.ErrCommunityExists), errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	}
	var perr *comments.PersistenceError
	if errors.As(err, &perr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// abortWithError writes {"error": msg} plus any extra fields.
// Unexpected errors are logged and hidden from the client.
func abortWithError(c *gin.Context, err error, extra gin.H) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("Request failed")
		msg = http.StatusText(status)
	}

	body := gin.H{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}
