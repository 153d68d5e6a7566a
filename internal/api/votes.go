package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type castVoteRequest struct {
	Vote int `json:"vote"`
}

func (h *Handler) getVotes(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	tally, err := h.Votes.Tally(c.Request.Context(), id, identityFrom(c).UserID)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	setPollInterval(c, h.VotePoll)
	c.JSON(http.StatusOK, tally)
}

// castVote toggles the caller's vote and answers with the new tally
func (h *Handler) castVote(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errBadRequest, nil)
		return
	}

	identity := identityFrom(c)
	action, err := h.Votes.Cast(c.Request.Context(), identity, id, req.Vote)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	tally, err := h.Votes.Tally(c.Request.Context(), id, identity.UserID)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "total": tally.Total, "user_vote": tally.UserVote})
}
