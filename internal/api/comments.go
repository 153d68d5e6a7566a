package api

import (
	"net/http"

	"github.com/MosinFAM/redditclone/internal/comments"
	"github.com/MosinFAM/redditclone/internal/models"

	"github.com/gin-gonic/gin"
)

type commentTree struct {
	Count    int                   `json:"count"`
	Comments []*models.CommentNode `json:"comments"`
}

func newCommentTree(roots []*models.CommentNode) commentTree {
	return commentTree{Count: comments.CountNodes(roots), Comments: roots}
}

func (h *Handler) getComments(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	roots, err := h.Comments.Tree(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	setPollInterval(c, h.CommentPoll)
	c.JSON(http.StatusOK, newCommentTree(roots))
}

// submitComment answers with the draft so a client can keep the text after a failure
func (h *Handler) submitComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	var draft comments.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		abortWithError(c, errBadRequest, nil)
		return
	}
	draft.PostID = id

	comment, err := h.Comments.Submit(c.Request.Context(), identityFrom(c), &draft)
	if err != nil {
		abortWithError(c, err, gin.H{"draft": draft})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment, "draft": draft})
}
