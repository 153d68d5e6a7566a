package api

import (
	"net/http"

	"github.com/MosinFAM/redditclone/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listPosts(c *gin.Context) {
	list, err := h.Posts.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.Posts.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) createPost(c *gin.Context) {
	var req models.NewPost
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errBadRequest, nil)
		return
	}
	post, err := h.Posts.Create(c.Request.Context(), identityFrom(c), req)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) communityPosts(c *gin.Context) {
	list, err := h.Posts.CommunityPosts(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, list)
}
