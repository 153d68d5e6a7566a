package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) listCommunities(c *gin.Context) {
	list, err := h.Communities.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createCommunity(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errBadRequest, nil)
		return
	}
	community, err := h.Communities.Create(c.Request.Context(), identityFrom(c), req.Name, req.Description)
	if err != nil {
		abortWithError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, community)
}
