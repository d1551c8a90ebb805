package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nightreel/cineclub-api/internal/service"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/response"
)

// DiscussionHandler exposes the per-film discussion endpoints.
type DiscussionHandler struct {
	discussions *service.DiscussionService
}

// NewDiscussionHandler constructs DiscussionHandler.
func NewDiscussionHandler(discussions *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions}
}

// Thread godoc
// @Summary Get a film's threaded discussion
// @Tags Discussion
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Success 200 {object} response.Envelope
// @Router /films/{id}/discussion [get]
func (h *DiscussionHandler) Thread(c *gin.Context) {
	threads, err := h.discussions.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, threads, nil)
}

// Post godoc
// @Summary Post a comment or reaction on a film
// @Tags Discussion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Param payload body service.PostDiscussionRequest true "Discussion payload"
// @Success 201 {object} response.Envelope
// @Router /films/{id}/discussion [post]
func (h *DiscussionHandler) Post(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.PostDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.discussions.Post(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Delete godoc
// @Summary Delete a discussion item and its subtree
// @Tags Discussion
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discussion item ID"
// @Success 200 {object} response.Envelope
// @Router /discussion/{id} [delete]
func (h *DiscussionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	deleted, err := h.discussions.Delete(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deleted, nil)
}

// SetHighlight godoc
// @Summary Flag or unflag a comment for the weekly recap
// @Tags Discussion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Discussion item ID"
// @Param payload body handler.SetHighlightRequest true "Highlight payload"
// @Success 200 {object} response.Envelope
// @Router /discussion/{id}/highlight [put]
func (h *DiscussionHandler) SetHighlight(c *gin.Context) {
	var req SetHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.discussions.SetHighlight(c.Request.Context(), c.Param("id"), req.Highlighted)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SetHighlightRequest toggles a comment's recap highlight flag.
type SetHighlightRequest struct {
	Highlighted bool `json:"highlighted"`
}
