package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nightreel/cineclub-api/internal/service"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/response"
)

// InteractionHandler exposes watch-status and rating endpoints.
type InteractionHandler struct {
	interactions *service.InteractionService
}

// NewInteractionHandler constructs InteractionHandler.
func NewInteractionHandler(interactions *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactions: interactions}
}

// SetWatchStatus godoc
// @Summary Set the caller's watch status for a film
// @Tags Interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Param payload body service.SetWatchStatusRequest true "Watch status payload"
// @Success 200 {object} response.Envelope
// @Router /films/{id}/watch-status [put]
func (h *InteractionHandler) SetWatchStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SetWatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	status, err := h.interactions.SetWatchStatus(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// WatchStatus godoc
// @Summary Get the caller's watch status for a film
// @Tags Interactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Success 200 {object} response.Envelope
// @Router /films/{id}/watch-status [get]
func (h *InteractionHandler) WatchStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.interactions.WatchStatus(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Rate godoc
// @Summary Rate a film
// @Tags Interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Param payload body service.RateFilmRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Router /films/{id}/rating [put]
func (h *InteractionHandler) Rate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RateFilmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rating, err := h.interactions.Rate(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}

// Ratings godoc
// @Summary List a film's ratings with the aggregate
// @Tags Interactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Success 200 {object} response.Envelope
// @Router /films/{id}/ratings [get]
func (h *InteractionHandler) Ratings(c *gin.Context) {
	ratings, err := h.interactions.FilmRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, nil)
}
