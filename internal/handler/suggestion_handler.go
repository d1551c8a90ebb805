package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/service"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/response"
)

// SuggestionHandler exposes the suggestion ledger endpoints.
type SuggestionHandler struct {
	suggestions *service.SuggestionService
}

// NewSuggestionHandler constructs SuggestionHandler.
func NewSuggestionHandler(suggestions *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

// Submit godoc
// @Summary Submit a film suggestion
// @Tags Suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitSuggestionRequest true "Suggestion payload"
// @Success 201 {object} response.Envelope
// @Router /suggestions [post]
func (h *SuggestionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SubmitSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	suggestion, err := h.suggestions.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, suggestion)
}

// List godoc
// @Summary List suggestions
// @Tags Suggestions
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING, ACCEPTED, REJECTED)"
// @Param week query string false "Filter by suggested week (YYYY-MM-DD)"
// @Param mine query bool false "Only the caller's suggestions"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /suggestions [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	var filter models.SuggestionFilter
	filter.Status = models.SuggestionStatus(c.Query("status"))
	if week := c.Query("week"); week != "" {
		parsed, err := time.Parse("2006-01-02", week)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be a YYYY-MM-DD date"))
			return
		}
		utc := parsed.UTC()
		filter.Week = &utc
	}
	if c.Query("mine") == "true" {
		if claims := claimsFromContext(c); claims != nil {
			filter.UserID = claims.UserID
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	suggestions, pagination, err := h.suggestions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, pagination)
}

// Accept godoc
// @Summary Accept a suggestion
// @Tags Suggestions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Router /suggestions/{id}/accept [post]
func (h *SuggestionHandler) Accept(c *gin.Context) {
	suggestion, err := h.suggestions.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}

// Reject godoc
// @Summary Reject a suggestion
// @Tags Suggestions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Router /suggestions/{id}/reject [post]
func (h *SuggestionHandler) Reject(c *gin.Context) {
	suggestion, err := h.suggestions.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestion, nil)
}
