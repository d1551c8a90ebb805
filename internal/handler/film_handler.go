package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/service"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/response"
)

// FilmHandler exposes the weekly schedule endpoints.
type FilmHandler struct {
	films    *service.FilmService
	rotation *service.RotationService
}

// NewFilmHandler constructs FilmHandler.
func NewFilmHandler(films *service.FilmService, rotation *service.RotationService) *FilmHandler {
	return &FilmHandler{films: films, rotation: rotation}
}

// List godoc
// @Summary List films
// @Tags Films
// @Produce json
// @Param status query string false "Filter by status (UPCOMING, CURRENT, ARCHIVED)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param order query string false "Sort order by week (asc or desc)"
// @Success 200 {object} response.Envelope
// @Router /films [get]
func (h *FilmHandler) List(c *gin.Context) {
	var filter models.FilmFilter
	filter.Status = models.FilmStatus(c.Query("status"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortOrder = c.Query("order")

	films, pagination, err := h.films.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, films, pagination)
}

// Get godoc
// @Summary Get film detail
// @Tags Films
// @Produce json
// @Param id path string true "Film ID"
// @Success 200 {object} response.Envelope
// @Router /films/{id} [get]
func (h *FilmHandler) Get(c *gin.Context) {
	film, err := h.films.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, film, nil)
}

// Current godoc
// @Summary Get the current week's film
// @Tags Films
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /films/current [get]
func (h *FilmHandler) Current(c *gin.Context) {
	film, err := h.films.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, film, nil)
}

// Schedule godoc
// @Summary Schedule a film for a future week
// @Tags Films
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ScheduleFilmRequest true "Film payload"
// @Success 201 {object} response.Envelope
// @Router /films [post]
func (h *FilmHandler) Schedule(c *gin.Context) {
	var req service.ScheduleFilmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	film, err := h.films.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, film)
}

// CloseWeek godoc
// @Summary Close a week, archiving its film and promoting the next
// @Tags Films
// @Produce json
// @Security BearerAuth
// @Param week query string true "Week start date (YYYY-MM-DD, a Monday)"
// @Success 200 {object} response.Envelope
// @Router /films/close-week [post]
func (h *FilmHandler) CloseWeek(c *gin.Context) {
	week, err := time.Parse("2006-01-02", c.Query("week"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be a YYYY-MM-DD date"))
		return
	}
	result, err := h.rotation.CloseWeek(c.Request.Context(), week.UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Recap godoc
// @Summary Export an archived film's recap
// @Tags Films
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {file} byte
// @Router /films/{id}/recap [get]
func (h *FilmHandler) Recap(c *gin.Context) {
	payload, contentType, err := h.films.ExportRecap(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="recap-%s.%s"`, c.Param("id"), ext))
	c.Data(http.StatusOK, contentType, payload)
}

// ShareRecap godoc
// @Summary Create a shareable download link for an archived film's recap
// @Tags Films
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Param format query string false "Export format (csv or pdf)"
// @Success 201 {object} response.Envelope
// @Router /films/{id}/recap/link [post]
func (h *FilmHandler) ShareRecap(c *gin.Context) {
	link, err := h.films.ShareRecap(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// DownloadRecap godoc
// @Summary Download a shared recap by its signed token
// @Tags Films
// @Produce json
// @Param token query string true "Signed download token"
// @Success 200 {file} byte
// @Router /recaps/download [get]
func (h *FilmHandler) DownloadRecap(c *gin.Context) {
	payload, contentType, err := h.films.OpenSharedRecap(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="recap.%s"`, ext))
	c.Data(http.StatusOK, contentType, payload)
}
