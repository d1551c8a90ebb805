package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/realtime"
	"github.com/nightreel/cineclub-api/internal/service"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/response"
)

// RealtimeHandler upgrades members onto per-film event channels.
type RealtimeHandler struct {
	hub      *realtime.Hub
	films    *service.FilmService
	cfg      realtime.SessionConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewRealtimeHandler constructs RealtimeHandler.
func NewRealtimeHandler(hub *realtime.Hub, films *service.FilmService, cfg realtime.SessionConfig, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = 5 * time.Second
	}
	return &RealtimeHandler{
		hub:   hub,
		films: films,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			// A handshake that cannot complete within the subscribe
			// window fails closed instead of holding the connection.
			HandshakeTimeout: cfg.SubscribeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			// Cross-origin clients are expected; access control is the
			// JWT's job, not the Origin header's.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe godoc
// @Summary Subscribe to a film's realtime event channel
// @Tags Realtime
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Success 101 {string} string "Switching Protocols"
// @Router /films/{id}/channel [get]
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filmID := c.Param("id")
	if _, err := h.films.Get(c.Request.Context(), filmID); err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		h.logger.Warn("websocket upgrade failed", zap.String("film_id", filmID), zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(filmID, realtime.Identity{UserID: claims.UserID, FullName: claims.FullName})
	session := realtime.NewSession(conn, sub, h.cfg, h.logger)
	go session.Run()
}

// Presence godoc
// @Summary List members currently subscribed to a film's channel
// @Tags Realtime
// @Produce json
// @Security BearerAuth
// @Param id path string true "Film ID"
// @Success 200 {object} response.Envelope
// @Router /films/{id}/presence [get]
func (h *RealtimeHandler) Presence(c *gin.Context) {
	filmID := c.Param("id")
	if _, err := h.films.Get(c.Request.Context(), filmID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.hub.Presence(filmID), nil)
}
