package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nightreel/cineclub-api/internal/service"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/response"
)

// InviteHandler exposes membership invite endpoints.
type InviteHandler struct {
	invites *service.InviteService
}

// NewInviteHandler constructs InviteHandler.
func NewInviteHandler(invites *service.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// Create godoc
// @Summary Issue a membership invite
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateInviteRequest true "Invite payload"
// @Success 201 {object} response.Envelope
// @Router /invites [post]
func (h *InviteHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invite, err := h.invites.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invite)
}

// List godoc
// @Summary List pending invites
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /invites [get]
func (h *InviteHandler) List(c *gin.Context) {
	invites, err := h.invites.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invites, nil)
}

// Redeem godoc
// @Summary Redeem an invite code for a member account
// @Tags Invites
// @Accept json
// @Produce json
// @Param payload body service.RedeemInviteRequest true "Redemption payload"
// @Success 201 {object} response.Envelope
// @Router /invites/redeem [post]
func (h *InviteHandler) Redeem(c *gin.Context) {
	var req service.RedeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.invites.Redeem(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
