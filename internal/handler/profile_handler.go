package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/service"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

// ProfileHandler handles HTTP requests for device profiles
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(s *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: s}
}

// Get handles GET /api/v1/devices/:deviceId/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	p, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c, "Failed to get profile", err)
		return
	}
	response.Success(c, p)
}

// Update handles PUT /api/v1/devices/:deviceId/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.BadRequest(c, "Invalid profile", err)
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), id, upd)
	if errors.Is(err, service.ErrInvalidProfile) {
		response.BadRequest(c, "Invalid profile", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to update profile", err)
		return
	}
	response.Success(c, p)
}
