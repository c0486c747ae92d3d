package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/export"
	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/repository"
	"github.com/jengzang/activity-detection-go/internal/service"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

// ActivityHandler handles HTTP requests for saved activities
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(s *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: s}
}

// GetActivities handles GET /api/v1/activities. With format=geojson the
// page is returned as a FeatureCollection.
func (h *ActivityHandler) GetActivities(c *gin.Context) {
	var filter models.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	if err := validateType(filter.Type); err != nil {
		response.BadRequest(c, "Invalid activity type", err)
		return
	}

	// A device token only sees its own activities
	if owner, ok := tokenDevice(c); ok {
		if filter.DeviceID != "" && filter.DeviceID != owner {
			response.Error(c, http.StatusForbidden, "Token not valid for this device", nil)
			return
		}
		filter.DeviceID = owner
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "geojson" {
		response.BadRequest(c, "Invalid format", fmt.Errorf("unsupported format %q", format))
		return
	}

	resp, err := h.service.GetActivities(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to get activities", err)
		return
	}

	if format == "geojson" {
		b, err := json.Marshal(export.ActivityCollection(resp.Data))
		if err != nil {
			response.InternalError(c, "Failed to encode GeoJSON", err)
			return
		}
		c.Header("X-Total-Count", strconv.FormatInt(resp.Total, 10))
		c.Data(http.StatusOK, "application/geo+json", b)
		return
	}
	response.Success(c, resp)
}

// GetActivityByID handles GET /api/v1/activities/:id
func (h *ActivityHandler) GetActivityByID(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, rec)
}

// GetGeoJSON handles GET /api/v1/activities/:id/geojson
func (h *ActivityHandler) GetGeoJSON(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}

	b, err := json.Marshal(export.ActivityFeature(rec))
	if err != nil {
		response.InternalError(c, "Failed to encode GeoJSON", err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", b)
}

// GetFIT handles GET /api/v1/activities/:id/fit
func (h *ActivityHandler) GetFIT(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteActivityFIT(&buf, rec); err != nil {
		response.InternalError(c, "Failed to encode FIT file", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.fit"`, rec.ID))
	c.Data(http.StatusOK, "application/vnd.ant.fit", buf.Bytes())
}

// GetFitnessEntries handles GET /api/v1/devices/:deviceId/fitness-entries
func (h *ActivityHandler) GetFitnessEntries(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var filter models.FitnessEntryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	filter.DeviceID = id
	if err := validateType(filter.WorkoutType); err != nil {
		response.BadRequest(c, "Invalid workout type", err)
		return
	}

	entries, err := h.service.GetFitnessEntries(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to get fitness entries", err)
		return
	}
	response.Success(c, entries)
}

func (h *ActivityHandler) load(c *gin.Context) (*models.ActivityRecord, bool) {
	rec, err := h.service.GetActivityByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrActivityNotFound) {
		response.NotFound(c, "Activity not found")
		return nil, false
	}
	if err != nil {
		response.InternalError(c, "Failed to get activity", err)
		return nil, false
	}
	// Other devices' activities are reported as missing
	if owner, ok := tokenDevice(c); ok && rec.DeviceID != owner {
		response.NotFound(c, "Activity not found")
		return nil, false
	}
	return rec, true
}
