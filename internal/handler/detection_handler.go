package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/tracker"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

// DetectionHandler handles HTTP requests for detection sessions
type DetectionHandler struct {
	tracker *tracker.Manager
}

// NewDetectionHandler creates a new detection handler
func NewDetectionHandler(t *tracker.Manager) *DetectionHandler {
	return &DetectionHandler{tracker: t}
}

// Start handles POST /api/v1/devices/:deviceId/detection/start
func (h *DetectionHandler) Start(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	res := h.tracker.StartDetection(c.Request.Context(), id)
	if err := res.Err(); err != nil {
		// Refusals are answered in the body; record the cause for the access log
		_ = c.Error(err)
	}
	response.Success(c, res)
}

// Stop handles POST /api/v1/devices/:deviceId/detection/stop
func (h *DetectionHandler) Stop(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	response.Success(c, h.tracker.StopDetection(c.Request.Context(), id))
}

// Tick handles POST /api/v1/devices/:deviceId/detection/tick
func (h *DetectionHandler) Tick(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	res, err := h.tracker.Tick(c.Request.Context(), id)
	if errors.Is(err, tracker.ErrNotDetecting) {
		notDetecting(c, nil)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to run detection tick", err)
		return
	}
	response.Success(c, res)
}

// Current handles GET /api/v1/devices/:deviceId/detection/current
func (h *DetectionHandler) Current(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	rec, err := h.tracker.Current(c.Request.Context(), id)
	if errors.Is(err, tracker.ErrNotDetecting) {
		notDetecting(c, nil)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get current activity", err)
		return
	}
	if rec == nil {
		response.NotFound(c, "No activity in progress")
		return
	}
	response.Success(c, rec)
}

// Status handles GET /api/v1/devices/:deviceId/detection
func (h *DetectionHandler) Status(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	st, err := h.tracker.Status(c.Request.Context(), id)
	if errors.Is(err, tracker.ErrNotDetecting) {
		notDetecting(c, nil)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get detection status", err)
		return
	}
	response.Success(c, st)
}
