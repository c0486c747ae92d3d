package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/detection"
	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/tracker"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

// EventHandler streams activity events over server-sent events
type EventHandler struct {
	tracker   *tracker.Manager
	heartbeat time.Duration
}

// NewEventHandler creates a new event handler
func NewEventHandler(t *tracker.Manager, heartbeat time.Duration) *EventHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventHandler{tracker: t, heartbeat: heartbeat}
}

type eventPayload struct {
	Kind      detection.EventKind    `json:"kind"`
	Activity  *models.ActivityRecord `json:"activity"`
	Reason    detection.StopReason   `json:"reason,omitempty"`
	SaveError string                 `json:"save_error,omitempty"`
}

func toPayload(e detection.Event) eventPayload {
	p := eventPayload{Kind: e.Kind(), Activity: e.Record()}
	if stopped, ok := e.(detection.ActivityStopped); ok {
		p.Reason = stopped.Reason
		if stopped.SaveErr != nil {
			p.SaveError = stopped.SaveErr.Error()
		}
	}
	return p
}

// Stream handles GET /api/v1/devices/:deviceId/events
func (h *EventHandler) Stream(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	events, cancel, err := h.tracker.Subscribe(ctx, id)
	if errors.Is(err, tracker.ErrNotDetecting) {
		notDetecting(c, nil)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to subscribe to events", err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// Flush headers so clients see the stream open before the first event
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-events:
			if !ok {
				c.SSEvent("end", gin.H{"reason": "detection_stopped"})
				return false
			}
			c.SSEvent(string(e.Kind()), toPayload(e))
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UnixMilli())
			return true
		}
	})
}
