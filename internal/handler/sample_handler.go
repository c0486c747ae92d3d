package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/tracker"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

const maxSamplesPerRequest = 1000

// SampleHandler accepts location samples pushed by devices
type SampleHandler struct {
	tracker *tracker.Manager
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(t *tracker.Manager) *SampleHandler {
	return &SampleHandler{tracker: t}
}

// Ingest handles POST /api/v1/devices/:deviceId/samples with either one
// sample object or an array of samples
func (h *SampleHandler) Ingest(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	samples, err := decodeSamples(c)
	if err != nil {
		response.BadRequest(c, "Invalid location samples", err)
		return
	}

	res, err := h.tracker.Ingest(c.Request.Context(), id, samples...)
	if errors.Is(err, tracker.ErrNotDetecting) {
		notDetecting(c, nil)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to ingest samples", err)
		return
	}
	response.Success(c, res)
}

func decodeSamples(c *gin.Context) ([]models.LocationSample, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	var samples []models.LocationSample
	if body[0] == '[' {
		if err := json.Unmarshal(body, &samples); err != nil {
			return nil, err
		}
	} else {
		var s models.LocationSample
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		samples = []models.LocationSample{s}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples")
	}
	if len(samples) > maxSamplesPerRequest {
		return nil, fmt.Errorf("at most %d samples per request", maxSamplesPerRequest)
	}
	for i, s := range samples {
		if err := validateSample(s); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return samples, nil
}
