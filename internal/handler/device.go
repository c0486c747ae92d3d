package handler

import (
	"fmt"
	"math"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/middleware"
	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// deviceID reads and validates the :deviceId path parameter
func deviceID(c *gin.Context) (string, bool) {
	id := c.Param("deviceId")
	if !deviceIDPattern.MatchString(id) {
		response.BadRequest(c, "Invalid device ID", nil)
		return "", false
	}
	return id, true
}

func validateSample(s models.LocationSample) error {
	switch {
	case math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90:
		return fmt.Errorf("latitude %v out of range", s.Latitude)
	case math.IsNaN(s.Longitude) || s.Longitude < -180 || s.Longitude > 180:
		return fmt.Errorf("longitude %v out of range", s.Longitude)
	case s.Timestamp <= 0:
		return fmt.Errorf("timestamp must be positive epoch milliseconds")
	case s.Accuracy < 0:
		return fmt.Errorf("accuracy must not be negative")
	}
	return nil
}

// validateType accepts an empty filter or a known activity type
func validateType(s string) error {
	if s == "" || models.ParseActivityType(s) != models.ActivityUnknown {
		return nil
	}
	return fmt.Errorf("unknown activity type %q", s)
}

// tokenDevice returns the device authenticated by DeviceAuth, if any
func tokenDevice(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.DeviceIDKey)
	return id, id != ""
}

func notDetecting(c *gin.Context, err error) {
	response.Error(c, http.StatusConflict, "Detection is not running for this device", err)
}
