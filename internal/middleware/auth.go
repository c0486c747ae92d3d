package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/auth"
	"github.com/jengzang/activity-detection-go/pkg/response"
)

// DeviceIDKey is the gin context key holding the authenticated device
const DeviceIDKey = "device_id"

// DeviceAuth requires a bearer token whose device claim matches :deviceId
func DeviceAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header required", nil)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		deviceID, err := auth.ValidateToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		if pathID := c.Param("deviceId"); pathID != "" && pathID != deviceID {
			response.Error(c, http.StatusForbidden, "Token not valid for this device", nil)
			return
		}

		c.Set(DeviceIDKey, deviceID)
		c.Next()
	}
}
