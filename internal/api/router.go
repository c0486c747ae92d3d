package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/handler"
	"github.com/jengzang/activity-detection-go/internal/metrics"
	"github.com/jengzang/activity-detection-go/internal/middleware"
	"github.com/jengzang/activity-detection-go/internal/service"
	"github.com/jengzang/activity-detection-go/internal/tracker"
)

// Pinger checks a backing store
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the components the HTTP surface is built on
type Deps struct {
	Logger      *slog.Logger
	Metrics     *metrics.Collector
	Tracker     *tracker.Manager
	Activities  *service.ActivityService
	Profiles    *service.ProfileService
	RateLimiter *middleware.RateLimiter
	DB          Pinger
	JWTSecret   string        // device auth is enabled when set
	Heartbeat   time.Duration // SSE keep-alive interval
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":          status,
			"message":         "Activity detection API is running",
			"active_sessions": d.Tracker.Count(),
		})
	})

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	detectionHandler := handler.NewDetectionHandler(d.Tracker)
	sampleHandler := handler.NewSampleHandler(d.Tracker)
	eventHandler := handler.NewEventHandler(d.Tracker, d.Heartbeat)
	profileHandler := handler.NewProfileHandler(d.Profiles)
	activityHandler := handler.NewActivityHandler(d.Activities)

	// API 路由组. Auth runs before the limiter so unauthenticated requests
	// cannot spend a device's budget.
	var guard []gin.HandlerFunc
	if d.JWTSecret != "" {
		guard = append(guard, middleware.DeviceAuth(d.JWTSecret))
	}
	if d.RateLimiter != nil {
		guard = append(guard, middleware.RateLimit(d.RateLimiter))
	}

	api := r.Group("/api/v1")
	{
		// 设备接口
		devices := api.Group("/devices/:deviceId", guard...)
		{
			devices.POST("/detection/start", detectionHandler.Start)
			devices.POST("/detection/stop", detectionHandler.Stop)
			devices.POST("/detection/tick", detectionHandler.Tick)
			devices.GET("/detection", detectionHandler.Status)
			devices.GET("/detection/current", detectionHandler.Current)
			devices.POST("/samples", sampleHandler.Ingest)
			devices.GET("/events", eventHandler.Stream)
			devices.GET("/profile", profileHandler.Get)
			devices.PUT("/profile", profileHandler.Update)
			devices.GET("/fitness-entries", activityHandler.GetFitnessEntries)
		}

		// 活动记录接口, scoped to the token's device when auth is on
		activities := api.Group("/activities", guard...)
		{
			activities.GET("", activityHandler.GetActivities)
			activities.GET("/:id", activityHandler.GetActivityByID)
			activities.GET("/:id/geojson", activityHandler.GetGeoJSON)
			activities.GET("/:id/fit", activityHandler.GetFIT)
		}
	}

	return r
}
