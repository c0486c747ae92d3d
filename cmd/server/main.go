package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-detection-go/internal/api"
	"github.com/jengzang/activity-detection-go/internal/cache"
	"github.com/jengzang/activity-detection-go/internal/config"
	"github.com/jengzang/activity-detection-go/internal/database"
	"github.com/jengzang/activity-detection-go/internal/detection"
	"github.com/jengzang/activity-detection-go/internal/export"
	"github.com/jengzang/activity-detection-go/internal/logging"
	"github.com/jengzang/activity-detection-go/internal/metrics"
	"github.com/jengzang/activity-detection-go/internal/middleware"
	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/repository"
	"github.com/jengzang/activity-detection-go/internal/service"
	"github.com/jengzang/activity-detection-go/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "activity server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected", "driver", cfg.Database.Driver)

	if err := database.NewMigrationManager(db, logger).RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var weightCache service.WeightCache
	if cfg.Redis.Addr != "" {
		wc, err := cache.NewWeightCache(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return err
		}
		defer wc.Close()
		weightCache = wc
		logger.Info("weight cache enabled", "addr", cfg.Redis.Addr)
	}

	// 初始化服务层
	activities := service.NewActivityService(db,
		repository.NewActivityRepository(db),
		repository.NewFitnessEntryRepository(db),
		logger)
	profiles := service.NewProfileService(repository.NewProfileRepository(db), weightCache, logger)

	var sessions detection.SessionRecorder
	if cfg.Export.Enabled {
		rec, err := export.NewFITSessionRecorder(cfg.Export.Dir, logger)
		if err != nil {
			return err
		}
		sessions = rec
		logger.Info("fit session export enabled", "dir", cfg.Export.Dir)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		return err
	}

	d := cfg.Detection
	mgr := tracker.NewManager(tracker.Config{
		Options: detection.Options{
			ConfidenceThreshold: d.ConfidenceThreshold,
			MinSteps:            d.MinSteps,
			StationaryTimeout:   d.StationaryTimeout,
			BufferWindow:        d.BufferWindow,
			MovementWindow:      d.MovementWindow,
			MinSamples:          detection.DefaultOptions().MinSamples,
			MaxClockSkew:        d.MaxClockSkew,
			DefaultWeightKg:     d.DefaultWeightKg,
			DisableAutoStart:    !d.AutoStart,
			DisableAutoStop:     !d.AutoStop,
		},
		TickInterval: d.TickInterval,
		TickTimeout:  d.SaveTimeout,
		LocationRequest: models.LocationRequest{
			Accuracy:             "high",
			IntervalMs:           d.LocationInterval.Milliseconds(),
			DistanceFilterMeters: d.DistanceFilterMeters,
		},
		Recorder:    activities,
		Weights:     profiles,
		Sessions:    sessions,
		Permissions: profiles,
		Metrics:     collector,
		Logger:      logger,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	// 设置路由
	router := api.SetupRouter(api.Deps{
		Logger:      logger,
		Metrics:     collector,
		Tracker:     mgr,
		Activities:  activities,
		Profiles:    profiles,
		RateLimiter: limiter,
		DB:          db,
		JWTSecret:   cfg.Auth.JWTSecret,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "device_auth", cfg.Auth.JWTSecret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			mgr.Shutdown(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	// 优雅关闭
	logger.Info("shutting down", "active_sessions", mgr.Count())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Open records are saved before the store goes away
	mgr.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
