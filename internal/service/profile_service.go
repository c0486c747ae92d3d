package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/repository"
)

var (
	// ErrWeightUnknown is returned when a device has no stored body weight
	ErrWeightUnknown = errors.New("body weight unknown")
	// ErrInvalidProfile is returned for out-of-range profile updates
	ErrInvalidProfile = errors.New("invalid profile")
)

// WeightCache is a read-through cache for body weights
type WeightCache interface {
	GetWeight(ctx context.Context, deviceID string) (float64, bool, error)
	SetWeight(ctx context.Context, deviceID string, kg float64) error
	Invalidate(ctx context.Context, deviceID string) error
}

// ProfileService handles device profiles: body weight and location permission
type ProfileService struct {
	repo   *repository.ProfileRepository
	cache  WeightCache
	logger *slog.Logger
	now    func() time.Time
}

// NewProfileService creates a new profile service. cache may be nil.
func NewProfileService(repo *repository.ProfileRepository, cache WeightCache, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		repo:   repo,
		cache:  cache,
		logger: logger.With("component", "profile_service"),
		now:    time.Now,
	}
}

// GetProfile returns the stored profile, or a default one granting
// location permission when nothing is stored
func (s *ProfileService) GetProfile(ctx context.Context, deviceID string) (*models.Profile, error) {
	p, err := s.repo.GetProfile(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &models.Profile{DeviceID: deviceID, LocationPermission: true}, nil
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of upd
func (s *ProfileService) UpdateProfile(ctx context.Context, deviceID string, upd models.ProfileUpdate) (*models.Profile, error) {
	if upd.WeightKg != nil && (*upd.WeightKg <= 0 || *upd.WeightKg > 500) {
		return nil, fmt.Errorf("%w: weight_kg must be in (0, 500], got %v", ErrInvalidProfile, *upd.WeightKg)
	}

	p, err := s.GetProfile(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if upd.WeightKg != nil {
		w := *upd.WeightKg
		p.WeightKg = &w
	}
	if upd.LocationPermission != nil {
		p.LocationPermission = *upd.LocationPermission
	}

	if err := s.repo.UpsertProfile(ctx, p, s.now().UnixMilli()); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, deviceID); err != nil {
			s.logger.Warn("failed to invalidate weight cache", "device_id", deviceID, "error", err)
		}
	}
	return p, nil
}

// BodyWeightKg returns the device owner's weight, reading through the cache
func (s *ProfileService) BodyWeightKg(ctx context.Context, deviceID string) (float64, error) {
	if s.cache != nil {
		w, ok, err := s.cache.GetWeight(ctx, deviceID)
		if err != nil {
			s.logger.Warn("weight cache read failed", "device_id", deviceID, "error", err)
		} else if ok {
			return w, nil
		}
	}

	p, err := s.repo.GetProfile(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if p == nil || p.WeightKg == nil {
		return 0, ErrWeightUnknown
	}

	if s.cache != nil {
		if err := s.cache.SetWeight(ctx, deviceID, *p.WeightKg); err != nil {
			s.logger.Warn("weight cache write failed", "device_id", deviceID, "error", err)
		}
	}
	return *p.WeightKg, nil
}

// LocationPermission reports whether the device granted location access
func (s *ProfileService) LocationPermission(ctx context.Context, deviceID string) (bool, error) {
	p, err := s.GetProfile(ctx, deviceID)
	if err != nil {
		return false, err
	}
	return p.LocationPermission, nil
}
