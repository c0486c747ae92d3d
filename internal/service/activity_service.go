package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jengzang/activity-detection-go/internal/database"
	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/repository"
)

// ErrOpenActivity is returned when saving a record that has not been closed
var ErrOpenActivity = errors.New("activity is still open")

// ActivityService persists finished activities and their fitness entries
type ActivityService struct {
	db         *sqlx.DB
	activities *repository.ActivityRepository
	entries    *repository.FitnessEntryRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewActivityService creates a new activity service
func NewActivityService(db *sqlx.DB, activities *repository.ActivityRepository, entries *repository.FitnessEntryRepository, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityService{
		db:         db,
		activities: activities,
		entries:    entries,
		logger:     logger.With("component", "activity_service"),
		now:        time.Now,
	}
}

// SaveActivity writes a closed record and its fitness entry atomically
func (s *ActivityService) SaveActivity(ctx context.Context, rec *models.ActivityRecord) error {
	if rec == nil {
		return fmt.Errorf("nil activity")
	}
	if rec.IsOpen() {
		return fmt.Errorf("save activity %s: %w", rec.ID, ErrOpenActivity)
	}

	createdAt := s.now().UnixMilli()
	entry := models.NewFitnessEntry(uuid.NewString(), rec)
	entry.CreatedAt = createdAt

	err := database.Transaction(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.activities.Create(ctx, tx, rec, createdAt); err != nil {
			return err
		}
		return s.entries.Create(ctx, tx, &entry)
	})
	if err != nil {
		return err
	}

	s.logger.Info("activity saved",
		"activity_id", rec.ID,
		"device_id", rec.DeviceID,
		"workout_type", entry.WorkoutType,
		"calories", entry.CaloriesBurned,
		"distance_km", entry.DistanceKm,
	)
	return nil
}

// GetActivities retrieves activities with filtering and pagination
func (s *ActivityService) GetActivities(ctx context.Context, filter models.ActivityFilter) (*models.ActivitiesResponse, error) {
	filter.Page, filter.PageSize = repository.Paginate(filter.Page, filter.PageSize)

	activities, total, err := s.activities.GetActivities(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return &models.ActivitiesResponse{
		Data:       activities,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetActivityByID retrieves a single activity
func (s *ActivityService) GetActivityByID(ctx context.Context, id string) (*models.ActivityRecord, error) {
	return s.activities.GetActivityByID(ctx, id)
}

// GetFitnessEntries lists a device's fitness entries, newest first
func (s *ActivityService) GetFitnessEntries(ctx context.Context, filter models.FitnessEntryFilter) ([]models.FitnessEntry, error) {
	return s.entries.GetByDevice(ctx, filter)
}
