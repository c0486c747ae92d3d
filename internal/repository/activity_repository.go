package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/activity-detection-go/internal/models"
)

// ErrActivityNotFound is returned when no activity matches the ID
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = `id, device_id, activity_type, confidence,
	start_time, end_time, duration_seconds,
	distance_meters, steps, calories, speed_mps, pace_min_per_km,
	coordinates_json`

// activityRow is an activity as stored, with its route serialized
type activityRow struct {
	models.ActivityRecord
	CoordinatesJSON string `db:"coordinates_json"`
}

func (r activityRow) record() (models.ActivityRecord, error) {
	rec := r.ActivityRecord
	if r.CoordinatesJSON != "" {
		if err := json.Unmarshal([]byte(r.CoordinatesJSON), &rec.Coordinates); err != nil {
			return rec, fmt.Errorf("failed to decode coordinates of activity %s: %w", rec.ID, err)
		}
	}
	if rec.Coordinates == nil {
		rec.Coordinates = []models.LocationSample{}
	}
	return rec, nil
}

// ActivityRepository handles database operations for activities
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a finalized activity. ext may be the DB or a transaction.
func (r *ActivityRepository) Create(ctx context.Context, ext sqlx.ExtContext, rec *models.ActivityRecord, createdAt int64) error {
	coords := rec.Coordinates
	if coords == nil {
		coords = []models.LocationSample{}
	}
	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("failed to encode coordinates: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO activities (` + activityColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = ext.ExecContext(ctx, query,
		rec.ID, rec.DeviceID, string(rec.Type), rec.Confidence,
		rec.StartTime, rec.EndTime, rec.DurationSeconds,
		rec.DistanceMeters, rec.Steps, rec.Calories, rec.SpeedMps, rec.PaceMinPerKm,
		string(coordsJSON), createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity %s: %w", rec.ID, err)
	}
	return nil
}

// GetActivities retrieves activities with filtering and pagination
func (r *ActivityRepository) GetActivities(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityRecord, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.Type != "" {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, string(models.ParseActivityType(filter.Type)))
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.MinDistance > 0 {
		conditions = append(conditions, "distance_meters >= ?")
		args = append(args, filter.MinDistance)
	}
	if filter.MinConfidence > 0 {
		conditions = append(conditions, "confidence >= ?")
		args = append(args, filter.MinConfidence)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, r.db.Rebind("SELECT COUNT(*) FROM activities"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	page, pageSize := Paginate(filter.Page, filter.PageSize)
	query := r.db.Rebind("SELECT " + activityColumns + " FROM activities" + where +
		" ORDER BY start_time DESC LIMIT ? OFFSET ?")
	args = append(args, pageSize, (page-1)*pageSize)

	var rows []activityRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to query activities: %w", err)
	}

	activities := make([]models.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, 0, err
		}
		activities = append(activities, rec)
	}

	return activities, total, nil
}

// GetActivityByID retrieves a single activity with its route
func (r *ActivityRepository) GetActivityByID(ctx context.Context, id string) (*models.ActivityRecord, error) {
	var row activityRow
	err := sqlx.GetContext(ctx, r.db, &row, r.db.Rebind("SELECT "+activityColumns+" FROM activities WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	rec, err := row.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Paginate normalizes page and page size: page >= 1, size in [1, 1000], default 100
func Paginate(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	return page, pageSize
}
