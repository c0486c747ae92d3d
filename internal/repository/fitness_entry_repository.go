package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/activity-detection-go/internal/models"
)

// FitnessEntryRepository handles database operations for fitness entries
type FitnessEntryRepository struct {
	db *sqlx.DB
}

// NewFitnessEntryRepository creates a new fitness entry repository
func NewFitnessEntryRepository(db *sqlx.DB) *FitnessEntryRepository {
	return &FitnessEntryRepository{db: db}
}

// Create inserts a fitness entry. ext may be the DB or a transaction.
func (r *FitnessEntryRepository) Create(ctx context.Context, ext sqlx.ExtContext, entry *models.FitnessEntry) error {
	query, args, err := sqlx.Named(`INSERT INTO fitness_entries (
			id, activity_id, device_id, steps, exercise_minutes,
			calories_burned, distance_km, workout_type, notes, created_at
		) VALUES (
			:id, :activity_id, :device_id, :steps, :exercise_minutes,
			:calories_burned, :distance_km, :workout_type, :notes, :created_at
		)`, entry)
	if err != nil {
		return fmt.Errorf("failed to bind fitness entry: %w", err)
	}

	if _, err := ext.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert fitness entry for activity %s: %w", entry.ActivityID, err)
	}
	return nil
}

// GetByDevice returns a device's most recent fitness entries
func (r *FitnessEntryRepository) GetByDevice(ctx context.Context, filter models.FitnessEntryFilter) ([]models.FitnessEntry, error) {
	limit := filter.Limit
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	query := `SELECT id, activity_id, device_id, steps, exercise_minutes,
		calories_burned, distance_km, workout_type, notes, created_at
		FROM fitness_entries WHERE device_id = ?`
	args := []interface{}{filter.DeviceID}

	if filter.WorkoutType != "" {
		query += " AND workout_type = ?"
		args = append(args, models.ParseActivityType(filter.WorkoutType).Title())
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	entries := []models.FitnessEntry{}
	if err := sqlx.SelectContext(ctx, r.db, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query fitness entries: %w", err)
	}
	return entries, nil
}
