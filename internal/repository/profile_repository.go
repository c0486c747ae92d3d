package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/activity-detection-go/internal/models"
)

// ProfileRepository handles database operations for device profiles
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile returns the profile of a device, or nil when none is stored
func (r *ProfileRepository) GetProfile(ctx context.Context, deviceID string) (*models.Profile, error) {
	var p models.Profile
	err := sqlx.GetContext(ctx, r.db, &p,
		r.db.Rebind("SELECT device_id, weight_kg, location_permission FROM profiles WHERE device_id = ?"), deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile inserts or replaces a device profile
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *models.Profile, updatedAt int64) error {
	query := r.db.Rebind(`INSERT INTO profiles (device_id, weight_kg, location_permission, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			location_permission = excluded.location_permission,
			updated_at = excluded.updated_at`)

	if _, err := r.db.ExecContext(ctx, query, p.DeviceID, p.WeightKg, p.LocationPermission, updatedAt); err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.DeviceID, err)
	}
	return nil
}
