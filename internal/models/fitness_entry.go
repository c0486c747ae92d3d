package models

import (
	"fmt"
	"math"
)

// FitnessEntry is the fitness-tracking payload written when an activity stops
type FitnessEntry struct {
	ID              string  `json:"id" db:"id"`
	ActivityID      string  `json:"activity_id" db:"activity_id"`
	DeviceID        string  `json:"device_id" db:"device_id"`
	Steps           int     `json:"steps" db:"steps"`
	ExerciseMinutes int     `json:"exercise_minutes" db:"exercise_minutes"`
	CaloriesBurned  int     `json:"calories_burned" db:"calories_burned"`
	DistanceKm      float64 `json:"distance_km" db:"distance_km"`
	WorkoutType     string  `json:"workout_type" db:"workout_type"`
	Notes           string  `json:"notes" db:"notes"`
	CreatedAt       int64   `json:"created_at" db:"created_at"` // Unix epoch milliseconds
}

// NewFitnessEntry builds the payload for a finalized record
func NewFitnessEntry(id string, r *ActivityRecord) FitnessEntry {
	return FitnessEntry{
		ID:              id,
		ActivityID:      r.ID,
		DeviceID:        r.DeviceID,
		Steps:           r.Steps,
		ExerciseMinutes: int(math.Round(float64(r.DurationSeconds) / 60)),
		CaloriesBurned:  r.Calories,
		DistanceKm:      math.Round(r.DistanceMeters) / 1000,
		WorkoutType:     r.Type.Title(),
		Notes: fmt.Sprintf("Auto-detected %s (confidence %d%%, %d GPS points)",
			r.Type, r.Confidence, len(r.Coordinates)),
	}
}
