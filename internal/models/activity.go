package models

import "strings"

// ActivityType is the classified kind of movement
type ActivityType string

// ActivityType constants
const (
	ActivityWalking    ActivityType = "walking"
	ActivityRunning    ActivityType = "running"
	ActivityCycling    ActivityType = "cycling"
	ActivityStationary ActivityType = "stationary"
	ActivityUnknown    ActivityType = "unknown"
)

// IsMoving reports whether the type describes an actual workout
func (t ActivityType) IsMoving() bool {
	return t == ActivityWalking || t == ActivityRunning || t == ActivityCycling
}

// Title returns the capitalized name used as workout_type ("Walking")
func (t ActivityType) Title() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseActivityType maps a string to a known type, falling back to unknown
func ParseActivityType(s string) ActivityType {
	switch ActivityType(strings.ToLower(strings.TrimSpace(s))) {
	case ActivityWalking:
		return ActivityWalking
	case ActivityRunning:
		return ActivityRunning
	case ActivityCycling:
		return ActivityCycling
	case ActivityStationary:
		return ActivityStationary
	}
	return ActivityUnknown
}

// ActivityRecord is a detected activity session. EndTime is nil while open.
type ActivityRecord struct {
	ID       string       `json:"id" db:"id"`
	DeviceID string       `json:"device_id" db:"device_id"`
	Type     ActivityType `json:"type" db:"activity_type"`

	Confidence int `json:"confidence" db:"confidence"` // 0-100

	// Temporal info (Unix epoch milliseconds)
	StartTime       int64  `json:"start_time" db:"start_time"`
	EndTime         *int64 `json:"end_time,omitempty" db:"end_time"`
	DurationSeconds int64  `json:"duration_seconds" db:"duration_seconds"`

	// Movement
	DistanceMeters float64          `json:"distance_meters" db:"distance_meters"`
	Steps          int              `json:"steps" db:"steps"`
	Calories       int              `json:"calories" db:"calories"`
	SpeedMps       float64          `json:"speed_mps" db:"speed_mps"`
	PaceMinPerKm   float64          `json:"pace_min_per_km" db:"pace_min_per_km"`
	Coordinates    []LocationSample `json:"coordinates" db:"-"`
}

// IsOpen reports whether the record has not been finalized yet
func (r *ActivityRecord) IsOpen() bool {
	return r.EndTime == nil
}

// Clone returns a deep copy safe to hand to other goroutines
func (r *ActivityRecord) Clone() *ActivityRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.EndTime != nil {
		end := *r.EndTime
		c.EndTime = &end
	}
	c.Coordinates = make([]LocationSample, len(r.Coordinates))
	copy(c.Coordinates, r.Coordinates)
	return &c
}

// ActivitiesResponse represents a paginated response of activities
type ActivitiesResponse struct {
	Data       []ActivityRecord `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}
