package models

// ActivityFilter represents filter parameters for querying activities
type ActivityFilter struct {
	DeviceID      string  `form:"deviceId"`
	Type          string  `form:"type"`          // walking, running, cycling
	StartTime     int64   `form:"startTime"`     // Unix epoch milliseconds
	EndTime       int64   `form:"endTime"`       // Unix epoch milliseconds
	MinDistance   float64 `form:"minDistance"`   // Meters
	MinConfidence int     `form:"minConfidence"` // 0-100
	Page          int     `form:"page"`
	PageSize      int     `form:"pageSize"`
}

// FitnessEntryFilter represents filter parameters for querying fitness entries
type FitnessEntryFilter struct {
	DeviceID    string `form:"-"`
	WorkoutType string `form:"workoutType"`
	Limit       int    `form:"limit"`
}
