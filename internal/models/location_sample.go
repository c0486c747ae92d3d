package models

// LocationSample is one GPS fix pushed by a device
type LocationSample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // Unix epoch in milliseconds
	Accuracy  float64 `json:"accuracy"`  // Meters
}

// LocationRequest describes how a device should subscribe to position updates
type LocationRequest struct {
	Accuracy             string  `json:"accuracy"` // high, balanced, low
	IntervalMs           int64   `json:"interval_ms"`
	DistanceFilterMeters float64 `json:"distance_filter_meters"`
}
