package models

// Profile holds the per-device data the detector reads
type Profile struct {
	DeviceID           string   `json:"device_id" db:"device_id"`
	WeightKg           *float64 `json:"weight_kg,omitempty" db:"weight_kg"`
	LocationPermission bool     `json:"location_permission" db:"location_permission"`
}

// ProfileUpdate is the body accepted by PUT /devices/:deviceId/profile
type ProfileUpdate struct {
	WeightKg           *float64 `json:"weight_kg"`
	LocationPermission *bool    `json:"location_permission"`
}
