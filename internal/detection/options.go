package detection

import "time"

// Options holds the detector thresholds
type Options struct {
	ConfidenceThreshold int           // Confidence a classification must exceed to start or switch
	MinSteps            int           // Step count used by the walking/running/cycling bonuses
	StationaryTimeout   time.Duration // Active time before a stationary reading may close the record
	BufferWindow        time.Duration // Samples older than this (relative to the newest) are dropped
	MovementWindow      time.Duration // Samples considered by the movement classifier
	MinSamples          int           // Samples the movement classifier needs
	MaxClockSkew        time.Duration // How far ahead of the server clock a sample may be
	DefaultWeightKg     float64

	// The zero value keeps automatic start and stop on
	DisableAutoStart bool
	DisableAutoStop  bool
}

// DefaultOptions returns the stock thresholds
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 70,
		MinSteps:            20,
		StationaryTimeout:   300 * time.Second,
		BufferWindow:        60 * time.Second,
		MovementWindow:      30 * time.Second,
		MinSamples:          3,
		MaxClockSkew:        5 * time.Second,
		DefaultWeightKg:     70,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if o.MinSteps <= 0 {
		o.MinSteps = d.MinSteps
	}
	if o.StationaryTimeout <= 0 {
		o.StationaryTimeout = d.StationaryTimeout
	}
	if o.BufferWindow <= 0 {
		o.BufferWindow = d.BufferWindow
	}
	if o.MovementWindow <= 0 {
		o.MovementWindow = d.MovementWindow
	}
	if o.MinSamples < 2 {
		o.MinSamples = d.MinSamples
	}
	if o.MaxClockSkew <= 0 {
		o.MaxClockSkew = d.MaxClockSkew
	}
	if o.DefaultWeightKg <= 0 {
		o.DefaultWeightKg = d.DefaultWeightKg
	}
	return o
}
