package detection

import (
	"math"
	"testing"

	"github.com/jengzang/activity-detection-go/internal/models"
)

// alternating builds a straight track whose 1s segments alternate between two lengths
func alternating(a, b float64, n int) []models.LocationSample {
	samples := []models.LocationSample{origin(0)}
	for i := 0; i < n; i++ {
		step := a
		if i%2 == 1 {
			step = b
		}
		samples = append(samples, track(samples[len(samples)-1], 45, step, 1)...)
	}
	return samples
}

func TestAnalyzeMovementConstantSpeed(t *testing.T) {
	samples := append([]models.LocationSample{origin(0)}, track(origin(0), 0, 1.2, 30)...)

	m := AnalyzeMovement(samples, 3)

	if math.Abs(m.SpeedMps-1.2) > 1e-6 {
		t.Errorf("expected speed 1.2, got %v", m.SpeedMps)
	}
	if m.Regularity < 0.999 {
		t.Errorf("expected regularity ~1, got %v", m.Regularity)
	}
	if m.AvgAcceleration > 1e-6 {
		t.Errorf("expected ~0 acceleration, got %v", m.AvgAcceleration)
	}
	if m.Pattern != PatternSmooth {
		t.Errorf("expected smooth, got %s", m.Pattern)
	}
}

func TestAnalyzeMovementPatterns(t *testing.T) {
	tests := []struct {
		name    string
		samples []models.LocationSample
		want    Pattern
	}{
		{name: "small oscillation is moderate", samples: alternating(1.0, 1.6, 20), want: PatternModerate},
		{name: "large oscillation is irregular", samples: alternating(0.5, 5.0, 20), want: PatternIrregular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AnalyzeMovement(tt.samples, 3)
			if m.Pattern != tt.want {
				t.Errorf("expected %s, got %s (regularity=%.3f accel=%.3f)", tt.want, m.Pattern, m.Regularity, m.AvgAcceleration)
			}
		})
	}
}

func TestAnalyzeMovementIrregularValues(t *testing.T) {
	m := AnalyzeMovement(alternating(0.5, 5.0, 20), 3)

	// speeds alternate 0.5/5.0: population variance 2.25² = 5.0625
	if math.Abs(m.Regularity-1/(1+5.0625)) > 1e-6 {
		t.Errorf("unexpected regularity %v", m.Regularity)
	}
	if math.Abs(m.AvgAcceleration-4.5) > 1e-6 {
		t.Errorf("unexpected acceleration %v", m.AvgAcceleration)
	}
	if math.Abs(m.SpeedMps-2.75) > 1e-6 {
		t.Errorf("unexpected speed %v", m.SpeedMps)
	}
}

func TestAnalyzeMovementTooFewSamples(t *testing.T) {
	samples := append([]models.LocationSample{origin(0)}, track(origin(0), 0, 1.2, 1)...)

	m := AnalyzeMovement(samples, 3)

	if m.SpeedMps != 0 || m.Pattern != PatternUnknown {
		t.Errorf("expected zero-speed unknown movement, got %+v", m)
	}
}

func TestAnalyzeMovementSkipsDuplicateTimestamps(t *testing.T) {
	samples := append([]models.LocationSample{origin(0)}, track(origin(0), 0, 1.2, 10)...)
	dup := samples[5]
	samples = append(samples[:6], append([]models.LocationSample{dup}, samples[6:]...)...)

	m := AnalyzeMovement(samples, 3)

	want := pathLength(samples) / 10
	if math.Abs(m.SpeedMps-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, m.SpeedMps)
	}
}

func TestClassifyPattern(t *testing.T) {
	tests := []struct {
		regularity, accel float64
		want              Pattern
	}{
		{0.9, 0.1, PatternSmooth},
		{0.9, 0.7, PatternModerate},
		{0.6, 0.9, PatternModerate},
		{0.2, 1.5, PatternIrregular},
		{0.4, 0.8, PatternUnknown},
		{0.4, 1.0, PatternUnknown},
	}
	for _, tt := range tests {
		if got := classifyPattern(tt.regularity, tt.accel); got != tt.want {
			t.Errorf("classifyPattern(%v, %v) = %s, want %s", tt.regularity, tt.accel, got, tt.want)
		}
	}
}
