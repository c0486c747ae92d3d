package detection

import (
	"testing"

	"github.com/jengzang/activity-detection-go/internal/models"
)

func TestClassify(t *testing.T) {
	const minSteps = 20

	tests := []struct {
		name     string
		movement Movement
		steps    int
		wantType models.ActivityType
		wantConf int
	}{
		{
			name:     "not moving",
			movement: Movement{SpeedMps: 0.05, Pattern: PatternUnknown},
			wantType: models.ActivityStationary,
			wantConf: 95,
		},
		{
			name:     "smooth walk with steps",
			movement: Movement{SpeedMps: 1.2, Regularity: 0.99, Pattern: PatternSmooth},
			steps:    25,
			wantType: models.ActivityWalking,
			wantConf: 100,
		},
		{
			name:     "walk without steps",
			movement: Movement{SpeedMps: 1.2, Regularity: 0.99, Pattern: PatternSmooth},
			steps:    minSteps,
			wantType: models.ActivityWalking,
			wantConf: 90,
		},
		{
			name:     "irregular walk",
			movement: Movement{SpeedMps: 1.0, Regularity: 0.2, Pattern: PatternIrregular},
			wantType: models.ActivityWalking,
			wantConf: 60,
		},
		{
			name:     "boundary 2.0 goes to walking first",
			movement: Movement{SpeedMps: 2.0, Regularity: 0.9, Pattern: PatternModerate},
			wantType: models.ActivityWalking,
			wantConf: 90,
		},
		{
			name:     "moderate run with cadence",
			movement: Movement{SpeedMps: 3.0, Regularity: 0.6, Pattern: PatternModerate},
			steps:    41,
			wantType: models.ActivityRunning,
			wantConf: 100,
		},
		{
			name:     "overlap 2.5-6.0 goes to running before cycling",
			movement: Movement{SpeedMps: 5.5, Regularity: 0.95, Pattern: PatternSmooth},
			wantType: models.ActivityRunning,
			wantConf: 70,
		},
		{
			name:     "smooth ride",
			movement: Movement{SpeedMps: 7.0, Regularity: 0.95, Pattern: PatternSmooth},
			wantType: models.ActivityCycling,
			wantConf: 100,
		},
		{
			name:     "ride with steps loses bonus",
			movement: Movement{SpeedMps: 7.0, Regularity: 0.6, Pattern: PatternSmooth},
			steps:    30,
			wantType: models.ActivityCycling,
			wantConf: 90,
		},
		{
			name:     "gap between stationary and walking",
			movement: Movement{SpeedMps: 0.3},
			wantType: models.ActivityUnknown,
			wantConf: 30,
		},
		{
			name:     "faster than cycling",
			movement: Movement{SpeedMps: 20},
			wantType: models.ActivityUnknown,
			wantConf: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.movement, tt.steps, minSteps)
			if got.Type != tt.wantType || got.Confidence != tt.wantConf {
				t.Errorf("Classify = %s/%d, want %s/%d", got.Type, got.Confidence, tt.wantType, tt.wantConf)
			}
		})
	}
}

func TestClassifyNeverExceedsCap(t *testing.T) {
	for _, speed := range []float64{0, 0.7, 1.5, 2.2, 4, 6, 9, 14} {
		for _, p := range []Pattern{PatternSmooth, PatternModerate, PatternIrregular, PatternUnknown} {
			c := Classify(Movement{SpeedMps: speed, Regularity: 1, Pattern: p}, 100, 20)
			if c.Confidence < 0 || c.Confidence > 100 {
				t.Errorf("speed %v pattern %s: confidence %d out of range", speed, p, c.Confidence)
			}
		}
	}
}
