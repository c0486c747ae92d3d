package detection

import (
	"math"
	"time"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/spatial"
)

// metStep is one row of a MET table: speeds below Below map to MET
type metStep struct {
	Below float64
	MET   float64
}

// Walking and running thresholds are in mph, cycling in km/h.
var (
	walkingMETs = []metStep{
		{2.0, 2.0},
		{2.5, 2.5},
		{3.5, 3.0},
		{4.0, 3.5},
		{4.5, 4.0},
		{math.Inf(1), 5.0},
	}
	runningMETs = []metStep{
		{4.5, 6.0},
		{5.5, 8.3},
		{6.5, 9.8},
		{7.5, 11.0},
		{9.0, 11.8},
		{math.Inf(1), 14.0},
	}
	cyclingMETs = []metStep{
		{10, 4.0},
		{16, 6.8},
		{19, 8.0},
		{22, 10.0},
		{math.Inf(1), 16.0},
	}
)

const restingMET = 1.0

func lookupMET(table []metStep, speed float64) float64 {
	for _, row := range table {
		if speed < row.Below {
			return row.MET
		}
	}
	return table[len(table)-1].MET
}

// MET returns the metabolic equivalent for an activity at a speed in m/s
func MET(t models.ActivityType, speedMps float64) float64 {
	switch t {
	case models.ActivityWalking:
		return lookupMET(walkingMETs, spatial.MpsToMph(speedMps))
	case models.ActivityRunning:
		return lookupMET(runningMETs, spatial.MpsToMph(speedMps))
	case models.ActivityCycling:
		return lookupMET(cyclingMETs, spatial.MpsToKmh(speedMps))
	default:
		return restingMET
	}
}

// CalorieInput describes a stretch of activity to estimate calories for.
// SpeedMps may be zero, in which case it is derived from distance and duration.
type CalorieInput struct {
	Type           models.ActivityType
	SpeedMps       float64
	DistanceMeters float64
	Duration       time.Duration
	WeightKg       float64
}

// EstimateCalories returns round(MET × weightKg × hours)
func EstimateCalories(in CalorieInput) int {
	if in.Duration <= 0 || in.WeightKg <= 0 {
		return 0
	}
	speed := in.SpeedMps
	if speed <= 0 && in.DistanceMeters > 0 {
		speed = in.DistanceMeters / in.Duration.Seconds()
	}
	return int(math.Round(MET(in.Type, speed) * in.WeightKg * in.Duration.Hours()))
}
