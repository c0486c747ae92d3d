package detection

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/spatial"
)

// Pattern is a qualitative description of how steady the movement is
type Pattern string

// Pattern constants
const (
	PatternSmooth    Pattern = "smooth"
	PatternModerate  Pattern = "moderate"
	PatternIrregular Pattern = "irregular"
	PatternUnknown   Pattern = "unknown"
)

// Movement summarizes a window of samples
type Movement struct {
	SpeedMps        float64 // total distance / total elapsed time
	Regularity      float64 // 1 / (1 + variance of pairwise speeds)
	AvgAcceleration float64 // mean |Δspeed / Δt|, m/s²
	Pattern         Pattern
	Samples         int
}

// AnalyzeMovement computes speed and pattern over samples (oldest first).
// Fewer than minSamples usable samples yields a zero-speed, unknown movement.
func AnalyzeMovement(samples []models.LocationSample, minSamples int) Movement {
	m := Movement{Pattern: PatternUnknown, Samples: len(samples)}
	if len(samples) < minSamples {
		return m
	}

	var totalDist, totalTime float64
	speeds := make([]float64, 0, len(samples)-1)
	intervals := make([]float64, 0, len(samples)-1)

	for i := 1; i < len(samples); i++ {
		dt := float64(samples[i].Timestamp-samples[i-1].Timestamp) / 1000
		if dt <= 0 {
			continue
		}
		d := spatial.SampleDistance(samples[i-1], samples[i])
		totalDist += d
		totalTime += dt
		speeds = append(speeds, d/dt)
		intervals = append(intervals, dt)
	}

	if totalTime <= 0 || len(speeds) == 0 {
		return m
	}
	m.SpeedMps = totalDist / totalTime

	variance, err := stats.PopulationVariance(speeds)
	if err != nil {
		variance = 0
	}
	m.Regularity = 1 / (1 + variance)

	accels := make([]float64, 0, len(speeds))
	for i := 1; i < len(speeds); i++ {
		accels = append(accels, math.Abs(speeds[i]-speeds[i-1])/intervals[i])
	}
	if len(accels) > 0 {
		if mean, err := stats.Mean(accels); err == nil {
			m.AvgAcceleration = mean
		}
	}

	m.Pattern = classifyPattern(m.Regularity, m.AvgAcceleration)
	return m
}

func classifyPattern(regularity, avgAccel float64) Pattern {
	switch {
	case regularity > 0.7 && avgAccel < 0.5:
		return PatternSmooth
	case regularity > 0.5 && avgAccel < 1.0:
		return PatternModerate
	case avgAccel > 1.0:
		return PatternIrregular
	default:
		return PatternUnknown
	}
}
