package detection

import "github.com/jengzang/activity-detection-go/internal/models"

// Classification is the classifier output
type Classification struct {
	Type       models.ActivityType `json:"type"`
	Confidence int                 `json:"confidence"`
}

// Speed ranges in m/s. Ranges overlap; the first matching branch wins
// (walking, then running, then cycling).
const (
	stationaryMaxSpeed = 0.1
	walkingMinSpeed    = 0.5
	walkingMaxSpeed    = 2.0
	runningMinSpeed    = 2.0
	runningMaxSpeed    = 6.0
	cyclingMinSpeed    = 2.5
	cyclingMaxSpeed    = 15.0

	baseConfidence = 60
	maxConfidence  = 100
)

// Classify maps a movement summary and the step count to an activity type
func Classify(m Movement, stepCount, minSteps int) Classification {
	speed := m.SpeedMps

	switch {
	case speed < stationaryMaxSpeed:
		return Classification{Type: models.ActivityStationary, Confidence: 95}

	case speed >= walkingMinSpeed && speed <= walkingMaxSpeed:
		c := baseConfidence
		if m.Pattern == PatternModerate || m.Pattern == PatternSmooth {
			c += 20
		}
		if m.Regularity > 0.5 {
			c += 10
		}
		if stepCount > minSteps {
			c += 10
		}
		return Classification{Type: models.ActivityWalking, Confidence: capConfidence(c)}

	case speed >= runningMinSpeed && speed <= runningMaxSpeed:
		c := baseConfidence
		if m.Pattern == PatternIrregular || m.Pattern == PatternModerate {
			c += 20
		}
		if m.Regularity > 0.3 {
			c += 10
		}
		if stepCount > 2*minSteps {
			c += 10
		}
		return Classification{Type: models.ActivityRunning, Confidence: capConfidence(c)}

	case speed >= cyclingMinSpeed && speed <= cyclingMaxSpeed:
		c := baseConfidence
		if m.Pattern == PatternSmooth {
			c += 30
		}
		if m.Regularity > 0.7 {
			c += 10
		}
		if stepCount < minSteps {
			c += 10
		}
		return Classification{Type: models.ActivityCycling, Confidence: capConfidence(c)}
	}

	return Classification{Type: models.ActivityUnknown, Confidence: 30}
}

func capConfidence(c int) int {
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}
