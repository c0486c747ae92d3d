package detection

import (
	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/spatial"
)

// Step heuristic bounds. Displacement and elapsed time are exclusive ranges.
const (
	stepMinDisplacement = 0.5  // meters
	stepMaxDisplacement = 2.0  // meters
	stepMinInterval     = 500  // ms
	stepMaxInterval     = 2000 // ms
	stepDebounce        = 300  // ms since the last counted step
)

// StepEstimator counts steps from consecutive location samples.
// It is a displacement/timing heuristic, not a pedometer.
type StepEstimator struct {
	count    int
	prev     *models.LocationSample
	lastStep int64
	hasStep  bool
}

// Observe feeds the next sample and reports whether it counted a step
func (e *StepEstimator) Observe(s models.LocationSample) bool {
	prev := e.prev
	e.prev = &s
	if prev == nil {
		return false
	}

	elapsed := s.Timestamp - prev.Timestamp
	if elapsed <= stepMinInterval || elapsed >= stepMaxInterval {
		return false
	}

	d := spatial.SampleDistance(*prev, s)
	if d <= stepMinDisplacement || d >= stepMaxDisplacement {
		return false
	}

	if e.hasStep && s.Timestamp-e.lastStep < stepDebounce {
		return false
	}

	e.count++
	e.lastStep = s.Timestamp
	e.hasStep = true
	return true
}

// Count returns the steps counted since the last reset
func (e *StepEstimator) Count() int {
	return e.count
}

// Reset clears the counter and the previous sample
func (e *StepEstimator) Reset() {
	*e = StepEstimator{}
}
