package detection

import (
	"context"
	"errors"
	"time"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/spatial"
)

var (
	baseTime = time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)
	startLat = 31.2304
	startLon = 121.4737
)

func msAt(d time.Duration) int64 {
	return baseTime.Add(d).UnixMilli()
}

func at(d time.Duration) time.Time {
	return baseTime.Add(d)
}

// track generates samples 1s apart, each step metersPerSample along bearing,
// continuing from the given sample
func track(from models.LocationSample, bearing, metersPerSample float64, n int) []models.LocationSample {
	out := make([]models.LocationSample, 0, n)
	prev := from
	for i := 0; i < n; i++ {
		lat, lon := spatial.DestinationPoint(prev.Latitude, prev.Longitude, bearing, metersPerSample)
		s := models.LocationSample{
			Latitude:  lat,
			Longitude: lon,
			Timestamp: prev.Timestamp + 1000,
			Accuracy:  5,
		}
		out = append(out, s)
		prev = s
	}
	return out
}

// origin is the sample preceding a track starting at offset
func origin(offset time.Duration) models.LocationSample {
	return models.LocationSample{
		Latitude:  startLat,
		Longitude: startLon,
		Timestamp: msAt(offset) - 1000,
		Accuracy:  5,
	}
}

// still generates n samples 1s apart at the position of from
func still(from models.LocationSample, n int) []models.LocationSample {
	out := make([]models.LocationSample, 0, n)
	for i := 1; i <= n; i++ {
		s := from
		s.Timestamp = from.Timestamp + int64(i)*1000
		out = append(out, s)
	}
	return out
}

type fakeRecorder struct {
	saved []*models.ActivityRecord
	err   error
}

func (f *fakeRecorder) SaveActivity(_ context.Context, r *models.ActivityRecord) error {
	f.saved = append(f.saved, r)
	return f.err
}

type fixedWeight struct {
	kg  float64
	err error
}

func (f fixedWeight) BodyWeightKg(context.Context, string) (float64, error) {
	return f.kg, f.err
}

type fakeSessions struct {
	started []string
	stopped []string
}

func (f *fakeSessions) StartSession(_ context.Context, r *models.ActivityRecord) error {
	f.started = append(f.started, r.ID)
	return nil
}

func (f *fakeSessions) StopSession(_ context.Context, r *models.ActivityRecord) error {
	f.stopped = append(f.stopped, r.ID)
	return errors.New("session store unavailable")
}

type eventLog struct {
	events []Event
}

func (l *eventLog) observe(e Event) {
	l.events = append(l.events, e)
}

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, e := range l.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "act-" + string(rune('0'+n))
	}
}

// pathLength sums the segment lengths of a sample sequence
func pathLength(samples []models.LocationSample) float64 {
	var total float64
	for i := 1; i < len(samples); i++ {
		total += spatial.SampleDistance(samples[i-1], samples[i])
	}
	return total
}

func ingestAll(d *Detector, samples []models.LocationSample) {
	for _, s := range samples {
		d.Ingest(s)
	}
}
