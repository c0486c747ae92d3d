package detection

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/spatial"
)

// Recorder persists finalized activity records
type Recorder interface {
	SaveActivity(ctx context.Context, record *models.ActivityRecord) error
}

// WeightSource returns the body weight of a device's owner
type WeightSource interface {
	BodyWeightKg(ctx context.Context, deviceID string) (float64, error)
}

// SessionRecorder is an external fitness-session recording that runs
// alongside each open record
type SessionRecorder interface {
	StartSession(ctx context.Context, record *models.ActivityRecord) error
	StopSession(ctx context.Context, record *models.ActivityRecord) error
}

// State of the detector's session state machine
type State string

// State constants
const (
	StateIdle    State = "idle"
	StateActive  State = "active"
	StateStopped State = "stopped"
)

// Config wires a detector to its collaborators. Recorder is required;
// the others are optional.
type Config struct {
	DeviceID string
	Options  Options
	Recorder Recorder
	Weights  WeightSource
	Sessions SessionRecorder
	Logger   *slog.Logger
	NewID    func() string
}

// TickResult is what a single classification tick saw and did
type TickResult struct {
	Movement       Movement               `json:"movement"`
	Classification Classification         `json:"classification"`
	State          State                  `json:"state"`
	Record         *models.ActivityRecord `json:"record,omitempty"`
}

// Status is a point-in-time view of the detector
type Status struct {
	DeviceID        string                 `json:"device_id"`
	State           State                  `json:"state"`
	Steps           int                    `json:"steps"`
	BufferedSamples int                    `json:"buffered_samples"`
	Last            *Classification        `json:"last_classification,omitempty"`
	Record          *models.ActivityRecord `json:"record,omitempty"`
}

// Detector classifies a device's location samples into activity records.
//
// Ingest only buffers samples and counts steps; Tick is the only place
// state transitions happen. A Detector is not safe for concurrent use:
// callers serialize access, normally on one session goroutine.
type Detector struct {
	cfg    Config
	opts   Options
	logger *slog.Logger

	buffer []models.LocationSample
	steps  StepEstimator

	current     *models.ActivityRecord
	stepBase    int
	lastCoordTS int64
	weightKg    float64

	last      *Classification
	observers observers
	stopped   bool
}

// New creates a detector in the idle state
func New(cfg Config) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Detector{
		cfg:    cfg,
		opts:   cfg.Options.withDefaults(),
		logger: logger.With("component", "detector", "device_id", cfg.DeviceID),
	}
}

// Subscribe registers an observer and returns its cancel function
func (d *Detector) Subscribe(fn Observer) func() {
	id := d.observers.add(fn)
	return func() { d.observers.remove(id) }
}

// State returns the current state
func (d *Detector) State() State {
	switch {
	case d.stopped:
		return StateStopped
	case d.current != nil:
		return StateActive
	default:
		return StateIdle
	}
}

// Status returns a snapshot of the detector
func (d *Detector) Status() Status {
	st := Status{
		DeviceID:        d.cfg.DeviceID,
		State:           d.State(),
		Steps:           d.steps.Count(),
		BufferedSamples: len(d.buffer),
		Record:          d.current.Clone(),
	}
	if d.last != nil {
		last := *d.last
		st.Last = &last
	}
	return st
}

// Ingest appends a sample to the rolling buffer. Samples that are not newer
// than the last buffered sample are ignored, as is everything after Stop.
func (d *Detector) Ingest(s models.LocationSample) bool {
	if d.stopped {
		return false
	}
	if n := len(d.buffer); n > 0 && s.Timestamp <= d.buffer[n-1].Timestamp {
		return false
	}

	d.buffer = append(d.buffer, s)
	d.steps.Observe(s)

	// Trim synchronously to the buffer window, relative to the newest sample
	cutoff := s.Timestamp - d.opts.BufferWindow.Milliseconds()
	drop := 0
	for drop < len(d.buffer) && d.buffer[drop].Timestamp < cutoff {
		drop++
	}
	if drop > 0 {
		d.buffer = append(d.buffer[:0], d.buffer[drop:]...)
	}
	return true
}

// IngestAt is Ingest bounded by the server clock: samples older than the
// buffer window, or further ahead of now than MaxClockSkew, are dropped so a
// bad device timestamp cannot stall the buffer.
func (d *Detector) IngestAt(s models.LocationSample, now time.Time) bool {
	nowMs := now.UnixMilli()
	if s.Timestamp < nowMs-d.opts.BufferWindow.Milliseconds() ||
		s.Timestamp > nowMs+d.opts.MaxClockSkew.Milliseconds() {
		return false
	}
	return d.Ingest(s)
}

// Tick classifies the recent samples and advances the state machine
func (d *Detector) Tick(ctx context.Context, now time.Time) TickResult {
	if d.stopped {
		return TickResult{State: StateStopped}
	}

	nowMs := now.UnixMilli()
	movement := AnalyzeMovement(d.window(nowMs), d.opts.MinSamples)
	cls := Classify(movement, d.steps.Count(), d.opts.MinSteps)
	d.last = &cls

	switch {
	case d.current == nil:
		if !d.opts.DisableAutoStart && cls.Type.IsMoving() && cls.Confidence > d.opts.ConfidenceThreshold {
			d.open(ctx, cls, nowMs)
		}

	case cls.Type == d.current.Type:
		d.extend(nowMs)
		d.current.Confidence = cls.Confidence
		d.recompute(nowMs)
		d.observers.emit(ActivityUpdated{Activity: d.current.Clone()})

	case cls.Type == models.ActivityStationary:
		elapsed := nowMs - d.current.StartTime
		if !d.opts.DisableAutoStop && elapsed > d.opts.StationaryTimeout.Milliseconds() {
			d.close(ctx, nowMs, StopStationary)
		}

	case cls.Type.IsMoving() && cls.Confidence > d.opts.ConfidenceThreshold:
		d.close(ctx, nowMs, StopSwitched)
		d.open(ctx, cls, nowMs)
	}

	return TickResult{
		Movement:       movement,
		Classification: cls,
		State:          d.State(),
		Record:         d.current.Clone(),
	}
}

// Stop closes and saves any open record, clears the buffer and step
// counter, and makes the detector inert. It returns the closed record
// (nil when idle) and the save error, if any.
func (d *Detector) Stop(ctx context.Context, now time.Time) (*models.ActivityRecord, error) {
	if d.stopped {
		return nil, nil
	}

	var (
		record  *models.ActivityRecord
		saveErr error
	)
	if d.current != nil {
		record, saveErr = d.close(ctx, now.UnixMilli(), StopManual)
	}

	d.buffer = nil
	d.steps.Reset()
	d.last = nil
	d.stopped = true
	return record, saveErr
}

// window returns the buffered samples inside the movement window
func (d *Detector) window(nowMs int64) []models.LocationSample {
	cutoff := nowMs - d.opts.MovementWindow.Milliseconds()
	for i, s := range d.buffer {
		if s.Timestamp >= cutoff {
			return d.buffer[i:]
		}
	}
	return nil
}

func (d *Detector) open(ctx context.Context, cls Classification, nowMs int64) {
	rec := &models.ActivityRecord{
		ID:         d.cfg.NewID(),
		DeviceID:   d.cfg.DeviceID,
		Type:       cls.Type,
		Confidence: cls.Confidence,
		StartTime:  nowMs,
	}

	// The record starts at the newest known position
	if n := len(d.buffer); n > 0 {
		rec.Coordinates = append(rec.Coordinates, d.buffer[n-1])
		d.lastCoordTS = d.buffer[n-1].Timestamp
	} else {
		d.lastCoordTS = nowMs
	}

	d.current = rec
	d.stepBase = d.steps.Count()
	d.weightKg = d.lookupWeight(ctx)

	if d.cfg.Sessions != nil {
		if err := d.cfg.Sessions.StartSession(ctx, rec.Clone()); err != nil {
			d.logger.Warn("failed to start fitness session", "activity_id", rec.ID, "error", err)
		}
	}

	d.logger.Info("activity started", "activity_id", rec.ID, "type", rec.Type, "confidence", rec.Confidence)
	d.observers.emit(ActivityStarted{Activity: rec.Clone()})
}

// extend appends samples newer than the last recorded coordinate and adds
// their segment lengths to the running distance
func (d *Detector) extend(nowMs int64) {
	rec := d.current
	for _, s := range d.buffer {
		if s.Timestamp <= d.lastCoordTS || s.Timestamp > nowMs {
			continue
		}
		if n := len(rec.Coordinates); n > 0 {
			rec.DistanceMeters += spatial.SampleDistance(rec.Coordinates[n-1], s)
		}
		rec.Coordinates = append(rec.Coordinates, s)
		d.lastCoordTS = s.Timestamp
	}
	rec.Steps = d.steps.Count() - d.stepBase
}

// recompute derives duration, speed, pace and calories from the totals
func (d *Detector) recompute(nowMs int64) {
	rec := d.current
	elapsed := time.Duration(nowMs-rec.StartTime) * time.Millisecond
	if elapsed < 0 {
		elapsed = 0
	}
	rec.DurationSeconds = int64(elapsed / time.Second)

	rec.SpeedMps = 0
	rec.PaceMinPerKm = 0
	if secs := elapsed.Seconds(); secs > 0 {
		rec.SpeedMps = rec.DistanceMeters / secs
		if rec.DistanceMeters > 0 {
			rec.PaceMinPerKm = (secs / 60) / (rec.DistanceMeters / 1000)
		}
	}

	rec.Calories = EstimateCalories(CalorieInput{
		Type:           rec.Type,
		SpeedMps:       rec.SpeedMps,
		DistanceMeters: rec.DistanceMeters,
		Duration:       elapsed,
		WeightKg:       d.weightKg,
	})
}

func (d *Detector) close(ctx context.Context, nowMs int64, reason StopReason) (*models.ActivityRecord, error) {
	// Samples since the last update belong to the next activity on a switch
	if reason != StopSwitched {
		d.extend(nowMs)
	}
	d.recompute(nowMs)
	end := nowMs
	d.current.EndTime = &end

	record := d.current.Clone()
	d.current = nil

	if d.cfg.Sessions != nil {
		if err := d.cfg.Sessions.StopSession(ctx, record.Clone()); err != nil {
			d.logger.Warn("failed to stop fitness session", "activity_id", record.ID, "error", err)
		}
	}

	var saveErr error
	if d.cfg.Recorder != nil {
		saveErr = d.cfg.Recorder.SaveActivity(ctx, record.Clone())
		if saveErr != nil {
			d.logger.Warn("failed to save activity, discarding", "activity_id", record.ID, "error", saveErr)
		}
	}

	d.logger.Info("activity stopped",
		"activity_id", record.ID,
		"type", record.Type,
		"reason", reason,
		"duration_s", record.DurationSeconds,
		"distance_m", math.Round(record.DistanceMeters),
	)
	d.observers.emit(ActivityStopped{Activity: record.Clone(), Reason: reason, SaveErr: saveErr})
	return record, saveErr
}

func (d *Detector) lookupWeight(ctx context.Context) float64 {
	if d.cfg.Weights == nil {
		return d.opts.DefaultWeightKg
	}
	w, err := d.cfg.Weights.BodyWeightKg(ctx, d.cfg.DeviceID)
	if err != nil || w <= 0 {
		d.logger.Debug("using default body weight", "error", err)
		return d.opts.DefaultWeightKg
	}
	return w
}
