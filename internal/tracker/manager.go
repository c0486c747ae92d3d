package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jengzang/activity-detection-go/internal/detection"
	"github.com/jengzang/activity-detection-go/internal/models"
)

// PermissionSource reports whether a device granted location access
type PermissionSource interface {
	LocationPermission(ctx context.Context, deviceID string) (bool, error)
}

// Metrics receives session and event counts
type Metrics interface {
	SampleIngested(accepted bool)
	ActivityEvent(kind, activityType string)
	SessionStarted()
	SessionStopped()
	SaveFailed()
}

// Config wires the manager to its collaborators
type Config struct {
	Options         detection.Options
	TickInterval    time.Duration
	TickTimeout     time.Duration // bounds saves triggered by a periodic tick
	LocationRequest models.LocationRequest

	Recorder    detection.Recorder
	Weights     detection.WeightSource
	Sessions    detection.SessionRecorder
	Permissions PermissionSource
	Metrics     Metrics
	Logger      *slog.Logger

	Clock func() time.Time
	NewID func() string
}

// Manager runs one detection session per device
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a manager with no running sessions
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 10 * time.Second
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 10 * time.Second
	}
	if cfg.LocationRequest == (models.LocationRequest{}) {
		cfg.LocationRequest = models.LocationRequest{
			Accuracy:             "high",
			IntervalMs:           3000,
			DistanceFilterMeters: 1,
		}
	}
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "tracker"),
		sessions: make(map[string]*session),
	}
}

// StartDetection checks location permission and starts a session
func (m *Manager) StartDetection(ctx context.Context, deviceID string) StartResult {
	logger := m.logger.With("device_id", deviceID)

	if m.cfg.Permissions != nil {
		granted, err := m.cfg.Permissions.LocationPermission(ctx, deviceID)
		if err != nil {
			logger.Warn("location permission lookup failed", "error", err)
			return StartResult{Reason: ReasonPermissionError}
		}
		if !granted {
			logger.Info("location permission denied")
			return StartResult{Reason: ReasonPermissionDenied}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[deviceID]; ok {
		return StartResult{Reason: ReasonAlreadyDetecting}
	}

	det := detection.New(detection.Config{
		DeviceID: deviceID,
		Options:  m.cfg.Options,
		Recorder: m.cfg.Recorder,
		Weights:  m.cfg.Weights,
		Sessions: m.cfg.Sessions,
		Logger:   m.cfg.Logger,
		NewID:    m.cfg.NewID,
	})
	s := newSession(deviceID, det, logger)
	det.Subscribe(func(e detection.Event) {
		m.observe(e)
		s.publish(e)
	})

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(loopCtx, m.cfg.TickInterval, m.cfg.TickTimeout, m.cfg.Clock)

	m.sessions[deviceID] = s
	m.cfg.Metrics.SessionStarted()
	logger.Info("detection started")

	loc := m.cfg.LocationRequest
	return StartResult{Started: true, Location: &loc}
}

// StopDetection closes and saves any open record and ends the session
func (m *Manager) StopDetection(ctx context.Context, deviceID string) StopResult {
	m.mu.Lock()
	s, ok := m.sessions[deviceID]
	if ok {
		delete(m.sessions, deviceID)
	}
	m.mu.Unlock()

	if !ok {
		return StopResult{Reason: ReasonNotDetecting}
	}

	res := StopResult{Stopped: true}
	stopped := false
	stop := func(ctx context.Context) {
		res.Record, res.SaveErr = s.det.Stop(ctx, m.cfg.Clock())
		s.closeSubscribers()
		stopped = true
	}
	if err := s.do(ctx, func() { stop(ctx) }); err != nil {
		m.logger.Warn("stop request interrupted", "device_id", deviceID, "error", err)
	}
	s.cancel()
	<-s.done

	// The loop has exited, so the detector can be stopped from here
	if !stopped {
		stop(context.WithoutCancel(ctx))
	}
	m.cfg.Metrics.SessionStopped()

	if res.SaveErr != nil {
		res.SaveError = res.SaveErr.Error()
	}

	m.logger.Info("detection stopped", "device_id", deviceID, "closed_activity", res.Record != nil)
	return res
}

// Ingest feeds location samples to a device's detector. Samples too far
// from the server clock are counted as dropped.
func (m *Manager) Ingest(ctx context.Context, deviceID string, samples ...models.LocationSample) (IngestResult, error) {
	s, err := m.session(deviceID)
	if err != nil {
		return IngestResult{}, err
	}

	var res IngestResult
	err = s.do(ctx, func() {
		now := m.cfg.Clock()
		for _, sample := range samples {
			accepted := s.det.IngestAt(sample, now)
			if accepted {
				res.Accepted++
			} else {
				res.Dropped++
			}
			m.cfg.Metrics.SampleIngested(accepted)
		}
	})
	return res, err
}

// Tick forces a classification tick outside the periodic schedule
func (m *Manager) Tick(ctx context.Context, deviceID string) (detection.TickResult, error) {
	s, err := m.session(deviceID)
	if err != nil {
		return detection.TickResult{}, err
	}

	var res detection.TickResult
	err = s.do(ctx, func() {
		res = s.det.Tick(ctx, m.cfg.Clock())
	})
	return res, err
}

// Current returns a snapshot of the open record, or nil when idle
func (m *Manager) Current(ctx context.Context, deviceID string) (*models.ActivityRecord, error) {
	st, err := m.Status(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return st.Record, nil
}

// Status returns the detector snapshot for a device
func (m *Manager) Status(ctx context.Context, deviceID string) (detection.Status, error) {
	s, err := m.session(deviceID)
	if err != nil {
		return detection.Status{}, err
	}

	var st detection.Status
	err = s.do(ctx, func() {
		st = s.det.Status()
	})
	return st, err
}

// Subscribe streams a device's activity events. The channel is closed when
// the session stops or cancel is called.
func (m *Manager) Subscribe(ctx context.Context, deviceID string) (<-chan detection.Event, func(), error) {
	s, err := m.session(deviceID)
	if err != nil {
		return nil, nil, err
	}

	var (
		id int
		ch chan detection.Event
	)
	var subErr error
	if err := s.do(ctx, func() { id, ch, subErr = s.addSubscriber() }); err != nil {
		return nil, nil, err
	}
	if subErr != nil {
		return nil, nil, subErr
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// ErrNotDetecting here means Stop already closed the channel
			_ = s.do(context.Background(), func() { s.removeSubscriber(id) })
		})
	}
	return ch, cancel, nil
}

// Count returns the number of running sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops every session, saving any open records
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			m.StopDetection(ctx, id)
		}(id)
	}
	wg.Wait()
}

func (m *Manager) session(deviceID string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[deviceID]
	if !ok {
		return nil, ErrNotDetecting
	}
	return s, nil
}

func (m *Manager) observe(e detection.Event) {
	rec := e.Record()
	m.cfg.Metrics.ActivityEvent(string(e.Kind()), string(rec.Type))
	if stopped, ok := e.(detection.ActivityStopped); ok && stopped.SaveErr != nil {
		m.cfg.Metrics.SaveFailed()
	}
}

type noopMetrics struct{}

func (noopMetrics) SampleIngested(bool)          {}
func (noopMetrics) ActivityEvent(string, string) {}
func (noopMetrics) SessionStarted()              {}
func (noopMetrics) SessionStopped()              {}
func (noopMetrics) SaveFailed()                  {}
