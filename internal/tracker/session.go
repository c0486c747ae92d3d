package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jengzang/activity-detection-go/internal/detection"
)

const subscriberBuffer = 16

// session owns one device's detector. Every detector call runs on the
// session goroutine; other goroutines submit closures through reqs.
type session struct {
	deviceID string
	det      *detection.Detector
	logger   *slog.Logger

	reqs   chan func()
	done   chan struct{}
	cancel context.CancelFunc

	// touched only on the session goroutine
	subs    map[int]chan detection.Event
	nextSub int
}

func newSession(deviceID string, det *detection.Detector, logger *slog.Logger) *session {
	return &session{
		deviceID: deviceID,
		det:      det,
		logger:   logger,
		reqs:     make(chan func()),
		done:     make(chan struct{}),
		subs:     make(map[int]chan detection.Event),
	}
}

// run is the session loop: periodic ticks plus serialized requests
func (s *session) run(ctx context.Context, interval, tickTimeout time.Duration, clock func() time.Time) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
			res := s.det.Tick(tctx, clock())
			cancel()
			s.logger.Debug("tick",
				"type", res.Classification.Type,
				"confidence", res.Classification.Confidence,
				"speed_mps", res.Movement.SpeedMps,
				"state", res.State,
			)
		case fn := <-s.reqs:
			fn()
		}
	}
}

// do runs fn on the session goroutine and waits for it to finish
func (s *session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	req := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.reqs <- req:
	case <-s.done:
		return ErrNotDetecting
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish fans an event out to subscribers without blocking the loop;
// a subscriber that falls behind misses events
func (s *session) publish(e detection.Event) {
	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			s.logger.Warn("dropping event for slow subscriber", "subscriber", id, "kind", e.Kind())
		}
	}
}

// addSubscriber refuses once the detector is stopped: a channel added after
// closeSubscribers would never be closed
func (s *session) addSubscriber() (int, chan detection.Event, error) {
	if s.det.State() == detection.StateStopped {
		return 0, nil, ErrNotDetecting
	}
	s.nextSub++
	ch := make(chan detection.Event, subscriberBuffer)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch, nil
}

func (s *session) removeSubscriber(id int) {
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *session) closeSubscribers() {
	for id := range s.subs {
		s.removeSubscriber(id)
	}
}
