package tracker

import (
	"errors"
	"fmt"

	"github.com/jengzang/activity-detection-go/internal/models"
)

var (
	// ErrNotDetecting is returned for a device without a running session
	ErrNotDetecting = errors.New("detection is not running for this device")
	// ErrAlreadyDetecting is the cause behind a refused duplicate start
	ErrAlreadyDetecting = errors.New("detection is already running for this device")
)

// StartReason explains a refused start
type StartReason string

// StartReason constants
const (
	ReasonPermissionDenied StartReason = "permission_denied"
	ReasonPermissionError  StartReason = "permission_error"
	ReasonAlreadyDetecting StartReason = "already_detecting"
)

// StartResult is the outcome of StartDetection. On success Location tells
// the device how to subscribe to position updates.
type StartResult struct {
	Started  bool                    `json:"started"`
	Reason   StartReason             `json:"reason,omitempty"`
	Location *models.LocationRequest `json:"location_request,omitempty"`
}

// Err is nil for a started session, ErrAlreadyDetecting for a duplicate
// start and a descriptive error otherwise
func (r StartResult) Err() error {
	switch {
	case r.Started:
		return nil
	case r.Reason == ReasonAlreadyDetecting:
		return ErrAlreadyDetecting
	default:
		return fmt.Errorf("detection not started: %s", r.Reason)
	}
}

// StopReason explains a refused stop
type StopReason string

// ReasonNotDetecting is returned when stopping a device that is not running
const ReasonNotDetecting StopReason = "not_detecting"

// StopResult is the outcome of StopDetection. Record is the activity that
// was open, if any; SaveErr is its persistence failure.
type StopResult struct {
	Stopped   bool                   `json:"stopped"`
	Reason    StopReason             `json:"reason,omitempty"`
	Record    *models.ActivityRecord `json:"record,omitempty"`
	SaveErr   error                  `json:"-"`
	SaveError string                 `json:"save_error,omitempty"`
}

// IngestResult counts the samples a batch contributed
type IngestResult struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}
