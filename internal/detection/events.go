package detection

import (
	"github.com/jengzang/activity-detection-go/internal/models"
)

// EventKind names a detector event
type EventKind string

// EventKind constants
const (
	KindActivityStarted EventKind = "activity_started"
	KindActivityUpdated EventKind = "activity_updated"
	KindActivityStopped EventKind = "activity_stopped"
)

// Event is one of ActivityStarted, ActivityUpdated or ActivityStopped.
// Every event carries a snapshot of the record that is safe to retain.
type Event interface {
	Kind() EventKind
	Record() *models.ActivityRecord
}

// ActivityStarted is emitted when a record opens
type ActivityStarted struct {
	Activity *models.ActivityRecord
}

// ActivityUpdated is emitted after each tick that extends the open record
type ActivityUpdated struct {
	Activity *models.ActivityRecord
}

// ActivityStopped is emitted when a record closes. SaveErr is the
// persistence failure, if any; the record is discarded either way.
type ActivityStopped struct {
	Activity *models.ActivityRecord
	Reason   StopReason
	SaveErr  error
}

func (e ActivityStarted) Kind() EventKind                { return KindActivityStarted }
func (e ActivityStarted) Record() *models.ActivityRecord { return e.Activity }
func (e ActivityUpdated) Kind() EventKind                { return KindActivityUpdated }
func (e ActivityUpdated) Record() *models.ActivityRecord { return e.Activity }
func (e ActivityStopped) Kind() EventKind                { return KindActivityStopped }
func (e ActivityStopped) Record() *models.ActivityRecord { return e.Activity }

// StopReason says why a record closed
type StopReason string

// StopReason constants
const (
	StopStationary StopReason = "stationary_timeout"
	StopSwitched   StopReason = "activity_switched"
	StopManual     StopReason = "detection_stopped"
)

// Observer receives detector events synchronously on the detector's goroutine
type Observer func(Event)

// observers is an ordered registry keyed by subscription id
type observers struct {
	next  int
	items map[int]Observer
	order []int
}

func (o *observers) add(fn Observer) int {
	if o.items == nil {
		o.items = make(map[int]Observer)
	}
	o.next++
	o.items[o.next] = fn
	o.order = append(o.order, o.next)
	return o.next
}

func (o *observers) remove(id int) {
	if _, ok := o.items[id]; !ok {
		return
	}
	delete(o.items, id)
	for i, v := range o.order {
		if v == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *observers) emit(e Event) {
	for _, id := range o.order {
		if fn, ok := o.items[id]; ok {
			fn(e)
		}
	}
}
