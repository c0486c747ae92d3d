package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"github.com/jengzang/activity-detection-go/internal/models"
	"github.com/jengzang/activity-detection-go/internal/spatial"
)

// Degrees to semicircles (FIT position unit)
const degreesToSemicircles = 2147483648.0 / 180.0

func sportFor(t models.ActivityType) typedef.Sport {
	switch t {
	case models.ActivityWalking:
		return typedef.SportWalking
	case models.ActivityRunning:
		return typedef.SportRunning
	case models.ActivityCycling:
		return typedef.SportCycling
	default:
		return typedef.SportGeneric
	}
}

func semicircles(deg float64) int32 {
	return int32(math.Round(deg * degreesToSemicircles))
}

// WriteActivityFIT encodes a closed activity as a FIT activity file
func WriteActivityFIT(w io.Writer, rec *models.ActivityRecord) error {
	if rec.EndTime == nil {
		return fmt.Errorf("activity %s is still open", rec.ID)
	}

	start := time.UnixMilli(rec.StartTime).UTC()
	end := time.UnixMilli(*rec.EndTime).UTC()
	elapsedMs := uint32(end.Sub(start).Milliseconds())
	totalDist := uint32(math.Round(rec.DistanceMeters * 100)) // cm
	avgSpeed := uint32(math.Round(rec.SpeedMps * 1000))       // mm/s

	fit := proto.FIT{}

	fileID := mesgdef.FileId{
		Type:         typedef.FileActivity,
		Manufacturer: typedef.ManufacturerDevelopment,
		Product:      0,
		TimeCreated:  start,
	}
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	startEvent := mesgdef.Event{
		Timestamp: start,
		Event:     typedef.EventTimer,
		EventType: typedef.EventTypeStart,
	}
	fit.Messages = append(fit.Messages, startEvent.ToMesg(nil))

	// Cumulative distance per fix
	var dist float64
	for i, c := range rec.Coordinates {
		if i > 0 {
			dist += spatial.SampleDistance(rec.Coordinates[i-1], c)
		}
		record := mesgdef.Record{
			Timestamp:    time.UnixMilli(c.Timestamp).UTC(),
			PositionLat:  semicircles(c.Latitude),
			PositionLong: semicircles(c.Longitude),
			Distance:     uint32(math.Round(dist * 100)),
		}
		fit.Messages = append(fit.Messages, record.ToMesg(nil))
	}

	stopEvent := mesgdef.Event{
		Timestamp: end,
		Event:     typedef.EventTimer,
		EventType: typedef.EventTypeStopAll,
	}
	fit.Messages = append(fit.Messages, stopEvent.ToMesg(nil))

	lap := mesgdef.Lap{
		Timestamp:        end,
		StartTime:        start,
		TotalElapsedTime: elapsedMs,
		TotalTimerTime:   elapsedMs,
		TotalDistance:    totalDist,
		TotalCalories:    uint16(rec.Calories),
		Event:            typedef.EventLap,
		EventType:        typedef.EventTypeStop,
	}
	fit.Messages = append(fit.Messages, lap.ToMesg(nil))

	session := mesgdef.Session{
		Timestamp:        end,
		StartTime:        start,
		TotalElapsedTime: elapsedMs,
		TotalTimerTime:   elapsedMs,
		TotalDistance:    totalDist,
		TotalCalories:    uint16(rec.Calories),
		EnhancedAvgSpeed: avgSpeed,
		Sport:            sportFor(rec.Type),
		SubSport:         typedef.SubSportGeneric,
		Event:            typedef.EventSession,
		EventType:        typedef.EventTypeStop,
		Trigger:          typedef.SessionTriggerActivityEnd,
	}
	fit.Messages = append(fit.Messages, session.ToMesg(nil))

	activity := mesgdef.Activity{
		Timestamp:      end,
		TotalTimerTime: elapsedMs,
		NumSessions:    1,
		Type:           typedef.ActivityManual,
		Event:          typedef.EventActivity,
		EventType:      typedef.EventTypeStop,
	}
	fit.Messages = append(fit.Messages, activity.ToMesg(nil))

	if err := encoder.New(w).Encode(&fit); err != nil {
		return fmt.Errorf("failed to encode FIT for activity %s: %w", rec.ID, err)
	}
	return nil
}
