package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/activity-detection-go/internal/models"
)

// ActivityFeature converts an activity route to a GeoJSON feature. Routes
// with one fix become a Point; empty routes have a null geometry.
func ActivityFeature(rec *models.ActivityRecord) *geojson.Feature {
	line := make(orb.LineString, 0, len(rec.Coordinates))
	times := make([]int64, 0, len(rec.Coordinates))
	for _, c := range rec.Coordinates {
		line = append(line, orb.Point{c.Longitude, c.Latitude})
		times = append(times, c.Timestamp)
	}

	var f *geojson.Feature
	switch len(line) {
	case 0:
		f = geojson.NewFeature(nil)
	case 1:
		f = geojson.NewFeature(line[0])
	default:
		f = geojson.NewFeature(line)
		f.BBox = geojson.NewBBox(line.Bound())
	}

	f.ID = rec.ID
	f.Properties["device_id"] = rec.DeviceID
	f.Properties["activity_type"] = string(rec.Type)
	f.Properties["confidence"] = rec.Confidence
	f.Properties["start_time"] = rec.StartTime
	if rec.EndTime != nil {
		f.Properties["end_time"] = *rec.EndTime
	}
	f.Properties["duration_seconds"] = rec.DurationSeconds
	f.Properties["distance_meters"] = rec.DistanceMeters
	f.Properties["steps"] = rec.Steps
	f.Properties["calories"] = rec.Calories
	f.Properties["speed_mps"] = rec.SpeedMps
	f.Properties["pace_min_per_km"] = rec.PaceMinPerKm
	f.Properties["coordinate_times"] = times
	return f
}

// ActivityCollection bundles several activities into one collection
func ActivityCollection(recs []models.ActivityRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range recs {
		fc.Append(ActivityFeature(&recs[i]))
	}
	return fc
}
