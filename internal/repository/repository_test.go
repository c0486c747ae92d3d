package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/jengzang/activity-detection-go/internal/database"
	"github.com/jengzang/activity-detection-go/internal/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "repo.db")})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.NewMigrationManager(db, nil).RunMigrations(); err != nil {
		t.Fatalf("RunMigrations returned error: %v", err)
	}
	return db
}

func closedRecord(id, device string, typ models.ActivityType, start int64, meters float64) *models.ActivityRecord {
	end := start + 600_000
	return &models.ActivityRecord{
		ID:              id,
		DeviceID:        device,
		Type:            typ,
		Confidence:      90,
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: 600,
		DistanceMeters:  meters,
		Steps:           640,
		Calories:        35,
		SpeedMps:        meters / 600,
		Coordinates: []models.LocationSample{
			{Latitude: 31.2304, Longitude: 121.4737, Timestamp: start, Accuracy: 5},
			{Latitude: 31.2310, Longitude: 121.4737, Timestamp: start + 60_000, Accuracy: 4},
		},
	}
}

func TestActivityRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	rec := closedRecord("a-1", "phone-1", models.ActivityWalking, 1_700_000_000_000, 720)
	if err := repo.Create(ctx, db, rec, 1_700_000_700_000); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := repo.GetActivityByID(ctx, "a-1")
	if err != nil {
		t.Fatalf("GetActivityByID returned error: %v", err)
	}
	if got.Type != models.ActivityWalking || got.DeviceID != "phone-1" || got.Steps != 640 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.EndTime == nil || *got.EndTime != *rec.EndTime {
		t.Errorf("end time = %v, want %d", got.EndTime, *rec.EndTime)
	}
	if len(got.Coordinates) != 2 || got.Coordinates[1].Latitude != 31.2310 || got.Coordinates[0].Accuracy != 5 {
		t.Errorf("coordinates not restored: %+v", got.Coordinates)
	}
}

func TestGetActivityByIDNotFound(t *testing.T) {
	repo := NewActivityRepository(newTestDB(t))
	if _, err := repo.GetActivityByID(context.Background(), "missing"); !errors.Is(err, ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestGetActivitiesFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	base := int64(1_700_000_000_000)
	seed := []*models.ActivityRecord{
		closedRecord("w-1", "phone-1", models.ActivityWalking, base, 500),
		closedRecord("r-1", "phone-1", models.ActivityRunning, base+3_600_000, 2500),
		closedRecord("c-1", "phone-1", models.ActivityCycling, base+7_200_000, 8000),
		closedRecord("w-2", "phone-2", models.ActivityWalking, base+1, 900),
	}
	for _, rec := range seed {
		if err := repo.Create(ctx, db, rec, base); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		filter  models.ActivityFilter
		wantIDs []string
		total   int64
	}{
		{"device newest first", models.ActivityFilter{DeviceID: "phone-1"}, []string{"c-1", "r-1", "w-1"}, 3},
		{"type", models.ActivityFilter{Type: "walking"}, []string{"w-2", "w-1"}, 2},
		{"min distance", models.ActivityFilter{MinDistance: 1000}, []string{"c-1", "r-1"}, 2},
		{"time range", models.ActivityFilter{DeviceID: "phone-1", StartTime: base + 1, EndTime: base + 3_600_000 + 600_000}, []string{"r-1"}, 1},
		{"second page", models.ActivityFilter{DeviceID: "phone-1", Page: 2, PageSize: 2}, []string{"w-1"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.GetActivities(ctx, tt.filter)
			if err != nil {
				t.Fatalf("GetActivities returned error: %v", err)
			}
			if total != tt.total {
				t.Errorf("total = %d, want %d", total, tt.total)
			}
			var ids []string
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
					break
				}
			}
		})
	}
}

func TestFitnessEntries(t *testing.T) {
	db := newTestDB(t)
	activities := NewActivityRepository(db)
	entries := NewFitnessEntryRepository(db)
	ctx := context.Background()

	for i, typ := range []models.ActivityType{models.ActivityWalking, models.ActivityCycling} {
		rec := closedRecord(string(typ), "phone-1", typ, int64(i)*1_000_000, 1000)
		if err := activities.Create(ctx, db, rec, rec.StartTime); err != nil {
			t.Fatal(err)
		}
		entry := models.NewFitnessEntry("fe-"+string(typ), rec)
		entry.CreatedAt = *rec.EndTime
		if err := entries.Create(ctx, db, &entry); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	all, err := entries.GetByDevice(ctx, models.FitnessEntryFilter{DeviceID: "phone-1"})
	if err != nil {
		t.Fatalf("GetByDevice returned error: %v", err)
	}
	if len(all) != 2 || all[0].WorkoutType != "Cycling" {
		t.Fatalf("unexpected entries: %+v", all)
	}
	if all[1].ExerciseMinutes != 10 || all[1].DistanceKm != 1 || all[1].Steps != 640 {
		t.Errorf("unexpected payload: %+v", all[1])
	}

	walks, err := entries.GetByDevice(ctx, models.FitnessEntryFilter{DeviceID: "phone-1", WorkoutType: "walking"})
	if err != nil {
		t.Fatal(err)
	}
	if len(walks) != 1 || walks[0].ActivityID != "walking" {
		t.Errorf("unexpected filtered entries: %+v", walks)
	}

	none, err := entries.GetByDevice(ctx, models.FitnessEntryFilter{DeviceID: "phone-9"})
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestProfileUpsert(t *testing.T) {
	repo := NewProfileRepository(newTestDB(t))
	ctx := context.Background()

	p, err := repo.GetProfile(ctx, "phone-1")
	if err != nil || p != nil {
		t.Fatalf("expected no profile, got %+v, %v", p, err)
	}

	weight := 82.5
	if err := repo.UpsertProfile(ctx, &models.Profile{DeviceID: "phone-1", WeightKg: &weight, LocationPermission: true}, 1); err != nil {
		t.Fatalf("UpsertProfile returned error: %v", err)
	}
	if err := repo.UpsertProfile(ctx, &models.Profile{DeviceID: "phone-1", WeightKg: &weight, LocationPermission: false}, 2); err != nil {
		t.Fatalf("second UpsertProfile returned error: %v", err)
	}

	p, err = repo.GetProfile(ctx, "phone-1")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.WeightKg == nil || *p.WeightKg != 82.5 || p.LocationPermission {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct{ page, size, wantPage, wantSize int }{
		{0, 0, 1, 100},
		{3, 20, 3, 20},
		{-1, 5000, 1, 1000},
	}
	for _, tt := range tests {
		if p, s := Paginate(tt.page, tt.size); p != tt.wantPage || s != tt.wantSize {
			t.Errorf("Paginate(%d, %d) = %d, %d", tt.page, tt.size, p, s)
		}
	}
}
