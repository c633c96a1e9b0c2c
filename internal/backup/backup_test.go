package backup

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

func sampleSnapshot() *storage.Snapshot {
	t0 := time.Date(2026, 10, 12, 17, 30, 0, 0, time.UTC)
	ended := t0.Add(75 * time.Minute)
	day := 4
	finished := uuid.MustParse("6f1c3f0e-3a55-4a1d-9f59-0b6d1f0d6a11")
	active := uuid.MustParse("0b8f2f6a-6c1e-4f27-8d6b-95b3a3b0c2d4")

	return &storage.Snapshot{
		ExportedAt: t0.Add(24 * time.Hour),
		Programs: []models.Program{{
			ID: 1, Name: "Upper/Lower",
			Plans: []models.Plan{{ID: 2, ProgramID: 1, Name: "Block 1", Position: 1,
				Days: []models.Day{{ID: day, PlanID: 2, Name: "Upper A", Position: 1,
					Exercises: []models.DayExercise{{ID: 5, DayID: day, Position: 1,
						Exercise: models.Exercise{ID: 3, Name: "Bench Press", Equipment: "Barbell"},
						Prescription: models.Prescription{ID: 10, DayExerciseID: 5, ExerciseID: 3,
							ExerciseName: "Bench Press", Scheme: models.SchemeTopSetBackoffTriple,
							SetsMin: 3, SetsMax: 4, RepsMin: 6, RepsMax: 10, CurrentPhaseReps: 8},
					}},
				}},
			}},
		}},
		Sessions: []models.Session{
			{ID: finished, DayID: &day, Name: "Upper A", StartedAt: t0, EndedAt: &ended, Notes: "felt strong",
				Sets: []models.SetLog{
					{ID: 1, SessionID: finished, PrescriptionID: 10, SetNumber: 1, Role: models.RoleTop,
						Weight: 100, Reps: 8, Quality: models.QualityClean, LoggedAt: t0.Add(10 * time.Minute)},
					{ID: 2, SessionID: finished, PrescriptionID: 10, SetNumber: 2, Role: models.RoleBackoff,
						Weight: 90, ExternalLoad: 0, Reps: 9, Quality: models.QualityOK,
						Modifiers: []string{models.ModifierCluster, "paused"}, LoggedAt: t0.Add(15 * time.Minute)},
				}},
			{ID: active, Name: "Freestyle", StartedAt: t0.Add(48 * time.Hour)},
		},
		Baselines: []models.Baseline{
			{PrescriptionID: 10, PhaseReps: 8, SetNumber: 1, Weight: 100, Reps: 8, EstablishedAt: ended},
		},
	}
}

// TestRoundTrip verifies a snapshot read back from the file equals the one written.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "backups", "liftlog.db")
	want := sampleSnapshot()

	if err := Write(ctx, path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(ctx, path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !got.ExportedAt.Equal(want.ExportedAt) {
		t.Errorf("ExportedAt = %v, want %v", got.ExportedAt, want.ExportedAt)
	}
	if !reflect.DeepEqual(got.Programs, want.Programs) {
		t.Errorf("Programs = %+v, want %+v", got.Programs, want.Programs)
	}
	if !reflect.DeepEqual(got.Baselines, want.Baselines) {
		t.Errorf("Baselines = %+v, want %+v", got.Baselines, want.Baselines)
	}
	if len(got.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(got.Sessions))
	}
	for i := range want.Sessions {
		if !reflect.DeepEqual(got.Sessions[i], want.Sessions[i]) {
			t.Errorf("session %d = %+v, want %+v", i, got.Sessions[i], want.Sessions[i])
		}
	}
	if got.Sessions[1].EndedAt != nil || got.Sessions[1].DayID != nil {
		t.Error("active freestyle session should have no end time or day")
	}
}

// TestWriteRefusesExistingFile verifies a backup never overwrites another.
func TestWriteRefusesExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "liftlog.db")
	if err := Write(ctx, path, &storage.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if err := Write(ctx, path, sampleSnapshot()); !errors.Is(err, ErrExists) {
		t.Errorf("err = %v, want ErrExists", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(context.Background(), filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestEmptySnapshot verifies an empty database round-trips to empty slices.
func TestEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "empty.db")
	if err := Write(ctx, path, &storage.Snapshot{ExportedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	got, err := Read(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Programs)+len(got.Sessions)+len(got.Baselines) != 0 {
		t.Errorf("expected empty snapshot, got %+v", got)
	}
}
