package alpha

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
)

type fakeStore struct {
	programs []models.Program
	saved    map[uuid.UUID]models.Session
}

func (f *fakeStore) ListPrograms(context.Context) ([]models.Program, error) {
	return f.programs, nil
}

func (f *fakeStore) SaveSession(_ context.Context, s models.Session) (bool, error) {
	if f.saved == nil {
		f.saved = make(map[uuid.UUID]models.Session)
	}
	if _, ok := f.saved[s.ID]; ok {
		return false, nil
	}
	f.saved[s.ID] = s
	return true, nil
}

// catalog has Hack Squats on two days so day-name matching is exercised.
func catalog() []models.Program {
	de := func(name string, rxID int) models.DayExercise {
		return models.DayExercise{
			Exercise:     models.Exercise{Name: name},
			Prescription: models.Prescription{ID: rxID, ExerciseName: name},
		}
	}
	return []models.Program{{
		Name: "PPL",
		Plans: []models.Plan{{
			Name: "Block",
			Days: []models.Day{
				{ID: 1, Name: "Push", Exercises: []models.DayExercise{de("Bench Press", 10), de("Hack Squats", 11)}},
				{ID: 2, Name: "Legs", Exercises: []models.DayExercise{de("Hack Squats", 20), de("Hyperextensions on Roman Chair", 21)}},
			},
		}},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestIngestMapsSets verifies matching, numbering, roles and bodyweight-plus handling.
func TestIngestMapsSets(t *testing.T) {
	store := &fakeStore{programs: catalog()}
	p := NewProvider(store, discardLogger())

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsReceived != 2 || res.SessionsInserted != 2 {
		t.Errorf("sessions received/inserted = %d/%d, want 2/2", res.SessionsReceived, res.SessionsInserted)
	}
	if len(res.Unmatched) != 4 {
		t.Errorf("unmatched = %q, want 4 names", res.Unmatched)
	}

	var legs models.Session
	for _, s := range store.saved {
		if strings.HasPrefix(s.Name, "Legs") {
			legs = s
		}
	}
	if legs.DayID == nil || *legs.DayID != 2 {
		t.Fatalf("legs day = %v, want 2", legs.DayID)
	}
	if legs.EndedAt == nil || legs.EndedAt.Sub(legs.StartedAt) != 62*time.Minute {
		t.Errorf("legs duration = %v, want 1h2m", legs.EndedAt)
	}

	var hack, hyper []models.SetLog
	for _, s := range legs.Sets {
		switch s.PrescriptionID {
		case 20:
			hack = append(hack, s)
		case 21:
			hyper = append(hyper, s)
		case 11:
			t.Error("hack squats matched the Push day instead of Legs")
		}
	}
	if len(hack) != 5 {
		t.Fatalf("hack squat sets = %d, want 5", len(hack))
	}
	for i, s := range hack {
		if s.SetNumber != i+1 {
			t.Errorf("hack set %d numbered %d", i, s.SetNumber)
		}
	}
	if hack[0].Role != models.RoleWarmup || hack[2].Role != models.RoleWorking {
		t.Errorf("roles = %s/%s, want warmup/working", hack[0].Role, hack[2].Role)
	}
	if hyper[1].Weight != 0 || hyper[1].ExternalLoad != 35 {
		t.Errorf("bodyweight plus set = %v + %v, want 0 + 35", hyper[1].Weight, hyper[1].ExternalLoad)
	}
}

// TestIngestIsIdempotent verifies a second import of the same export inserts nothing.
func TestIngestIsIdempotent(t *testing.T) {
	store := &fakeStore{programs: catalog()}
	p := NewProvider(store, discardLogger())

	if _, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionsInserted != 0 || res.SessionsSkipped != 2 {
		t.Errorf("second import inserted/skipped = %d/%d, want 0/2", res.SessionsInserted, res.SessionsSkipped)
	}
}

// TestPlanSkipsUnmatchedSessions verifies sessions with no catalog exercise are dropped.
func TestPlanSkipsUnmatchedSessions(t *testing.T) {
	p := NewProvider(&fakeStore{}, discardLogger())
	sessions, res, err := p.Plan(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(sessions))
	}
	if res.SetsReceived != 28 {
		t.Errorf("sets received = %d, want 28", res.SetsReceived)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1:02 hr", 62 * time.Minute},
		{"0:45 hr", 45 * time.Minute},
		{"", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExerciseModifiers(t *testing.T) {
	got := exerciseModifiers([]string{"cluster set", "2 dropsets"})
	if len(got) != 2 || got[0] != models.ModifierCluster || got[1] != "2 dropsets" {
		t.Errorf("modifiers = %q", got)
	}
}
