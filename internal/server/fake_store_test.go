package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	prescriptions map[int]models.Prescription
	sessions      map[uuid.UUID]*models.Session
	last          map[int][]models.SetLog
	baselines     map[int][]models.Baseline
	nextSetID     int
	importLogs    []storage.ImportLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		prescriptions: map[int]models.Prescription{
			1: {ID: 1, ExerciseName: "Bench Press", Scheme: models.SchemeDoubleProgression, SetsMin: 3, SetsMax: 3, RepsMin: 8, RepsMax: 10, CurrentPhaseReps: 8},
		},
		sessions:  make(map[uuid.UUID]*models.Session),
		last:      make(map[int][]models.SetLog),
		baselines: make(map[int][]models.Baseline),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) ListPrograms(context.Context) ([]models.Program, error) {
	return []models.Program{{ID: 1, Name: "Upper/Lower"}}, nil
}

func (f *fakeStore) ListPrescriptions(context.Context) ([]models.Prescription, error) {
	out := make([]models.Prescription, 0, len(f.prescriptions))
	for _, rx := range f.prescriptions {
		out = append(out, rx)
	}
	return out, nil
}

func (f *fakeStore) GetPrescription(_ context.Context, id int) (*models.Prescription, error) {
	rx, ok := f.prescriptions[id]
	if !ok {
		return nil, fmt.Errorf("prescription %d: %w", id, storage.ErrNotFound)
	}
	return &rx, nil
}

func (f *fakeStore) AdvancePhase(ctx context.Context, id, reps int) (*models.Prescription, error) {
	rx, err := f.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if reps < rx.RepsMin || reps > rx.RepsMax {
		return nil, fmt.Errorf("phase out of range: %w", storage.ErrInvalidInput)
	}
	rx.CurrentPhaseReps = reps
	f.prescriptions[id] = *rx
	return rx, nil
}

func (f *fakeStore) LastPerformance(_ context.Context, id int, _ uuid.UUID) ([]models.SetLog, error) {
	return f.last[id], nil
}

func (f *fakeStore) ListBaselines(_ context.Context, id, phase int) ([]models.Baseline, error) {
	var out []models.Baseline
	for _, b := range f.baselines[id] {
		if b.PhaseReps == phase {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) EstablishBaselines(ctx context.Context, id int, sessionID uuid.UUID) ([]models.Baseline, error) {
	rx, err := f.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	var out []models.Baseline
	for _, set := range s.Sets {
		if set.PrescriptionID == id && set.Role != models.RoleWarmup {
			out = append(out, models.Baseline{PrescriptionID: id, SetNumber: set.SetNumber, Weight: set.NetLoad(), Reps: set.Reps, PhaseReps: rx.CurrentPhaseReps})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no working sets: %w", storage.ErrInvalidInput)
	}
	f.baselines[id] = out
	return out, nil
}

func (f *fakeStore) StartSession(_ context.Context, dayID *int, name, notes string) (*models.Session, error) {
	s := &models.Session{ID: uuid.New(), DayID: dayID, Name: name, Notes: notes, StartedAt: time.Now()}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) FinishSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	if s.EndedAt == nil {
		now := time.Now()
		s.EndedAt = &now
	}
	return s, nil
}

func (f *fakeStore) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	return s, nil
}

func (f *fakeStore) ListSessions(_ context.Context, start, end time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, s := range f.sessions {
		if !s.StartedAt.Before(start) && s.StartedAt.Before(end) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) AddSetLog(_ context.Context, set models.SetLog) (*models.SetLog, error) {
	s, ok := f.sessions[set.SessionID]
	if !ok {
		return nil, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	if !s.Active() {
		return nil, storage.ErrSessionFinished
	}
	if _, ok := f.prescriptions[set.PrescriptionID]; !ok {
		return nil, fmt.Errorf("prescription: %w", storage.ErrNotFound)
	}
	if set.Quality == "" {
		set.Quality = models.QualityOK
	}
	if !set.Role.Valid() || !set.Quality.Valid() {
		return nil, fmt.Errorf("bad role or quality: %w", storage.ErrInvalidInput)
	}
	set.SetNumber = 1
	for _, existing := range s.Sets {
		if existing.PrescriptionID == set.PrescriptionID && existing.SetNumber >= set.SetNumber {
			set.SetNumber = existing.SetNumber + 1
		}
	}
	f.nextSetID++
	set.ID = f.nextSetID
	s.Sets = append(s.Sets, set)
	return &set, nil
}

func (f *fakeStore) UpdateSetLog(_ context.Context, set models.SetLog) (*models.SetLog, error) {
	for _, s := range f.sessions {
		for i := range s.Sets {
			if s.Sets[i].ID == set.ID {
				if !s.Active() {
					return nil, storage.ErrSessionFinished
				}
				s.Sets[i].Weight, s.Sets[i].Reps = set.Weight, set.Reps
				updated := s.Sets[i]
				return &updated, nil
			}
		}
	}
	return nil, fmt.Errorf("set log: %w", storage.ErrNotFound)
}

func (f *fakeStore) DeleteSetLog(_ context.Context, id int) error {
	for _, s := range f.sessions {
		for i := range s.Sets {
			if s.Sets[i].ID == id {
				if !s.Active() {
					return storage.ErrSessionFinished
				}
				deleted := s.Sets[i]
				s.Sets = append(s.Sets[:i], s.Sets[i+1:]...)
				for j := range s.Sets {
					if s.Sets[j].PrescriptionID == deleted.PrescriptionID && s.Sets[j].SetNumber > deleted.SetNumber {
						s.Sets[j].SetNumber--
					}
				}
				return nil
			}
		}
	}
	return fmt.Errorf("set log: %w", storage.ErrNotFound)
}

func (f *fakeStore) GetTrainingSummary(context.Context, time.Time, time.Time, string) ([]storage.TrainingSummaryPeriod, error) {
	return []storage.TrainingSummaryPeriod{{Period: "2026-10-12", Sessions: 2}}, nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	f.importLogs = append(f.importLogs, l)
	return int64(len(f.importLogs)), nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, id int64, l storage.ImportLog) error {
	f.importLogs[id-1] = l
	return nil
}

func (f *fakeStore) QueryImportLogs(context.Context, int) ([]storage.ImportLog, error) {
	return f.importLogs, nil
}

type fakeImporter struct {
	result *ingest.Result
	err    error
}

func (f fakeImporter) Ingest(_ context.Context, r io.Reader) (*ingest.Result, error) {
	_, _ = io.Copy(io.Discard, r)
	return f.result, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
