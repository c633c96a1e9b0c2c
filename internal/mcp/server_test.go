package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/storage"
)

type fakeSource struct {
	rx       models.Prescription
	last     []models.SetLog
	sessions map[uuid.UUID]models.Session
}

func (f *fakeSource) ListPrograms(context.Context) ([]models.Program, error) {
	return []models.Program{{ID: 1, Name: "Upper/Lower"}}, nil
}

func (f *fakeSource) GetPrescription(_ context.Context, id int) (*models.Prescription, error) {
	if id != f.rx.ID {
		return nil, fmt.Errorf("prescription %d: %w", id, storage.ErrNotFound)
	}
	rx := f.rx
	return &rx, nil
}

func (f *fakeSource) LastPerformance(context.Context, int, uuid.UUID) ([]models.SetLog, error) {
	return f.last, nil
}

func (f *fakeSource) ListBaselines(context.Context, int, int) ([]models.Baseline, error) {
	return nil, nil
}

func (f *fakeSource) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSource) ListSessions(context.Context, time.Time, time.Time) ([]models.Session, error) {
	return nil, nil
}

func (f *fakeSource) GetTrainingSummary(context.Context, time.Time, time.Time, string) ([]storage.TrainingSummaryPeriod, error) {
	return []storage.TrainingSummaryPeriod{{Period: "2026-10-12"}}, nil
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, units: progression.Kilograms, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText returns the text content of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

// TestSuggestProgression verifies the tool runs the engine and converts units.
func TestSuggestProgression(t *testing.T) {
	ds := &fakeSource{
		rx: models.Prescription{ID: 3, Scheme: models.SchemeAMRAP, SetsMin: 1, SetsMax: 1, RepsMin: 5, RepsMax: 30},
		last: []models.SetLog{
			{PrescriptionID: 3, SetNumber: 1, Role: models.RoleWorking, Weight: 50, Reps: 22},
		},
	}
	h := newHandlers(ds)

	res, err := h.suggestProgression(context.Background(), call(map[string]any{"prescription_id": 3, "unit": "lb"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var out struct {
		Unit        progression.Unit         `json:"unit"`
		Suggestions []progression.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Unit != progression.Pounds || len(out.Suggestions) == 0 {
		t.Fatalf("out = %+v", out)
	}
	for _, sg := range out.Suggestions {
		if sg.Type == progression.AddWeight && sg.TargetWeight != nil {
			if math.Abs(*sg.TargetWeight-progression.KgToLb(52.5)) > 1e-6 {
				t.Errorf("target = %v, want %v", *sg.TargetWeight, progression.KgToLb(52.5))
			}
			return
		}
	}
	t.Errorf("no add_weight suggestion in %+v", out.Suggestions)
}

func TestSuggestProgressionErrors(t *testing.T) {
	h := newHandlers(&fakeSource{rx: models.Prescription{ID: 1}})
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing id", map[string]any{}},
		{"unknown id", map[string]any{"prescription_id": 9}},
		{"bad unit", map[string]any{"prescription_id": 1, "unit": "stone"}},
	}
	for _, tt := range tests {
		res, err := h.suggestProgression(context.Background(), call(tt.args))
		if err != nil {
			t.Fatalf("%s: protocol error %v", tt.name, err)
		}
		if !res.IsError {
			t.Errorf("%s: expected tool error", tt.name)
		}
	}
}

// TestGetSessionStats verifies warmups are excluded from working figures.
func TestGetSessionStats(t *testing.T) {
	id := uuid.New()
	ds := &fakeSource{sessions: map[uuid.UUID]models.Session{
		id: {ID: id, Name: "Upper A", Sets: []models.SetLog{
			{PrescriptionID: 1, SetNumber: 1, Role: models.RoleWarmup, Weight: 40, Reps: 10},
			{PrescriptionID: 1, SetNumber: 2, Role: models.RoleWorking, Weight: 80, Reps: 8},
		}},
	}}
	h := newHandlers(ds)

	res, err := h.getSessionStats(context.Background(), call(map[string]any{"session_id": id.String()}))
	if err != nil || res.IsError {
		t.Fatalf("err = %v, result = %+v", err, res)
	}
	var out struct {
		Total progression.Summary `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total.WorkingSets != 1 || out.Total.WorkingVolume != 640 {
		t.Errorf("total = %+v, want 1 working set / 640", out.Total)
	}

	res, _ = h.getSessionStats(context.Background(), call(map[string]any{"session_id": "nope"}))
	if !res.IsError {
		t.Error("expected error for invalid session id")
	}
}

func TestEstimateOneRepMax(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.estimateOneRepMax(context.Background(), call(map[string]any{"weight": 60.0, "reps": 5}))
	if err != nil || res.IsError {
		t.Fatalf("err = %v, result = %+v", err, res)
	}
	var out struct {
		E1RM float64 `json:"e1rm"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if math.Abs(out.E1RM-70) > 1e-9 {
		t.Errorf("e1rm = %v, want 70", out.E1RM)
	}

	res, _ = h.estimateOneRepMax(context.Background(), call(map[string]any{"weight": -1.0, "reps": 5}))
	if !res.IsError {
		t.Error("expected error for negative weight")
	}
}

// TestNewRegistersTools verifies the server builds with every tool.
func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeSource{}, "", "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if s == nil {
		t.Fatal("New returned nil")
	}
}

// TestDefaultTimeRange verifies time range defaults (last 7 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 {
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Day() != 31 {
		t.Errorf("range = %v..%v", start, end)
	}

	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err = defaultTimeRange("not-a-date", ""); err == nil {
		t.Error("expected error for invalid date")
	}
}
