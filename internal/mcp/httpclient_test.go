package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestListBaselines verifies the phase is sent as a query parameter.
func TestListBaselines(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/prescriptions/7/baselines": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("phase"); got != "8" {
				t.Errorf("phase=%q, want 8", got)
			}
			writeTestJSON(t, w, []models.Baseline{{PrescriptionID: 7, SetNumber: 1, Weight: 100, Reps: 8, PhaseReps: 8}})
		},
	})
	defer ts.Close()

	got, err := NewHTTPClient(ts.URL).ListBaselines(context.Background(), 7, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Weight != 100 {
		t.Errorf("baselines = %+v", got)
	}
}

// TestLastPerformanceExclude verifies the excluded session is only sent when set.
func TestLastPerformanceExclude(t *testing.T) {
	exclude := uuid.New()
	var seen []string
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/prescriptions/3/last": func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Query().Get("exclude_session"))
			writeTestJSON(t, w, []models.SetLog{{PrescriptionID: 3, SetNumber: 1, Reps: 10}})
		},
	})
	defer ts.Close()

	c := NewHTTPClient(ts.URL)
	if _, err := c.LastPerformance(context.Background(), 3, uuid.Nil); err != nil {
		t.Fatal(err)
	}
	sets, err := c.LastPerformance(context.Background(), 3, exclude)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Errorf("sets = %d, want 1", len(sets))
	}
	if len(seen) != 2 || seen[0] != "" || seen[1] != exclude.String() {
		t.Errorf("exclude params = %v", seen)
	}
}

// TestGetTrainingSummary verifies bucket mapping and the time range params.
func TestGetTrainingSummary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/summary": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("bucket") != "month" {
				t.Errorf("bucket=%q, want month", q.Get("bucket"))
			}
			if q.Get("start") != start.Format(time.RFC3339) || q.Get("end") != end.Format(time.RFC3339) {
				t.Errorf("range = %s..%s", q.Get("start"), q.Get("end"))
			}
			writeTestJSON(t, w, []storage.TrainingSummaryPeriod{{Period: "2026-01-01", Sessions: 12, WorkingSets: 140}})
		},
	})
	defer ts.Close()

	got, err := NewHTTPClient(ts.URL).GetTrainingSummary(context.Background(), start, end, "1 month")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Sessions != 12 {
		t.Errorf("summary = %+v", got)
	}
}

// TestNotFoundMapsToSentinel verifies a 404 is reported as storage.ErrNotFound.
func TestNotFoundMapsToSentinel(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/prescriptions/99": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeTestJSON(t, w, map[string]string{"error": "not found"})
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).GetPrescription(context.Background(), 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestServerError verifies non-200 responses surface the status code.
func TestServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/program": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL + "/").ListPrograms(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, storage.ErrNotFound) {
		t.Errorf("500 should not map to ErrNotFound: %v", err)
	}
}

func TestBucketToParam(t *testing.T) {
	tests := map[string]string{"1 day": "day", "1 week": "week", "1 month": "month", "": "week"}
	for in, want := range tests {
		if got := bucketToParam(in); got != want {
			t.Errorf("bucketToParam(%q) = %q, want %q", in, got, want)
		}
	}
}
