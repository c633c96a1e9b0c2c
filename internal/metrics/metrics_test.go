package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestManagerCounters verifies collectors register and count independently per label set.
func TestManagerCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(reg)

	m.Suggestions.WithLabelValues("AMRAP", "add_reps").Inc()
	m.Suggestions.WithLabelValues("AMRAP", "add_reps").Inc()
	m.Suggestions.WithLabelValues("DROP_SETS", "maintain").Inc()
	m.SetsLogged.Add(3)

	if got := testutil.ToFloat64(m.Suggestions.WithLabelValues("AMRAP", "add_reps")); got != 2 {
		t.Errorf("AMRAP add_reps = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SetsLogged); got != 3 {
		t.Errorf("sets logged = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.Suggestions); n != 2 {
		t.Errorf("suggestion series = %d, want 2", n)
	}
}

// TestNewRegistryWithoutPool verifies the registry builds without a database.
func TestNewRegistryWithoutPool(t *testing.T) {
	reg := NewRegistry(nil)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected runtime metric families")
	}
}
