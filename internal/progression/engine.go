// Package progression turns the last logged performance of an exercise into
// next-session targets. Everything here is pure: no I/O, no shared state.
package progression

import (
	"github.com/claude/liftlog/internal/models"
)

// Type is the kind of change a suggestion asks for.
type Type string

const (
	AddReps           Type = "add_reps"
	ImproveQuality    Type = "improve_quality"
	AddWeight         Type = "add_weight"
	Maintain          Type = "maintain"
	EstablishBaseline Type = "establish_baseline"
)

// Confidence grades how strongly the data supports a suggestion.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

const (
	// weightIncrement is the default load jump, in kg.
	weightIncrement = 2.5
	// isolationIncrement is used where small muscles make 2.5 kg too big a jump.
	isolationIncrement = 1.25
	// repsOverBaselineForWeight is how far past baseline a set must go before load is added.
	repsOverBaselineForWeight = 3
	// amrapWeightThreshold is the rep count at which an AMRAP set is too light.
	amrapWeightThreshold = 20
	// clusterRepIncrement is added to the total reps of a cluster.
	clusterRepIncrement = 5
)

// Suggestion is one progression hint. SetNumber is set for per-set
// suggestions and nil for whole-exercise ones.
type Suggestion struct {
	Type         Type       `json:"type"`
	Message      string     `json:"message"`
	Label        string     `json:"label"`
	TargetReps   *int       `json:"target_reps,omitempty"`
	TargetWeight *float64   `json:"target_weight,omitempty"`
	Confidence   Confidence `json:"confidence"`
	Rationale    string     `json:"rationale"`
	SetNumber    *int       `json:"set_number,omitempty"`
}

// BaselineLookup finds the baseline established for a set number, if any.
type BaselineLookup interface {
	Baseline(setNumber int) (models.Baseline, bool)
}

// Baselines is a BaselineLookup over a plain slice. The first baseline with
// a matching set number wins.
type Baselines []models.Baseline

// Baseline implements BaselineLookup.
func (b Baselines) Baseline(setNumber int) (models.Baseline, bool) {
	for _, bl := range b {
		if bl.SetNumber == setNumber {
			return bl, true
		}
	}
	return models.Baseline{}, false
}

// Suggest returns the ordered suggestions for the next session of an
// exercise. last holds the set logs of the most recent session in which the
// prescription was trained; baselines may be nil. The result is never empty.
func Suggest(scheme models.Scheme, last []models.SetLog, rx models.Prescription, baselines BaselineLookup) []Suggestion {
	if len(last) == 0 {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    "No previous performance logged. Pick a weight you can move with clean form and record every set.",
			Label:      "Establish baseline",
			Confidence: High,
			Rationale:  "Progression needs at least one logged session to compare against.",
		}}
	}
	if baselines == nil {
		baselines = Baselines(nil)
	}

	switch scheme {
	case models.SchemeTopSetBackoffTriple:
		return tripleProgression(last, rx, baselines)
	case models.SchemeDoubleProgression:
		return doubleProgression(last, rx)
	case models.SchemeDynamicDoubleProgression:
		return dynamicDoubleProgression(last, rx)
	case models.SchemeDropSets:
		return dropSets(last, rx)
	case models.SchemeClusterSet:
		return clusterSet(last)
	case models.SchemeAMRAP:
		return amrap(last)
	case models.SchemeRestPause:
		return restPause(last)
	case models.SchemePyramidUp:
		// No dedicated rules for pyramids yet; they progress like double progression.
		return doubleProgression(last, rx)
	default:
		return doubleProgression(last, rx)
	}
}

func ptr[T any](v T) *T {
	return &v
}
