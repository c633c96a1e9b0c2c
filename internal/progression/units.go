package progression

import (
	"fmt"
	"strings"
)

// Unit is a display unit for weights. Weights are always stored in kilograms.
type Unit string

const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lb"
)

// lbPerKg is the conversion factor between the two units.
const lbPerKg = 2.20462

// KgToLb converts kilograms to pounds.
func KgToLb(kg float64) float64 {
	return kg * lbPerKg
}

// LbToKg converts pounds to kilograms.
func LbToKg(lb float64) float64 {
	return lb / lbPerKg
}

// ParseUnit accepts "kg", "lb" or "lbs" in any case. Empty means kilograms.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kg", "kgs":
		return Kilograms, nil
	case "lb", "lbs":
		return Pounds, nil
	default:
		return "", fmt.Errorf("unknown weight unit %q", s)
	}
}

// FromKg converts a stored weight into u.
func (u Unit) FromKg(kg float64) float64 {
	if u == Pounds {
		return KgToLb(kg)
	}
	return kg
}

// ToKg converts a weight expressed in u back to the stored unit.
func (u Unit) ToKg(v float64) float64 {
	if u == Pounds {
		return LbToKg(v)
	}
	return v
}

// InUnit returns copies of suggestions with target weights expressed in u.
// Messages keep the stored unit.
func InUnit(suggestions []Suggestion, u Unit) []Suggestion {
	out := make([]Suggestion, len(suggestions))
	for i, s := range suggestions {
		if s.TargetWeight != nil {
			s.TargetWeight = ptr(u.FromKg(*s.TargetWeight))
		}
		out[i] = s
	}
	return out
}

// InUnit returns a copy of the summary with every load expressed in u.
func (s Summary) InUnit(u Unit) Summary {
	s.Volume = u.FromKg(s.Volume)
	s.WorkingVolume = u.FromKg(s.WorkingVolume)
	s.BestE1RM = u.FromKg(s.BestE1RM)
	if s.BestSet != nil {
		best := *s.BestSet
		best.Weight = u.FromKg(best.Weight)
		best.ExternalLoad = u.FromKg(best.ExternalLoad)
		s.BestSet = &best
	}
	return s
}
