package progression

import (
	"github.com/claude/liftlog/internal/models"
)

// epleyDivisor is the rep divisor of the Epley one-rep-max formula.
const epleyDivisor = 30.0

// E1RM estimates a one-rep max with the Epley formula. A single rep is its
// own max. Zero reps yield the weight; negative reps are not rejected and
// pass through the formula.
func E1RM(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	return weight * (1 + float64(reps)/epleyDivisor)
}

// SessionVolume sums (weight + external load) × reps over sets. Assisted
// bodyweight sets carry a negative external load and reduce the total.
func SessionVolume(sets []models.SetLog) float64 {
	var volume float64
	for _, s := range sets {
		volume += s.NetLoad() * float64(s.Reps)
	}
	return volume
}

// BestSet returns the set with the highest estimated max on its net load.
// Ties keep the earliest set. ok is false when sets is empty.
func BestSet(sets []models.SetLog) (best models.SetLog, ok bool) {
	if len(sets) == 0 {
		return models.SetLog{}, false
	}
	best = sets[0]
	bestE1RM := E1RM(best.NetLoad(), best.Reps)
	for _, s := range sets[1:] {
		if e := E1RM(s.NetLoad(), s.Reps); e > bestE1RM {
			best, bestE1RM = s, e
		}
	}
	return best, true
}

// Summary aggregates the sets of one exercise or session.
type Summary struct {
	Sets          int            `json:"sets"`
	WorkingSets   int            `json:"working_sets"`
	TotalReps     int            `json:"total_reps"`
	Volume        float64        `json:"volume"`
	WorkingVolume float64        `json:"working_volume"`
	BestSet       *models.SetLog `json:"best_set,omitempty"`
	BestE1RM      float64        `json:"best_e1rm"`
}

// Summarize computes volume and best-set figures. Warmups count toward Volume
// but are excluded from everything labelled working, and from the best set.
func Summarize(sets []models.SetLog) Summary {
	sum := Summary{Sets: len(sets), Volume: SessionVolume(sets)}

	var working []models.SetLog
	for _, s := range sets {
		if s.Role == models.RoleWarmup {
			continue
		}
		working = append(working, s)
		sum.TotalReps += s.Reps
	}
	sum.WorkingSets = len(working)
	sum.WorkingVolume = SessionVolume(working)

	if best, ok := BestSet(working); ok {
		sum.BestSet = &best
		sum.BestE1RM = E1RM(best.NetLoad(), best.Reps)
	}
	return sum
}
