package progression

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/claude/liftlog/internal/models"
)

// tripleProgression handles one top set followed by backoff sets. The top set
// is judged on reps over baseline and form; each backoff set gets its own hint.
func tripleProgression(sets []models.SetLog, rx models.Prescription, baselines BaselineLookup) []Suggestion {
	var top *models.SetLog
	var backoffs []models.SetLog
	for i := range sets {
		switch sets[i].Role {
		case models.RoleTop:
			if top == nil {
				top = &sets[i]
			}
		case models.RoleBackoff:
			backoffs = append(backoffs, sets[i])
		}
	}

	var out []Suggestion
	if top != nil {
		out = append(out, topSetSuggestion(*top, baselineReps(baselines, 1, rx)))
	}

	for i, set := range backoffs {
		setNumber := i + 2
		if set.Quality == models.QualitySloppy {
			continue
		}
		base := baselineReps(baselines, setNumber, rx)
		over := set.Reps - base
		if over >= repsOverBaselineForWeight {
			out = append(out, Suggestion{
				Type:         AddWeight,
				Message:      fmt.Sprintf("Set %d: %d reps is %d over baseline. Add %s and work back to %d reps.", setNumber, set.Reps, over, formatKg(weightIncrement), base),
				Label:        fmt.Sprintf("Set %d: +%s", setNumber, formatKg(weightIncrement)),
				TargetReps:   ptr(base),
				TargetWeight: ptr(set.Weight + weightIncrement),
				Confidence:   Medium,
				Rationale:    fmt.Sprintf("Backoff set beat its baseline of %d by %d reps.", base, over),
				SetNumber:    ptr(setNumber),
			})
			continue
		}
		out = append(out, Suggestion{
			Type:       AddReps,
			Message:    fmt.Sprintf("Set %d: aim for %d reps at %s.", setNumber, set.Reps+1, formatKg(set.Weight)),
			Label:      fmt.Sprintf("Set %d: %d reps", setNumber, set.Reps+1),
			TargetReps: ptr(set.Reps + 1),
			Confidence: Medium,
			Rationale:  fmt.Sprintf("Backoff set is %d reps from the %d-rep threshold over baseline.", repsOverBaselineForWeight-over, repsOverBaselineForWeight),
			SetNumber:  ptr(setNumber),
		})
	}

	if len(out) == 0 {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    "Log one top set followed by backoff sets at a lighter load.",
			Label:      "Log top + backoff sets",
			Confidence: High,
			Rationale:  "The last session has no top set and no usable backoff sets.",
		}}
	}
	return out
}

func topSetSuggestion(top models.SetLog, base int) Suggestion {
	over := top.Reps - base
	switch {
	case top.Quality == models.QualitySloppy:
		return Suggestion{
			Type:       ImproveQuality,
			Message:    fmt.Sprintf("Top set was sloppy. Repeat %s and own every rep before chasing more.", formatKg(top.Weight)),
			Label:      "Clean up form",
			Confidence: High,
			Rationale:  "Form comes before any rep or load increase.",
			SetNumber:  ptr(1),
		}
	case over >= repsOverBaselineForWeight && top.Quality == models.QualityClean:
		return Suggestion{
			Type:         AddWeight,
			Message:      fmt.Sprintf("Top set: %d clean reps, %d over baseline. Add %s and reset to %d reps.", top.Reps, over, formatKg(weightIncrement), base),
			Label:        "+" + formatKg(weightIncrement),
			TargetReps:   ptr(base),
			TargetWeight: ptr(top.Weight + weightIncrement),
			Confidence:   High,
			Rationale:    fmt.Sprintf("Beat the %d-rep baseline by %d with clean form.", base, over),
			SetNumber:    ptr(1),
		}
	case top.Quality == models.QualityOK && over >= 1:
		return Suggestion{
			Type:       ImproveQuality,
			Message:    fmt.Sprintf("Top set: %d reps but form was only ok. Make the same reps clean before adding more.", top.Reps),
			Label:      "Tighten form",
			TargetReps: ptr(top.Reps),
			Confidence: Medium,
			Rationale:  fmt.Sprintf("Already %d over the %d-rep baseline; quality is the limiter.", over, base),
			SetNumber:  ptr(1),
		}
	default:
		return Suggestion{
			Type:       AddReps,
			Message:    fmt.Sprintf("Top set: aim for %d reps at %s.", top.Reps+1, formatKg(top.Weight)),
			Label:      fmt.Sprintf("%d reps", top.Reps+1),
			TargetReps: ptr(top.Reps + 1),
			Confidence: High,
			Rationale:  fmt.Sprintf("%d of %d reps over the baseline of %d needed before adding load.", max(over, 0), repsOverBaselineForWeight, base),
			SetNumber:  ptr(1),
		}
	}
}

// baselineReps falls back to the prescription's phase target when no baseline
// exists for the set.
func baselineReps(baselines BaselineLookup, setNumber int, rx models.Prescription) int {
	if bl, ok := baselines.Baseline(setNumber); ok {
		return bl.Reps
	}
	return rx.CurrentPhaseReps
}

// doubleProgression fills the rep range on every working set before adding load.
func doubleProgression(sets []models.SetLog, rx models.Prescription) []Suggestion {
	working := filterRoles(sets, models.RoleWorking, models.RoleTop)
	if len(working) == 0 {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    fmt.Sprintf("No working sets in the last session. Log %d-%d sets of %d-%d reps.", rx.SetsMin, rx.SetsMax, rx.RepsMin, rx.RepsMax),
			Label:      "Log working sets",
			Confidence: High,
			Rationale:  "Only working or top sets count toward the rep range.",
		}}
	}

	allAtTop := true
	totalReps := 0
	for _, s := range working {
		if s.Reps < rx.RepsMax || s.Quality == models.QualitySloppy {
			allAtTop = false
		}
		totalReps += s.Reps
	}

	if allAtTop {
		return []Suggestion{{
			Type:         AddWeight,
			Message:      fmt.Sprintf("Hit %d reps on all %d sets. Add %s and drop back to %d reps.", rx.RepsMax, len(working), formatKg(weightIncrement), rx.RepsMin),
			Label:        "+" + formatKg(weightIncrement),
			TargetReps:   ptr(rx.RepsMin),
			TargetWeight: ptr(working[0].Weight + weightIncrement),
			Confidence:   High,
			Rationale:    "Every working set reached the top of the rep range with acceptable form.",
		}}
	}

	avg := float64(totalReps) / float64(len(working))
	target := min(int(math.Ceil(avg))+1, rx.RepsMax)
	return []Suggestion{{
		Type:       AddReps,
		Message:    fmt.Sprintf("Averaging %s reps per set. Aim for %d reps on each set.", formatAvg(avg), target),
		Label:      fmt.Sprintf("%d reps", target),
		TargetReps: ptr(target),
		Confidence: High,
		Rationale:  fmt.Sprintf("All sets must reach %d clean reps before adding load.", rx.RepsMax),
	}}
}

// dynamicDoubleProgression runs double progression on each set on its own.
func dynamicDoubleProgression(sets []models.SetLog, rx models.Prescription) []Suggestion {
	working := filterRoles(sets, models.RoleWorking, models.RoleTop, models.RoleBackoff)
	if len(working) == 0 {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    fmt.Sprintf("No working sets in the last session. Log sets of %d-%d reps.", rx.RepsMin, rx.RepsMax),
			Label:      "Log working sets",
			Confidence: High,
			Rationale:  "Each working set is progressed on its own and none were logged.",
		}}
	}
	slices.SortStableFunc(working, func(a, b models.SetLog) int {
		return a.SetNumber - b.SetNumber
	})

	out := make([]Suggestion, 0, len(working))
	for _, s := range working {
		if s.Reps >= rx.RepsMax && s.Quality != models.QualitySloppy {
			out = append(out, Suggestion{
				Type:         AddWeight,
				Message:      fmt.Sprintf("Set %d: %d reps at %s. Add %s and work from %d reps.", s.SetNumber, s.Reps, formatKg(s.Weight), formatKg(weightIncrement), rx.RepsMin),
				Label:        fmt.Sprintf("Set %d: +%s", s.SetNumber, formatKg(weightIncrement)),
				TargetReps:   ptr(rx.RepsMin),
				TargetWeight: ptr(s.Weight + weightIncrement),
				Confidence:   High,
				Rationale:    fmt.Sprintf("Set reached the top of the %d-%d range.", rx.RepsMin, rx.RepsMax),
				SetNumber:    ptr(s.SetNumber),
			})
			continue
		}
		target := min(s.Reps+1, rx.RepsMax)
		out = append(out, Suggestion{
			Type:       AddReps,
			Message:    fmt.Sprintf("Set %d: aim for %d reps at %s.", s.SetNumber, target, formatKg(s.Weight)),
			Label:      fmt.Sprintf("Set %d: %d reps", s.SetNumber, target),
			TargetReps: ptr(target),
			Confidence: Medium,
			Rationale:  fmt.Sprintf("Set is below %d reps or was not clean enough to add load.", rx.RepsMax),
			SetNumber:  ptr(s.SetNumber),
		})
	}
	return out
}

// dropSets only progresses the top set; the drops are an intensity technique.
func dropSets(sets []models.SetLog, rx models.Prescription) []Suggestion {
	top, ok := firstWithRole(sets, models.RoleTop)
	if !ok {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    "Log a top set followed by 2-3 drops.",
			Label:      "Log top set + drops",
			Confidence: High,
			Rationale:  "Drop-set progression is driven by the top set.",
		}}
	}
	if top.Reps >= rx.RepsMax && top.Quality != models.QualitySloppy {
		return []Suggestion{{
			Type:         AddWeight,
			Message:      fmt.Sprintf("Top set hit %d reps. Add %s to the top set.", top.Reps, formatKg(isolationIncrement)),
			Label:        "+" + formatKg(isolationIncrement),
			TargetReps:   ptr(rx.RepsMin),
			TargetWeight: ptr(top.Weight + isolationIncrement),
			Confidence:   Medium,
			Rationale:    "Top set reached the top of the rep range; drop-set exercises take small jumps.",
		}}
	}
	return []Suggestion{{
		Type:       Maintain,
		Message:    fmt.Sprintf("Keep the top set at %s and push harder on the drops.", formatKg(top.Weight)),
		Label:      "Maintain, push drops",
		Confidence: High,
		Rationale:  fmt.Sprintf("Top set is below %d reps or was sloppy; intensity on the drops drives progress.", rx.RepsMax),
	}}
}

// amrap ignores roles and looks at the best and average rep counts.
func amrap(sets []models.SetLog) []Suggestion {
	best := sets[0]
	total := 0
	for _, s := range sets {
		if s.Reps > best.Reps {
			best = s
		}
		total += s.Reps
	}
	avg := float64(total) / float64(len(sets))

	if best.Reps >= amrapWeightThreshold {
		return []Suggestion{{
			Type:         AddWeight,
			Message:      fmt.Sprintf("Best set reached %d reps. Add %s.", best.Reps, formatKg(weightIncrement)),
			Label:        "+" + formatKg(weightIncrement),
			TargetWeight: ptr(best.Weight + weightIncrement),
			Confidence:   High,
			Rationale:    fmt.Sprintf("%d or more reps means the load is too light for AMRAP work.", amrapWeightThreshold),
		}}
	}
	return []Suggestion{{
		Type:       AddReps,
		Message:    fmt.Sprintf("Best set %d reps (average %s). Beat it with %d.", best.Reps, formatAvg(avg), best.Reps+1),
		Label:      fmt.Sprintf("%d reps", best.Reps+1),
		TargetReps: ptr(best.Reps + 1),
		Confidence: High,
		Rationale:  fmt.Sprintf("Add reps until a set reaches %d.", amrapWeightThreshold),
	}}
}

// restPause progresses the accumulated reps of the single rest-pause set.
func restPause(sets []models.SetLog) []Suggestion {
	rp, ok := firstWithRole(sets, models.RoleRestPause)
	if !ok {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    "Log one rest-pause set: go close to failure, rest 15-20 seconds, repeat. Pause at the stretch and finish with partial reps.",
			Label:      "Log rest-pause set",
			Confidence: High,
			Rationale:  "No rest-pause set was logged last session.",
		}}
	}
	return []Suggestion{{
		Type:       AddReps,
		Message:    fmt.Sprintf("Rest-pause total was %d reps. Aim for %d.", rp.Reps, rp.Reps+1),
		Label:      fmt.Sprintf("%d total reps", rp.Reps+1),
		TargetReps: ptr(rp.Reps + 1),
		Confidence: High,
		Rationale:  "One more accumulated rep at the same load.",
	}}
}

// clusterSet sums the reps of all cluster-tagged sets.
func clusterSet(sets []models.SetLog) []Suggestion {
	total, found := 0, false
	for _, s := range sets {
		if s.HasModifier(models.ModifierCluster) {
			total += s.Reps
			found = true
		}
	}
	if !found {
		return []Suggestion{{
			Type:       EstablishBaseline,
			Message:    "Log a cluster: short mini-sets of 2-4 reps with 15-30 seconds rest, tagged \"cluster\".",
			Label:      "Log cluster sets",
			Confidence: High,
			Rationale:  "No cluster-tagged sets were logged last session.",
		}}
	}
	return []Suggestion{{
		Type:       AddReps,
		Message:    fmt.Sprintf("Cluster total was %d reps. Aim for %d.", total, total+clusterRepIncrement),
		Label:      fmt.Sprintf("%d total reps", total+clusterRepIncrement),
		TargetReps: ptr(total + clusterRepIncrement),
		Confidence: Medium,
		Rationale:  "Cluster rep totals vary more between sessions than straight sets do.",
	}}
}

// filterRoles returns a new slice with the sets whose role is in roles.
func filterRoles(sets []models.SetLog, roles ...models.SetRole) []models.SetLog {
	var out []models.SetLog
	for _, s := range sets {
		if slices.Contains(roles, s.Role) {
			out = append(out, s)
		}
	}
	return out
}

func firstWithRole(sets []models.SetLog, role models.SetRole) (models.SetLog, bool) {
	for _, s := range sets {
		if s.Role == role {
			return s, true
		}
	}
	return models.SetLog{}, false
}

func formatKg(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64) + " kg"
}

func formatAvg(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
