package alpha

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
)

// sessionNamespace seeds the deterministic ids of imported sessions, so
// importing the same export twice yields the same session ids.
var sessionNamespace = uuid.MustParse("6f1c7a52-9d3e-4b8a-a0f4-2c7e5b1d9e30")

// matcher resolves exercise names to prescriptions of the catalog.
type matcher struct {
	// byExercise holds every prescription per lowercase exercise name, in catalog order.
	byExercise map[string][]dayPrescription
}

type dayPrescription struct {
	dayID   int
	dayName string
	rxID    int
}

func newMatcher(programs []models.Program) *matcher {
	m := &matcher{byExercise: make(map[string][]dayPrescription)}
	for _, p := range programs {
		for _, plan := range p.Plans {
			for _, day := range plan.Days {
				for _, de := range day.Exercises {
					key := normalize(de.Exercise.Name)
					m.byExercise[key] = append(m.byExercise[key], dayPrescription{
						dayID:   day.ID,
						dayName: day.Name,
						rxID:    de.Prescription.ID,
					})
				}
			}
		}
	}
	return m
}

// match finds the prescription for an exercise. When the exercise appears on
// several days, the one whose day name matches dayHint wins, otherwise the
// first in catalog order.
func (m *matcher) match(exercise, dayHint string) (dayPrescription, bool) {
	candidates := m.byExercise[normalize(exercise)]
	if len(candidates) == 0 {
		return dayPrescription{}, false
	}
	hint := normalize(dayHint)
	for _, c := range candidates {
		if normalize(c.dayName) == hint {
			return c, true
		}
	}
	return candidates[0], true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// dayHint returns the first " · " segment of an export session name,
// which Alpha Progression fills with the workout day name.
func dayHint(sessionName string) string {
	name, _, _ := strings.Cut(sessionName, "·")
	return strings.TrimSpace(name)
}

// parseDuration reads "1:02 hr" style durations. Unknown formats yield 0.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "hr"))
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	d, err := time.ParseDuration(strings.TrimSpace(h) + "h" + strings.TrimSpace(m) + "m")
	if err != nil {
		return 0
	}
	return d
}

// toSession converts a parsed export session into a completed LiftLog
// session. Sets of exercises with no matching prescription are dropped and
// their names returned. Warmups are numbered before working sets so each
// prescription's set numbers run contiguously from 1.
func toSession(s Session, m *matcher) (models.Session, []string) {
	out := models.Session{
		ID:        uuid.NewSHA1(sessionNamespace, []byte(s.Name+"|"+s.Date.Format(time.RFC3339))),
		Name:      s.Name,
		StartedAt: s.Date,
	}
	end := s.Date.Add(parseDuration(s.Duration))
	out.EndedAt = &end

	var unmatched []string
	hint := dayHint(s.Name)
	next := make(map[int]int)
	for _, ex := range s.Exercises {
		dp, ok := m.match(ex.Name, hint)
		if !ok {
			unmatched = append(unmatched, ex.Name)
			continue
		}
		if out.DayID == nil {
			id := dp.dayID
			out.DayID = &id
		}
		modifiers := exerciseModifiers(ex.Modifiers)
		for _, warmupPass := range []bool{true, false} {
			for _, set := range ex.Sets {
				if set.Warmup != warmupPass {
					continue
				}
				next[dp.rxID]++
				out.Sets = append(out.Sets, toSetLog(set, dp.rxID, next[dp.rxID], modifiers, s.Date))
			}
		}
	}
	return out, unmatched
}

func toSetLog(set Set, rxID, number int, modifiers []string, at time.Time) models.SetLog {
	log := models.SetLog{
		PrescriptionID: rxID,
		SetNumber:      number,
		Role:           models.RoleWorking,
		Weight:         set.Weight,
		Reps:           set.Reps,
		Quality:        models.QualityOK,
		Modifiers:      modifiers,
		LoggedAt:       at,
	}
	if set.Warmup {
		log.Role = models.RoleWarmup
	}
	if set.BodyweightPlus {
		log.Weight = 0
		log.ExternalLoad = set.Weight
	}
	return log
}

// exerciseModifiers maps export header tags onto set modifiers. Tags
// mentioning clusters become the cluster modifier.
func exerciseModifiers(tags []string) []string {
	var mods []string
	for _, t := range tags {
		if strings.Contains(t, "cluster") {
			mods = append(mods, models.ModifierCluster)
			continue
		}
		mods = append(mods, t)
	}
	return mods
}
