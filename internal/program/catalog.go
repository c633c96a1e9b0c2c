// Package program loads the training catalog from a YAML seed file.
package program

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/liftlog/internal/models"
)

// Catalog is the root of a seed file.
type Catalog struct {
	ProgramSeeds []ProgramSeed `yaml:"programs"`
}

type ProgramSeed struct {
	Name  string     `yaml:"name"`
	Plans []PlanSeed `yaml:"plans"`
}

type PlanSeed struct {
	Name string    `yaml:"name"`
	Days []DaySeed `yaml:"days"`
}

type DaySeed struct {
	Name      string            `yaml:"name"`
	Exercises []DayExerciseSeed `yaml:"exercises"`
}

type DayExerciseSeed struct {
	Exercise     ExerciseSeed     `yaml:"exercise"`
	Prescription PrescriptionSeed `yaml:"prescription"`
}

type ExerciseSeed struct {
	Name        string `yaml:"name"`
	Equipment   string `yaml:"equipment"`
	MuscleGroup string `yaml:"muscle_group"`
	Bodyweight  bool   `yaml:"bodyweight"`
}

type PrescriptionSeed struct {
	Scheme           string `yaml:"scheme"`
	SetsMin          int    `yaml:"sets_min"`
	SetsMax          int    `yaml:"sets_max"`
	RepsMin          int    `yaml:"reps_min"`
	RepsMax          int    `yaml:"reps_max"`
	CurrentPhaseReps int    `yaml:"current_phase_reps"`
	RestSeconds      int    `yaml:"rest_seconds"`
	Optional         bool   `yaml:"optional"`
}

// Load reads and validates a seed file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("validating seed file: %w", err)
	}
	return &c, nil
}

func (c *Catalog) applyDefaults() {
	for pi := range c.ProgramSeeds {
		for li := range c.ProgramSeeds[pi].Plans {
			for di := range c.ProgramSeeds[pi].Plans[li].Days {
				day := &c.ProgramSeeds[pi].Plans[li].Days[di]
				for ei := range day.Exercises {
					rx := &day.Exercises[ei].Prescription
					rx.Scheme = strings.ToUpper(strings.TrimSpace(rx.Scheme))
					if rx.SetsMax == 0 {
						rx.SetsMax = rx.SetsMin
					}
					if rx.RepsMax == 0 {
						rx.RepsMax = rx.RepsMin
					}
					if rx.CurrentPhaseReps == 0 {
						rx.CurrentPhaseReps = rx.RepsMin
					}
				}
			}
		}
	}
}

func (c *Catalog) validate() error {
	if len(c.ProgramSeeds) == 0 {
		return fmt.Errorf("no programs defined")
	}
	for _, p := range c.ProgramSeeds {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("program name is required")
		}
		for _, plan := range p.Plans {
			if strings.TrimSpace(plan.Name) == "" {
				return fmt.Errorf("program %q: plan name is required", p.Name)
			}
			for _, day := range plan.Days {
				if strings.TrimSpace(day.Name) == "" {
					return fmt.Errorf("plan %q: day name is required", plan.Name)
				}
				for _, de := range day.Exercises {
					if err := de.validate(); err != nil {
						return fmt.Errorf("day %q: %w", day.Name, err)
					}
				}
			}
		}
	}
	return nil
}

func (de DayExerciseSeed) validate() error {
	name := strings.TrimSpace(de.Exercise.Name)
	if name == "" {
		return fmt.Errorf("exercise name is required")
	}
	rx := de.Prescription
	if !models.Scheme(rx.Scheme).Valid() {
		return fmt.Errorf("%s: unknown scheme %q", name, rx.Scheme)
	}
	if rx.SetsMin < 1 || rx.SetsMin > rx.SetsMax {
		return fmt.Errorf("%s: invalid set range %d-%d", name, rx.SetsMin, rx.SetsMax)
	}
	if rx.RepsMin < 1 || rx.RepsMin > rx.RepsMax {
		return fmt.Errorf("%s: invalid rep range %d-%d", name, rx.RepsMin, rx.RepsMax)
	}
	if rx.RestSeconds < 0 {
		return fmt.Errorf("%s: rest_seconds must not be negative", name)
	}
	return nil
}

// Programs converts the seed into model trees with positions assigned.
// IDs are left zero; storage assigns them on sync.
func (c *Catalog) Programs() []models.Program {
	out := make([]models.Program, 0, len(c.ProgramSeeds))
	for _, ps := range c.ProgramSeeds {
		prog := models.Program{Name: strings.TrimSpace(ps.Name)}
		for li, pl := range ps.Plans {
			plan := models.Plan{Name: strings.TrimSpace(pl.Name), Position: li + 1}
			for di, ds := range pl.Days {
				day := models.Day{Name: strings.TrimSpace(ds.Name), Position: di + 1}
				for ei, es := range ds.Exercises {
					ex := models.Exercise{
						Name:        strings.TrimSpace(es.Exercise.Name),
						Equipment:   es.Exercise.Equipment,
						MuscleGroup: es.Exercise.MuscleGroup,
						Bodyweight:  es.Exercise.Bodyweight,
					}
					rx := es.Prescription
					day.Exercises = append(day.Exercises, models.DayExercise{
						Position: ei + 1,
						Exercise: ex,
						Prescription: models.Prescription{
							ExerciseName:     ex.Name,
							Scheme:           models.Scheme(rx.Scheme),
							SetsMin:          rx.SetsMin,
							SetsMax:          rx.SetsMax,
							RepsMin:          rx.RepsMin,
							RepsMax:          rx.RepsMax,
							CurrentPhaseReps: rx.CurrentPhaseReps,
							RestSeconds:      rx.RestSeconds,
							Optional:         rx.Optional,
						},
					})
				}
				plan.Days = append(plan.Days, day)
			}
			prog.Plans = append(prog.Plans, plan)
		}
		out = append(out, prog)
	}
	return out
}
