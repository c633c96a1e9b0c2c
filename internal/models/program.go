package models

import "time"

// Scheme identifies how an exercise is progressed from session to session.
type Scheme string

const (
	SchemeTopSetBackoffTriple      Scheme = "TOP_SET_BACKOFF_TRIPLE"
	SchemeDoubleProgression        Scheme = "DOUBLE_PROGRESSION"
	SchemeDynamicDoubleProgression Scheme = "DYNAMIC_DOUBLE_PROGRESSION"
	SchemeDropSets                 Scheme = "DROP_SETS"
	SchemeClusterSet               Scheme = "CLUSTER_SET"
	SchemeAMRAP                    Scheme = "AMRAP"
	SchemeRestPause                Scheme = "REST_PAUSE"
	SchemePyramidUp                Scheme = "PYRAMID_UP"
)

// Schemes lists every known scheme in declaration order.
var Schemes = []Scheme{
	SchemeTopSetBackoffTriple,
	SchemeDoubleProgression,
	SchemeDynamicDoubleProgression,
	SchemeDropSets,
	SchemeClusterSet,
	SchemeAMRAP,
	SchemeRestPause,
	SchemePyramidUp,
}

// Valid reports whether s is one of the known schemes.
func (s Scheme) Valid() bool {
	for _, known := range Schemes {
		if s == known {
			return true
		}
	}
	return false
}

// Program is the top of the training catalog.
type Program struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Plans []Plan `json:"plans,omitempty"`
}

// Plan is a block of training inside a program (e.g. a mesocycle).
type Plan struct {
	ID        int    `json:"id"`
	ProgramID int    `json:"program_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Days      []Day  `json:"days,omitempty"`
}

// Day is one training day of a plan.
type Day struct {
	ID        int           `json:"id"`
	PlanID    int           `json:"plan_id"`
	Name      string        `json:"name"`
	Position  int           `json:"position"`
	Exercises []DayExercise `json:"exercises,omitempty"`
}

// Exercise is a movement from the catalog.
type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Equipment   string `json:"equipment,omitempty"`
	MuscleGroup string `json:"muscle_group,omitempty"`
	Bodyweight  bool   `json:"bodyweight"`
}

// DayExercise places an exercise on a day together with its prescription.
type DayExercise struct {
	ID           int          `json:"id"`
	DayID        int          `json:"day_id"`
	Position     int          `json:"position"`
	Exercise     Exercise     `json:"exercise"`
	Prescription Prescription `json:"prescription"`
}

// Prescription is the set/rep target for one exercise on one day.
type Prescription struct {
	ID               int       `json:"id"`
	DayExerciseID    int       `json:"day_exercise_id"`
	ExerciseID       int       `json:"exercise_id"`
	ExerciseName     string    `json:"exercise_name"`
	Scheme           Scheme    `json:"scheme"`
	SetsMin          int       `json:"sets_min"`
	SetsMax          int       `json:"sets_max"`
	RepsMin          int       `json:"reps_min"`
	RepsMax          int       `json:"reps_max"`
	CurrentPhaseReps int       `json:"current_phase_reps"`
	RestSeconds      int       `json:"rest_seconds"`
	Optional         bool      `json:"optional"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Rest returns the prescribed rest between sets.
func (p Prescription) Rest() time.Duration {
	return time.Duration(p.RestSeconds) * time.Second
}
