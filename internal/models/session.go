package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SetRole tags what a logged set was for.
type SetRole string

const (
	RoleWarmup    SetRole = "warmup"
	RoleTop       SetRole = "top"
	RoleBackoff   SetRole = "backoff"
	RoleDrop      SetRole = "drop"
	RoleWorking   SetRole = "working"
	RoleRestPause SetRole = "rest_pause"
)

// Valid reports whether r is a known role.
func (r SetRole) Valid() bool {
	switch r {
	case RoleWarmup, RoleTop, RoleBackoff, RoleDrop, RoleWorking, RoleRestPause:
		return true
	}
	return false
}

// Quality is the lifter's own rating of how a set looked.
type Quality string

const (
	QualityClean  Quality = "clean"
	QualityOK     Quality = "ok"
	QualitySloppy Quality = "sloppy"
)

// Valid reports whether q is a known quality tag.
func (q Quality) Valid() bool {
	switch q {
	case QualityClean, QualityOK, QualitySloppy:
		return true
	}
	return false
}

// ModifierCluster marks a set performed as part of a cluster.
const ModifierCluster = "cluster"

// Session is one training session. EndedAt is nil while the session is active.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	DayID     *int       `json:"day_id,omitempty"`
	Name      string     `json:"name"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Sets      []SetLog   `json:"sets,omitempty"`
}

// Active reports whether sets can still be logged against the session.
func (s Session) Active() bool {
	return s.EndedAt == nil
}

// SetLog is a single performed set.
type SetLog struct {
	ID             int       `json:"id"`
	SessionID      uuid.UUID `json:"session_id"`
	PrescriptionID int       `json:"prescription_id"`
	SetNumber      int       `json:"set_number"`
	Role           SetRole   `json:"role"`
	Weight         float64   `json:"weight"`
	ExternalLoad   float64   `json:"external_load"`
	Reps           int       `json:"reps"`
	Quality        Quality   `json:"quality"`
	Modifiers      []string  `json:"modifiers,omitempty"`
	LoggedAt       time.Time `json:"logged_at"`
}

// HasModifier reports whether the set carries the given modifier tag.
func (s SetLog) HasModifier(m string) bool {
	return slices.Contains(s.Modifiers, m)
}

// NetLoad is the logged weight plus any added (or minus any assisted) load.
func (s SetLog) NetLoad() float64 {
	return s.Weight + s.ExternalLoad
}

// Baseline is the reference performance for one set of a prescription,
// established under a given rep target (phase).
type Baseline struct {
	PrescriptionID int       `json:"prescription_id"`
	SetNumber      int       `json:"set_number"`
	Weight         float64   `json:"weight"`
	Reps           int       `json:"reps"`
	PhaseReps      int       `json:"phase_reps"`
	EstablishedAt  time.Time `json:"established_at"`
}
