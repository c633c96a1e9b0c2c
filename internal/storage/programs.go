package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/models"
)

// SyncPrograms upserts a seeded catalog. Rows are matched by name within
// their parent. Existing prescriptions keep their current phase, clamped to
// the new rep range.
func (db *DB) SyncPrograms(ctx context.Context, programs []models.Program) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		return syncPrograms(ctx, tx, programs)
	})
}

func syncPrograms(ctx context.Context, tx pgx.Tx, programs []models.Program) error {
	for _, p := range programs {
		var programID int
		if err := tx.QueryRow(ctx,
			`INSERT INTO programs (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, p.Name).Scan(&programID); err != nil {
			return fmt.Errorf("upserting program %q: %w", p.Name, err)
		}
		for _, plan := range p.Plans {
			var planID int
			if err := tx.QueryRow(ctx,
				`INSERT INTO plans (program_id, name, position) VALUES ($1, $2, $3)
				 ON CONFLICT (program_id, name) DO UPDATE SET position = EXCLUDED.position
				 RETURNING id`, programID, plan.Name, plan.Position).Scan(&planID); err != nil {
				return fmt.Errorf("upserting plan %q: %w", plan.Name, err)
			}
			for _, day := range plan.Days {
				if err := syncDay(ctx, tx, planID, day); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func syncDay(ctx context.Context, tx pgx.Tx, planID int, day models.Day) error {
	var dayID int
	if err := tx.QueryRow(ctx,
		`INSERT INTO days (plan_id, name, position) VALUES ($1, $2, $3)
		 ON CONFLICT (plan_id, name) DO UPDATE SET position = EXCLUDED.position
		 RETURNING id`, planID, day.Name, day.Position).Scan(&dayID); err != nil {
		return fmt.Errorf("upserting day %q: %w", day.Name, err)
	}
	for _, de := range day.Exercises {
		ex := de.Exercise
		var exerciseID int
		if err := tx.QueryRow(ctx,
			`INSERT INTO exercises (name, equipment, muscle_group, bodyweight) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (name) DO UPDATE SET equipment = EXCLUDED.equipment,
			   muscle_group = EXCLUDED.muscle_group, bodyweight = EXCLUDED.bodyweight
			 RETURNING id`, ex.Name, ex.Equipment, ex.MuscleGroup, ex.Bodyweight).Scan(&exerciseID); err != nil {
			return fmt.Errorf("upserting exercise %q: %w", ex.Name, err)
		}
		var deID int
		if err := tx.QueryRow(ctx,
			`INSERT INTO day_exercises (day_id, exercise_id, position) VALUES ($1, $2, $3)
			 ON CONFLICT (day_id, exercise_id) DO UPDATE SET position = EXCLUDED.position
			 RETURNING id`, dayID, exerciseID, de.Position).Scan(&deID); err != nil {
			return fmt.Errorf("upserting day exercise %q: %w", ex.Name, err)
		}
		rx := de.Prescription
		if _, err := tx.Exec(ctx,
			`INSERT INTO prescriptions (day_exercise_id, scheme, sets_min, sets_max, reps_min, reps_max,
			   current_phase_reps, rest_seconds, optional)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (day_exercise_id) DO UPDATE SET
			   scheme = EXCLUDED.scheme, sets_min = EXCLUDED.sets_min, sets_max = EXCLUDED.sets_max,
			   reps_min = EXCLUDED.reps_min, reps_max = EXCLUDED.reps_max,
			   current_phase_reps = LEAST(GREATEST(prescriptions.current_phase_reps, EXCLUDED.reps_min), EXCLUDED.reps_max),
			   rest_seconds = EXCLUDED.rest_seconds, optional = EXCLUDED.optional,
			   updated_at = now()`,
			deID, string(rx.Scheme), rx.SetsMin, rx.SetsMax, rx.RepsMin, rx.RepsMax,
			rx.CurrentPhaseReps, rx.RestSeconds, rx.Optional); err != nil {
			return fmt.Errorf("upserting prescription for %q: %w", ex.Name, err)
		}
	}
	return nil
}

const prescriptionColumns = `p.id, p.day_exercise_id, e.id, e.name, p.scheme, p.sets_min, p.sets_max,
	p.reps_min, p.reps_max, p.current_phase_reps, p.rest_seconds, p.optional, p.updated_at`

func scanPrescription(row pgx.Row) (models.Prescription, error) {
	var rx models.Prescription
	var scheme string
	err := row.Scan(&rx.ID, &rx.DayExerciseID, &rx.ExerciseID, &rx.ExerciseName, &scheme,
		&rx.SetsMin, &rx.SetsMax, &rx.RepsMin, &rx.RepsMax, &rx.CurrentPhaseReps,
		&rx.RestSeconds, &rx.Optional, &rx.UpdatedAt)
	rx.Scheme = models.Scheme(scheme)
	return rx, err
}

// GetPrescription returns a single prescription with its exercise name.
func (db *DB) GetPrescription(ctx context.Context, id int) (*models.Prescription, error) {
	rx, err := scanPrescription(db.Pool.QueryRow(ctx,
		`SELECT `+prescriptionColumns+`
		 FROM prescriptions p
		 JOIN day_exercises de ON de.id = p.day_exercise_id
		 JOIN exercises e ON e.id = de.exercise_id
		 WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("prescription %d", id))
	}
	return &rx, nil
}

// AdvancePhase sets the rep target a prescription is currently worked at.
// reps must lie within the prescription's rep range.
func (db *DB) AdvancePhase(ctx context.Context, id, reps int) (*models.Prescription, error) {
	rx, err := db.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if reps < rx.RepsMin || reps > rx.RepsMax {
		return nil, fmt.Errorf("phase %d outside rep range %d-%d: %w", reps, rx.RepsMin, rx.RepsMax, ErrInvalidInput)
	}
	if err := db.Pool.QueryRow(ctx,
		`UPDATE prescriptions SET current_phase_reps = $2, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`, id, reps).Scan(&rx.UpdatedAt); err != nil {
		return nil, notFound(err, fmt.Sprintf("prescription %d", id))
	}
	rx.CurrentPhaseReps = reps
	return rx, nil
}

// ListPrograms returns the full catalog tree ordered by position.
func (db *DB) ListPrograms(ctx context.Context) ([]models.Program, error) {
	return listPrograms(ctx, db.Pool)
}

func listPrograms(ctx context.Context, q querier) ([]models.Program, error) {
	rows, err := q.Query(ctx,
		`SELECT pr.id, pr.name, pl.id, pl.name, pl.position, d.id, d.name, d.position,
		        de.id, de.position, e.equipment, e.muscle_group, e.bodyweight, `+prescriptionColumns+`
		 FROM programs pr
		 JOIN plans pl ON pl.program_id = pr.id
		 JOIN days d ON d.plan_id = pl.id
		 JOIN day_exercises de ON de.day_id = d.id
		 JOIN exercises e ON e.id = de.exercise_id
		 JOIN prescriptions p ON p.day_exercise_id = de.id
		 ORDER BY pr.name, pl.position, d.position, de.position`)
	if err != nil {
		return nil, fmt.Errorf("querying program tree: %w", err)
	}
	defer rows.Close()

	var flat []catalogRow
	for rows.Next() {
		var r catalogRow
		var scheme string
		if err := rows.Scan(&r.programID, &r.programName, &r.planID, &r.planName, &r.planPos,
			&r.dayID, &r.dayName, &r.dayPos, &r.de.ID, &r.de.Position,
			&r.de.Exercise.Equipment, &r.de.Exercise.MuscleGroup, &r.de.Exercise.Bodyweight,
			&r.de.Prescription.ID, &r.de.Prescription.DayExerciseID, &r.de.Prescription.ExerciseID,
			&r.de.Prescription.ExerciseName, &scheme, &r.de.Prescription.SetsMin, &r.de.Prescription.SetsMax,
			&r.de.Prescription.RepsMin, &r.de.Prescription.RepsMax, &r.de.Prescription.CurrentPhaseReps,
			&r.de.Prescription.RestSeconds, &r.de.Prescription.Optional, &r.de.Prescription.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning program tree: %w", err)
		}
		r.de.Prescription.Scheme = models.Scheme(scheme)
		r.de.DayID = r.dayID
		r.de.Exercise.ID = r.de.Prescription.ExerciseID
		r.de.Exercise.Name = r.de.Prescription.ExerciseName
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buildTree(flat), nil
}

// catalogRow is one flattened row of the program tree query.
type catalogRow struct {
	programID   int
	programName string
	planID      int
	planName    string
	planPos     int
	dayID       int
	dayName     string
	dayPos      int
	de          models.DayExercise
}

// buildTree folds ordered flat rows back into nested programs.
func buildTree(flat []catalogRow) []models.Program {
	var out []models.Program
	for _, r := range flat {
		if len(out) == 0 || out[len(out)-1].ID != r.programID {
			out = append(out, models.Program{ID: r.programID, Name: r.programName})
		}
		prog := &out[len(out)-1]
		if len(prog.Plans) == 0 || prog.Plans[len(prog.Plans)-1].ID != r.planID {
			prog.Plans = append(prog.Plans, models.Plan{ID: r.planID, ProgramID: r.programID, Name: r.planName, Position: r.planPos})
		}
		plan := &prog.Plans[len(prog.Plans)-1]
		if len(plan.Days) == 0 || plan.Days[len(plan.Days)-1].ID != r.dayID {
			plan.Days = append(plan.Days, models.Day{ID: r.dayID, PlanID: r.planID, Name: r.dayName, Position: r.dayPos})
		}
		day := &plan.Days[len(plan.Days)-1]
		day.Exercises = append(day.Exercises, r.de)
	}
	return out
}

// ListPrescriptions returns every prescription with its exercise name.
func (db *DB) ListPrescriptions(ctx context.Context) ([]models.Prescription, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+prescriptionColumns+`
		 FROM prescriptions p
		 JOIN day_exercises de ON de.id = p.day_exercise_id
		 JOIN exercises e ON e.id = de.exercise_id
		 ORDER BY de.day_id, de.position`)
	if err != nil {
		return nil, fmt.Errorf("querying prescriptions: %w", err)
	}
	defer rows.Close()

	var out []models.Prescription
	for rows.Next() {
		rx, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prescription: %w", err)
		}
		out = append(out, rx)
	}
	return out, rows.Err()
}
