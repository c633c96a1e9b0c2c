package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/models"
)

// baselineRoles are the set roles that can anchor a baseline.
var baselineRoles = []string{string(models.RoleTop), string(models.RoleBackoff), string(models.RoleWorking)}

// ListBaselines returns the baselines of a prescription established under
// the given phase, ordered by set number.
func (db *DB) ListBaselines(ctx context.Context, prescriptionID, phaseReps int) ([]models.Baseline, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT prescription_id, set_number, weight, reps, phase_reps, established_at
		 FROM baselines
		 WHERE prescription_id = $1 AND phase_reps = $2
		 ORDER BY set_number`, prescriptionID, phaseReps)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", err)
	}
	defer rows.Close()
	return scanBaselines(rows)
}

func scanBaselines(rows pgx.Rows) ([]models.Baseline, error) {
	var out []models.Baseline
	for rows.Next() {
		var b models.Baseline
		if err := rows.Scan(&b.PrescriptionID, &b.SetNumber, &b.Weight, &b.Reps, &b.PhaseReps, &b.EstablishedAt); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// EstablishBaselines records the non-warmup sets a prescription got in the
// given session as its baselines for the current phase, replacing any
// baselines already held for that phase.
func (db *DB) EstablishBaselines(ctx context.Context, prescriptionID int, sessionID uuid.UUID) ([]models.Baseline, error) {
	var out []models.Baseline
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var phase int
		if err := tx.QueryRow(ctx,
			`SELECT current_phase_reps FROM prescriptions WHERE id = $1`, prescriptionID).Scan(&phase); err != nil {
			return notFound(err, fmt.Sprintf("prescription %d", prescriptionID))
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM baselines WHERE prescription_id = $1 AND phase_reps = $2`,
			prescriptionID, phase); err != nil {
			return fmt.Errorf("clearing baselines: %w", err)
		}
		rows, err := tx.Query(ctx,
			`INSERT INTO baselines (prescription_id, phase_reps, set_number, weight, reps)
			 SELECT prescription_id, $3, set_number, weight + external_load, reps
			 FROM set_logs
			 WHERE prescription_id = $1 AND session_id = $2 AND role = ANY($4)
			 RETURNING prescription_id, set_number, weight, reps, phase_reps, established_at`,
			prescriptionID, sessionID, phase, baselineRoles)
		if err != nil {
			return fmt.Errorf("inserting baselines: %w", err)
		}
		defer rows.Close()
		out, err = scanBaselines(rows)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return fmt.Errorf("session %s has no working sets for prescription %d: %w", sessionID, prescriptionID, ErrInvalidInput)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b models.Baseline) int { return a.SetNumber - b.SetNumber })
	return out, nil
}

func listAllBaselines(ctx context.Context, q querier) ([]models.Baseline, error) {
	rows, err := q.Query(ctx,
		`SELECT prescription_id, set_number, weight, reps, phase_reps, established_at
		 FROM baselines ORDER BY prescription_id, phase_reps, set_number`)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", err)
	}
	defer rows.Close()
	return scanBaselines(rows)
}

func upsertBaseline(ctx context.Context, q querier, b models.Baseline) error {
	_, err := q.Exec(ctx,
		`INSERT INTO baselines (prescription_id, phase_reps, set_number, weight, reps, established_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (prescription_id, phase_reps, set_number) DO UPDATE SET
		   weight = EXCLUDED.weight, reps = EXCLUDED.reps, established_at = EXCLUDED.established_at`,
		b.PrescriptionID, b.PhaseReps, b.SetNumber, b.Weight, b.Reps, b.EstablishedAt)
	if err != nil {
		return fmt.Errorf("upserting baseline: %w", err)
	}
	return nil
}
