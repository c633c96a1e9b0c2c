package storage

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/models"
)

const setLogColumns = `id, session_id, prescription_id, set_number, role, weight,
	external_load, reps, quality, modifiers, logged_at`

func scanSetLogs(rows pgx.Rows) ([]models.SetLog, error) {
	var out []models.SetLog
	for rows.Next() {
		s, err := scanSetLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning set log: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSetLog(row pgx.Row) (models.SetLog, error) {
	var s models.SetLog
	var role, quality string
	err := row.Scan(&s.ID, &s.SessionID, &s.PrescriptionID, &s.SetNumber, &role, &s.Weight,
		&s.ExternalLoad, &s.Reps, &quality, &s.Modifiers, &s.LoggedAt)
	s.Role = models.SetRole(role)
	s.Quality = models.Quality(quality)
	return s, err
}

// validateSetLog checks the fields a caller controls.
func validateSetLog(s models.SetLog) error {
	if s.PrescriptionID <= 0 {
		return fmt.Errorf("prescription_id is required: %w", ErrInvalidInput)
	}
	return validatePerformance(s)
}

// validatePerformance checks the editable fields of a set.
func validatePerformance(s models.SetLog) error {
	if !s.Role.Valid() {
		return fmt.Errorf("unknown role %q: %w", s.Role, ErrInvalidInput)
	}
	if !s.Quality.Valid() {
		return fmt.Errorf("unknown quality %q: %w", s.Quality, ErrInvalidInput)
	}
	if s.Weight < 0 {
		return fmt.Errorf("weight must not be negative: %w", ErrInvalidInput)
	}
	if s.Reps < 0 {
		return fmt.Errorf("reps must not be negative: %w", ErrInvalidInput)
	}
	return nil
}

func modifiersOrEmpty(m []string) []string {
	if m == nil {
		return []string{}
	}
	return m
}

// setNumberLockKey derives the advisory lock key guarding set numbering for
// one prescription within one session.
func setNumberLockKey(sessionID uuid.UUID, prescriptionID int) int64 {
	h := fnv.New64a()
	h.Write(sessionID[:])
	fmt.Fprintf(h, ":%d", prescriptionID)
	return int64(h.Sum64())
}

// AddSetLog appends a set to an active session. The set number is assigned
// as one past the highest existing number for the same prescription.
func (db *DB) AddSetLog(ctx context.Context, s models.SetLog) (*models.SetLog, error) {
	if s.Quality == "" {
		s.Quality = models.QualityOK
	}
	if err := validateSetLog(s); err != nil {
		return nil, err
	}
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var session models.Session
		if err := tx.QueryRow(ctx,
			`SELECT ended_at FROM sessions WHERE id = $1 FOR SHARE`, s.SessionID).Scan(&session.EndedAt); err != nil {
			return notFound(err, "session "+s.SessionID.String())
		}
		if err := checkWritable(session); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM prescriptions WHERE id = $1)`, s.PrescriptionID).Scan(&exists); err != nil {
			return fmt.Errorf("checking prescription: %w", err)
		}
		if !exists {
			return fmt.Errorf("prescription %d: %w", s.PrescriptionID, ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`,
			setNumberLockKey(s.SessionID, s.PrescriptionID)); err != nil {
			return fmt.Errorf("locking set numbering: %w", err)
		}
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(set_number), 0) + 1 FROM set_logs
			 WHERE session_id = $1 AND prescription_id = $2`,
			s.SessionID, s.PrescriptionID).Scan(&s.SetNumber); err != nil {
			return fmt.Errorf("computing set number: %w", err)
		}
		s.Modifiers = modifiersOrEmpty(s.Modifiers)
		return tx.QueryRow(ctx,
			`INSERT INTO set_logs (session_id, prescription_id, set_number, role, weight,
			   external_load, reps, quality, modifiers)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id, logged_at`,
			s.SessionID, s.PrescriptionID, s.SetNumber, string(s.Role), s.Weight,
			s.ExternalLoad, s.Reps, string(s.Quality), s.Modifiers).Scan(&s.ID, &s.LoggedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("adding set log: %w", err)
	}
	return &s, nil
}

// loadWritableSet locks the set row and returns its owning session and
// prescription. Sets of a finished session are immutable.
func loadWritableSet(ctx context.Context, tx pgx.Tx, id int) (models.SetLog, error) {
	var set models.SetLog
	var session models.Session
	if err := tx.QueryRow(ctx,
		`SELECT l.session_id, l.prescription_id, s.ended_at
		 FROM set_logs l JOIN sessions s ON s.id = l.session_id
		 WHERE l.id = $1
		 FOR UPDATE OF l`, id).Scan(&set.SessionID, &set.PrescriptionID, &session.EndedAt); err != nil {
		return set, notFound(err, fmt.Sprintf("set log %d", id))
	}
	set.ID = id
	return set, checkWritable(session)
}

// checkWritable reports ErrSessionFinished for sessions that have ended.
func checkWritable(s models.Session) error {
	if !s.Active() {
		return ErrSessionFinished
	}
	return nil
}

// UpdateSetLog overwrites the performance fields of a set. Set number,
// session and prescription are fixed once logged.
func (db *DB) UpdateSetLog(ctx context.Context, s models.SetLog) (*models.SetLog, error) {
	if s.Quality == "" {
		s.Quality = models.QualityOK
	}
	if err := validatePerformance(s); err != nil {
		return nil, err
	}
	var updated models.SetLog
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := loadWritableSet(ctx, tx, s.ID); err != nil {
			return err
		}
		var err error
		updated, err = scanSetLog(tx.QueryRow(ctx,
			`UPDATE set_logs SET role = $2, weight = $3, external_load = $4, reps = $5,
			   quality = $6, modifiers = $7
			 WHERE id = $1
			 RETURNING `+setLogColumns,
			s.ID, string(s.Role), s.Weight, s.ExternalLoad, s.Reps, string(s.Quality), modifiersOrEmpty(s.Modifiers)))
		if err != nil {
			return notFound(err, fmt.Sprintf("set log %d", s.ID))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating set log: %w", err)
	}
	return &updated, nil
}

// DeleteSetLog removes a set and renumbers the later sets of the same
// prescription in the session so numbering stays contiguous from 1.
func (db *DB) DeleteSetLog(ctx context.Context, id int) error {
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		set, err := loadWritableSet(ctx, tx, id)
		if err != nil {
			return err
		}
		sessionID, prescriptionID := set.SessionID, set.PrescriptionID
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`,
			setNumberLockKey(sessionID, prescriptionID)); err != nil {
			return fmt.Errorf("locking set numbering: %w", err)
		}
		var deleted int
		if err := tx.QueryRow(ctx,
			`DELETE FROM set_logs WHERE id = $1 RETURNING set_number`, id).Scan(&deleted); err != nil {
			return notFound(err, fmt.Sprintf("set log %d", id))
		}
		if _, err := tx.Exec(ctx,
			`UPDATE set_logs SET set_number = set_number - 1
			 WHERE session_id = $1 AND prescription_id = $2 AND set_number > $3`,
			sessionID, prescriptionID, deleted); err != nil {
			return fmt.Errorf("compacting set numbers: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting set log: %w", err)
	}
	return nil
}

// LastPerformance returns the set logs of the most recent session in which
// the prescription was trained, ordered by set number. exclude skips one
// session (typically the one in progress); pass uuid.Nil to consider all.
func (db *DB) LastPerformance(ctx context.Context, prescriptionID int, exclude uuid.UUID) ([]models.SetLog, error) {
	rows, err := db.Pool.Query(ctx,
		`WITH last AS (
		   SELECT s.id FROM sessions s
		   WHERE s.id <> $2 AND EXISTS (
		     SELECT 1 FROM set_logs l WHERE l.session_id = s.id AND l.prescription_id = $1)
		   ORDER BY s.started_at DESC
		   LIMIT 1
		 )
		 SELECT `+setLogColumns+` FROM set_logs
		 WHERE prescription_id = $1 AND session_id = (SELECT id FROM last)
		 ORDER BY set_number`, prescriptionID, exclude)
	if err != nil {
		return nil, fmt.Errorf("querying last performance: %w", err)
	}
	defer rows.Close()
	return scanSetLogs(rows)
}
