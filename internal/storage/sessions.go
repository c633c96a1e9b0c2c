package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/models"
)

// StartSession creates an active session. When dayID is set and name is
// empty the day's name is used.
func (db *DB) StartSession(ctx context.Context, dayID *int, name, notes string) (*models.Session, error) {
	s := models.Session{
		ID:        uuid.New(),
		DayID:     dayID,
		Name:      name,
		StartedAt: time.Now().UTC(),
		Notes:     notes,
	}
	if dayID != nil && name == "" {
		if err := db.Pool.QueryRow(ctx, `SELECT name FROM days WHERE id = $1`, *dayID).Scan(&s.Name); err != nil {
			return nil, notFound(err, fmt.Sprintf("day %d", *dayID))
		}
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, day_id, name, started_at, notes) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.DayID, s.Name, s.StartedAt, s.Notes)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return &s, nil
}

// FinishSession marks a session as ended. Finishing twice keeps the first end time.
func (db *DB) FinishSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := scanSession(db.Pool.QueryRow(ctx,
		`UPDATE sessions SET ended_at = COALESCE(ended_at, now())
		 WHERE id = $1
		 RETURNING `+sessionColumns, id))
	if err != nil {
		return nil, notFound(err, "session "+id.String())
	}
	return &s, nil
}

const sessionColumns = `id, day_id, name, started_at, ended_at, notes`

func scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.DayID, &s.Name, &s.StartedAt, &s.EndedAt, &s.Notes)
	return s, err
}

// GetSession returns a session with its set logs.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := scanSession(db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "session "+id.String())
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setLogColumns+` FROM set_logs
		 WHERE session_id = $1
		 ORDER BY prescription_id, set_number`, id)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()
	s.Sets, err = scanSetLogs(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns sessions started in [start, end), newest first,
// without their set logs.
func (db *DB) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE started_at >= $1 AND started_at < $2
		 ORDER BY started_at DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveSession writes a complete session and its set logs in one transaction.
// It returns false without writing anything if the session id already exists.
func (db *DB) SaveSession(ctx context.Context, s models.Session) (bool, error) {
	var inserted bool
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		inserted, err = saveSession(ctx, tx, s)
		return err
	})
	return inserted, err
}

func saveSession(ctx context.Context, q querier, s models.Session) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO sessions (id, day_id, name, started_at, ended_at, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.DayID, s.Name, s.StartedAt, s.EndedAt, s.Notes)
	if err != nil {
		return false, fmt.Errorf("inserting session %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	for _, set := range s.Sets {
		if err := validateSetLog(set); err != nil {
			return false, err
		}
		loggedAt := set.LoggedAt
		if loggedAt.IsZero() {
			loggedAt = s.StartedAt
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO set_logs (session_id, prescription_id, set_number, role, weight,
			   external_load, reps, quality, modifiers, logged_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			s.ID, set.PrescriptionID, set.SetNumber, string(set.Role), set.Weight,
			set.ExternalLoad, set.Reps, string(set.Quality), modifiersOrEmpty(set.Modifiers), loggedAt); err != nil {
			return false, fmt.Errorf("inserting set %d of session %s: %w", set.SetNumber, s.ID, err)
		}
	}
	return true, nil
}

// listAllSessions returns every session with its set logs, oldest first.
func listAllSessions(ctx context.Context, q querier) ([]models.Session, error) {
	rows, err := q.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	var sessions []models.Session
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	setRows, err := q.Query(ctx,
		`SELECT `+setLogColumns+` FROM set_logs ORDER BY session_id, prescription_id, set_number`)
	if err != nil {
		return nil, fmt.Errorf("querying set logs: %w", err)
	}
	defer setRows.Close()
	sets, err := scanSetLogs(setRows)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if i, ok := index[set.SessionID]; ok {
			sessions[i].Sets = append(sessions[i].Sets, set)
		}
	}
	return sessions, nil
}
