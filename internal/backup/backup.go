// Package backup writes storage snapshots to a single SQLite file and reads
// them back, so a LiftLog database can be copied off the server and restored.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// ErrExists is returned by Write when the target file is already present.
var ErrExists = errors.New("backup file already exists")

var schema = []string{
	`CREATE TABLE meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE programs (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		tree TEXT NOT NULL
	)`,
	`CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		day_id     INTEGER,
		name       TEXT NOT NULL,
		notes      TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		ended_at   TEXT
	)`,
	`CREATE TABLE set_logs (
		id              INTEGER PRIMARY KEY,
		session_id      TEXT NOT NULL REFERENCES sessions(id),
		prescription_id INTEGER NOT NULL,
		set_number      INTEGER NOT NULL,
		role            TEXT NOT NULL,
		weight          REAL NOT NULL,
		external_load   REAL NOT NULL,
		reps            INTEGER NOT NULL,
		quality         TEXT NOT NULL,
		modifiers       TEXT NOT NULL DEFAULT '',
		logged_at       TEXT NOT NULL
	)`,
	`CREATE TABLE baselines (
		prescription_id INTEGER NOT NULL,
		phase_reps      INTEGER NOT NULL,
		set_number      INTEGER NOT NULL,
		weight          REAL NOT NULL,
		reps            INTEGER NOT NULL,
		established_at  TEXT NOT NULL,
		PRIMARY KEY (prescription_id, phase_reps, set_number)
	)`,
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening backup db: %w", err)
	}
	return db, nil
}

// Write stores snap in a new SQLite file at path.
func Write(ctx context.Context, path string, snap *storage.Snapshot) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning backup transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating backup schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('exported_at', ?)`,
		formatTime(snap.ExportedAt)); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}

	for _, p := range snap.Programs {
		tree, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding program %q: %w", p.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO programs (id, name, tree) VALUES (?, ?, ?)`,
			p.ID, p.Name, string(tree)); err != nil {
			return fmt.Errorf("writing program %q: %w", p.Name, err)
		}
	}

	for _, s := range snap.Sessions {
		var ended any
		if s.EndedAt != nil {
			ended = formatTime(*s.EndedAt)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, day_id, name, notes, started_at, ended_at) VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID.String(), s.DayID, s.Name, s.Notes, formatTime(s.StartedAt), ended,
		); err != nil {
			return fmt.Errorf("writing session %s: %w", s.ID, err)
		}
		for _, set := range s.Sets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO set_logs (id, session_id, prescription_id, set_number, role, weight,
					external_load, reps, quality, modifiers, logged_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				set.ID, s.ID.String(), set.PrescriptionID, set.SetNumber, string(set.Role), set.Weight,
				set.ExternalLoad, set.Reps, string(set.Quality), strings.Join(set.Modifiers, ","),
				formatTime(set.LoggedAt),
			); err != nil {
				return fmt.Errorf("writing set %d of session %s: %w", set.SetNumber, s.ID, err)
			}
		}
	}

	for _, b := range snap.Baselines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO baselines (prescription_id, phase_reps, set_number, weight, reps, established_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.PrescriptionID, b.PhaseReps, b.SetNumber, b.Weight, b.Reps, formatTime(b.EstablishedAt),
		); err != nil {
			return fmt.Errorf("writing baseline: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing backup: %w", err)
	}
	return nil
}

// Read loads the snapshot stored in the SQLite file at path.
func Read(ctx context.Context, path string) (*storage.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	if version != schemaVersion {
		return nil, fmt.Errorf("unsupported backup version %d (want %d)", version, schemaVersion)
	}

	snap := &storage.Snapshot{}
	var exported string
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'exported_at'`).Scan(&exported); err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	if snap.ExportedAt, err = parseTime(exported); err != nil {
		return nil, err
	}

	if snap.Programs, err = readPrograms(ctx, db); err != nil {
		return nil, err
	}
	if snap.Sessions, err = readSessions(ctx, db); err != nil {
		return nil, err
	}
	if snap.Baselines, err = readBaselines(ctx, db); err != nil {
		return nil, err
	}
	return snap, nil
}

func readPrograms(ctx context.Context, db *sql.DB) ([]models.Program, error) {
	rows, err := db.QueryContext(ctx, `SELECT tree FROM programs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading programs: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		var tree string
		if err := rows.Scan(&tree); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		var p models.Program
		if err := json.Unmarshal([]byte(tree), &p); err != nil {
			return nil, fmt.Errorf("decoding program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func readSessions(ctx context.Context, db *sql.DB) ([]models.Session, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, day_id, name, notes, started_at, ended_at FROM sessions ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			s           models.Session
			id, started string
			dayID       sql.NullInt64
			ended       sql.NullString
		)
		if err := rows.Scan(&id, &dayID, &s.Name, &s.Notes, &started, &ended); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing session id %q: %w", id, err)
		}
		if dayID.Valid {
			d := int(dayID.Int64)
			s.DayID = &d
		}
		if s.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if ended.Valid {
			t, err := parseTime(ended.String)
			if err != nil {
				return nil, err
			}
			s.EndedAt = &t
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.QueryContext(ctx,
		`SELECT id, session_id, prescription_id, set_number, role, weight, external_load, reps,
			quality, modifiers, logged_at
		 FROM set_logs ORDER BY session_id, prescription_id, set_number`)
	if err != nil {
		return nil, fmt.Errorf("reading set logs: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var (
			set                  models.SetLog
			sessionID, modifiers string
			role, quality        string
			logged               string
		)
		if err := setRows.Scan(&set.ID, &sessionID, &set.PrescriptionID, &set.SetNumber, &role,
			&set.Weight, &set.ExternalLoad, &set.Reps, &quality, &modifiers, &logged); err != nil {
			return nil, fmt.Errorf("scanning set log: %w", err)
		}
		if set.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("parsing set session id %q: %w", sessionID, err)
		}
		i, ok := index[set.SessionID]
		if !ok {
			return nil, fmt.Errorf("set %d references unknown session %s", set.ID, set.SessionID)
		}
		set.Role = models.SetRole(role)
		set.Quality = models.Quality(quality)
		if modifiers != "" {
			set.Modifiers = strings.Split(modifiers, ",")
		}
		if set.LoggedAt, err = parseTime(logged); err != nil {
			return nil, err
		}
		sessions[i].Sets = append(sessions[i].Sets, set)
	}
	return sessions, setRows.Err()
}

func readBaselines(ctx context.Context, db *sql.DB) ([]models.Baseline, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT prescription_id, phase_reps, set_number, weight, reps, established_at
		 FROM baselines ORDER BY prescription_id, phase_reps, set_number`)
	if err != nil {
		return nil, fmt.Errorf("reading baselines: %w", err)
	}
	defer rows.Close()

	var baselines []models.Baseline
	for rows.Next() {
		var (
			b           models.Baseline
			established string
		)
		if err := rows.Scan(&b.PrescriptionID, &b.PhaseReps, &b.SetNumber, &b.Weight, &b.Reps, &established); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		if b.EstablishedAt, err = parseTime(established); err != nil {
			return nil, err
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
