package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/models"
)

// Snapshot is a portable copy of everything LiftLog stores, except import logs.
type Snapshot struct {
	ExportedAt time.Time         `json:"exported_at"`
	Programs   []models.Program  `json:"programs"`
	Sessions   []models.Session  `json:"sessions"`
	Baselines  []models.Baseline `json:"baselines"`
}

// RestoreStats counts what a restore wrote.
type RestoreStats struct {
	SessionsRestored int `json:"sessions_restored"`
	SessionsSkipped  int `json:"sessions_skipped"`
	Sets             int `json:"sets"`
	Baselines        int `json:"baselines"`
}

// ExportSnapshot reads a consistent snapshot of the database.
func (db *DB) ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap := &Snapshot{ExportedAt: time.Now().UTC()}
	if snap.Programs, err = listPrograms(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Sessions, err = listAllSessions(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Baselines, err = listAllBaselines(ctx, tx); err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreSnapshot loads a snapshot into the database in one transaction.
// Programs are merged by name, so prescription ids in the snapshot are
// remapped onto the ids of this database. Sessions that already exist are
// skipped.
func (db *DB) RestoreSnapshot(ctx context.Context, snap *Snapshot) (RestoreStats, error) {
	var stats RestoreStats
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if err := syncPrograms(ctx, tx, snap.Programs); err != nil {
			return err
		}
		current, err := listPrograms(ctx, tx)
		if err != nil {
			return err
		}
		remap := RemapPrescriptions(snap.Programs, current)

		for _, s := range snap.Sessions {
			s.DayID = nil
			for i := range s.Sets {
				id, ok := remap[s.Sets[i].PrescriptionID]
				if !ok {
					return fmt.Errorf("session %s references unknown prescription %d: %w",
						s.ID, s.Sets[i].PrescriptionID, ErrInvalidInput)
				}
				s.Sets[i].PrescriptionID = id
			}
			inserted, err := saveSession(ctx, tx, s)
			if err != nil {
				return err
			}
			if !inserted {
				stats.SessionsSkipped++
				continue
			}
			stats.SessionsRestored++
			stats.Sets += len(s.Sets)
		}

		for _, b := range snap.Baselines {
			id, ok := remap[b.PrescriptionID]
			if !ok {
				return fmt.Errorf("baseline references unknown prescription %d: %w", b.PrescriptionID, ErrInvalidInput)
			}
			b.PrescriptionID = id
			if err := upsertBaseline(ctx, tx, b); err != nil {
				return err
			}
			stats.Baselines++
		}
		return nil
	})
	if err != nil {
		return RestoreStats{}, fmt.Errorf("restoring snapshot: %w", err)
	}
	return stats, nil
}

// RemapPrescriptions maps prescription ids of one catalog tree onto another
// by matching program, plan, day and exercise names.
func RemapPrescriptions(from, to []models.Program) map[int]int {
	byKey := make(map[string]int)
	walkPrescriptions(to, func(key string, rx models.Prescription) {
		byKey[key] = rx.ID
	})
	out := make(map[int]int)
	walkPrescriptions(from, func(key string, rx models.Prescription) {
		if id, ok := byKey[key]; ok {
			out[rx.ID] = id
		}
	})
	return out
}

func walkPrescriptions(programs []models.Program, fn func(key string, rx models.Prescription)) {
	for _, p := range programs {
		for _, plan := range p.Plans {
			for _, day := range plan.Days {
				for _, de := range day.Exercises {
					key := strings.Join([]string{p.Name, plan.Name, day.Name, de.Exercise.Name}, "\x00")
					fn(key, de.Prescription)
				}
			}
		}
	}
}
