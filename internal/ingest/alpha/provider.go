package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
)

// Store is the storage the provider writes through.
type Store interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	SaveSession(ctx context.Context, s models.Session) (bool, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store Store
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(store Store, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Plan parses an export and maps it onto the catalog without writing.
func (p *Provider) Plan(ctx context.Context, r io.Reader) ([]models.Session, *ingest.Result, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing CSV: %w", err)
	}
	programs, err := p.store.ListPrograms(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	m := newMatcher(programs)

	result := &ingest.Result{SessionsReceived: len(parsed)}
	seen := make(map[string]bool)
	var sessions []models.Session
	for _, ps := range parsed {
		for _, ex := range ps.Exercises {
			result.SetsReceived += len(ex.Sets)
		}
		s, unmatched := toSession(ps, m)
		for _, name := range unmatched {
			if !seen[name] {
				seen[name] = true
				result.Unmatched = append(result.Unmatched, name)
			}
		}
		if len(s.Sets) == 0 {
			p.log.Debug("skipping session without matched exercises", "session", ps.Name, "date", ps.Date)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, result, nil
}

// Ingest parses an export and stores each session atomically. Sessions
// imported before are skipped.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	sessions, result, err := p.Plan(ctx, r)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		inserted, err := p.store.SaveSession(ctx, s)
		if err != nil {
			return result, fmt.Errorf("saving session %q: %w", s.Name, err)
		}
		if !inserted {
			result.SessionsSkipped++
			continue
		}
		result.SessionsInserted++
		result.SetsInserted += len(s.Sets)
	}
	if len(result.Unmatched) > 0 {
		p.log.Warn("exercises not in catalog", "names", result.Unmatched)
	}
	return result, nil
}
