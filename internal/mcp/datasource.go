package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
	GetPrescription(ctx context.Context, id int) (*models.Prescription, error)
	LastPerformance(ctx context.Context, prescriptionID int, exclude uuid.UUID) ([]models.SetLog, error)
	ListBaselines(ctx context.Context, prescriptionID, phaseReps int) ([]models.Baseline, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
