package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/storage"
)

// Store is the data access the handlers need. *storage.DB satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	ListPrograms(ctx context.Context) ([]models.Program, error)
	ListPrescriptions(ctx context.Context) ([]models.Prescription, error)
	GetPrescription(ctx context.Context, id int) (*models.Prescription, error)
	AdvancePhase(ctx context.Context, id, reps int) (*models.Prescription, error)
	LastPerformance(ctx context.Context, prescriptionID int, exclude uuid.UUID) ([]models.SetLog, error)
	ListBaselines(ctx context.Context, prescriptionID, phaseReps int) ([]models.Baseline, error)
	EstablishBaselines(ctx context.Context, prescriptionID int, sessionID uuid.UUID) ([]models.Baseline, error)
	StartSession(ctx context.Context, dayID *int, name, notes string) (*models.Session, error)
	FinishSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error)
	AddSetLog(ctx context.Context, s models.SetLog) (*models.SetLog, error)
	UpdateSetLog(ctx context.Context, s models.SetLog) (*models.SetLog, error)
	DeleteSetLog(ctx context.Context, id int) error
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// Importer ingests an export file.
type Importer interface {
	Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error)
}

// Options configures a Server.
type Options struct {
	APIKey string
	// Units is the weight unit used when a request does not pass ?unit=.
	Units progression.Unit
	// Metrics, when set, records request and suggestion counters.
	Metrics *metrics.Manager
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	// MCPHandler, when set, serves the MCP streamable HTTP transport at /mcp.
	MCPHandler http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	alpha  Importer
	log    *slog.Logger
	opts   Options
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, alpha Importer, opts Options, log *slog.Logger) *Server {
	if opts.Units == "" {
		opts.Units = progression.Kilograms
	}
	s := &Server{
		store:  store,
		alpha:  alpha,
		log:    log,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.opts.Metrics != nil {
		s.router.Use(RequestMetrics(s.opts.Metrics))
	}
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	if s.opts.MetricsHandler != nil {
		s.router.Handle("/metrics", s.opts.MetricsHandler)
	}
	if s.opts.MCPHandler != nil {
		s.router.Handle("/mcp", s.opts.MCPHandler)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Reads (no auth; tsnet restricts who can reach the server)
		r.Get("/program", s.handleProgram)
		r.Get("/prescriptions", s.handleListPrescriptions)
		r.Get("/prescriptions/{id}", s.handleGetPrescription)
		r.Get("/prescriptions/{id}/last", s.handleLastPerformance)
		r.Get("/prescriptions/{id}/suggestions", s.handleSuggestions)
		r.Get("/prescriptions/{id}/baselines", s.handleListBaselines)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/stats", s.handleSessionStats)
		r.Get("/summary", s.handleSummary)
		r.Get("/imports", s.handleImportLogs)

		// Writes (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.opts.APIKey))
			r.Post("/sessions", s.handleStartSession)
			r.Post("/sessions/{id}/finish", s.handleFinishSession)
			r.Post("/sessions/{id}/sets", s.handleAddSet)
			r.Put("/sets/{id}", s.handleUpdateSet)
			r.Delete("/sets/{id}", s.handleDeleteSet)
			r.Post("/prescriptions/{id}/baselines", s.handleEstablishBaselines)
			r.Post("/prescriptions/{id}/phase", s.handleAdvancePhase)
			r.Post("/import/alpha", s.handleAlphaImport)
		})
	})
}
