package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/storage"
)

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	logEntry := storage.ImportLog{Source: "alpha", Status: "running"}
	logID, err := s.store.InsertImportLog(ctx, logEntry)
	if err != nil {
		s.log.Warn("creating import log", "error", err)
	}

	result, ingestErr := s.alpha.Ingest(ctx, r.Body)

	ms := int(time.Since(start).Milliseconds())
	logEntry.DurationMs = &ms
	if result != nil {
		logEntry.RowsReceived = result.SetsReceived
		logEntry.SessionsCreated = result.SessionsInserted
		logEntry.SetsInserted = result.SetsInserted
		logEntry.Unmatched = result.Unmatched
	}
	logEntry.Status = "success"
	if ingestErr != nil {
		msg := ingestErr.Error()
		logEntry.Status = "error"
		logEntry.ErrorMessage = &msg
	}
	if logID != 0 {
		if err := s.store.UpdateImportLog(ctx, logID, logEntry); err != nil {
			s.log.Warn("updating import log", "id", logID, "error", err)
		}
	}

	if ingestErr != nil {
		s.log.Error("alpha import error", "error", ingestErr)
		writeBadRequest(w, ingestErr.Error())
		return
	}
	s.log.Info("alpha import complete",
		"sessions", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"sets", result.SetsInserted,
		"duration_ms", ms,
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
