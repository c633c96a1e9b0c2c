package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	sessions, err := s.store.ListSessions(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// sessionStats is the summary of a session as a whole and per prescription.
type sessionStats struct {
	SessionID     string                      `json:"session_id"`
	Unit          progression.Unit            `json:"unit"`
	Total         progression.Summary         `json:"total"`
	Prescriptions map[int]progression.Summary `json:"prescriptions"`
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	unit, err := s.unitParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	byRx := make(map[int][]models.SetLog)
	for _, set := range session.Sets {
		byRx[set.PrescriptionID] = append(byRx[set.PrescriptionID], set)
	}
	stats := sessionStats{
		SessionID:     session.ID.String(),
		Unit:          unit,
		Total:         progression.Summarize(session.Sets).InUnit(unit),
		Prescriptions: make(map[int]progression.Summary, len(byRx)),
	}
	for rxID, sets := range byRx {
		stats.Prescriptions[rxID] = progression.Summarize(sets).InUnit(unit)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DayID *int   `json:"day_id"`
		Name  string `json:"name"`
		Notes string `json:"notes"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON: "+err.Error())
			return
		}
	}
	session, err := s.store.StartSession(r.Context(), req.DayID, req.Name, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	session, err := s.store.FinishSession(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// setRequest is the body of set create and update calls. Weights are in
// Unit, or the server's default unit when empty.
type setRequest struct {
	PrescriptionID int            `json:"prescription_id"`
	Role           models.SetRole `json:"role"`
	Weight         *float64       `json:"weight"`
	ExternalLoad   float64        `json:"external_load"`
	Reps           *int           `json:"reps"`
	Quality        models.Quality `json:"quality"`
	Modifiers      []string       `json:"modifiers"`
	Unit           string         `json:"unit"`
}

// toSetLog validates the request shape and converts weights to kg.
func (s *Server) toSetLog(req setRequest) (models.SetLog, string) {
	if req.Weight == nil {
		return models.SetLog{}, "weight required"
	}
	if req.Reps == nil {
		return models.SetLog{}, "reps required"
	}
	unit := s.opts.Units
	if req.Unit != "" {
		u, err := progression.ParseUnit(req.Unit)
		if err != nil {
			return models.SetLog{}, err.Error()
		}
		unit = u
	}
	role := req.Role
	if role == "" {
		role = models.RoleWorking
	}
	return models.SetLog{
		PrescriptionID: req.PrescriptionID,
		Role:           role,
		Weight:         unit.ToKg(*req.Weight),
		ExternalLoad:   unit.ToKg(req.ExternalLoad),
		Reps:           *req.Reps,
		Quality:        req.Quality,
		Modifiers:      req.Modifiers,
	}, ""
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuidParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.PrescriptionID <= 0 {
		writeBadRequest(w, "prescription_id required")
		return
	}
	set, msg := s.toSetLog(req)
	if msg != "" {
		writeBadRequest(w, msg)
		return
	}
	set.SessionID = sessionID

	created, err := s.store.AddSetLog(r.Context(), set)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.SetsLogged.Inc()
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	set, msg := s.toSetLog(req)
	if msg != "" {
		writeBadRequest(w, msg)
		return
	}
	set.ID = id

	updated, err := s.store.UpdateSetLog(r.Context(), set)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.store.DeleteSetLog(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if r.URL.Query().Get("start") == "" {
		start = end.AddDate(0, -3, 0)
	}
	bucket := "1 week"
	switch r.URL.Query().Get("bucket") {
	case "month", "monthly":
		bucket = "1 month"
	case "day", "daily":
		bucket = "1 day"
	}
	periods, err := s.store.GetTrainingSummary(r.Context(), start, end, bucket)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}
