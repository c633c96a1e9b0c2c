package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
)

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListPrograms(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleListPrescriptions(w http.ResponseWriter, r *http.Request) {
	rxs, err := s.store.ListPrescriptions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rxs == nil {
		rxs = []models.Prescription{}
	}
	writeJSON(w, http.StatusOK, rxs)
}

func (s *Server) handleGetPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	rx, err := s.store.GetPrescription(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rx)
}

// excludeParam reads ?exclude_session=, the session whose sets should not
// count as last performance.
func excludeParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("exclude_session")
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

func (s *Server) handleLastPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	exclude, err := excludeParam(r)
	if err != nil {
		writeBadRequest(w, "invalid exclude_session")
		return
	}
	if _, err := s.store.GetPrescription(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	sets, err := s.store.LastPerformance(r.Context(), id, exclude)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sets == nil {
		sets = []models.SetLog{}
	}
	writeJSON(w, http.StatusOK, sets)
}

type suggestionsResponse struct {
	Prescription *models.Prescription     `json:"prescription"`
	Unit         progression.Unit         `json:"unit"`
	Suggestions  []progression.Suggestion `json:"suggestions"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	unit, err := s.unitParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	exclude, err := excludeParam(r)
	if err != nil {
		writeBadRequest(w, "invalid exclude_session")
		return
	}

	ctx := r.Context()
	rx, err := s.store.GetPrescription(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	last, err := s.store.LastPerformance(ctx, id, exclude)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	baselines, err := s.store.ListBaselines(ctx, id, rx.CurrentPhaseReps)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	suggestions := progression.Suggest(rx.Scheme, last, *rx, progression.Baselines(baselines))
	if s.opts.Metrics != nil {
		for _, sg := range suggestions {
			s.opts.Metrics.Suggestions.WithLabelValues(string(rx.Scheme), string(sg.Type)).Inc()
		}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Prescription: rx,
		Unit:         unit,
		Suggestions:  progression.InUnit(suggestions, unit),
	})
}

func (s *Server) handleListBaselines(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	rx, err := s.store.GetPrescription(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	phase := rx.CurrentPhaseReps
	if raw := r.URL.Query().Get("phase"); raw != "" {
		if phase, err = strconv.Atoi(raw); err != nil {
			writeBadRequest(w, "invalid phase")
			return
		}
	}
	baselines, err := s.store.ListBaselines(r.Context(), id, phase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if baselines == nil {
		baselines = []models.Baseline{}
	}
	writeJSON(w, http.StatusOK, baselines)
}

func (s *Server) handleEstablishBaselines(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req struct {
		SessionID uuid.UUID `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == uuid.Nil {
		writeBadRequest(w, "session_id required")
		return
	}
	baselines, err := s.store.EstablishBaselines(r.Context(), id, req.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("baselines established", "prescription", id, "session", req.SessionID, "sets", len(baselines))
	writeJSON(w, http.StatusCreated, baselines)
}

func (s *Server) handleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req struct {
		Reps int `json:"reps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reps <= 0 {
		writeBadRequest(w, "reps must be a positive integer")
		return
	}
	rx, err := s.store.AdvancePhase(r.Context(), id, req.Reps)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rx)
}
