package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AaronLay10/DecisionSim/internal/orchestrator"
	"github.com/AaronLay10/DecisionSim/internal/simulation"
)

type CreateSessionRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type AdvanceRequest struct {
	Option *int `json:"option"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		snf *orchestrator.SessionNotFoundError
		oor *simulation.IndexOutOfRangeError
		ite *simulation.InvalidTransitionError
		dle *simulation.DecisionLimitError
	)
	switch {
	case isNotFound(err), errors.As(err, &snf):
		return http.StatusNotFound
	case errors.As(err, &oor):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ite), errors.As(err, &dle):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ScenarioID == "" {
		writeError(w, http.StatusBadRequest, "scenario_id required")
		return
	}

	v, err := s.manager.Start(r.Context(), req.ScenarioID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) advanceSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Option == nil {
		writeError(w, http.StatusBadRequest, "option required")
		return
	}

	v, err := s.manager.Advance(r.Context(), r.PathValue("id"), *req.Option)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.manager.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
