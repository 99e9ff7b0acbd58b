package http

import (
	"net/http"

	"finpulse/internal/core"
	"finpulse/internal/engine"
	"finpulse/internal/log"
)

type paymentRequest struct {
	UserID       string     `json:"user_id"`
	ObligationID string     `json:"obligation_id"`
	Amount       core.Money `json:"amount"`
}

type bankToggleRequest struct {
	UserID  string `json:"user_id"`
	Enabled *bool  `json:"enabled"`
}

type spendRequest struct {
	UserID string     `json:"user_id"`
	Amount core.Money `json:"amount"`
}

type settingsRequest struct {
	UserID   string `json:"user_id"`
	Strategy string `json:"strategy"`
	Risk     string `json:"risk"`
	Goal     string `json:"goal"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserQuery(w, r)
	if !ok {
		return
	}

	record, err := s.api.Dashboard(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleRefinance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserQuery(w, r)
	if !ok {
		return
	}

	insight, err := s.api.Refinance(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if insight == nil {
		writeJSON(w, http.StatusOK, map[string]any{"eligible": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"eligible": true, "insight": insight})
}

func (s *Server) handleApplyPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.ObligationID == "" {
		writeErrorBody(w, http.StatusBadRequest, "user_id and obligation_id are required")
		return
	}

	record, err := s.api.ApplyPayment(r.Context(), req.UserID, req.ObligationID, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleSetBankEnabled(w http.ResponseWriter, r *http.Request) {
	bankID := r.PathValue("bankID")

	var req bankToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Enabled == nil {
		writeErrorBody(w, http.StatusBadRequest, "user_id and enabled are required")
		return
	}

	record, err := s.api.SetBankEnabled(r.Context(), req.UserID, bankID, *req.Enabled)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleRecordSpend(w http.ResponseWriter, r *http.Request) {
	var req spendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErrorBody(w, http.StatusBadRequest, "user_id is required")
		return
	}

	record, err := s.api.RecordSpend(r.Context(), req.UserID, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErrorBody(w, http.StatusBadRequest, "user_id is required")
		return
	}

	settings := engine.Settings{
		Strategy: engine.Strategy(req.Strategy),
		Risk:     engine.Risk(req.Risk),
		Goal:     engine.Goal(req.Goal),
	}
	record, err := s.api.UpdateSettings(r.Context(), req.UserID, settings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleRequestRefresh(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErrorBody(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.api.RequestRefresh(r.Context(), req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Refresh requested", log.FieldUserID, req.UserID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErrorBody(w, http.StatusBadRequest, "user_id is required")
		return
	}

	s.api.ResetSession(req.UserID)

	record, err := s.api.Dashboard(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
