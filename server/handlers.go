package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smallnest/ragagent/agent"
	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeTurnError maps a Session error to a status. Store details stay in
// the log.
func (s *Server) writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, agent.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, store.ErrInvalidSessionID):
		writeError(w, http.StatusBadRequest, "invalid session id")
	case agent.KindOf(err) == agent.KindCancelled:
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("request %s %s failed: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "conversation storage unavailable")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: agent.NewSessionID()})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.CheckID("get", id); err != nil {
		s.writeTurnError(w, r, err)
		return
	}

	conv, err := s.session.History(r.Context(), id)
	if err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	if conv == nil {
		conv = chat.Conversation{}
	}
	writeJSON(w, http.StatusOK, conv)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Answer  string          `json:"answer"`
	Outcome agent.ErrorKind `json:"outcome"`
	Rounds  int             `json:"rounds"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	res, err := s.session.SubmitTurn(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{
		Answer:  res.Answer,
		Outcome: res.Outcome,
		Rounds:  res.Rounds,
	})
}
