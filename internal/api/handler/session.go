package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mirrorlabs/claude-gateway/internal/api/response"
	"github.com/mirrorlabs/claude-gateway/internal/repository/memory"
)

// SessionHandler serves the session management endpoints directly from the
// session store.
type SessionHandler struct {
	store *memory.SessionStore
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(store *memory.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// List returns all active sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.store.List()
	response.OK(w, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// Get returns a single session with its full history.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, ok := h.store.Snapshot(sessionID)
	if !ok {
		response.NotFound(w, "Session not found: "+sessionID)
		return
	}
	response.OK(w, session)
}

// Delete removes a session by id.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.store.Delete(sessionID) {
		response.NotFound(w, "Session not found: "+sessionID)
		return
	}
	response.OK(w, map[string]string{
		"message": "Session deleted: " + sessionID,
	})
}

// Stats returns aggregate session counters.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.store.Stats())
}
