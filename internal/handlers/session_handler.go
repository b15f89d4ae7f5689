package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foxcode/shorter/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// GetSession returns the front-end session of an identity
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Identity"
// @Success 200 {object} models.Session
// @Router /sessions/{identity}/terms [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	session, err := h.sessions.GetSession(r.Context(), identity)
	if err != nil {
		sendServiceError(w, "SESSION", err)
		return
	}
	services.SendJSON(w, http.StatusOK, session)
}

// AcceptTerms records terms of service acceptance
// @Summary Accept terms
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Identity"
// @Success 200 {object} models.Session
// @Router /sessions/{identity}/terms [put]
func (h *SessionHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if _, ok := principalFor(w, r, identity); !ok {
		return
	}

	session, err := h.sessions.AcceptTerms(r.Context(), identity)
	if err != nil {
		sendServiceError(w, "SESSION", err)
		return
	}
	services.SendJSON(w, http.StatusOK, session)
}
