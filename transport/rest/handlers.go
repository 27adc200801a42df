package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playgrid/tictactoe-engine/internal/apperror"
)

func (that *Server) pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// sessionHandler returns the current snapshot of one game session.
func (that *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "sessionHandler")

	sessionID := chi.URLParam(r, "sessionID")

	session, err := that.gamePlay.GetSession(r.Context(), sessionID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get session", "sessionID", sessionID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(session); err != nil {
		log.Error("failed to encode session", "error", err)
	}
}
