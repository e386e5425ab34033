package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/trivia/internal/auth"
)

type tokenRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		writeError(w, http.StatusNotFound)
		return
	}

	var req tokenRequest
	if err := decodeBody(w, r, tokenSchema, &req); err != nil {
		writeDecodeError(w, err, http.StatusBadRequest)
		return
	}

	token, expiresAt, err := s.auth.IssueToken(req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		slog.Info("admin login failed", "request_id", requestID(r.Context()))
		writeError(w, http.StatusUnauthorized)
		return
	case err != nil:
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	})
}
