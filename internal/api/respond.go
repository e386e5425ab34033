package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/trivia/internal/trivia"
)

var errorMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusNotAcceptable:       "not acceptable",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "server_error",
	http.StatusServiceUnavailable:  "service unavailable",
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Success: false, Error: status, Message: msg})
}

// writeServiceError maps domain errors to statuses. invalidStatus is used for
// trivia.ErrInvalid since creation reports 422 while queries report 400.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, invalidStatus int) {
	switch {
	case errors.Is(err, trivia.ErrNotFound):
		writeError(w, http.StatusNotFound)
	case errors.Is(err, trivia.ErrInvalid):
		writeError(w, invalidStatus)
	case errors.Is(err, trivia.ErrNoQuestionsLeft):
		writeError(w, http.StatusBadRequest)
	default:
		slog.Error("request failed",
			"request_id", requestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError)
	}
}
