package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/munnerz/goautoneg"

	"github.com/p-n-ai/trivia/internal/bank"
)

const (
	mediaJSON = "application/json"
	mediaYAML = "application/yaml"
	mediaXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportMediaTypes = []string{mediaJSON, mediaYAML, mediaXLSX}

// handleExport serves the whole question bank in the format the client accepts.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	mediaType := mediaJSON
	if accept := r.Header.Get("Accept"); accept != "" {
		mediaType = goautoneg.Negotiate(accept, exportMediaTypes)
		if mediaType == "" {
			writeError(w, http.StatusNotAcceptable)
			return
		}
	}

	b, err := bank.FromStore(r.Context(), s.svc.Store())
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}

	switch mediaType {
	case mediaJSON:
		writeJSON(w, http.StatusOK, b)
	case mediaYAML:
		var buf bytes.Buffer
		if err := bank.EncodeYAML(&buf, b); err != nil {
			writeServiceError(w, r, err, http.StatusBadRequest)
			return
		}
		writeRaw(w, mediaYAML, "", buf.Bytes())
	case mediaXLSX:
		var buf bytes.Buffer
		if err := bank.WriteXLSX(&buf, b); err != nil {
			writeServiceError(w, r, err, http.StatusBadRequest)
			return
		}
		writeRaw(w, mediaXLSX, "questions.xlsx", buf.Bytes())
	}
}

func writeRaw(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
}
