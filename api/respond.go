package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"linkgraph/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain taxonomy to its stable status and message.
// Unmapped errors are logged server-side and reported opaquely.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("Unhandled error", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
