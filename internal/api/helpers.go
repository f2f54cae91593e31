package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeError writes the error envelope for handlers mounted outside huma.
func writeError(w http.ResponseWriter, err error, log *slog.Logger) {
	apiErr := toAPIError(err)
	body, _ := EnvelopeTransformer(nil, "", apiErr)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.GetStatus())
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode error response", "error", err)
	}
}
