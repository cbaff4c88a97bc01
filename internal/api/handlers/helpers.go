package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/matiasleandrokruk/boatsearch/internal/api/ctxkeys"
)

// maxBodyBytes bounds request bodies. Queries are short; rows never come
// from clients.
const maxBodyBytes = 1 << 20

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// decodeBody decodes a bounded JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// clientID returns the authenticated client, or "" when auth is disabled.
func clientID(r *http.Request) string {
	id, _ := ctxkeys.String(r.Context(), ctxkeys.ClientID)
	return id
}
