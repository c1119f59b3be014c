package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/AutoCookies/pomai-guard/internal/engine"
)

// HTTPHandlers holds the dependencies for request handling.
type HTTPHandlers struct {
	Manager *engine.Manager
}

func NewHTTPHandlers(manager *engine.Manager) *HTTPHandlers {
	return &HTTPHandlers{Manager: manager}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serveValue writes a cached value back to the client: raw bytes as an
// octet stream, anything else JSON-encoded.
func serveValue(w http.ResponseWriter, v interface{}) {
	if b, ok := v.([]byte); ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(b)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
