package handlers

import (
	"net/http"
	"time"
)

// HandleHealth checks server health.
func (h *HTTPHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.Manager.GetCacheStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"entries":   stats.TotalEntries,
	})
}

// HandleStats returns cache table statistics.
func (h *HTTPHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Manager.GetCacheStats())
}

// HandleMemory returns a point-in-time memory reading.
func (h *HTTPHandlers) HandleMemory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Manager.GetMemoryStats())
}

// HandleOptimize runs the reclamation pipeline and reports what it did.
func (h *HTTPHandlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	report, err := h.Manager.OptimizeMemory(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
