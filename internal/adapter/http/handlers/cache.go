package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/AutoCookies/pomai-guard/internal/engine"
	"github.com/AutoCookies/pomai-guard/internal/engine/core"
)

const maxBodyBytes = 32 * 1024 * 1024

// HandlePut caches the request body under the path key. Priority, TTL and
// an explicit size come from query parameters:
//
//	PUT /v1/cache/{key}?priority=high&ttl_ms=60000&size=1024
func (h *HTTPHandlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts := core.Options{Priority: core.PriorityMedium}

	if p := r.URL.Query().Get("priority"); p != "" {
		prio, ok := core.ParsePriority(p)
		if !ok {
			http.Error(w, "unknown priority: "+p, http.StatusBadRequest)
			return
		}
		opts.Priority = prio
	}

	if ttl := r.URL.Query().Get("ttl_ms"); ttl != "" {
		ms, err := strconv.ParseInt(ttl, 10, 64)
		if err != nil || ms < 0 {
			http.Error(w, "invalid ttl_ms", http.StatusBadRequest)
			return
		}
		opts.TTL = time.Duration(ms) * time.Millisecond
	}

	if size := r.URL.Query().Get("size"); size != "" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		opts.SizeBytes = n
	}

	if err := h.Manager.CacheData(key, body, opts); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrDisposed) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	v, ok := h.Manager.GetCached(key)
	if !ok {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	serveValue(w, v)
}

func (h *HTTPHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	existed, err := h.Manager.Evict(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !existed {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) HandleTTL(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	remaining, ok := h.Manager.TTLRemaining(key)
	if !ok {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":          key,
		"ttl_ms":       remaining.Milliseconds(),
		"has_deadline": remaining > 0,
	})
}

// HandleClear bulk-removes entries matching any supplied criterion:
//
//	DELETE /v1/cache?priority=low&older_than_ms=600000&access_count_below=2
func (h *HTTPHandlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	var criteria core.Criteria

	if p := r.URL.Query().Get("priority"); p != "" {
		prio, ok := core.ParsePriority(p)
		if !ok {
			http.Error(w, "unknown priority: "+p, http.StatusBadRequest)
			return
		}
		criteria.Priority = &prio
	}

	if v := r.URL.Query().Get("older_than_ms"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			http.Error(w, "invalid older_than_ms", http.StatusBadRequest)
			return
		}
		criteria.OlderThan = time.Duration(ms) * time.Millisecond
	}

	if v := r.URL.Query().Get("access_count_below"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "invalid access_count_below", http.StatusBadRequest)
			return
		}
		criteria.AccessCountBelow = n
	}

	removed, err := h.Manager.ClearCache(criteria)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}
