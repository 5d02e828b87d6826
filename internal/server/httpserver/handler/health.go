package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/infra/buildinfo"
)

// readyTimeout bounds the storage ping behind /ready.
const readyTimeout = 2 * time.Second

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
		Build:  buildinfo.Get(),
	})
}

// handleReady handles GET /ready. The server is ready when the balance
// store answers a ping.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, r, http.StatusOK, ReadyResponse{Status: "ready"})
		return
	}

	resp := ReadyResponse{
		Status:  "ready",
		Storage: h.store.Name(),
		Breaker: h.store.BreakerState(),
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "storage", resp.Storage, "error", err)
		resp.Status = "not_ready"
		resp.Error = err.Error()
		h.writeJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
