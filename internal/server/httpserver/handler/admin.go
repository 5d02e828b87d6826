package handler

import (
	"net/http"

	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// handleLockStats handles GET /admin/v1/locks.
func (h *Handler) handleLockStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.locks.Stats())
}

// handleLockSweep handles POST /admin/v1/locks/sweep.
func (h *Handler) handleLockSweep(w http.ResponseWriter, r *http.Request) {
	evicted := h.locks.Sweep()
	logger.L(r.Context()).Info("lock registry swept on request", "evicted", evicted)
	h.writeJSON(w, r, http.StatusOK, SweepResponse{
		Evicted: evicted,
		Stats:   h.locks.Stats(),
	})
}
