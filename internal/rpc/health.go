package rpc

import (
	"net/http"

	"github.com/dvrpc-eth/dvrpc-node/internal/consensus"
)

// HealthHandler serves GET /health. When a consensus adapter is wired in
// (verification enabled), it reports healthy only once the light client
// has produced its first authenticated head.
type HealthHandler struct {
	consensus *consensus.Adapter
}

// NewHealthHandler returns a handler gated on cons. cons may be nil for
// operational deployments that run without consensus verification.
func NewHealthHandler(cons *consensus.Adapter) *HealthHandler {
	return &HealthHandler{consensus: cons}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.consensus != nil && !h.consensus.Synced() {
		http.Error(w, "not synced", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK"))
}
