package handlers

import (
	"net/http"
	"time"

	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/refresh"
	"github.com/minjaelee/vigil/pkg/logger"
)

// StatusHandler reports upstream health and refresher state
type StatusHandler struct {
	client    *discovery.Client
	refresher *refresh.Refresher
	logger    *logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(client *discovery.Client, refresher *refresh.Refresher, log *logger.Logger) *StatusHandler {
	return &StatusHandler{client: client, refresher: refresher, logger: log}
}

// Get returns the system status
// GET /api/status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	health := h.client.Health()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"system_health": health,
		"safe_to_trade": health.SafeToTrade(),
		"session":       refresh.SessionAt(time.Now()),
		"refresher":     h.refresher.Stats(),
	})
}
