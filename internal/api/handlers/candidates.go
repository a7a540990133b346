package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/pkg/logger"
)

// CandidatesHandler serves the classified candidate snapshot
type CandidatesHandler struct {
	store  *ingest.Store
	client *discovery.Client
	logger *logger.Logger
}

// NewCandidatesHandler creates a new candidates handler
func NewCandidatesHandler(store *ingest.Store, client *discovery.Client, log *logger.Logger) *CandidatesHandler {
	return &CandidatesHandler{store: store, client: client, logger: log}
}

// List returns the current snapshot
// GET /api/candidates
func (h *CandidatesHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": snap.Candidates,
		"count":      len(snap.Candidates),
		"dropped":    snap.Dropped,
		"updated_at": snap.UpdatedAt,
	})
}

// Audit proxies the upstream per-symbol audit detail
// GET /api/candidates/{symbol}/audit
func (h *CandidatesHandler) Audit(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	detail, err := h.client.Audit(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to fetch audit detail")
		respondError(w, http.StatusBadGateway, "Failed to retrieve audit detail")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(detail)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
