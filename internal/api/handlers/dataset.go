package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
)

// DatasetInfoer describes the loaded dataset. Every dataset.Store does.
type DatasetInfoer interface {
	Info(ctx context.Context) (dataset.Info, error)
}

// DatasetHandler serves GET /api/v1/dataset.
type DatasetHandler struct {
	store  DatasetInfoer
	logger *slog.Logger
}

// NewDatasetHandler serves metadata for store.
func NewDatasetHandler(store DatasetInfoer, logger *slog.Logger) *DatasetHandler {
	return &DatasetHandler{store: store, logger: logger}
}

// Info handles GET /api/v1/dataset.
func (h *DatasetHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Info(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dataset info failed", "error", err, "client_id", clientID(r))
		writeError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
