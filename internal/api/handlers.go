package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"intake/internal/domain/ledger"
	"intake/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	getEventTrailUC *usecase.GetEventTrail
	logger          *slog.Logger
}

func NewHandlers(getEventTrailUC *usecase.GetEventTrail, logger *slog.Logger) *Handlers {
	return &Handlers{
		getEventTrailUC: getEventTrailUC,
		logger:          logger,
	}
}

func (h *Handlers) GetEventTrail(w http.ResponseWriter, r *http.Request) {
	consumer := ledger.Consumer(chi.URLParam(r, "consumer"))
	if !consumer.Valid() {
		http.Error(w, "unknown consumer", http.StatusBadRequest)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		http.Error(w, "missing event id", http.StatusBadRequest)
		return
	}

	trail, err := h.getEventTrailUC.Execute(r.Context(), consumer, eventID)
	if errors.Is(err, usecase.ErrEventNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get event trail", "consumer", string(consumer), "event_id", eventID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	json.NewEncoder(w).Encode(trail)
}
