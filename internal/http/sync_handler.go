package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/service"
)

// SyncHandler triggers and reports on the legacy fleet synchronizations.
type SyncHandler struct {
	sync     *service.FleetSyncService
	vehicles repository.VehiclesRepo
	logger   *zap.Logger
}

func NewSyncHandler(sync *service.FleetSyncService, vehicles repository.VehiclesRepo, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, vehicles: vehicles, logger: logger}
}

// SyncFleet runs one vehicle sync against fireplan.
func (h *SyncHandler) SyncFleet(w http.ResponseWriter, r *http.Request) {
	count, err := h.sync.SyncFleet(r.Context())
	if err != nil {
		h.logger.Error("fleet sync failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("fleet sync failed: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"vehicles": count}))
}

// SyncVectors runs one vector sync against resourcesoff.
func (h *SyncHandler) SyncVectors(w http.ResponseWriter, r *http.Request) {
	count, err := h.sync.SyncVectors(r.Context())
	if err != nil {
		h.logger.Error("vector sync failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("vector sync failed: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"vectors": count}))
}

// Status the cached outcome of the last runs.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	fleet, vectors := h.sync.Status(r.Context())

	out := map[string]any{}
	if fleet != nil {
		out["fleet"] = fleet
	}
	if vectors != nil {
		out["vectors"] = vectors
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// ListVehicles the mirrored fleet, for lookups.
func (h *SyncHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	search := r.URL.Query().Get("search")
	limit := queryInt(r, "limit", 100)

	vehicles, err := h.vehicles.List(ctx, search, limit)
	if err != nil {
		h.logger.Error("list vehicles failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list vehicles: %v", err)))
		return
	}

	out := make([]any, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, v.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out}))
}
