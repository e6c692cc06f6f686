package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/service"
)

// AssignmentHandler placement of radios on endpoints plus endpoint lookup.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	endpoints   repository.EndpointsRepo
	logger      *zap.Logger
}

func NewAssignmentHandler(assignments *service.AssignmentService, endpoints repository.EndpointsRepo, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, endpoints: endpoints, logger: logger}
}

// Assign places a radio on the endpoint from the path.
func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request, rawEndpointID string) {
	ctx := r.Context()

	endpointID, err := pathID(rawEndpointID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid endpoint id"))
		return
	}

	var payload struct {
		TEI         string `json:"tei"`
		Reason      string `json:"reason"`
		TicketID    string `json:"ticket_id"`
		ReplacesTEI string `json:"replaces_tei"`
		Note        string `json:"note"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	tei, err := domain.NormalizeTEI(payload.TEI)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	in := service.AssignInput{
		RadioTEI:   tei,
		EndpointID: endpointID,
		Reason:     domain.AssignmentReason(payload.Reason),
		TicketID:   payload.TicketID,
		Note:       payload.Note,
	}
	if payload.ReplacesTEI != "" {
		replaced, err := domain.NormalizeTEI(payload.ReplacesTEI)
		if err != nil {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		in.ReplacesTEI = replaced
	}

	a, err := h.assignments.Assign(ctx, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("endpoint or radio not found"))
			return
		}
		h.logger.Error("assign failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("assign failed: %v", err)))
		return
	}

	writeJSON(w, http.StatusOK, Ok(a.ToJSON()))
}

// Close ends an assignment interval; closing twice is a no-op.
func (h *AssignmentHandler) Close(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.assignments.Close(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("assignment %s not found", id)))
			return
		}
		h.logger.Error("close assignment failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("close failed: %v", err)))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"closed": true}))
}

// GetEndpoint endpoint metadata, current occupant and recent history.
func (h *AssignmentHandler) GetEndpoint(w http.ResponseWriter, r *http.Request, rawEndpointID string) {
	ctx := r.Context()

	endpointID, err := pathID(rawEndpointID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid endpoint id"))
		return
	}

	detail, err := h.assignments.EndpointDetail(ctx, endpointID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("endpoint %d not found", endpointID)))
			return
		}
		h.logger.Error("endpoint detail failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("lookup failed: %v", err)))
		return
	}

	history := make([]any, 0, len(detail.History))
	for _, a := range detail.History {
		history = append(history, a.ToJSON())
	}
	out := map[string]any{
		"endpoint": detail.Endpoint.ToJSON(),
		"history":  history,
	}
	if detail.Current != nil {
		out["current"] = detail.Current.ToJSON()
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

// SearchEndpoints matches endpoint or container names.
func (h *AssignmentHandler) SearchEndpoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, Fail("q parameter is required"))
		return
	}
	limit := queryInt(r, "limit", 20)

	endpoints, err := h.endpoints.SearchEndpoints(ctx, query, limit)
	if err != nil {
		h.logger.Error("endpoint search failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("search failed: %v", err)))
		return
	}

	out := make([]any, 0, len(endpoints))
	for _, ep := range endpoints {
		out = append(out, ep.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out}))
}

// ListContainers the container tree, for the placement widget.
func (h *AssignmentHandler) ListContainers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	containers, err := h.endpoints.ListContainers(ctx)
	if err != nil {
		h.logger.Error("list containers failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list containers: %v", err)))
		return
	}

	out := make([]any, 0, len(containers))
	for _, c := range containers {
		out = append(out, c.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out}))
}
