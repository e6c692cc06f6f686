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

// TicketHandler the provisioning request workflow.
type TicketHandler struct {
	tickets *service.TicketService
	logger  *zap.Logger
}

func NewTicketHandler(tickets *service.TicketService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: logger}
}

// Create opens a new request.
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		RequestType string `json:"request_type"`
		TEI         string `json:"tei"`
		OldTEI      string `json:"old_tei"`
		OldISSI     int64  `json:"old_issi"`
		NewISSI     int64  `json:"new_issi"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	in := service.CreateRequestInput{
		RequestType: domain.RequestType(payload.RequestType),
		OldISSI:     payload.OldISSI,
		NewISSI:     payload.NewISSI,
		Description: payload.Description,
		CreatedBy:   payload.CreatedBy,
	}
	if payload.TEI != "" {
		tei, err := domain.NormalizeTEI(payload.TEI)
		if err != nil {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		in.RadioTEI = tei
	}
	if payload.OldTEI != "" {
		tei, err := domain.NormalizeTEI(payload.OldTEI)
		if err != nil {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		in.OldRadioTEI = tei
	}

	t, err := h.tickets.CreateRequest(ctx, in)
	if err != nil {
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, Fail(conflict.Message))
			return
		}
		h.logger.Error("create request failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create request: %v", err)))
		return
	}

	writeJSON(w, http.StatusOK, Ok(t.ToJSON()))
}

// List requests with status filters.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters := repository.TicketFilters{
		Status:      domain.TicketStatus(r.URL.Query().Get("status")),
		OpenOnly:    r.URL.Query().Get("open") == "true",
		RequestType: domain.RequestType(r.URL.Query().Get("request_type")),
	}
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 100)

	items, total, err := h.tickets.List(ctx, filters, page, size)
	if err != nil {
		h.logger.Error("list requests failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list requests: %v", err)))
		return
	}

	out := make([]any, 0, len(items))
	for _, t := range items {
		out = append(out, t.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": out,
		"total": total,
	}))
}

// Get one request with its transition log.
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	t, err := h.tickets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("request %s not found", id)))
			return
		}
		h.logger.Error("get request failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("lookup failed: %v", err)))
		return
	}

	logs, err := h.tickets.Logs(ctx, id)
	if err != nil {
		h.logger.Error("request logs failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("lookup failed: %v", err)))
		return
	}

	logsOut := make([]any, 0, len(logs))
	for _, l := range logs {
		logsOut = append(logsOut, l.ToJSON())
	}
	out := t.ToJSON()
	out["logs"] = logsOut
	writeJSON(w, http.StatusOK, Ok(out))
}

// Transition moves a request through its workflow. The action field picks
// the move: submit, waiting_verification, verified or refuse.
func (h *TicketHandler) Transition(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	var payload struct {
		Action            string `json:"action"`
		ExternalReference string `json:"external_reference"`
		Actor             string `json:"actor"`
		Note              string `json:"note"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	var log *domain.TicketLog
	var err error
	switch payload.Action {
	case "submit":
		log, err = h.tickets.Submit(ctx, id, payload.ExternalReference, payload.Actor, payload.Note)
	case "waiting_verification":
		log, err = h.tickets.MarkWaitingVerification(ctx, id, payload.Actor, payload.Note)
	case "verified":
		log, err = h.tickets.MarkVerified(ctx, id, payload.Actor, payload.Note)
	case "refuse":
		log, err = h.tickets.Refuse(ctx, id, payload.Actor, payload.Note)
	default:
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("unknown action %q", payload.Action)))
		return
	}

	if err != nil {
		var conflict *service.ConflictError
		switch {
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, Fail(conflict.Message))
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("request %s not found", id)))
		default:
			h.logger.Error("request transition failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("transition failed: %v", err)))
		}
		return
	}

	writeJSON(w, http.StatusOK, Ok(log.ToJSON()))
}
