package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/feed"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/service"
)

// SubscriptionHandler subscription list, manual creation and the feed
// upload that drives reconciliation.
type SubscriptionHandler struct {
	subs      repository.SubscriptionsRepo
	reconcile *service.ReconcileService
	logger    *zap.Logger
}

func NewSubscriptionHandler(subs repository.SubscriptionsRepo, reconcile *service.ReconcileService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, reconcile: reconcile, logger: logger}
}

// Upload accepts the provisioning export as a multipart xlsx and runs one
// reconciliation pass over the selected scope.
func (h *SubscriptionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("file not found in request"))
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to read file"))
		return
	}

	parsed, err := feed.Parse(fileBytes)
	if err != nil {
		var missing *feed.MissingColumnError
		if errors.As(err, &missing) {
			writeJSON(w, http.StatusOK, Fail(missing.Error()))
			return
		}
		h.logger.Error("feed parse failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to parse Excel file: %v", err)))
		return
	}

	scope := domain.SubscriptionScope{
		OwnersOnly:     r.URL.Query().Get("owners_only") != "false",
		IncludeDMOOnly: r.URL.Query().Get("include_dmo") == "true",
	}

	result, err := h.reconcile.Reconcile(ctx, parsed, scope)
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			writeJSON(w, http.StatusConflict, Fail(err.Error()))
			return
		}
		h.logger.Error("reconciliation failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("reconciliation failed: %v", err)))
		return
	}

	rowErrors := make([]any, 0, len(result.RowErrors))
	for _, re := range result.RowErrors {
		rowErrors = append(rowErrors, map[string]any{
			"row":    re.Row,
			"tei":    re.RawTEI,
			"issi":   re.RawISSI,
			"reason": re.Reason,
		})
	}
	unclassified := make([]any, 0, len(result.Unclassified))
	for _, p := range result.Unclassified {
		unclassified = append(unclassified, map[string]any{"tei": p.TEI, "issi": p.ISSI})
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"created":      result.Created,
		"updated":      result.Updated,
		"deleted":      result.Deleted,
		"skipped":      result.Skipped,
		"row_errors":   rowErrors,
		"unclassified": unclassified,
	}))
}

// List subscriptions with search and pagination.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters := repository.SubscriptionFilters{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		filters.Active = &active
	}
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 100)

	items, total, err := h.subs.List(ctx, filters, page, size)
	if err != nil {
		h.logger.Error("list subscriptions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list subscriptions: %v", err)))
		return
	}

	out := make([]any, 0, len(items))
	for _, s := range items {
		out = append(out, s.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": out,
		"total": total,
	}))
}

// Create binds a free radio to a free ISSI manually. Unlike the feed, this
// path refuses to steal either side.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		TEI   string `json:"tei"`
		ISSI  int64  `json:"issi"`
		Alias string `json:"alias"`
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
	if payload.ISSI <= 0 {
		writeJSON(w, http.StatusOK, Fail("issi is required"))
		return
	}

	sub, err := h.subs.Create(ctx, tei, payload.ISSI, payload.Alias)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			writeJSON(w, http.StatusOK, Fail("radio or ISSI already holds a subscription"))
		case errors.Is(err, repository.ErrNoModelForTEI):
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("no radio model matches TEI %d", tei)))
		default:
			h.logger.Error("create subscription failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create subscription: %v", err)))
		}
		return
	}

	writeJSON(w, http.StatusOK, Ok(sub.ToJSON()))
}

// GetImportTemplate serves an empty workbook with the feed's column layout.
func (h *SubscriptionHandler) GetImportTemplate(w http.ResponseWriter, r *http.Request) {
	excelData, err := GenerateSubscriptionImportTemplate()
	if err != nil {
		h.logger.Error("generate import template failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate template: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=subscription-import-template.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}

// Export serves the current subscription list as a styled workbook.
func (h *SubscriptionHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters := repository.SubscriptionFilters{
		Search: r.URL.Query().Get("search"),
	}
	items, _, err := h.subs.List(ctx, filters, 1, 10000)
	if err != nil {
		h.logger.Error("list subscriptions failed for export", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list subscriptions: %v", err)))
		return
	}

	excelData, err := GenerateSubscriptionExport(items)
	if err != nil {
		h.logger.Error("generate export failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=subscriptions.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}
