package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
)

// RadioHandler radio lookup and detail.
type RadioHandler struct {
	radios repository.RadiosRepo
	logger *zap.Logger
}

func NewRadioHandler(radios repository.RadiosRepo, logger *zap.Logger) *RadioHandler {
	return &RadioHandler{radios: radios, logger: logger}
}

// Search matches TEI, ISSI or alias fragments.
func (h *RadioHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, Fail("q parameter is required"))
		return
	}
	limit := queryInt(r, "limit", 20)

	radios, err := h.radios.Search(ctx, query, limit)
	if err != nil {
		h.logger.Error("radio search failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("search failed: %v", err)))
		return
	}

	out := make([]any, 0, len(radios))
	for _, radio := range radios {
		out = append(out, radio.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out}))
}

// Get one radio by TEI, accepting the padded 15-digit form as well.
func (h *RadioHandler) Get(w http.ResponseWriter, r *http.Request, rawTEI string) {
	ctx := r.Context()

	tei, err := domain.NormalizeTEI(rawTEI)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	radio, err := h.radios.Get(ctx, tei)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("radio %d not found", tei)))
			return
		}
		h.logger.Error("radio lookup failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("lookup failed: %v", err)))
		return
	}

	writeJSON(w, http.StatusOK, Ok(radio.ToJSON()))
}
