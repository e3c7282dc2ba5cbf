package handlers

import (
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// chartSignals is pushed alongside the patched fragments so client-side
// widgets can draw from the raw datasets.
type chartSignals struct {
	HistogramData   []models.Bucket           `json:"histogramData"`
	GenderCityData  []models.GenderCityCount  `json:"genderCityData"`
	ProductLineData []models.ProductLineCount `json:"productLineData"`
}

// HandleDashboard recomputes the dashboard for the filter signals sent by
// the page and patches the KPI cards and chart images in place.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var state models.FilterState
	if err := datastar.ReadSignals(r, &state); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Invalid signals"), requestID)
		return
	}
	state = normalizeFilter(state)

	result, err := h.dashboard.Compute(r.Context(), state)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElementTempl(templates.Indicators(result)); err != nil {
		h.logger.Error("patch indicators", "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchElementTempl(templates.Charts(state)); err != nil {
		h.logger.Error("patch charts", "error", err, "request_id", requestID)
		return
	}
	if err := sse.MarshalAndPatchSignals(chartSignals{
		HistogramData:   result.Histogram,
		GenderCityData:  result.GenderCityCounts,
		ProductLineData: result.ProductLineCounts,
	}); err != nil {
		h.logger.Error("patch chart signals", "error", err, "request_id", requestID)
	}
}
