package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// filterFromQuery reads the gender and city query parameters. Missing
// parameters select every value of their field.
func filterFromQuery(r *http.Request) models.FilterState {
	q := r.URL.Query()
	return normalizeFilter(models.FilterState{
		Gender: q.Get("gender"),
		City:   q.Get("city"),
	})
}

func normalizeFilter(state models.FilterState) models.FilterState {
	if state.Gender == "" {
		state.Gender = models.FilterAll
	}
	if state.City == "" {
		state.City = models.FilterAll
	}
	return state
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboard.Compute(r.Context(), filterFromQuery(r))
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	errors.WriteSuccess(w, result)
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Options(), map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
