package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/observability"
)

// HandleChart serves /charts/{file} where file is "<kind>.svg".
func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	name, ok := strings.CutSuffix(r.PathValue("file"), ".svg")
	kind, known := charts.ParseKind(name)
	if !ok || !known {
		errors.WriteError(w, h.logger, errors.NotFound("Unknown chart"), requestID)
		return
	}

	result, err := h.dashboard.Compute(r.Context(), filterFromQuery(r))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, kind, result); err != nil {
		if stderrors.Is(err, charts.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	state := filterFromQuery(r)

	result, err := h.dashboard.Compute(r.Context(), state)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, state, result); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build workbook"), requestID)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(state)))
	w.Write(buf.Bytes())
}
