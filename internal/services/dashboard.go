package services

import (
	"context"
	"log/slog"
	"strconv"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

// FilterOptions lists the legal values of every filter field, FilterAll included.
type FilterOptions struct {
	Genders []string `json:"genders"`
	Cities  []string `json:"cities"`
}

// Dashboard runs the filter-and-aggregate pipeline over a shared Store.
// It holds no per-request state, so one instance serves all requests.
type Dashboard struct {
	store  *dataset.Store
	logger *slog.Logger
}

func NewDashboard(store *dataset.Store, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		store:  store,
		logger: logger,
	}
}

// Compute validates state, filters the dataset and aggregates the subset.
func (d *Dashboard) Compute(ctx context.Context, state models.FilterState) (models.Result, error) {
	_, span := observability.StartSpan(ctx, "dashboard.compute")
	defer func() {
		span.Finish()
		d.logger.DebugContext(ctx, "span finished", "span", span)
	}()
	span.SetTag("filter.gender", state.Gender)
	span.SetTag("filter.city", state.City)

	if err := ValidateFilter(state, d.store); err != nil {
		span.SetError(err)
		return models.Result{}, err
	}

	filtered := Filter(d.store.Records(), state)
	result := Aggregate(filtered)

	span.SetTag("records", strconv.Itoa(result.RecordCount))
	return result, nil
}

func (d *Dashboard) Options() FilterOptions {
	genders := []string{models.FilterAll}
	for _, g := range models.Genders() {
		genders = append(genders, string(g))
	}
	return FilterOptions{
		Genders: genders,
		Cities:  append([]string{models.FilterAll}, d.store.Cities()...),
	}
}

func (d *Dashboard) Stats() map[string]any {
	return d.store.Stats()
}
