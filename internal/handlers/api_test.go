package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestDashboard() *services.Dashboard {
	day := time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC)
	records := []models.Transaction{
		{InvoiceID: "750-67-8428", Gender: models.GenderMale, City: "Yangon", ProductLine: "Health and beauty", Total: decimal.NewFromInt(10), Date: day},
		{InvoiceID: "226-31-3081", Gender: models.GenderFemale, City: "Yangon", ProductLine: "Electronic accessories", Total: decimal.NewFromInt(20), Date: day},
		{InvoiceID: "631-41-3108", Gender: models.GenderMale, City: "Naypyitaw", ProductLine: "Home and lifestyle", Total: decimal.NewFromInt(5), Date: day},
	}
	return services.NewDashboard(dataset.New(records), testLogger())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	dashboard := createTestDashboard()
	logger := testLogger()

	handlers := NewAPIHandlers(dashboard, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.dashboard != dashboard {
		t.Error("NewAPIHandlers() should set dashboard field")
	}
	if handlers.logger != logger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestAPIHandlers_HandleDashboard(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	tests := []struct {
		name         string
		query        string
		wantTotal    string
		wantRecords  int
		wantInvoices int
	}{
		{"defaults to all", "", "35", 3, 3},
		{"gender", "?gender=Male", "15", 2, 2},
		{"gender and city", "?gender=Male&city=Yangon", "10", 1, 1},
		{"empty subset", "?gender=Female&city=Naypyitaw", "0", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.HandleDashboard(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type application/json, got %q", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("expected cache-control no-store, got %q", cc)
			}

			env := decodeEnvelope(t, w.Body)
			if !env.Success {
				t.Fatal("expected success=true in response")
			}
			var result models.Result
			if err := json.Unmarshal(env.Data, &result); err != nil {
				t.Fatalf("invalid result: %v", err)
			}
			if !result.TotalAmount.Equal(decimal.RequireFromString(tt.wantTotal)) {
				t.Errorf("total_amount = %s, want %s", result.TotalAmount, tt.wantTotal)
			}
			if result.RecordCount != tt.wantRecords || result.InvoiceCount != tt.wantInvoices {
				t.Errorf("counts = (%d, %d), want (%d, %d)",
					result.RecordCount, result.InvoiceCount, tt.wantRecords, tt.wantInvoices)
			}
			if result.Histogram == nil || result.GenderCityCounts == nil || result.ProductLineCounts == nil {
				t.Error("collections should be encoded as arrays, not null")
			}
		})
	}
}

func TestAPIHandlers_HandleDashboard_InvalidFilter(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	for _, query := range []string{"?city=Unknown", "?gender=Other", "?gender=male"} {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard"+query, nil)
			w := httptest.NewRecorder()

			handlers.HandleDashboard(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			env := decodeEnvelope(t, w.Body)
			if env.Success || env.Error == nil {
				t.Fatal("expected an error envelope")
			}
			if env.Error.Code != "INVALID_FILTER_STATE" {
				t.Errorf("error code = %q, want INVALID_FILTER_STATE", env.Error.Code)
			}
			if env.Error.Details == "" {
				t.Error("error should name the rejected value")
			}
		})
	}
}

func TestAPIHandlers_HandleFilters(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	w := httptest.NewRecorder()

	handlers.HandleFilters(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("expected cache-control %q, got %q", cacheMaxAge, cc)
	}

	var opts services.FilterOptions
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &opts); err != nil {
		t.Fatal(err)
	}
	if strings.Join(opts.Genders, ",") != "All,Male,Female" {
		t.Errorf("genders = %v", opts.Genders)
	}
	if strings.Join(opts.Cities, ",") != "All,Yangon,Naypyitaw" {
		t.Errorf("cities = %v", opts.Cities)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var health map[string]string
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", health["status"])
	}
	if _, err := time.Parse(time.RFC3339, health["timestamp"]); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", health["timestamp"], err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	var stats map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["record_count"] != float64(3) {
		t.Errorf("record_count = %v, want 3", stats["record_count"])
	}
}

func TestAPIHandlers_HandleChart(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	tests := []struct {
		name       string
		file       string
		query      string
		wantStatus int
		wantType   string
	}{
		{"histogram", "histogram.svg", "", http.StatusOK, "image/svg+xml"},
		{"gender city", "gender-city.svg", "?gender=Male", http.StatusOK, "image/svg+xml"},
		{"product lines", "product-lines.svg", "?city=Yangon", http.StatusOK, "image/svg+xml"},
		{"empty subset", "histogram.svg", "?gender=Female&city=Naypyitaw", http.StatusNoContent, ""},
		{"unknown chart", "scatter.svg", "", http.StatusNotFound, "application/json"},
		{"missing extension", "histogram", "", http.StatusNotFound, "application/json"},
		{"invalid filter", "histogram.svg", "?city=Unknown", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/charts/"+tt.file+tt.query, nil)
			req.SetPathValue("file", tt.file)
			w := httptest.NewRecorder()

			handlers.HandleChart(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantType != "" && w.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("expected content-type %q, got %q", tt.wantType, w.Header().Get("Content-Type"))
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), "<svg") {
				t.Error("expected an SVG document")
			}
			if tt.wantStatus == http.StatusNoContent && w.Body.Len() != 0 {
				t.Errorf("expected an empty body, got %d bytes", w.Body.Len())
			}
		})
	}
}

func TestAPIHandlers_HandleExport(t *testing.T) {
	handlers := NewAPIHandlers(createTestDashboard(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/export.xlsx?gender=Female", nil)
	w := httptest.NewRecorder()

	handlers.HandleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("expected content-type %q, got %q", export.ContentType, ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "sales_Female_All.xlsx") {
		t.Errorf("unexpected content-disposition %q", cd)
	}
	// xlsx files are zip archives.
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Error("expected a zip container")
	}
}

func TestFilterFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  models.FilterState
	}{
		{"", models.AllFilter()},
		{"?gender=Female", models.FilterState{Gender: "Female", City: models.FilterAll}},
		{"?city=Mandalay", models.FilterState{Gender: models.FilterAll, City: "Mandalay"}},
		{"?gender=&city=", models.AllFilter()},
		{"?gender=Male&city=Yangon", models.FilterState{Gender: "Male", City: "Yangon"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil)
			if got := filterFromQuery(req); got != tt.want {
				t.Errorf("filterFromQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
