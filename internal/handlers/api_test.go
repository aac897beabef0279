package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"supertienda-dashboard/internal/models"
	"supertienda-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestAnalytics() *services.Analytics {
	store := services.NewStore(testLogger())
	store.SetData(testOrders())
	return services.NewAnalytics(store, testLogger())
}

func testOrders() []models.Order {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []models.Order{
		{
			OrderID:      "ES-2012-1001",
			OrderDate:    date(2012, 1, 5),
			ShipDate:     date(2012, 1, 9),
			CustomerName: "Ana López",
			Country:      "España",
			Category:     "Tecnología",
			SubCategory:  "Teléfonos",
			ProductName:  "Teléfono inteligente",
			Sales:        899.99,
			Profit:       120.50,
			ShippingCost: 25.10,
			Discount:     "0.1",
			Loss:         -45.00,
		},
		{
			OrderID:      "ES-2012-1002",
			OrderDate:    date(2012, 2, 12),
			ShipDate:     date(2012, 2, 15),
			CustomerName: "Beto García",
			Country:      "Chile",
			Category:     "Mobiliario",
			SubCategory:  "Sillas",
			ProductName:  "Silla ergonómica",
			Sales:        250.00,
			Profit:       -30.00,
			ShippingCost: 40.00,
			Discount:     "0.25",
			Loss:         -80.00,
		},
	}
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	h := NewAPIHandlers(analytics, testLogger())

	if h == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if h.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestHandleKPIs(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	rec := httptest.NewRecorder()
	h.HandleKPIs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data    models.KPISummary `json:"data"`
		Success bool              `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success flag should be true")
	}
	if resp.Data.CurrentYear != 2012 {
		t.Errorf("current year: expected 2012, got %d", resp.Data.CurrentYear)
	}
	if resp.Data.GrossRevenue != 1149.99 {
		t.Errorf("gross revenue: expected 1149.99, got %v", resp.Data.GrossRevenue)
	}
	if cache := rec.Header().Get("Cache-Control"); cache != reportCacheControl {
		t.Errorf("cache header: got %q", cache)
	}
}

func TestHandlersReturn503WhenUnloaded(t *testing.T) {
	analytics := services.NewAnalytics(services.NewStore(testLogger()), testLogger())
	h := NewAPIHandlers(analytics, testLogger())

	endpoints := map[string]http.HandlerFunc{
		"/api/kpis":                      h.HandleKPIs,
		"/api/charts":                    h.HandleCharts,
		"/api/subcategories":             h.HandleSubcategories,
		"/api/products-analysis":         h.HandleProductsAnalysis,
		"/api/top-discounts":             h.HandleTopDiscounts,
		"/api/discount-margin-impact":    h.HandleDiscountImpact,
		"/api/discount-margin-netimpact": h.HandleDiscountNetImpact,
		"/api/customers-analysis":        h.HandleCustomersAnalysis,
		"/api/countries-analysis":        h.HandleCountriesAnalysis,
	}

	for path, handler := range endpoints {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503 before data load, got %d", path, rec.Code)
		}

		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: decode error response: %v", path, err)
		}
		if resp.Success {
			t.Errorf("%s: success flag should be false", path)
		}
		if resp.Error.Code != "SERVICE_UNAVAILABLE" {
			t.Errorf("%s: error code: got %q", path, resp.Error.Code)
		}
	}
}

func TestHandleCustomersAnalysis(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/customers-analysis", nil)
	rec := httptest.NewRecorder()
	h.HandleCustomersAnalysis(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data models.CustomerReport `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Segmentation) != 2 {
		t.Errorf("segmentation: expected 2 customers, got %d", len(resp.Data.Segmentation))
	}
	if resp.Data.TopProfitable[0].Name != "Ana López" {
		t.Errorf("top profitable: got %q", resp.Data.TopProfitable[0].Name)
	}
}

func TestHandleCountriesAnalysis(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/countries-analysis", nil)
	rec := httptest.NewRecorder()
	h.HandleCountriesAnalysis(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data models.CountryReport `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Outlier.Country != "España" {
		t.Errorf("outlier: expected España, got %q", resp.Data.Outlier.Country)
	}
	for _, b := range resp.Data.BubbleData {
		if b.Country == "España" {
			t.Error("outlier must not appear in bubble data")
		}
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data["status"] != "healthy" {
		t.Errorf("health status: got %q", resp.Data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.HandleStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if loaded, _ := resp.Data["loaded"].(bool); !loaded {
		t.Error("stats should report loaded=true")
	}
	if count, _ := resp.Data["record_count"].(float64); count != 2 {
		t.Errorf("record_count: expected 2, got %v", resp.Data["record_count"])
	}
}
