package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"supertienda-dashboard/internal/models"
	"supertienda-dashboard/internal/services"
)

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	h := NewSSEHandlers(analytics, testLogger())

	if h == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if h.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
}

func TestSSEHandlers_renderCategoryTable(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	data := []models.CategoryBreakdown{
		{Category: "Tecnología", Sales: 899.99, Profit: 120.50, DiscountValue: 45.00},
		{Category: "Mobiliario", Sales: 250.00, Profit: -30.00, DiscountValue: 80.00},
	}

	html, err := h.renderCategoryTable(data)
	if err != nil {
		t.Fatalf("renderCategoryTable() error: %v", err)
	}

	if !strings.Contains(html, `id="category-content"`) {
		t.Error("rendered table should target the category-content element")
	}
	if !strings.Contains(html, "Tecnología") {
		t.Error("rendered table should contain the category name")
	}
	if !strings.Contains(html, "$899.99") {
		t.Error("rendered table should format sales as currency")
	}
}

func TestSSEHandlers_HandleKPIs(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/kpis", nil)
	rec := httptest.NewRecorder()
	h.HandleKPIs(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "kpiData") {
		t.Error("SSE stream should patch the kpiData signal")
	}
	if !strings.Contains(body, "gross_revenue") {
		t.Error("SSE stream should carry the KPI payload")
	}
}

func TestSSEHandlers_HandleKPIs_Unavailable(t *testing.T) {
	analytics := services.NewAnalytics(services.NewStore(testLogger()), testLogger())
	h := NewSSEHandlers(analytics, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/kpis", nil)
	rec := httptest.NewRecorder()
	h.HandleKPIs(rec, req)

	if !strings.Contains(rec.Body.String(), "Datos no disponibles") {
		t.Error("SSE stream should surface the unavailable state")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	h := NewSSEHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	rec := httptest.NewRecorder()
	h.HandleRefreshAll(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "category-content") {
		t.Error("refresh-all should patch the category table")
	}
	if !strings.Contains(body, "monthlyData") {
		t.Error("refresh-all should patch the monthly signal")
	}
}
