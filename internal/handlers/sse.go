package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/starfederation/datastar-go/datastar"

	"supertienda-dashboard/internal/models"
	"supertienda-dashboard/internal/services"
)

var categoryTableTemplate = template.Must(template.New("categoryTable").Parse(`
<div id="category-content">
<table class="modern-table">
<thead><tr><th>Categoría</th><th>Ventas</th><th>Beneficio</th><th>Descuento</th></tr></thead>
<tbody>
{{range .}}<tr>
<td><span class="category-badge">{{.Category}}</span></td>
<td><strong>${{printf "%.2f" .Sales}}</strong></td>
<td>${{printf "%.2f" .Profit}}</td>
<td>${{printf "%.2f" .DiscountValue}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderCategoryTable(data []models.CategoryBreakdown) (string, error) {
	var buf strings.Builder
	err := categoryTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	kpis, err := h.analytics.KPISummary()
	if err != nil {
		h.logger.Error("kpi summary for sse", "error", err)
		sse.PatchElements(`<div id="kpi-content">⚠️ Datos no disponibles</div>`)
		return
	}

	signals, err := json.Marshal(map[string]any{"kpiData": kpis})
	if err != nil {
		h.logger.Error("marshal kpi signals", "error", err)
		return
	}
	sse.PatchSignals(signals)
	sse.PatchElements(`<div id="kpi-content">✅ KPI data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	charts, err := h.analytics.Charts()
	if err != nil {
		h.logger.Error("charts for sse", "error", err)
		sse.PatchElements(`<div id="category-content">⚠️ Datos no disponibles</div>`)
		return
	}

	html, err := h.renderCategoryTable(charts.CategoryData)
	if err != nil {
		h.logger.Error("render category table", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	kpis, err := h.analytics.KPISummary()
	if err != nil {
		h.logger.Error("refresh-all kpis", "error", err)
		sse.PatchElements(`<div id="kpi-content">⚠️ Datos no disponibles</div>`)
		return
	}
	charts, err := h.analytics.Charts()
	if err != nil {
		h.logger.Error("refresh-all charts", "error", err)
		return
	}

	html, err := h.renderCategoryTable(charts.CategoryData)
	if err != nil {
		h.logger.Error("render category table", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"kpiData":     kpis,
		"monthlyData": charts.SalesOverTime,
	})
	if err != nil {
		h.logger.Error("marshal refresh-all signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
