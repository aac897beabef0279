package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard renders the cover page. Data arrives through the datastar SSE
// endpoints after load; the page itself is static.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SuperTienda — Panel de Análisis</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; background: #f5f6f8; }
h1 { color: #1f2937; }
.panel { background: #fff; border-radius: 8px; padding: 1rem 1.5rem; margin-bottom: 1.5rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { text-align: left; padding: .5rem .75rem; border-bottom: 1px solid #e5e7eb; }
.category-badge { background: #eef2ff; border-radius: 4px; padding: .15rem .5rem; }
</style>
</head>
<body data-signals="{kpiData: {}, monthlyData: []}" data-on-load="@get('/sse/refresh-all')">
<h1>SuperTienda — Panel de Análisis</h1>
<section class="panel">
<h2>KPIs</h2>
<div id="kpi-content">Cargando…</div>
<p>
Ingresos: <strong data-text="$kpiData.gross_revenue"></strong> ·
Pedido medio: <strong data-text="$kpiData.avg_order"></strong> ·
Margen: <strong data-text="$kpiData.profit_margin"></strong> ·
Tendencia: <strong data-text="$kpiData.sales_trend"></strong>
</p>
</section>
<section class="panel">
<h2>Categorías</h2>
<div id="category-content">Cargando…</div>
</section>
</body>
</html>
`
