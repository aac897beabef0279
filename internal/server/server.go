package server

import (
	"log/slog"
	"net/http"

	"supertienda-dashboard/internal/handlers"
	"supertienda-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/charts", s.apiHandlers.HandleCharts)
	s.mux.HandleFunc("GET /api/subcategories", s.apiHandlers.HandleSubcategories)
	s.mux.HandleFunc("GET /api/products-analysis", s.apiHandlers.HandleProductsAnalysis)
	s.mux.HandleFunc("GET /api/top-discounts", s.apiHandlers.HandleTopDiscounts)
	s.mux.HandleFunc("GET /api/discount-margin-impact", s.apiHandlers.HandleDiscountImpact)
	s.mux.HandleFunc("GET /api/discount-margin-netimpact", s.apiHandlers.HandleDiscountNetImpact)
	s.mux.HandleFunc("GET /api/customers-analysis", s.apiHandlers.HandleCustomersAnalysis)
	s.mux.HandleFunc("GET /api/countries-analysis", s.apiHandlers.HandleCountriesAnalysis)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /sse/categories", s.sseHandlers.HandleCategories)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
