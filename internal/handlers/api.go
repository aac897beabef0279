package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"supertienda-dashboard/internal/errors"
	"supertienda-dashboard/internal/observability"
	"supertienda-dashboard/internal/services"
)

const reportCacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// writeReport applies the uniform failure contract: an unloaded dataset
// maps to 503, anything else to 500 with the error message.
func (h *APIHandlers) writeReport(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err == nil {
		errors.WriteSuccessWithHeaders(w, data, map[string]string{
			"Cache-Control": reportCacheControl,
		})
		return
	}

	requestID := observability.GetRequestID(r.Context())
	var appErr *errors.AppError
	if stderrors.Is(err, services.ErrDatasetUnavailable) {
		appErr = errors.ServiceUnavailable("order dataset is not loaded")
	} else {
		appErr = errors.InternalWrap(err, "report computation failed")
	}
	errors.WriteError(w, h.logger, appErr, requestID)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.KPISummary()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Charts()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleSubcategories(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.SubCategoryRanking()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleProductsAnalysis(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.ProductAnalysis()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleTopDiscounts(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.TopDiscounts()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleDiscountImpact(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.DiscountImpact()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleDiscountNetImpact(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.DiscountNetImpact()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleCustomersAnalysis(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.CustomerAnalysis()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleCountriesAnalysis(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.CountryAnalysis()
	h.writeReport(w, r, data, err)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
