package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	dp "opsdash/internal/dataprocessing"
	apierrors "opsdash/internal/errors"
	"opsdash/internal/middleware"
	apiv1 "opsdash/pkg/contracts/api/v1"
)

// AnalyticsHandler serves the raw dataset and KPI routes
type AnalyticsHandler struct {
	service      AnalyticsServiceInterface
	validator    *middleware.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsServiceInterface, validator *middleware.QueryValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes, to be mounted under /api
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dashboard/overview", h.Overview)

	r.Route("/water-quality", func(r chi.Router) {
		r.Get("/", h.records(dp.WaterQuality))
		r.Get("/analysis", h.analysis(h.waterQuality))
	})
	r.Route("/distribution", func(r chi.Router) {
		r.Get("/", h.records(dp.Distribution))
		r.Get("/analysis", h.analysis(h.distribution))
		r.Get("/nrw-analysis", h.analysis(h.nrw))
	})
	r.Route("/energy", func(r chi.Router) {
		r.Get("/", h.records(dp.Energy))
		r.Get("/analysis", h.analysis(h.energy))
	})
	r.Route("/maintenance", func(r chi.Router) {
		r.Get("/", h.records(dp.Maintenance))
		r.Get("/analysis", h.analysis(h.maintenance))
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/consumption", h.records(dp.Consumption))
		r.Get("/complaints", h.records(dp.Complaints))
		r.Get("/analysis", h.analysis(h.customers))
	})

	r.Get("/compliance/report", h.ComplianceReport)
	r.Get("/alerts", h.Alerts)

	return r
}

// Overview handles GET /api/dashboard/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	h.respond(w, r, overview, err)
}

// ComplianceReport handles GET /api/compliance/report
func (h *AnalyticsHandler) ComplianceReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ComplianceReport(r.Context())
	h.respond(w, r, report, err)
}

// Alerts handles GET /api/alerts
func (h *AnalyticsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context())
	h.respond(w, r, alerts, err)
}

// records serves the raw rows of one dataset
func (h *AnalyticsHandler) records(dataset string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.validator.RecordsRequest(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		rows, err := h.service.Records(r.Context(), dataset, req)
		if err == nil {
			h.logger.DebugContext(r.Context(), "Serving dataset records",
				slog.String("dataset", dataset),
				slog.Int("records", len(rows)))
		}
		h.respond(w, r, rows, err)
	}
}

type analysisFunc func(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error)

// analysis validates the date range and serves one analysis payload
func (h *AnalyticsHandler) analysis(fn analysisFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.validator.AnalysisRequest(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		result, err := fn(r.Context(), req)
		h.respond(w, r, result, err)
	}
}

func (h *AnalyticsHandler) waterQuality(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error) {
	return h.service.WaterQualityAnalysis(ctx, req)
}

func (h *AnalyticsHandler) distribution(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error) {
	return h.service.DistributionAnalysis(ctx, req)
}

func (h *AnalyticsHandler) nrw(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error) {
	return h.service.NRWAnalysis(ctx, req)
}

func (h *AnalyticsHandler) energy(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error) {
	return h.service.EnergyAnalysis(ctx, req)
}

func (h *AnalyticsHandler) maintenance(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error) {
	return h.service.MaintenanceAnalysis(ctx, req)
}

func (h *AnalyticsHandler) customers(ctx context.Context, req apiv1.AnalysisRequest) (interface{}, error) {
	return h.service.CustomerAnalysis(ctx, req)
}

// respond renders data in the success envelope, or err through the error
// handler
func (h *AnalyticsHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if rerr := render.Render(w, r, apierrors.Success(data)); rerr != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render response", slog.String("error", rerr.Error()))
	}
}
