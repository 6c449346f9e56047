package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "opsdash/internal/errors"
	"opsdash/internal/middleware"
	"opsdash/internal/services"
)

// DatasetHandler serves the snapshot status and manual reloads
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes, to be mounted at /api/datasets
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.Status)
	r.With(middleware.TraceMiddleware("datasets.reload")).Post("/reload", h.Reload)
	return r
}

// Status handles GET /api/datasets
func (h *DatasetHandler) Status(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, apierrors.Success(h.service.Status()))
}

// Reload handles POST /api/datasets/reload. The response carries the
// status of the snapshot the reload published.
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Reload(r.Context(), services.TriggerManual)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Manual reload completed",
		slog.String("load_id", status.LoadID),
		slog.Int("total_records", status.TotalRecords))
	_ = render.Render(w, r, apierrors.Success(status))
}
