package weather

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/api"
	"github.com/weathervane/weathervane/internal/types"
)

type SampleHandler struct {
	sampleService SampleService
	logger        *slog.Logger
}

func NewSampleHandler(sampleService SampleService, logger *slog.Logger) *SampleHandler {
	return &SampleHandler{
		sampleService: sampleService,
		logger:        logger,
	}
}

// Submit ingests a sample pushed from an external agent. Public by design:
// collector agents authenticate at the gateway, not here.
func (h *SampleHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SampleHandler").Start(r.Context(), "Submit", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather/logs"),
	))
	defer span.End()

	var params types.CreateSampleParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if params.Source == "" || params.City == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "source and city are required")
		return
	}

	sample, err := h.sampleService.Create(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to store weather sample", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store weather sample")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to store weather sample")
		return
	}

	span.SetStatus(codes.Ok, "Weather sample stored")
	api.WriteJSONResponse(w, r, http.StatusCreated, sample)
}

func (h *SampleHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SampleHandler").Start(r.Context(), "List", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather/logs"),
	))
	defer span.End()

	page, limit := api.ParsePagination(r, 10)
	city := strings.TrimSpace(r.URL.Query().Get("city"))

	samples, pageInfo, err := h.sampleService.FindPaged(ctx, city, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list weather samples", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list weather samples")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list weather samples")
		return
	}

	span.SetStatus(codes.Ok, "Weather samples listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"logs":       samples,
		"total":      pageInfo.Total,
		"page":       pageInfo.Page,
		"limit":      pageInfo.Limit,
		"totalPages": pageInfo.TotalPages,
	})
}

func (h *SampleHandler) Cities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SampleHandler").Start(r.Context(), "Cities")
	defer span.End()

	cities, err := h.sampleService.FindCities(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list cities")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list cities")
		return
	}

	span.SetStatus(codes.Ok, "Cities listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"cities": cities})
}

func (h *SampleHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SampleHandler").Start(r.Context(), "ExportCSV")
	defer span.End()

	out, err := h.sampleService.ExportCSV(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to export CSV", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to export CSV")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to export CSV")
		return
	}

	span.SetStatus(codes.Ok, "CSV export sent")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="weather-logs.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.ErrorContext(ctx, "Failed to write CSV response", slog.Any("error", err))
	}
}

func (h *SampleHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SampleHandler").Start(r.Context(), "ExportXLSX")
	defer span.End()

	out, err := h.sampleService.ExportXLSX(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to export XLSX", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to export XLSX")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to export XLSX")
		return
	}

	span.SetStatus(codes.Ok, "XLSX export sent")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="weather-logs.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.ErrorContext(ctx, "Failed to write XLSX response", slog.Any("error", err))
	}
}
