package insights

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/api"
)

type InsightHandler struct {
	insightService InsightService
	logger         *slog.Logger
}

func NewInsightHandler(insightService InsightService, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		logger:         logger,
	}
}

func (h *InsightHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("InsightHandler").Start(r.Context(), "Generate", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather/insights"),
	))
	defer span.End()

	record, err := h.insightService.Generate(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate insights", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate insights")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	span.SetStatus(codes.Ok, "Insights generated")
	if record.Samples == 0 {
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": record.Message})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, record)
}

func (h *InsightHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("InsightHandler").Start(r.Context(), "Latest", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/weather/insights"),
	))
	defer span.End()

	record, err := h.insightService.Latest(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load latest insights", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load latest insights")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load latest insights")
		return
	}

	span.SetStatus(codes.Ok, "Latest insights loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, record)
}
