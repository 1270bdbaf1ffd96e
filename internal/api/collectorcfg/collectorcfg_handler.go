package collectorcfg

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/api"
)

type ConfigHandler struct {
	configService ConfigService
	logger        *slog.Logger
}

func NewConfigHandler(configService ConfigService, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

type updateConfigRequest struct {
	CollectIntervalMinutes int `json:"collectIntervalMinutes"`
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ConfigHandler").Start(r.Context(), "Get", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/config/collector"),
	))
	defer span.End()

	cfg, err := h.configService.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load collector config", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load collector config")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load collector config")
		return
	}

	span.SetStatus(codes.Ok, "Collector config loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, cfg)
}

func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ConfigHandler").Start(r.Context(), "Update", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/config/collector"),
	))
	defer span.End()

	var req updateConfigRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.configService.Update(ctx, req.CollectIntervalMinutes)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to update collector config", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update collector config")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update collector config")
		return
	}

	span.SetStatus(codes.Ok, "Collector config updated")
	api.WriteJSONResponse(w, r, http.StatusOK, cfg)
}
