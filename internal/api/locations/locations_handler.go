package locations

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/api"
	"github.com/weathervane/weathervane/internal/types"
)

type LocationHandler struct {
	locationService LocationService
	logger          *slog.Logger
}

// NewLocationHandler creates a new location handler instance.
func NewLocationHandler(locationService LocationService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		logger:          logger,
	}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "Create", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/locations"),
	))
	defer span.End()

	var params types.CreateLocationParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if params.Name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "name is required")
		return
	}

	loc, err := h.locationService.Create(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to create location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create location")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create location")
		return
	}

	span.SetStatus(codes.Ok, "Location created")
	api.WriteJSONResponse(w, r, http.StatusCreated, loc)
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "List", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/locations"),
	))
	defer span.End()

	page, limit := api.ParsePagination(r, 5)
	locs, pageInfo, err := h.locationService.FindPaged(ctx, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list locations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list locations")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list locations")
		return
	}

	span.SetStatus(codes.Ok, "Locations listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"locations":  locs,
		"total":      pageInfo.Total,
		"page":       pageInfo.Page,
		"limit":      pageInfo.Limit,
		"totalPages": pageInfo.TotalPages,
	})
}

// ListActive is public: the frontend dashboard polls it without a session.
func (h *LocationHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "ListActive")
	defer span.End()

	locs, err := h.locationService.FindActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list active locations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list active locations")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list active locations")
		return
	}

	span.SetStatus(codes.Ok, "Active locations listed")
	api.WriteJSONResponse(w, r, http.StatusOK, locs)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "Update", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/locations/{id}"),
	))
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid location ID format")
		return
	}

	var params types.UpdateLocationParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := h.locationService.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Location not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update location")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update location")
		return
	}

	span.SetStatus(codes.Ok, "Location updated")
	api.WriteJSONResponse(w, r, http.StatusOK, loc)
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "Delete", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/locations/{id}"),
	))
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid location ID format")
		return
	}

	if err := h.locationService.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "Failed to delete location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete location")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete location")
		return
	}

	span.SetStatus(codes.Ok, "Location deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
