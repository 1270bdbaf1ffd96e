package locations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/types"
)

const defaultIntervalMinutes = 60

var _ LocationService = (*LocationServiceImpl)(nil)

type LocationService interface {
	Create(ctx context.Context, params types.CreateLocationParams) (*types.Location, error)
	FindPaged(ctx context.Context, page, limit int) ([]types.Location, types.Page, error)

	// FindActive returns every active monitored location; this is the set the
	// collector fans out over on each due cycle.
	FindActive(ctx context.Context) ([]types.Location, error)

	Update(ctx context.Context, id uuid.UUID, params types.UpdateLocationParams) (*types.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LocationServiceImpl struct {
	logger *slog.Logger
	repo   LocationRepository
}

func NewLocationService(repo LocationRepository, logger *slog.Logger) *LocationServiceImpl {
	return &LocationServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// NormalizeInterval falls back to the default when the interval is not a
// positive value.
func NormalizeInterval(minutes int) int {
	if minutes <= 0 {
		return defaultIntervalMinutes
	}
	return minutes
}

func (s *LocationServiceImpl) Create(ctx context.Context, params types.CreateLocationParams) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("location.name", params.Name),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"), slog.String("name", params.Name))

	loc := types.Location{
		Name:            params.Name,
		Latitude:        params.Latitude,
		Longitude:       params.Longitude,
		IntervalMinutes: defaultIntervalMinutes,
		Active:          true,
	}
	if params.IntervalMinutes != nil {
		loc.IntervalMinutes = NormalizeInterval(*params.IntervalMinutes)
	}
	if params.Active != nil {
		loc.Active = *params.Active
	}

	created, err := s.repo.Create(ctx, loc)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create location")
		return nil, fmt.Errorf("error creating location: %w", err)
	}

	l.InfoContext(ctx, "Location created", slog.String("id", created.ID.String()))
	span.SetStatus(codes.Ok, "Location created")
	return created, nil
}

func (s *LocationServiceImpl) FindPaged(ctx context.Context, page, limit int) ([]types.Location, types.Page, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "FindPaged")
	defer span.End()

	locs, total, err := s.repo.FindPaged(ctx, page, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list locations")
		return nil, types.Page{}, fmt.Errorf("error listing locations: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	span.SetStatus(codes.Ok, "Locations listed")
	return locs, types.Page{Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

func (s *LocationServiceImpl) FindActive(ctx context.Context) ([]types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "FindActive")
	defer span.End()

	locs, err := s.repo.FindActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list active locations")
		return nil, fmt.Errorf("error listing active locations: %w", err)
	}
	span.SetStatus(codes.Ok, "Active locations listed")
	return locs, nil
}

func (s *LocationServiceImpl) Update(ctx context.Context, id uuid.UUID, params types.UpdateLocationParams) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("location.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("id", id.String()))

	if params.IntervalMinutes != nil {
		normalized := NormalizeInterval(*params.IntervalMinutes)
		params.IntervalMinutes = &normalized
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update location")
		return nil, err
	}

	l.InfoContext(ctx, "Location updated")
	span.SetStatus(codes.Ok, "Location updated")
	return updated, nil
}

func (s *LocationServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("location.id", id.String()),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete location")
		return fmt.Errorf("error deleting location: %w", err)
	}
	span.SetStatus(codes.Ok, "Location deleted")
	return nil
}
