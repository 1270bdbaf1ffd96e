package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/types"
)

const citiesCacheKey = "weather:cities"

var _ SampleService = (*SampleServiceImpl)(nil)

type SampleService interface {
	Create(ctx context.Context, params types.CreateSampleParams) (*types.Sample, error)
	FindPaged(ctx context.Context, city string, page, limit int) ([]types.Sample, types.Page, error)
	FindCities(ctx context.Context) ([]string, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type SampleServiceImpl struct {
	logger *slog.Logger
	repo   SampleRepository
	cache  *gocache.Cache
}

func NewSampleService(repo SampleRepository, logger *slog.Logger) *SampleServiceImpl {
	return &SampleServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  gocache.New(30*time.Second, time.Minute),
	}
}

func (s *SampleServiceImpl) Create(ctx context.Context, params types.CreateSampleParams) (*types.Sample, error) {
	ctx, span := otel.Tracer("SampleService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("sample.city", params.City),
		attribute.String("sample.source", params.Source),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"), slog.String("city", params.City))

	if params.CollectedAt.IsZero() {
		params.CollectedAt = time.Now().UTC()
	}

	sample, err := s.repo.Append(ctx, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to append weather sample", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to append weather sample")
		return nil, fmt.Errorf("error appending weather sample: %w", err)
	}

	// New sample may introduce a new city.
	s.cache.Delete(citiesCacheKey)

	span.SetStatus(codes.Ok, "Weather sample appended")
	return sample, nil
}

func (s *SampleServiceImpl) FindPaged(ctx context.Context, city string, page, limit int) ([]types.Sample, types.Page, error) {
	ctx, span := otel.Tracer("SampleService").Start(ctx, "FindPaged", trace.WithAttributes(
		attribute.String("filter.city", city),
	))
	defer span.End()

	samples, total, err := s.repo.FindPaged(ctx, city, page, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list weather samples")
		return nil, types.Page{}, fmt.Errorf("error listing weather samples: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	span.SetStatus(codes.Ok, "Weather samples listed")
	return samples, types.Page{Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

func (s *SampleServiceImpl) FindCities(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("SampleService").Start(ctx, "FindCities")
	defer span.End()

	if cached, ok := s.cache.Get(citiesCacheKey); ok {
		span.SetStatus(codes.Ok, "Cities served from cache")
		return cached.([]string), nil
	}

	cities, err := s.repo.DistinctCities(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list cities")
		return nil, fmt.Errorf("error listing cities: %w", err)
	}

	s.cache.Set(citiesCacheKey, cities, gocache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Cities listed")
	return cities, nil
}
