package collectorcfg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/internal/types"
)

var _ ConfigService = (*ConfigServiceImpl)(nil)

type ConfigService interface {
	// EnsureDefault creates the singleton config row on first startup.
	EnsureDefault(ctx context.Context) (*types.CollectorConfig, error)

	// Get returns the current collector config, creating the default if needed.
	Get(ctx context.Context) (*types.CollectorConfig, error)

	// Update normalizes and stores the global interval and propagates it to
	// every location's override.
	Update(ctx context.Context, collectIntervalMinutes int) (*types.CollectorConfig, error)
}

type ConfigServiceImpl struct {
	logger          *slog.Logger
	repo            ConfigRepository
	defaultInterval int
}

func NewConfigService(repo ConfigRepository, defaultInterval int, logger *slog.Logger) *ConfigServiceImpl {
	if defaultInterval <= 0 {
		defaultInterval = 60
	}
	return &ConfigServiceImpl{
		logger:          logger,
		repo:            repo,
		defaultInterval: defaultInterval,
	}
}

func (s *ConfigServiceImpl) normalizeInterval(minutes int) int {
	if minutes <= 0 {
		return s.defaultInterval
	}
	return minutes
}

func (s *ConfigServiceImpl) EnsureDefault(ctx context.Context) (*types.CollectorConfig, error) {
	ctx, span := otel.Tracer("ConfigService").Start(ctx, "EnsureDefault")
	defer span.End()

	existing, err := s.repo.Find(ctx)
	if err == nil {
		span.SetStatus(codes.Ok, "Collector config present")
		return existing, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load collector config")
		return nil, fmt.Errorf("error loading collector config: %w", err)
	}

	created, err := s.repo.Insert(ctx, s.defaultInterval)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create default collector config")
		return nil, fmt.Errorf("error creating default collector config: %w", err)
	}
	s.logger.InfoContext(ctx, "Collector config created",
		slog.Int("collect_interval_minutes", s.defaultInterval))
	span.SetStatus(codes.Ok, "Collector config created")
	return created, nil
}

func (s *ConfigServiceImpl) Get(ctx context.Context) (*types.CollectorConfig, error) {
	ctx, span := otel.Tracer("ConfigService").Start(ctx, "Get")
	defer span.End()

	cfg, err := s.repo.Find(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return s.EnsureDefault(ctx)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load collector config")
		return nil, fmt.Errorf("error loading collector config: %w", err)
	}
	span.SetStatus(codes.Ok, "Collector config loaded")
	return cfg, nil
}

func (s *ConfigServiceImpl) Update(ctx context.Context, collectIntervalMinutes int) (*types.CollectorConfig, error) {
	interval := s.normalizeInterval(collectIntervalMinutes)
	ctx, span := otel.Tracer("ConfigService").Start(ctx, "Update", trace.WithAttributes(
		attribute.Int("collector.interval_minutes", interval),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.Int("interval_minutes", interval))

	cfg, err := s.repo.Upsert(ctx, interval)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update collector config", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update collector config")
		return nil, fmt.Errorf("error updating collector config: %w", err)
	}

	if err := s.repo.SetIntervalForAllLocations(ctx, interval); err != nil {
		l.ErrorContext(ctx, "Failed to propagate interval to locations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to propagate interval")
		return nil, fmt.Errorf("error propagating interval to locations: %w", err)
	}

	l.InfoContext(ctx, "Collector config updated")
	span.SetStatus(codes.Ok, "Collector config updated")
	return cfg, nil
}
