package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weathervane/weathervane/app/observability/metrics"
	"github.com/weathervane/weathervane/internal/types"
)

const windowHours = 24

// InsufficientDataMessage is returned when the window holds no samples.
const InsufficientDataMessage = "Not enough data to generate insights yet."

// SampleWindowStore is the slice of the sample store the aggregator needs.
type SampleWindowStore interface {
	QueryWindow(ctx context.Context, since time.Time) ([]types.Sample, error)
}

var _ InsightService = (*InsightServiceImpl)(nil)

type InsightService interface {
	// Generate aggregates the trailing 24h window into a new insight record.
	// An empty window yields a record carrying only the insufficient-data
	// message and persists nothing.
	Generate(ctx context.Context) (*types.InsightRecord, error)

	// Latest returns the most recent persisted record, or nil when none exists.
	Latest(ctx context.Context) (*types.InsightRecord, error)
}

type InsightServiceImpl struct {
	logger     *slog.Logger
	samples    SampleWindowStore
	repo       InsightRepository
	summarizer Summarizer
	model      string
}

func NewInsightService(samples SampleWindowStore, repo InsightRepository, summarizer Summarizer, model string, logger *slog.Logger) *InsightServiceImpl {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &InsightServiceImpl{
		logger:     logger,
		samples:    samples,
		repo:       repo,
		summarizer: summarizer,
		model:      model,
	}
}

func (s *InsightServiceImpl) Generate(ctx context.Context) (*types.InsightRecord, error) {
	ctx, span := otel.Tracer("InsightService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.Int("window.hours", windowHours),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Generate"))
	start := time.Now()

	now := time.Now().UTC()
	since := now.Add(-windowHours * time.Hour)
	samples, err := s.samples.QueryWindow(ctx, since)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query sample window", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query sample window")
		return nil, fmt.Errorf("error querying sample window: %w", err)
	}

	if len(samples) == 0 {
		l.InfoContext(ctx, "No samples in window, skipping insight generation")
		span.SetStatus(codes.Ok, "No samples in window")
		return &types.InsightRecord{Message: InsufficientDataMessage}, nil
	}

	order, groups := groupByCity(samples)
	cityInsights := make([]types.CityInsight, 0, len(order))
	for _, city := range order {
		cityInsights = append(cityInsights, buildCityInsight(city, groups[city]))
	}

	hottest, driest, mostAlerts := rankCities(cityInsights)

	record := types.InsightRecord{
		WindowHours:    windowHours,
		Samples:        len(samples),
		Message:        buildHeadline(hottest, driest, mostAlerts),
		ComfortRanking: buildComfortRanking(cityInsights),
		Cities:         cityInsights,
		Model:          s.model,
	}

	// Any summarizer failure is absorbed: the record is persisted without the
	// narrative rather than failing the aggregation.
	summary, err := s.summarizer.Summarize(ctx, buildSummaryContext(cityInsights), s.model)
	if err != nil {
		l.WarnContext(ctx, "Narrative summary unavailable", slog.Any("error", err))
		metrics.Get().SummarizerFailuresTotal.Add(ctx, 1)
	} else {
		record.AISummary = &summary
	}

	saved, err := s.repo.Save(ctx, record)
	if err != nil {
		l.ErrorContext(ctx, "Failed to persist insight record", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist insight record")
		return nil, fmt.Errorf("error persisting insight record: %w", err)
	}

	metrics.Get().InsightGenerationSeconds.Record(ctx, time.Since(start).Seconds())
	l.InfoContext(ctx, "Insight record generated",
		slog.Int("samples", saved.Samples),
		slog.Int("cities", len(saved.Cities)),
		slog.Bool("narrative", saved.AISummary != nil),
	)
	span.SetStatus(codes.Ok, "Insight record generated")
	return saved, nil
}

func (s *InsightServiceImpl) Latest(ctx context.Context) (*types.InsightRecord, error) {
	ctx, span := otel.Tracer("InsightService").Start(ctx, "Latest")
	defer span.End()

	rec, err := s.repo.Latest(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load latest insight record")
		return nil, fmt.Errorf("error loading latest insight record: %w", err)
	}
	span.SetStatus(codes.Ok, "Latest insight record loaded")
	return rec, nil
}

func formatComfort(c *int) string {
	if c == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *c)
}

func formatAvgHumidity(h *float64) string {
	if h == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *h)
}

// buildSummaryContext composes the compact stat lines the summarizer receives
// as aggregate context, one per city, capped at three cities.
func buildSummaryContext(cityInsights []types.CityInsight) string {
	top := cityInsights
	if len(top) > 3 {
		top = top[:3]
	}
	lines := make([]string, 0, len(top))
	for _, c := range top {
		alerts := strings.Join(c.Alerts, "; ")
		if alerts == "" {
			alerts = "none"
		}
		lines = append(lines, fmt.Sprintf(
			"%s: avg temp %.1f C, avg humidity %s%%, trend %s, comfort %s, alerts %s",
			c.City, c.AverageTemperature, formatAvgHumidity(c.AverageHumidity),
			c.Trend, formatComfort(c.ComfortIndex), alerts,
		))
	}
	return strings.Join(lines, " | ")
}
