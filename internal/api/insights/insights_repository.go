package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/app/observability/metrics"
	"github.com/weathervane/weathervane/internal/types"
)

var _ InsightRepository = (*PostgresInsightRepository)(nil)

type InsightRepository interface {
	// Save appends a new insight record.
	Save(ctx context.Context, record types.InsightRecord) (*types.InsightRecord, error)

	// Latest returns the most recently created record, or nil when none exists.
	Latest(ctx context.Context) (*types.InsightRecord, error)
}

// insightDB is the slice of the pool this repository uses.
type insightDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresInsightRepository struct {
	logger *slog.Logger
	pgpool insightDB
}

func NewInsightRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresInsightRepository {
	return &PostgresInsightRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

const insightColumns = `id, window_hours, samples, message, comfort_ranking, cities, model, ai_summary, created_at`

func scanInsight(row pgx.Row) (*types.InsightRecord, error) {
	var rec types.InsightRecord
	err := row.Scan(
		&rec.ID, &rec.WindowHours, &rec.Samples, &rec.Message,
		&rec.ComfortRanking, &rec.Cities, &rec.Model, &rec.AISummary, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresInsightRepository) Save(ctx context.Context, record types.InsightRecord) (*types.InsightRecord, error) {
	query := `
        INSERT INTO ai_insights (window_hours, samples, message, comfort_ranking, cities, model, ai_summary)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + insightColumns
	saved, err := scanInsight(r.pgpool.QueryRow(ctx, query,
		record.WindowHours, record.Samples, record.Message,
		record.ComfortRanking, record.Cities, record.Model, record.AISummary,
	))
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to insert insight record: %w", err)
	}
	return saved, nil
}

func (r *PostgresInsightRepository) Latest(ctx context.Context) (*types.InsightRecord, error) {
	query := `SELECT ` + insightColumns + ` FROM ai_insights ORDER BY created_at DESC LIMIT 1`
	rec, err := scanInsight(r.pgpool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to load latest insight record: %w", err)
	}
	return rec, nil
}
