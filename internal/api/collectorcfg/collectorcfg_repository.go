package collectorcfg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/types"
)

var _ ConfigRepository = (*PostgresConfigRepository)(nil)

type ConfigRepository interface {
	Find(ctx context.Context) (*types.CollectorConfig, error)
	Insert(ctx context.Context, intervalMinutes int) (*types.CollectorConfig, error)
	Upsert(ctx context.Context, intervalMinutes int) (*types.CollectorConfig, error)

	// SetIntervalForAllLocations propagates the global interval to every
	// location's override.
	SetIntervalForAllLocations(ctx context.Context, intervalMinutes int) error
}

type PostgresConfigRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewConfigRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresConfigRepository {
	return &PostgresConfigRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

const configColumns = `id, collect_interval_minutes, created_at, updated_at`

func scanConfig(row pgx.Row) (*types.CollectorConfig, error) {
	var cfg types.CollectorConfig
	err := row.Scan(&cfg.ID, &cfg.CollectIntervalMinutes, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *PostgresConfigRepository) Find(ctx context.Context) (*types.CollectorConfig, error) {
	query := `SELECT ` + configColumns + ` FROM collector_config ORDER BY created_at ASC LIMIT 1`
	cfg, err := scanConfig(r.pgpool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load collector config: %w", err)
	}
	return cfg, nil
}

func (r *PostgresConfigRepository) Insert(ctx context.Context, intervalMinutes int) (*types.CollectorConfig, error) {
	query := `
        INSERT INTO collector_config (collect_interval_minutes)
        VALUES ($1)
        RETURNING ` + configColumns
	cfg, err := scanConfig(r.pgpool.QueryRow(ctx, query, intervalMinutes))
	if err != nil {
		return nil, fmt.Errorf("failed to insert collector config: %w", err)
	}
	return cfg, nil
}

func (r *PostgresConfigRepository) Upsert(ctx context.Context, intervalMinutes int) (*types.CollectorConfig, error) {
	// Single-row table: update the existing row if present, insert otherwise.
	query := `
        UPDATE collector_config
        SET collect_interval_minutes = $1, updated_at = now()
        RETURNING ` + configColumns
	cfg, err := scanConfig(r.pgpool.QueryRow(ctx, query, intervalMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.Insert(ctx, intervalMinutes)
		}
		return nil, fmt.Errorf("failed to update collector config: %w", err)
	}
	return cfg, nil
}

func (r *PostgresConfigRepository) SetIntervalForAllLocations(ctx context.Context, intervalMinutes int) error {
	query := `UPDATE locations SET interval_minutes = $1, updated_at = now()`
	if _, err := r.pgpool.Exec(ctx, query, intervalMinutes); err != nil {
		return fmt.Errorf("failed to propagate interval to locations: %w", err)
	}
	return nil
}
