package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/types"
)

var _ SampleRepository = (*PostgresSampleRepository)(nil)

type SampleRepository interface {
	// Append persists one immutable sample.
	Append(ctx context.Context, params types.CreateSampleParams) (*types.Sample, error)

	// QueryWindow returns every sample collected at or after since, oldest first.
	QueryWindow(ctx context.Context, since time.Time) ([]types.Sample, error)

	// DistinctCities returns the sorted set of city names with samples.
	DistinctCities(ctx context.Context) ([]string, error)

	// FindPaged returns samples newest first, optionally filtered by city
	// (case-insensitive substring match).
	FindPaged(ctx context.Context, city string, page, limit int) ([]types.Sample, int, error)

	// FindAll returns every sample, newest first. Used by the export sinks.
	FindAll(ctx context.Context) ([]types.Sample, error)
}

type PostgresSampleRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewSampleRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresSampleRepository {
	return &PostgresSampleRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

const sampleColumns = `id, source, city, latitude, longitude, collected_at, temperature_c,
        humidity_percent, wind_speed_kmh, condition, raw, location_id`

func scanSample(row pgx.Row) (*types.Sample, error) {
	var s types.Sample
	err := row.Scan(
		&s.ID, &s.Source, &s.City, &s.Latitude, &s.Longitude, &s.CollectedAt,
		&s.TemperatureC, &s.HumidityPercent, &s.WindSpeedKmh, &s.Condition,
		&s.Raw, &s.LocationID,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSampleRepository) Append(ctx context.Context, params types.CreateSampleParams) (*types.Sample, error) {
	query := `
        INSERT INTO weather_samples (
            source, city, latitude, longitude, collected_at, temperature_c,
            humidity_percent, wind_speed_kmh, condition, raw, location_id
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING ` + sampleColumns
	sample, err := scanSample(r.pgpool.QueryRow(ctx, query,
		params.Source, params.City, params.Latitude, params.Longitude,
		params.CollectedAt, params.TemperatureC, params.HumidityPercent,
		params.WindSpeedKmh, params.Condition, params.Raw, params.LocationID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert weather sample: %w", err)
	}
	return sample, nil
}

func (r *PostgresSampleRepository) QueryWindow(ctx context.Context, since time.Time) ([]types.Sample, error) {
	query := `
        SELECT ` + sampleColumns + `
        FROM weather_samples
        WHERE collected_at >= $1
        ORDER BY collected_at ASC`
	rows, err := r.pgpool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample window: %w", err)
	}
	defer rows.Close()

	var samples []types.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather sample: %w", err)
		}
		samples = append(samples, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating weather samples: %w", err)
	}
	return samples, nil
}

func (r *PostgresSampleRepository) FindAll(ctx context.Context) ([]types.Sample, error) {
	query := `
        SELECT ` + sampleColumns + `
        FROM weather_samples
        ORDER BY collected_at DESC`
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list weather samples: %w", err)
	}
	defer rows.Close()

	var samples []types.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather sample: %w", err)
		}
		samples = append(samples, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating weather samples: %w", err)
	}
	return samples, nil
}

func (r *PostgresSampleRepository) DistinctCities(ctx context.Context) ([]string, error) {
	rows, err := r.pgpool.Query(ctx, `SELECT DISTINCT city FROM weather_samples ORDER BY city ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating cities: %w", err)
	}
	return cities, nil
}

func (r *PostgresSampleRepository) FindPaged(ctx context.Context, city string, page, limit int) ([]types.Sample, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	where := ""
	countArgs := []interface{}{}
	listArgs := []interface{}{limit, offset}
	if city != "" {
		where = `WHERE city ILIKE '%' || $1 || '%'`
		countArgs = append(countArgs, city)
		listArgs = []interface{}{city, limit, offset}
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM weather_samples %s`, where)
	if err := r.pgpool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count weather samples: %w", err)
	}

	limitPos, offsetPos := 1, 2
	if city != "" {
		limitPos, offsetPos = 2, 3
	}
	listQuery := fmt.Sprintf(`
        SELECT %s
        FROM weather_samples %s
        ORDER BY collected_at DESC
        LIMIT $%d OFFSET $%d`, sampleColumns, where, limitPos, offsetPos)

	rows, err := r.pgpool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list weather samples: %w", err)
	}
	defer rows.Close()

	var samples []types.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan weather sample: %w", err)
		}
		samples = append(samples, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed iterating weather samples: %w", err)
	}
	return samples, total, nil
}
