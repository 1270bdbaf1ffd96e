package locations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/types"
)

var _ LocationRepository = (*PostgresLocationRepository)(nil)

type LocationRepository interface {
	Create(ctx context.Context, loc types.Location) (*types.Location, error)
	FindPaged(ctx context.Context, page, limit int) ([]types.Location, int, error)
	FindActive(ctx context.Context) ([]types.Location, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateLocationParams) (*types.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostgresLocationRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewLocationRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresLocationRepository {
	return &PostgresLocationRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

const locationColumns = `id, name, latitude, longitude, interval_minutes, active, created_at, updated_at`

func scanLocation(row pgx.Row) (*types.Location, error) {
	var loc types.Location
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude,
		&loc.IntervalMinutes, &loc.Active, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *PostgresLocationRepository) Create(ctx context.Context, loc types.Location) (*types.Location, error) {
	query := `
        INSERT INTO locations (name, latitude, longitude, interval_minutes, active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + locationColumns
	created, err := scanLocation(r.pgpool.QueryRow(ctx, query,
		loc.Name, loc.Latitude, loc.Longitude, loc.IntervalMinutes, loc.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}
	return created, nil
}

func (r *PostgresLocationRepository) FindPaged(ctx context.Context, page, limit int) ([]types.Location, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM locations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count locations: %w", err)
	}

	query := `
        SELECT ` + locationColumns + `
        FROM locations
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	rows, err := r.pgpool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locs []types.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed iterating locations: %w", err)
	}
	return locs, total, nil
}

func (r *PostgresLocationRepository) FindActive(ctx context.Context) ([]types.Location, error) {
	query := `
        SELECT ` + locationColumns + `
        FROM locations
        WHERE active = TRUE
        ORDER BY created_at DESC`
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active locations: %w", err)
	}
	defer rows.Close()

	var locs []types.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating active locations: %w", err)
	}
	return locs, nil
}

func (r *PostgresLocationRepository) Update(ctx context.Context, id uuid.UUID, params types.UpdateLocationParams) (*types.Location, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argPos := 1

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Name != nil {
		addClause("name", *params.Name)
	}
	if params.Latitude != nil {
		addClause("latitude", *params.Latitude)
	}
	if params.Longitude != nil {
		addClause("longitude", *params.Longitude)
	}
	if params.IntervalMinutes != nil {
		addClause("interval_minutes", *params.IntervalMinutes)
	}
	if params.Active != nil {
		addClause("active", *params.Active)
	}

	query := fmt.Sprintf(`
        UPDATE locations
        SET %s
        WHERE id = $%d
        RETURNING %s`, strings.Join(setClauses, ", "), argPos, locationColumns)
	args = append(args, id)

	updated, err := scanLocation(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update location: %w", err)
	}
	return updated, nil
}

func (r *PostgresLocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pgpool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}
