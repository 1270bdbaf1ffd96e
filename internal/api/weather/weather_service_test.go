package weather

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/types"
)

// MockSampleRepo is a mock implementation of the SampleRepository interface
type MockSampleRepo struct {
	mock.Mock
}

func (m *MockSampleRepo) Append(ctx context.Context, params types.CreateSampleParams) (*types.Sample, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Sample), args.Error(1)
}

func (m *MockSampleRepo) QueryWindow(ctx context.Context, since time.Time) ([]types.Sample, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Sample), args.Error(1)
}

func (m *MockSampleRepo) DistinctCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSampleRepo) FindPaged(ctx context.Context, city string, page, limit int) ([]types.Sample, int, error) {
	args := m.Called(ctx, city, page, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]types.Sample), args.Int(1), args.Error(2)
}

func (m *MockSampleRepo) FindAll(ctx context.Context) ([]types.Sample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Sample), args.Error(1)
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestSampleCreate(t *testing.T) {
	logger := slog.Default()

	t.Run("DefaultsCollectedAt", func(t *testing.T) {
		repo := new(MockSampleRepo)
		service := NewSampleService(repo, logger)

		repo.On("Append", mock.Anything, mock.MatchedBy(func(p types.CreateSampleParams) bool {
			return !p.CollectedAt.IsZero()
		})).Return(&types.Sample{City: "Lisbon"}, nil).Once()

		sample, err := service.Create(context.Background(), types.CreateSampleParams{
			Source:       "manual",
			City:         "Lisbon",
			TemperatureC: 21,
		})

		require.NoError(t, err)
		assert.Equal(t, "Lisbon", sample.City)
		repo.AssertExpectations(t)
	})

	t.Run("PreservesExplicitCollectedAt", func(t *testing.T) {
		repo := new(MockSampleRepo)
		service := NewSampleService(repo, logger)

		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		repo.On("Append", mock.Anything, mock.MatchedBy(func(p types.CreateSampleParams) bool {
			return p.CollectedAt.Equal(at)
		})).Return(&types.Sample{}, nil).Once()

		_, err := service.Create(context.Background(), types.CreateSampleParams{
			Source:      "manual",
			City:        "Lisbon",
			CollectedAt: at,
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestFindCitiesCaching(t *testing.T) {
	repo := new(MockSampleRepo)
	service := NewSampleService(repo, slog.Default())

	repo.On("DistinctCities", mock.Anything).Return([]string{"Lisbon", "Porto"}, nil).Once()

	first, err := service.FindCities(context.Background())
	require.NoError(t, err)
	second, err := service.FindCities(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// Second call is served from cache.
	repo.AssertNumberOfCalls(t, "DistinctCities", 1)

	// A new sample invalidates the cached city list.
	repo.On("Append", mock.Anything, mock.Anything).Return(&types.Sample{}, nil).Once()
	repo.On("DistinctCities", mock.Anything).Return([]string{"Faro", "Lisbon", "Porto"}, nil).Once()

	_, err = service.Create(context.Background(), types.CreateSampleParams{Source: "manual", City: "Faro"})
	require.NoError(t, err)

	cities, err := service.FindCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Faro", "Lisbon", "Porto"}, cities)
	repo.AssertNumberOfCalls(t, "DistinctCities", 2)
}

func TestSampleFindPaged(t *testing.T) {
	repo := new(MockSampleRepo)
	service := NewSampleService(repo, slog.Default())

	repo.On("FindPaged", mock.Anything, "lis", 1, 5).Return([]types.Sample{
		{City: "Lisbon"},
	}, 7, nil).Once()

	samples, page, err := service.FindPaged(context.Background(), "lis", 1, 5)

	require.NoError(t, err)
	assert.Len(t, samples, 1)
	assert.Equal(t, types.Page{Total: 7, Page: 1, Limit: 5, TotalPages: 2}, page)
}

func TestExportCSV(t *testing.T) {
	repo := new(MockSampleRepo)
	service := NewSampleService(repo, slog.Default())

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	repo.On("FindAll", mock.Anything).Return([]types.Sample{
		{
			Source:          "open-meteo",
			City:            "Lisbon",
			CollectedAt:     at,
			TemperatureC:    21.37,
			HumidityPercent: floatPtr(55),
			WindSpeedKmh:    floatPtr(12.5),
			Condition:       strPtr("clear sky"),
		},
		{
			Source:       "manual",
			City:         "Porto",
			CollectedAt:  at,
			TemperatureC: 18,
		},
	}, nil).Once()

	data, err := service.ExportCSV(context.Background())

	require.NoError(t, err)
	csv := string(data)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "City")
	assert.Contains(t, lines[0], "Temperature (°C)")
	assert.Contains(t, lines[1], "Lisbon")
	assert.Contains(t, lines[1], "01/05/2024 10:30")
	assert.Contains(t, lines[1], "21.4")
	assert.Contains(t, lines[1], "clear sky")
	// Missing optional readings export as empty cells.
	assert.Contains(t, lines[2], "Porto")
	assert.Contains(t, lines[2], ",,")
}

func TestExportXLSX(t *testing.T) {
	repo := new(MockSampleRepo)
	service := NewSampleService(repo, slog.Default())

	repo.On("FindAll", mock.Anything).Return([]types.Sample{
		{Source: "open-meteo", City: "Lisbon", CollectedAt: time.Now().UTC(), TemperatureC: 21},
	}, nil).Once()

	data, err := service.ExportXLSX(context.Background())

	require.NoError(t, err)
	// XLSX files are zip archives.
	require.Greater(t, len(data), 4)
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
