package insights

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/types"
)

// MockInsightService is a mock implementation of the InsightService interface
type MockInsightService struct {
	mock.Mock
}

func (m *MockInsightService) Generate(ctx context.Context) (*types.InsightRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.InsightRecord), args.Error(1)
}

func (m *MockInsightService) Latest(ctx context.Context) (*types.InsightRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.InsightRecord), args.Error(1)
}

func TestGenerateHandler(t *testing.T) {
	t.Run("EmptyWindowEnvelope", func(t *testing.T) {
		service := new(MockInsightService)
		handler := NewInsightHandler(service, slog.Default())

		service.On("Generate", mock.Anything).
			Return(&types.InsightRecord{Message: InsufficientDataMessage}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/weather/insights", nil)
		rec := httptest.NewRecorder()
		handler.Generate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, InsufficientDataMessage, body["message"])
		assert.NotContains(t, body, "cities")
	})

	t.Run("FullRecordBody", func(t *testing.T) {
		service := new(MockInsightService)
		handler := NewInsightHandler(service, slog.Default())

		service.On("Generate", mock.Anything).Return(&types.InsightRecord{
			WindowHours: 24,
			Samples:     5,
			Message:     "Hottest conditions in Lisbon (30.0 C)",
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/weather/insights", nil)
		rec := httptest.NewRecorder()
		handler.Generate(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body types.InsightRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 24, body.WindowHours)
		assert.Equal(t, 5, body.Samples)
	})

	t.Run("ServiceError", func(t *testing.T) {
		service := new(MockInsightService)
		handler := NewInsightHandler(service, slog.Default())

		service.On("Generate", mock.Anything).Return(nil, assert.AnError).Once()

		req := httptest.NewRequest(http.MethodPost, "/weather/insights", nil)
		rec := httptest.NewRecorder()
		handler.Generate(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLatestHandler(t *testing.T) {
	t.Run("NoRecordYet", func(t *testing.T) {
		service := new(MockInsightService)
		handler := NewInsightHandler(service, slog.Default())

		service.On("Latest", mock.Anything).Return(nil, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/weather/insights", nil)
		rec := httptest.NewRecorder()
		handler.Latest(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", string(rec.Body.Bytes()[:4]))
	})
}
