package insights

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/app/observability/metrics"
	"github.com/weathervane/weathervane/internal/types"
)

// MockSampleWindowStore is a mock implementation of the SampleWindowStore interface
type MockSampleWindowStore struct {
	mock.Mock
}

func (m *MockSampleWindowStore) QueryWindow(ctx context.Context, since time.Time) ([]types.Sample, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Sample), args.Error(1)
}

// MockInsightRepo is a mock implementation of the InsightRepository interface
type MockInsightRepo struct {
	mock.Mock
}

func (m *MockInsightRepo) Save(ctx context.Context, record types.InsightRecord) (*types.InsightRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.InsightRecord), args.Error(1)
}

func (m *MockInsightRepo) Latest(ctx context.Context) (*types.InsightRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.InsightRecord), args.Error(1)
}

// MockSummarizer is a mock implementation of the Summarizer interface
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, contextText, model string) (string, error) {
	args := m.Called(ctx, contextText, model)
	return args.String(0), args.Error(1)
}

func newTestService(samples SampleWindowStore, repo InsightRepository, summarizer Summarizer) *InsightServiceImpl {
	metrics.InitAppMetrics()
	return NewInsightService(samples, repo, summarizer, "gemini-2.0-flash", slog.Default())
}

func TestGenerate(t *testing.T) {
	base := time.Now().UTC().Add(-2 * time.Hour)

	t.Run("EmptyWindowPersistsNothing", func(t *testing.T) {
		samples := new(MockSampleWindowStore)
		repo := new(MockInsightRepo)
		summarizer := new(MockSummarizer)
		service := newTestService(samples, repo, summarizer)

		samples.On("QueryWindow", mock.Anything, mock.AnythingOfType("time.Time")).
			Return([]types.Sample{}, nil).Once()

		record, err := service.Generate(context.Background())

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, InsufficientDataMessage, record.Message)
		assert.Zero(t, record.Samples)
		samples.AssertExpectations(t)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FullWindowBuildsRecord", func(t *testing.T) {
		samples := new(MockSampleWindowStore)
		repo := new(MockInsightRepo)
		summarizer := new(MockSummarizer)
		service := newTestService(samples, repo, summarizer)

		window := []types.Sample{
			sampleAt("Lisbon", 20, floatPtr(60), nil, base),
			sampleAt("Lisbon", 22, floatPtr(50), nil, base.Add(time.Hour)),
			sampleAt("Porto", 36, floatPtr(95), floatPtr(40), base.Add(time.Hour)),
		}
		samples.On("QueryWindow", mock.Anything, mock.AnythingOfType("time.Time")).
			Return(window, nil).Once()
		summarizer.On("Summarize", mock.Anything, mock.AnythingOfType("string"), "gemini-2.0-flash").
			Return("a narrative", nil).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(record types.InsightRecord) bool {
			return record.WindowHours == 24 &&
				record.Samples == 3 &&
				len(record.Cities) == 2 &&
				record.AISummary != nil && *record.AISummary == "a narrative" &&
				strings.Contains(record.Message, "Hottest conditions in Porto")
		})).Return(&types.InsightRecord{WindowHours: 24, Samples: 3}, nil).Once()

		record, err := service.Generate(context.Background())

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, 3, record.Samples)
		samples.AssertExpectations(t)
		repo.AssertExpectations(t)
		summarizer.AssertExpectations(t)
	})

	t.Run("SummarizerFailureIsAbsorbed", func(t *testing.T) {
		samples := new(MockSampleWindowStore)
		repo := new(MockInsightRepo)
		summarizer := new(MockSummarizer)
		service := newTestService(samples, repo, summarizer)

		window := []types.Sample{
			sampleAt("Lisbon", 22, floatPtr(50), nil, base),
		}
		samples.On("QueryWindow", mock.Anything, mock.AnythingOfType("time.Time")).
			Return(window, nil).Once()
		summarizer.On("Summarize", mock.Anything, mock.AnythingOfType("string"), "gemini-2.0-flash").
			Return("", errors.New("quota exceeded")).Once()
		repo.On("Save", mock.Anything, mock.MatchedBy(func(record types.InsightRecord) bool {
			return record.AISummary == nil && record.Samples == 1
		})).Return(&types.InsightRecord{Samples: 1}, nil).Once()

		record, err := service.Generate(context.Background())

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Nil(t, record.AISummary)
		repo.AssertExpectations(t)
	})

	t.Run("QueryFailure", func(t *testing.T) {
		samples := new(MockSampleWindowStore)
		repo := new(MockInsightRepo)
		summarizer := new(MockSummarizer)
		service := newTestService(samples, repo, summarizer)

		samples.On("QueryWindow", mock.Anything, mock.AnythingOfType("time.Time")).
			Return(nil, errors.New("db down")).Once()

		record, err := service.Generate(context.Background())

		assert.Error(t, err)
		assert.Nil(t, record)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
