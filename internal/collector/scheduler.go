package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/semaphore"

	"github.com/weathervane/weathervane/app/observability/metrics"
	"github.com/weathervane/weathervane/internal/types"
)

// LocationDirectory supplies the current set of active monitored points.
type LocationDirectory interface {
	FindActive(ctx context.Context) ([]types.Location, error)
}

// ConfigSource supplies the stored collector configuration.
type ConfigSource interface {
	Get(ctx context.Context) (*types.CollectorConfig, error)
}

// SampleWriter persists collected samples.
type SampleWriter interface {
	Create(ctx context.Context, params types.CreateSampleParams) (*types.Sample, error)
}

// WeatherProvider fetches a current-conditions snapshot for a coordinate pair.
type WeatherProvider interface {
	FetchCurrent(ctx context.Context, latitude, longitude float64) (*Observation, error)
}

// Scheduler owns the repeating collection tick. A cycle fans out one
// goroutine per active location; one location's failure never aborts or
// delays its siblings.
type Scheduler struct {
	logger          *slog.Logger
	scheduler       *gocron.Scheduler
	directory       LocationDirectory
	configSource    ConfigSource
	samples         SampleWriter
	provider        WeatherProvider
	defaultInterval int
	tick            time.Duration

	// runLock serializes cycles: a tick that finds one in flight is skipped.
	runLock *semaphore.Weighted

	mu      sync.Mutex
	lastRun time.Time
}

func NewScheduler(
	directory LocationDirectory,
	configSource ConfigSource,
	samples SampleWriter,
	provider WeatherProvider,
	defaultIntervalMinutes int,
	tick time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if defaultIntervalMinutes <= 0 {
		defaultIntervalMinutes = 60
	}
	if tick <= 0 {
		tick = 60 * time.Second
	}
	return &Scheduler{
		logger:          logger,
		scheduler:       gocron.NewScheduler(time.UTC),
		directory:       directory,
		configSource:    configSource,
		samples:         samples,
		provider:        provider,
		defaultInterval: defaultIntervalMinutes,
		tick:            tick,
		runLock:         semaphore.NewWeighted(1),
	}
}

// Start schedules the periodic tick and runs the first one immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(int(s.tick.Seconds())).Seconds().StartImmediately().Do(s.onTick)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("Collector scheduler started",
		slog.Duration("tick", s.tick),
		slog.Int("default_interval_minutes", s.defaultInterval))
	return nil
}

// Stop halts the underlying scheduler. Safe to call more than once.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// normalizeMinutes falls back when the value is not a positive interval.
func normalizeMinutes(value, fallback int) int {
	if value <= 0 {
		if fallback <= 0 {
			return 60
		}
		return fallback
	}
	return value
}

// cycleDue reports whether a collection cycle should run. A cycle that never
// ran is always due; otherwise elapsed wall-clock time must reach the
// configured interval.
func cycleDue(lastRun, now time.Time, intervalMinutes int) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun) >= time.Duration(intervalMinutes)*time.Minute
}

func (s *Scheduler) onTick() {
	if !s.runLock.TryAcquire(1) {
		s.logger.Warn("Collection cycle still in flight, skipping tick")
		return
	}
	defer s.runLock.Release(1)

	ctx := context.Background()
	if err := s.runCycle(ctx); err != nil {
		// The tick is abandoned; the timer itself survives.
		s.logger.Error("Collection cycle failed", slog.Any("error", err))
	}
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	cfg, err := s.configSource.Get(ctx)
	if err != nil {
		return err
	}
	globalInterval := normalizeMinutes(cfg.CollectIntervalMinutes, s.defaultInterval)

	now := time.Now().UTC()
	s.mu.Lock()
	lastRun := s.lastRun
	s.mu.Unlock()

	if !cycleDue(lastRun, now, globalInterval) {
		return nil
	}

	locations, err := s.directory.FindActive(ctx)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		s.logger.Debug("No active locations to collect right now")
		return nil
	}

	var wg sync.WaitGroup
	for _, loc := range locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.collectForLocation(ctx, loc, globalInterval)
		}()
	}
	wg.Wait()

	// The watermark is the time captured at cycle start, so a slow cycle does
	// not shrink the next interval.
	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()

	metrics.Get().CollectorCyclesTotal.Add(ctx, 1)
	return nil
}

func (s *Scheduler) collectForLocation(ctx context.Context, loc types.Location, fallbackInterval int) {
	l := s.logger.With(slog.String("city", loc.Name))

	// The override only annotates the sample's log line; every active
	// location is fetched on every due global cycle.
	intervalMinutes := normalizeMinutes(loc.IntervalMinutes, fallbackInterval)

	obs, err := s.provider.FetchCurrent(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		metrics.Get().CollectorFetchErrorsTotal.Add(ctx, 1)
		l.Error("Failed to fetch weather data", slog.Any("error", err))
		return
	}

	locationID := loc.ID.String()
	condition := obs.Condition
	_, err = s.samples.Create(ctx, types.CreateSampleParams{
		Source:          SourceName,
		City:            loc.Name,
		Latitude:        loc.Latitude,
		Longitude:       loc.Longitude,
		CollectedAt:     time.Now().UTC(),
		TemperatureC:    obs.TemperatureC,
		HumidityPercent: obs.HumidityPercent,
		WindSpeedKmh:    obs.WindSpeedKmh,
		Condition:       &condition,
		Raw:             obs.Raw,
		LocationID:      &locationID,
	})
	if err != nil {
		l.Error("Failed to persist weather sample", slog.Any("error", err))
		return
	}

	metrics.Get().CollectorSamplesTotal.Add(ctx, 1)
	l.Info("Sample collected",
		slog.Int("interval_minutes", intervalMinutes),
		slog.Float64("latitude", loc.Latitude),
		slog.Float64("longitude", loc.Longitude),
	)
}
