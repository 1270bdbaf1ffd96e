package types

import (
	"time"

	"github.com/google/uuid"
)

// Location is a monitored point the collector samples on every due cycle.
type Location struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	IntervalMinutes int       `json:"intervalMinutes"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CreateLocationParams struct {
	Name            string  `json:"name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	IntervalMinutes *int    `json:"intervalMinutes,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// UpdateLocationParams uses pointers for partial updates.
type UpdateLocationParams struct {
	Name            *string  `json:"name,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	IntervalMinutes *int     `json:"intervalMinutes,omitempty"`
	Active          *bool    `json:"active,omitempty"`
}

// Sample is one collected weather reading. Append-only, never mutated.
type Sample struct {
	ID              uuid.UUID      `json:"id"`
	Source          string         `json:"source"`
	City            string         `json:"city"`
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	CollectedAt     time.Time      `json:"collectedAt"`
	TemperatureC    float64        `json:"temperatureC"`
	HumidityPercent *float64       `json:"humidityPercent,omitempty"`
	WindSpeedKmh    *float64       `json:"windSpeedKmh,omitempty"`
	Condition       *string        `json:"condition,omitempty"`
	Raw             map[string]any `json:"raw,omitempty"`
	LocationID      *string        `json:"locationId,omitempty"`
}

type CreateSampleParams struct {
	Source          string         `json:"source"`
	City            string         `json:"city"`
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	CollectedAt     time.Time      `json:"collected_at"`
	TemperatureC    float64        `json:"temperature_c"`
	HumidityPercent *float64       `json:"humidity_percent,omitempty"`
	WindSpeedKmh    *float64       `json:"wind_speed_kmh,omitempty"`
	Condition       *string        `json:"condition,omitempty"`
	Raw             map[string]any `json:"raw,omitempty"`
	LocationID      *string        `json:"location_id,omitempty"`
}

// CollectorConfig is the single stored row gating the global collection cycle.
type CollectorConfig struct {
	ID                     uuid.UUID `json:"id"`
	CollectIntervalMinutes int       `json:"collectIntervalMinutes"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Trend classification of a city's temperature over the window.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// CityInsight is derived fresh on every aggregation run, never persisted on
// its own and never mutated after construction.
type CityInsight struct {
	City               string   `json:"city"`
	SampleCount        int      `json:"sampleCount"`
	AverageTemperature float64  `json:"averageTemperature"`
	AverageHumidity    *float64 `json:"averageHumidity,omitempty"`
	Trend              string   `json:"trend"`
	ComfortIndex       *int     `json:"comfortIndex,omitempty"`
	Alerts             []string `json:"alerts"`
	LastSample         Sample   `json:"lastSample"`
	Narrative          string   `json:"narrative"`
}

type ComfortRankingEntry struct {
	City         string `json:"city"`
	ComfortIndex *int   `json:"comfortIndex"`
	Narrative    string `json:"narrative"`
}

// InsightRecord is the output of one aggregation run.
type InsightRecord struct {
	ID             uuid.UUID             `json:"id"`
	WindowHours    int                   `json:"windowHours"`
	Samples        int                   `json:"samples"`
	Message        string                `json:"message"`
	ComfortRanking []ComfortRankingEntry `json:"comfortRanking"`
	Cities         []CityInsight         `json:"cities"`
	Model          string                `json:"model"`
	AISummary      *string               `json:"aiSummary,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// Page bundles the common pagination envelope fields.
type Page struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}
