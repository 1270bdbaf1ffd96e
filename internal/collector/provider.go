package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"
	providerTimeout  = 10 * time.Second

	// SourceName labels every sample this collector writes.
	SourceName = "open-meteo"
)

// Observation is the typed slice of a provider response the collector keeps.
// Raw carries the provider's current-conditions block verbatim.
type Observation struct {
	TemperatureC    float64
	HumidityPercent *float64
	WindSpeedKmh    *float64
	Condition       string
	Raw             map[string]any
}

// ProviderClient fetches current conditions for a coordinate pair.
type ProviderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProviderClient() *ProviderClient {
	return &ProviderClient{
		baseURL: openMeteoBaseURL,
		httpClient: &http.Client{
			Timeout: providerTimeout,
		},
	}
}

type openMeteoResponse struct {
	CurrentWeather struct {
		Temperature *float64 `json:"temperature"`
		WindSpeed   *float64 `json:"windspeed"`
		WeatherCode *int     `json:"weathercode"`
		Time        string   `json:"time"`
	} `json:"current_weather"`
	Hourly struct {
		Time               []string  `json:"time"`
		RelativeHumidity2m []float64 `json:"relativehumidity_2m"`
	} `json:"hourly"`
}

// FetchCurrent retrieves a current-conditions snapshot. A response without a
// numeric temperature is a hard failure for that location.
func (c *ProviderClient) FetchCurrent(ctx context.Context, latitude, longitude float64) (*Observation, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	values.Set("current_weather", "true")
	values.Set("hourly", "relativehumidity_2m")
	values.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	var payload openMeteoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	if payload.CurrentWeather.Temperature == nil {
		return nil, fmt.Errorf("provider response missing current temperature")
	}

	// Keep the raw current-conditions block as an opaque blob.
	var generic struct {
		CurrentWeather map[string]any `json:"current_weather"`
	}
	_ = json.Unmarshal(body, &generic)

	return &Observation{
		TemperatureC:    *payload.CurrentWeather.Temperature,
		HumidityPercent: pickHumidity(payload.Hourly.Time, payload.Hourly.RelativeHumidity2m, payload.CurrentWeather.Time),
		WindSpeedKmh:    payload.CurrentWeather.WindSpeed,
		Condition:       translateWeatherCode(payload.CurrentWeather.WeatherCode),
		Raw:             generic.CurrentWeather,
	}, nil
}

// pickHumidity aligns the hourly humidity series with the current-conditions
// timestamp, falling back to the first available value and then to unknown.
func pickHumidity(timestamps []string, values []float64, currentTime string) *float64 {
	if len(timestamps) == 0 || len(values) == 0 {
		return nil
	}
	if currentTime != "" {
		for i, ts := range timestamps {
			if ts == currentTime && i < len(values) {
				return &values[i]
			}
		}
	}
	return &values[0]
}

// translateWeatherCode maps Open-Meteo WMO weather codes to labels. Unknown
// or missing codes map to an explicit label instead of failing the fetch.
func translateWeatherCode(code *int) string {
	if code == nil {
		return "undefined"
	}
	mapping := map[int]string{
		0:  "clear sky",
		1:  "mainly clear",
		2:  "partly cloudy",
		3:  "overcast",
		45: "fog",
		48: "depositing rime fog",
		51: "light drizzle",
		53: "moderate drizzle",
		55: "dense drizzle",
		61: "light rain",
		63: "moderate rain",
		65: "heavy rain",
		71: "light snow",
		73: "moderate snow",
		75: "heavy snow",
		80: "slight rain showers",
		81: "moderate rain showers",
		82: "violent rain showers",
	}
	if label, ok := mapping[*code]; ok {
		return label
	}
	return "undefined"
}
