package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/weathervane/weathervane/internal/types"
)

const unknownCityBucket = "unknown"

// Alert thresholds evaluated against the latest sample of each city.
const (
	extremeHeatAlert  = "extreme heat"
	elevatedHeatAlert = "elevated heat, stay hydrated"
	intenseColdAlert  = "intense cold, dress warmly"
	highHumidityAlert = "very high humidity, rain risk"
	dryAirAlert       = "very dry air"
	strongWindAlert   = "strong recent winds"
)

// groupByCity partitions samples by city name, preserving chronological order
// within each group. Blank city names fall into the "unknown" bucket. The
// returned key order follows first appearance.
func groupByCity(samples []types.Sample) ([]string, map[string][]types.Sample) {
	groups := make(map[string][]types.Sample)
	var order []string
	for _, sample := range samples {
		key := sample.City
		if key == "" {
			key = unknownCityBucket
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sample)
	}
	return order, groups
}

func calcAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calcTrend compares the first and last temperature of a chronological group.
func calcTrend(samples []types.Sample) string {
	if len(samples) < 2 {
		return types.TrendStable
	}
	delta := samples[len(samples)-1].TemperatureC - samples[0].TemperatureC
	if delta > 0.5 {
		return types.TrendRising
	}
	if delta < -0.5 {
		return types.TrendFalling
	}
	return types.TrendStable
}

// comfortIndex scores 0-100 as a weighted deviation penalty from 22 C / 50%
// humidity, temperature weighted more heavily. Undefined when humidity is
// absent.
func comfortIndex(temperature float64, humidity *float64) *int {
	if humidity == nil {
		return nil
	}
	tempScore := 100 - math.Abs(22-temperature)*3
	humidityScore := 100 - math.Abs(50-*humidity)*1.2
	score := tempScore*0.6 + humidityScore*0.4
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	rounded := int(math.Round(score))
	return &rounded
}

// extractAlerts derives alerts from the latest sample only. Temperature
// alerts are mutually exclusive, checked hottest first; humidity and wind
// alerts accumulate independently.
func extractAlerts(last types.Sample) []string {
	var alerts []string
	switch {
	case last.TemperatureC >= 35:
		alerts = append(alerts, extremeHeatAlert)
	case last.TemperatureC >= 30:
		alerts = append(alerts, elevatedHeatAlert)
	case last.TemperatureC <= 5:
		alerts = append(alerts, intenseColdAlert)
	}
	if last.HumidityPercent != nil {
		if *last.HumidityPercent >= 90 {
			alerts = append(alerts, highHumidityAlert)
		} else if *last.HumidityPercent <= 25 {
			alerts = append(alerts, dryAirAlert)
		}
	}
	if last.WindSpeedKmh != nil && *last.WindSpeedKmh >= 35 {
		alerts = append(alerts, strongWindAlert)
	}
	return alerts
}

func comfortLabel(comfort int) string {
	switch {
	case comfort >= 80:
		return "very comfortable"
	case comfort >= 60:
		return "comfortable"
	default:
		return "uncomfortable"
	}
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// buildCityInsight computes the per-city statistics for a chronological group.
func buildCityInsight(city string, samples []types.Sample) types.CityInsight {
	temperatures := make([]float64, 0, len(samples))
	var humidity []float64
	for _, sample := range samples {
		temperatures = append(temperatures, sample.TemperatureC)
		if sample.HumidityPercent != nil {
			humidity = append(humidity, *sample.HumidityPercent)
		}
	}

	var avgHumidity *float64
	if len(humidity) > 0 {
		v := roundTo1(calcAverage(humidity))
		avgHumidity = &v
	}

	last := samples[len(samples)-1]
	trend := calcTrend(samples)
	comfort := comfortIndex(last.TemperatureC, last.HumidityPercent)
	alerts := extractAlerts(last)

	var narrativeParts []string
	if comfort != nil {
		narrativeParts = append(narrativeParts,
			fmt.Sprintf("%s: comfort index %d (%s)", city, *comfort, comfortLabel(*comfort)))
	}
	if trend == types.TrendRising {
		narrativeParts = append(narrativeParts, "warming trend over the last hours")
	} else if trend == types.TrendFalling {
		narrativeParts = append(narrativeParts, "cooling trend over the last hours")
	}
	if len(alerts) > 0 {
		narrativeParts = append(narrativeParts, "alerts: "+strings.Join(alerts, ", "))
	}

	narrative := strings.Join(narrativeParts, " | ")
	if narrative == "" {
		narrative = fmt.Sprintf("%s: variation within expected range", city)
	}

	return types.CityInsight{
		City:               city,
		SampleCount:        len(samples),
		AverageTemperature: roundTo1(calcAverage(temperatures)),
		AverageHumidity:    avgHumidity,
		Trend:              trend,
		ComfortIndex:       comfort,
		Alerts:             alerts,
		LastSample:         last,
		Narrative:          narrative,
	}
}

// humidity sort key for cities with no humidity data: above the valid range
// so they rank last in the driest comparison.
const missingHumiditySentinel = 101.0

// rankCities finds the hottest, driest and most-alerted cities in one pass.
// Ties keep the earlier city, matching stable-sort behavior.
func rankCities(cities []types.CityInsight) (hottest, driest, mostAlerts *types.CityInsight) {
	for i := range cities {
		c := &cities[i]
		if hottest == nil || c.LastSample.TemperatureC > hottest.LastSample.TemperatureC {
			hottest = c
		}
		if driest == nil || humidityKey(c) < humidityKey(driest) {
			driest = c
		}
		if mostAlerts == nil || len(c.Alerts) > len(mostAlerts.Alerts) {
			mostAlerts = c
		}
	}
	return hottest, driest, mostAlerts
}

func humidityKey(c *types.CityInsight) float64 {
	if c.AverageHumidity == nil {
		return missingHumiditySentinel
	}
	return *c.AverageHumidity
}

// buildComfortRanking returns the top-3 cities by comfort score, descending.
func buildComfortRanking(cities []types.CityInsight) []types.ComfortRankingEntry {
	ranked := make([]types.CityInsight, 0, len(cities))
	for _, c := range cities {
		if c.ComfortIndex != nil {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].ComfortIndex > *ranked[j].ComfortIndex
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	entries := make([]types.ComfortRankingEntry, 0, len(ranked))
	for _, c := range ranked {
		entries = append(entries, types.ComfortRankingEntry{
			City:         c.City,
			ComfortIndex: c.ComfortIndex,
			Narrative:    c.Narrative,
		})
	}
	return entries
}

// buildHeadline concatenates up to three clauses about the ranked cities.
func buildHeadline(hottest, driest, mostAlerts *types.CityInsight) string {
	var parts []string
	if hottest != nil {
		parts = append(parts, fmt.Sprintf("Hottest conditions in %s (%.1f C)",
			hottest.City, hottest.LastSample.TemperatureC))
	}
	if driest != nil && driest.AverageHumidity != nil {
		parts = append(parts, fmt.Sprintf("Lowest humidity in %s (%.1f%%)",
			driest.City, *driest.AverageHumidity))
	}
	if mostAlerts != nil && len(mostAlerts.Alerts) > 0 {
		parts = append(parts, fmt.Sprintf("Priority alerts in %s: %s",
			mostAlerts.City, strings.Join(mostAlerts.Alerts, "; ")))
	}
	if len(parts) == 0 {
		return "Insights generated from the last 24h of readings."
	}
	return strings.Join(parts, " | ")
}
