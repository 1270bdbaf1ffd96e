package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/types"
)

func floatPtr(v float64) *float64 { return &v }

func sampleAt(city string, temp float64, humidity *float64, wind *float64, at time.Time) types.Sample {
	return types.Sample{
		City:            city,
		TemperatureC:    temp,
		HumidityPercent: humidity,
		WindSpeedKmh:    wind,
		CollectedAt:     at,
	}
}

func TestGroupByCity(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	samples := []types.Sample{
		sampleAt("Lisbon", 20, nil, nil, base),
		sampleAt("Porto", 18, nil, nil, base.Add(time.Minute)),
		sampleAt("", 15, nil, nil, base.Add(2*time.Minute)),
		sampleAt("Lisbon", 21, nil, nil, base.Add(3*time.Minute)),
	}

	order, groups := groupByCity(samples)

	assert.Equal(t, []string{"Lisbon", "Porto", "unknown"}, order)
	assert.Len(t, groups["Lisbon"], 2)
	assert.Len(t, groups["Porto"], 1)
	assert.Len(t, groups["unknown"], 1)
	// Chronological order inside each group is preserved.
	assert.Equal(t, 20.0, groups["Lisbon"][0].TemperatureC)
	assert.Equal(t, 21.0, groups["Lisbon"][1].TemperatureC)
}

func TestCalcTrend(t *testing.T) {
	base := time.Now().UTC()

	build := func(temps ...float64) []types.Sample {
		samples := make([]types.Sample, 0, len(temps))
		for i, temp := range temps {
			samples = append(samples, sampleAt("X", temp, nil, nil, base.Add(time.Duration(i)*time.Minute)))
		}
		return samples
	}

	t.Run("SingleSampleIsStable", func(t *testing.T) {
		assert.Equal(t, types.TrendStable, calcTrend(build(20)))
	})

	t.Run("WithinThresholdIsStable", func(t *testing.T) {
		assert.Equal(t, types.TrendStable, calcTrend(build(20, 20.3)))
		assert.Equal(t, types.TrendStable, calcTrend(build(20, 20.5)))
		assert.Equal(t, types.TrendStable, calcTrend(build(20, 19.5)))
	})

	t.Run("Rising", func(t *testing.T) {
		assert.Equal(t, types.TrendRising, calcTrend(build(20, 21)))
	})

	t.Run("Falling", func(t *testing.T) {
		assert.Equal(t, types.TrendFalling, calcTrend(build(20, 19)))
	})

	t.Run("OnlyEndpointsMatter", func(t *testing.T) {
		// Intermediate spikes do not count.
		assert.Equal(t, types.TrendStable, calcTrend(build(20, 35, 20.2)))
	})
}

func TestComfortIndex(t *testing.T) {
	t.Run("IdealConditions", func(t *testing.T) {
		got := comfortIndex(22, floatPtr(50))
		require.NotNil(t, got)
		assert.Equal(t, 100, *got)
	})

	t.Run("HotDay", func(t *testing.T) {
		// temp score 100-39=61, humidity score 100, 61*0.6+100*0.4 = 76.6 -> 77
		got := comfortIndex(35, floatPtr(50))
		require.NotNil(t, got)
		assert.Equal(t, 77, *got)
	})

	t.Run("ClampedToZero", func(t *testing.T) {
		got := comfortIndex(80, floatPtr(0))
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, *got, 0)
		assert.LessOrEqual(t, *got, 100)
	})

	t.Run("UndefinedWithoutHumidity", func(t *testing.T) {
		assert.Nil(t, comfortIndex(22, nil))
	})
}

func TestExtractAlerts(t *testing.T) {
	now := time.Now().UTC()

	t.Run("ExtremeHeatWinsOverElevated", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 36, nil, nil, now))
		assert.Equal(t, []string{extremeHeatAlert}, alerts)
	})

	t.Run("ElevatedHeat", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 31, nil, nil, now))
		assert.Equal(t, []string{elevatedHeatAlert}, alerts)
	})

	t.Run("IntenseCold", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 4, nil, nil, now))
		assert.Equal(t, []string{intenseColdAlert}, alerts)
	})

	t.Run("DryAir", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 20, floatPtr(10), nil, now))
		assert.Equal(t, []string{dryAirAlert}, alerts)
	})

	t.Run("HighHumidityExcludesDryAir", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 20, floatPtr(95), nil, now))
		assert.Equal(t, []string{highHumidityAlert}, alerts)
	})

	t.Run("StrongWind", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 20, nil, floatPtr(40), now))
		assert.Equal(t, []string{strongWindAlert}, alerts)
	})

	t.Run("StackedAlertsKeepOrder", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 36, floatPtr(95), floatPtr(40), now))
		assert.Equal(t, []string{extremeHeatAlert, highHumidityAlert, strongWindAlert}, alerts)
	})

	t.Run("NoAlerts", func(t *testing.T) {
		alerts := extractAlerts(sampleAt("X", 22, floatPtr(50), floatPtr(10), now))
		assert.Empty(t, alerts)
	})
}

func TestBuildCityInsight(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("AveragesAndTrend", func(t *testing.T) {
		samples := []types.Sample{
			sampleAt("Lisbon", 20, floatPtr(60), nil, base),
			sampleAt("Lisbon", 22, floatPtr(50), nil, base.Add(time.Hour)),
		}

		insight := buildCityInsight("Lisbon", samples)

		assert.Equal(t, "Lisbon", insight.City)
		assert.Equal(t, 2, insight.SampleCount)
		assert.Equal(t, 21.0, insight.AverageTemperature)
		require.NotNil(t, insight.AverageHumidity)
		assert.Equal(t, 55.0, *insight.AverageHumidity)
		assert.Equal(t, types.TrendRising, insight.Trend)
		require.NotNil(t, insight.ComfortIndex)
		assert.Equal(t, 100, *insight.ComfortIndex)
		assert.Contains(t, insight.Narrative, "comfort index 100")
		assert.Contains(t, insight.Narrative, "warming trend")
	})

	t.Run("NoHumidityNoComfort", func(t *testing.T) {
		samples := []types.Sample{
			sampleAt("Faro", 20, nil, nil, base),
		}

		insight := buildCityInsight("Faro", samples)

		assert.Nil(t, insight.AverageHumidity)
		assert.Nil(t, insight.ComfortIndex)
		assert.Equal(t, "Faro: variation within expected range", insight.Narrative)
	})

	t.Run("AlertsInNarrative", func(t *testing.T) {
		samples := []types.Sample{
			sampleAt("Beja", 36, floatPtr(20), nil, base),
		}

		insight := buildCityInsight("Beja", samples)

		assert.Contains(t, insight.Narrative, "alerts: extreme heat, very dry air")
	})
}

func TestRankCities(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	lisbon := buildCityInsight("Lisbon", []types.Sample{
		sampleAt("Lisbon", 28, floatPtr(40), nil, base),
	})
	porto := buildCityInsight("Porto", []types.Sample{
		sampleAt("Porto", 36, floatPtr(70), floatPtr(40), base),
	})
	faro := buildCityInsight("Faro", []types.Sample{
		sampleAt("Faro", 25, nil, nil, base),
	})

	hottest, driest, mostAlerts := rankCities([]types.CityInsight{lisbon, porto, faro})

	require.NotNil(t, hottest)
	assert.Equal(t, "Porto", hottest.City)
	// Faro has no humidity data so it ranks after every defined average.
	require.NotNil(t, driest)
	assert.Equal(t, "Lisbon", driest.City)
	require.NotNil(t, mostAlerts)
	assert.Equal(t, "Porto", mostAlerts.City)
}

func TestRankCitiesEmpty(t *testing.T) {
	hottest, driest, mostAlerts := rankCities(nil)
	assert.Nil(t, hottest)
	assert.Nil(t, driest)
	assert.Nil(t, mostAlerts)
}

func TestBuildComfortRanking(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	insights := []types.CityInsight{
		buildCityInsight("A", []types.Sample{sampleAt("A", 22, floatPtr(50), nil, base)}),
		buildCityInsight("B", []types.Sample{sampleAt("B", 35, floatPtr(50), nil, base)}),
		buildCityInsight("C", []types.Sample{sampleAt("C", 25, floatPtr(50), nil, base)}),
		buildCityInsight("D", []types.Sample{sampleAt("D", 30, floatPtr(50), nil, base)}),
		buildCityInsight("NoData", []types.Sample{sampleAt("NoData", 22, nil, nil, base)}),
	}

	ranking := buildComfortRanking(insights)

	require.Len(t, ranking, 3)
	assert.Equal(t, "A", ranking[0].City)
	assert.Equal(t, "C", ranking[1].City)
	assert.Equal(t, "D", ranking[2].City)
	for _, entry := range ranking {
		assert.NotNil(t, entry.ComfortIndex)
		assert.NotEmpty(t, entry.Narrative)
	}
}

func TestBuildHeadline(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("AllClauses", func(t *testing.T) {
		hot := buildCityInsight("Beja", []types.Sample{sampleAt("Beja", 38.25, floatPtr(20), nil, base)})
		dry := buildCityInsight("Evora", []types.Sample{sampleAt("Evora", 25, floatPtr(15), nil, base)})

		headline := buildHeadline(&hot, &dry, &hot)

		assert.Contains(t, headline, "Hottest conditions in Beja (38.2 C)")
		assert.Contains(t, headline, "Lowest humidity in Evora (15.0%)")
		assert.Contains(t, headline, "Priority alerts in Beja: extreme heat; very dry air")
	})

	t.Run("AlertClauseOmittedWhenNone", func(t *testing.T) {
		calm := buildCityInsight("Lisbon", []types.Sample{sampleAt("Lisbon", 22, floatPtr(50), nil, base)})

		headline := buildHeadline(&calm, &calm, &calm)

		assert.NotContains(t, headline, "Priority alerts")
	})

	t.Run("FallbackWhenNothingRanked", func(t *testing.T) {
		assert.Equal(t, "Insights generated from the last 24h of readings.", buildHeadline(nil, nil, nil))
	})
}

func TestBuildSummaryContext(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("CappedAtThreeCities", func(t *testing.T) {
		insights := []types.CityInsight{
			buildCityInsight("A", []types.Sample{sampleAt("A", 22, floatPtr(50), nil, base)}),
			buildCityInsight("B", []types.Sample{sampleAt("B", 23, floatPtr(50), nil, base)}),
			buildCityInsight("C", []types.Sample{sampleAt("C", 24, floatPtr(50), nil, base)}),
			buildCityInsight("D", []types.Sample{sampleAt("D", 25, floatPtr(50), nil, base)}),
		}

		ctxText := buildSummaryContext(insights)

		assert.Contains(t, ctxText, "A: avg temp 22.0 C")
		assert.Contains(t, ctxText, "C:")
		assert.NotContains(t, ctxText, "D:")
	})

	t.Run("MissingFieldsFallbacks", func(t *testing.T) {
		insights := []types.CityInsight{
			buildCityInsight("X", []types.Sample{sampleAt("X", 22, nil, nil, base)}),
		}

		ctxText := buildSummaryContext(insights)

		assert.Contains(t, ctxText, "avg humidity N/A%")
		assert.Contains(t, ctxText, "comfort N/A")
		assert.Contains(t, ctxText, "alerts none")
	})
}
