// Package forecast condenses a 3-hourly forecast into one day of risk
// features.
package forecast

import (
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/errors"
)

// Summarize builds the DailyWeatherSummary for date (YYYY-MM-DD) from the
// samples whose date portion matches it exactly. Temperature and humidity are
// averaged; wind takes the day's peak and visibility its minimum.
func Summarize(samples []model.ForecastSample, date string) (model.DailyWeatherSummary, error) {
	var temps, hums, winds, vis []float64
	var descriptions []string

	for _, s := range samples {
		if datePart(s.Time) != date {
			continue
		}
		temps = append(temps, s.Temperature)
		hums = append(hums, s.Humidity)
		winds = append(winds, s.WindSpeed)

		v := model.DefaultVisibilityMeters
		if s.Visibility != nil {
			v = *s.Visibility
		}
		vis = append(vis, v)
		descriptions = append(descriptions, s.Description)
	}

	if len(temps) == 0 {
		return model.DailyWeatherSummary{}, errors.NewNoData(date)
	}

	return model.DailyWeatherSummary{
		Date:              date,
		DominantCondition: mostCommon(descriptions),
		MeanTemperature:   stat.Mean(temps, nil),
		MeanHumidity:      stat.Mean(hums, nil),
		MaxWindSpeed:      floats.Max(winds),
		MinVisibilityKm:   floats.Min(vis) / 1000.0,
		SampleCount:       len(temps),
	}, nil
}

func datePart(stamp string) string {
	if i := strings.IndexByte(stamp, ' '); i >= 0 {
		return stamp[:i]
	}
	return stamp
}

// mostCommon returns the most frequent value. Ties go to the value seen first.
func mostCommon(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
