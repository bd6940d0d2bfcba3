package planner

import (
	"context"
	"log"
	"time"
)

// ForecastProvider fetches raw multi-day forecast samples for a destination.
type ForecastProvider interface {
	Forecast(ctx context.Context, destination string) ([]ForecastSample, error)
}

// AggregateWeather reduces a provider forecast to one summary per requested
// day. The first sample seen for a date wins; days without a sample are
// omitted. Any provider failure yields an empty result and is only logged.
func AggregateWeather(ctx context.Context, provider ForecastProvider, destination string, days []time.Time) []DailyWeatherSummary {
	if provider == nil || len(days) == 0 {
		return []DailyWeatherSummary{}
	}

	samples, err := provider.Forecast(ctx, destination)
	if err != nil {
		log.Printf("⚠️  Weather forecast for %q unavailable (continuing without weather): %v", destination, err)
		return []DailyWeatherSummary{}
	}

	return SummarizeForecast(samples, days)
}

// SummarizeForecast is the pure half of AggregateWeather.
func SummarizeForecast(samples []ForecastSample, days []time.Time) []DailyWeatherSummary {
	byDate := make(map[string]ForecastSample, len(samples))
	for _, s := range samples {
		if _, seen := byDate[s.Date]; !seen {
			byDate[s.Date] = s
		}
	}

	out := make([]DailyWeatherSummary, 0, len(days))
	for i, d := range days {
		s, ok := byDate[DateKey(d)]
		if !ok {
			continue
		}
		out = append(out, DailyWeatherSummary{
			DayIndex:     i + 1,
			Date:         CalendarDay(d),
			Description:  s.Description,
			TemperatureC: s.TempC,
		})
	}
	return out
}
