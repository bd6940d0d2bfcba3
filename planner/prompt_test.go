package planner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
)

func sampleItinerary() planner.Itinerary {
	return planner.Itinerary{
		Summary: "Three relaxed days in the hill capital.",
		Days: []planner.DayPlan{
			{Day: 1, Activities: []planner.ActivitySlot{
				{Time: "Morning", Activity: "Temple of the Tooth"},
				{Time: "Evening", Activity: "Lake walk"},
			}},
			{Day: 2, Activities: []planner.ActivitySlot{
				{Time: "Morning", Activity: "Botanical gardens"},
				{Time: "Evening", Activity: "Cultural dance show"},
			}},
		},
		Logistics: "Tuk-tuks, about 15 USD a day.",
		Packing:   "Umbrella, modest clothing.",
	}
}

func TestComposeItineraryPrompt_Structured(t *testing.T) {
	q, err := planner.NormalizeQuery(validQuery(), 0)
	require.NoError(t, err)
	days := planner.ExpandDateRange(q.StartDate, q.EndDate)
	weather := []planner.DailyWeatherSummary{
		{DayIndex: 1, Date: days[0], Description: "light rain", TemperatureC: 24.5},
		{DayIndex: 3, Date: days[2], Description: "clear sky", TemperatureC: 29},
	}

	p := planner.ComposeItineraryPrompt(q, days, weather)

	assert.Equal(t, planner.SystemInstruction, p.System)
	assert.Contains(t, p.User, "3-day travel itinerary for Kandy (2025-03-10 to 2025-03-12)")
	assert.Contains(t, p.User, "- Category: family")
	assert.Contains(t, p.User, "- Budget: standard")
	assert.Contains(t, p.User, "- Interest: mixed")
	assert.Contains(t, p.User, "Day 1: light rain, 24.5°C; Day 3: clear sky, 29°C")
	assert.Contains(t, p.User, `exactly 3 entries in "days"`)
	assert.NotContains(t, p.User, planner.WeatherFallback)
}

func TestComposeItineraryPrompt_NoWeatherUsesFallback(t *testing.T) {
	q, err := planner.NormalizeQuery(validQuery(), 0)
	require.NoError(t, err)

	p := planner.ComposeItineraryPrompt(q, planner.ExpandDateRange(q.StartDate, q.EndDate), nil)

	assert.Contains(t, p.User, planner.WeatherFallback)
	assert.NotContains(t, p.User, "Weather Brief")
}

func TestComposeItineraryPrompt_OverrideIsVerbatim(t *testing.T) {
	q := planner.TripQuery{Destination: "Kandy", FreeFormOverride: "A food tour of Jaffna"}

	p := planner.ComposeItineraryPrompt(q, nil, nil)

	assert.Equal(t, "A food tour of Jaffna", p.User)
	assert.Equal(t, planner.SystemInstruction, p.System)
}

func TestComposeItineraryPrompt_Deterministic(t *testing.T) {
	q, err := planner.NormalizeQuery(validQuery(), 0)
	require.NoError(t, err)
	days := planner.ExpandDateRange(q.StartDate, q.EndDate)

	assert.Equal(t, planner.ComposeItineraryPrompt(q, days, nil), planner.ComposeItineraryPrompt(q, days, nil))
}

func TestWeatherBrief(t *testing.T) {
	assert.Equal(t, planner.WeatherFallback, planner.WeatherBrief(nil))
	assert.Equal(t, "Weather Brief:\nDay 2: haze, 31.2°C",
		planner.WeatherBrief([]planner.DailyWeatherSummary{{DayIndex: 2, Description: "haze", TemperatureC: 31.2}}))
}

func TestComposeRefinePrompt(t *testing.T) {
	p, err := planner.ComposeRefinePrompt(sampleItinerary(), 1, 1, "  something quieter ")

	require.NoError(t, err)
	assert.Equal(t, planner.SystemInstruction, p.System)
	assert.Contains(t, p.User, `Change ONLY the activity for Day 2, slot "Evening"`)
	assert.Contains(t, p.User, `"Cultural dance show"`)
	assert.Contains(t, p.User, "User feedback: something quieter\n")
	assert.Contains(t, p.User, `"summary": "Three relaxed days in the hill capital."`)
}

func TestComposeRefinePrompt_DefaultFeedback(t *testing.T) {
	p, err := planner.ComposeRefinePrompt(sampleItinerary(), 0, 0, "")

	require.NoError(t, err)
	assert.Contains(t, p.User, planner.DefaultRefineFeedback)
}

func TestComposeReplanDayPrompt(t *testing.T) {
	p, err := planner.ComposeReplanDayPrompt(sampleItinerary(), 0, "")

	require.NoError(t, err)
	assert.NotEqual(t, planner.SystemInstruction, p.System)
	assert.True(t, strings.Contains(p.User, "Rewrite ONLY Day 1 based on this feedback: "+planner.DefaultRefineFeedback))
	assert.Contains(t, p.User, `"day": 1`)
}

func TestPromptText(t *testing.T) {
	assert.Equal(t, "sys\n\nuser", planner.Prompt{System: "sys", User: "user"}.Text())
	assert.Equal(t, "user", planner.Prompt{User: "user"}.Text())
}
