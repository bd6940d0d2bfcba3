package planner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// WeatherFallback is sent in place of the weather brief when no forecast
// could be aggregated.
const WeatherFallback = "Weather: Data unavailable (pack for seasonal norms)"

// DefaultRefineFeedback is used when the user asks for a change without
// saying what they want.
const DefaultRefineFeedback = "Suggest different local experiences or hidden gems."

// SystemInstruction is the fixed output contract every request is sent under.
const SystemInstruction = `You are a professional travel planner. Respond with a single JSON object and nothing else.

The object MUST have exactly this shape:
{
  "summary": "2-3 line overview of the trip",
  "days": [
    {
      "day": 1,
      "activities": [
        {"time": "Morning (09:00 - 13:00)", "activity": "..."},
        {"time": "Lunch", "activity": "..."},
        {"time": "Afternoon (14:00 - 18:00)", "activity": "..."},
        {"time": "Evening", "activity": "..."}
      ]
    }
  ],
  "logistics": "transport tips and estimated daily costs",
  "packing": "packing essentials based on the weather"
}

Rules:
- "days" has one entry per trip day, numbered from 1 in order.
- Every activity has a non-empty "time" and "activity".
- Activity text may use **bold** or *italic* emphasis, nothing else.
- Do NOT wrap the JSON in markdown code fences.
- Do NOT add any commentary before or after the JSON.`

const dayPlanInstruction = `You are a professional travel planner. Respond with a single JSON object describing ONE day and nothing else.

The object MUST have exactly this shape:
{"day": 1, "activities": [{"time": "Morning (09:00 - 13:00)", "activity": "..."}, {"time": "Lunch", "activity": "..."}, {"time": "Afternoon (14:00 - 18:00)", "activity": "..."}, {"time": "Evening", "activity": "..."}]}

Rules:
- Every activity has a non-empty "time" and "activity".
- Do NOT wrap the JSON in markdown code fences.
- Do NOT add any commentary before or after the JSON.`

// ComposeItineraryPrompt builds the generation request for a normalized query.
func ComposeItineraryPrompt(q TripQuery, days []time.Time, weather []DailyWeatherSummary) Prompt {
	if q.HasOverride() {
		return Prompt{System: SystemInstruction, User: q.FreeFormOverride}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day travel itinerary for %s (%s to %s).\n\n",
		len(days), q.Destination, DateKey(q.StartDate), DateKey(q.EndDate))
	b.WriteString("Traveler Info:\n")
	fmt.Fprintf(&b, "- Category: %s\n", q.Traveler)
	fmt.Fprintf(&b, "- Budget: %s\n", q.Budget)
	fmt.Fprintf(&b, "- Interest: %s\n\n", q.Interest)
	b.WriteString(WeatherBrief(weather))
	b.WriteString("\n\nGuidelines:\n")
	b.WriteString("- Use simple, friendly English. Keep it concise.\n")
	b.WriteString("- Focus on the best local experiences.\n")
	fmt.Fprintf(&b, "- Return exactly %d entries in \"days\".", len(days))

	return Prompt{System: SystemInstruction, User: b.String()}
}

// WeatherBrief condenses the summaries to "Day N: description, T°C" pairs,
// or returns WeatherFallback when there are none.
func WeatherBrief(weather []DailyWeatherSummary) string {
	if len(weather) == 0 {
		return WeatherFallback
	}
	parts := lo.Map(weather, func(w DailyWeatherSummary, _ int) string {
		return fmt.Sprintf("Day %d: %s, %s°C", w.DayIndex, w.Description, formatTemp(w.TemperatureC))
	})
	return "Weather Brief:\n" + strings.Join(parts, "; ")
}

// ComposeRefinePrompt asks for the full itinerary back with exactly one
// activity changed.
func ComposeRefinePrompt(current Itinerary, dayIndex, activityIndex int, feedback string) (Prompt, error) {
	body, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("encode current itinerary: %w", err)
	}
	day := current.Days[dayIndex]
	slot := day.Activities[activityIndex]

	var b strings.Builder
	b.WriteString("Here is the current itinerary:\n")
	b.Write(body)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Change ONLY the activity for Day %d, slot %q.\n", day.Day, slot.Time)
	fmt.Fprintf(&b, "The original activity text is: %q\n", slot.Activity)
	fmt.Fprintf(&b, "User feedback: %s\n\n", feedbackOrDefault(feedback))
	b.WriteString("Return the FULL itinerary in the same JSON shape. ")
	b.WriteString("Every other field, day and activity must stay exactly as it is.")

	return Prompt{System: SystemInstruction, User: b.String()}, nil
}

// ComposeReplanDayPrompt asks for a single replacement day.
func ComposeReplanDayPrompt(current Itinerary, dayIndex int, feedback string) (Prompt, error) {
	body, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("encode current itinerary: %w", err)
	}
	day := current.Days[dayIndex].Day

	var b strings.Builder
	b.WriteString("Here is the current itinerary:\n")
	b.Write(body)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Rewrite ONLY Day %d based on this feedback: %s\n\n", day, feedbackOrDefault(feedback))
	fmt.Fprintf(&b, "Return ONLY the JSON object for Day %d, with \"day\": %d.", day, day)

	return Prompt{System: dayPlanInstruction, User: b.String()}, nil
}

func feedbackOrDefault(feedback string) string {
	if f := strings.TrimSpace(feedback); f != "" {
		return f
	}
	return DefaultRefineFeedback
}

func formatTemp(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
