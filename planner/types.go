// Package planner composes day-aligned travel itineraries: it expands the
// requested date range, folds a best-effort weather forecast into the prompt,
// asks a text-generation backend for a structured plan and validates what
// comes back.
package planner

import (
	"time"
)

// ─── Trip query ──────────────────────────────────────────────────────────────

type Traveler string

const (
	TravelerSolo    Traveler = "solo"
	TravelerCouple  Traveler = "couple"
	TravelerFamily  Traveler = "family"
	TravelerFriends Traveler = "friends"
)

type Budget string

const (
	BudgetLow      Budget = "budget"
	BudgetStandard Budget = "standard"
	BudgetLuxury   Budget = "luxury"
)

// Interest is open-ended; these are the values the planner UI offers.
type Interest string

const (
	InterestMixed     Interest = "mixed"
	InterestAdventure Interest = "adventure"
	InterestNature    Interest = "nature"
	InterestHeritage  Interest = "heritage"
)

// TripQuery is what the user asked for. When FreeFormOverride is set the
// structured fields are ignored entirely.
type TripQuery struct {
	Destination      string    `json:"destination"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Traveler         Traveler  `json:"traveler"`
	Budget           Budget    `json:"budget"`
	Interest         Interest  `json:"interest"`
	FreeFormOverride string    `json:"free_form_override,omitempty"`
}

// HasOverride reports whether the query bypasses the structured fields.
func (q TripQuery) HasOverride() bool {
	return q.FreeFormOverride != ""
}

// ─── Weather ─────────────────────────────────────────────────────────────────

// ForecastSample is one raw provider sample. Providers return several per day.
type ForecastSample struct {
	Date        string  // "2006-01-02"
	Time        string  // "15:04:05"
	Description string
	TempC       float64
}

type DailyWeatherSummary struct {
	DayIndex     int       `json:"day_index"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	TemperatureC float64   `json:"temperature_c"`
}

// ─── Itinerary ───────────────────────────────────────────────────────────────

type ActivitySlot struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
}

type DayPlan struct {
	Day        int            `json:"day"`
	Activities []ActivitySlot `json:"activities"`
}

// Itinerary is the structured result contract shared with the generator.
type Itinerary struct {
	Summary   string    `json:"summary"`
	Days      []DayPlan `json:"days"`
	Logistics string    `json:"logistics"`
	Packing   string    `json:"packing"`
}

// Clone returns a deep copy so callers can mutate it without touching
// the session's value.
func (it Itinerary) Clone() Itinerary {
	out := it
	out.Days = make([]DayPlan, len(it.Days))
	for i, d := range it.Days {
		out.Days[i] = DayPlan{
			Day:        d.Day,
			Activities: append([]ActivitySlot(nil), d.Activities...),
		}
	}
	return out
}

// ─── Prompt ──────────────────────────────────────────────────────────────────

// Prompt is one composed request: the fixed output contract plus user content.
type Prompt struct {
	System string
	User   string
}

// Text flattens the prompt for backends without a separate system channel.
func (p Prompt) Text() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

// Result is the outcome of a successful generation run.
type Result struct {
	Itinerary       Itinerary             `json:"itinerary"`
	Days            []time.Time           `json:"days,omitempty"`
	Weather         []DailyWeatherSummary `json:"weather"`
	WeatherDegraded bool                  `json:"weather_degraded"`
	Prompt          Prompt                `json:"-"`
}
