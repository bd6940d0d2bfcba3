package planner

import (
	"fmt"
	"strings"
)

// DefaultMaxTripDays bounds the date range a single generation may cover.
const DefaultMaxTripDays = 30

var travelerAliases = map[string]Traveler{
	"solo":    TravelerSolo,
	"couple":  TravelerCouple,
	"partner": TravelerCouple,
	"family":  TravelerFamily,
	"friends": TravelerFriends,
}

var budgetAliases = map[string]Budget{
	"budget":   BudgetLow,
	"cheap":    BudgetLow,
	"standard": BudgetStandard,
	"moderate": BudgetStandard,
	"luxury":   BudgetLuxury,
}

var interestAliases = map[string]Interest{
	"waterfall": InterestNature,
	"temple":    InterestHeritage,
}

// NormalizeQuery validates q and fills defaults. The override path skips
// every structured check.
func NormalizeQuery(q TripQuery, maxDays int) (TripQuery, error) {
	q.FreeFormOverride = strings.TrimSpace(q.FreeFormOverride)
	if q.HasOverride() {
		return q, nil
	}

	q.Destination = strings.TrimSpace(q.Destination)
	if q.Destination == "" {
		return q, fmt.Errorf("%w: please enter a destination city", ErrValidation)
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return q, fmt.Errorf("%w: please select valid start and end dates", ErrValidation)
	}
	q.StartDate, q.EndDate = CalendarDay(q.StartDate), CalendarDay(q.EndDate)
	if q.EndDate.Before(q.StartDate) {
		return q, fmt.Errorf("%w: end date must not be before start date", ErrValidation)
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxTripDays
	}
	if n := DaySpan(q.StartDate, q.EndDate); n > maxDays {
		return q, fmt.Errorf("%w: trip spans %d days, maximum is %d", ErrValidation, n, maxDays)
	}

	key := strings.ToLower(strings.TrimSpace(string(q.Traveler)))
	if key == "" {
		q.Traveler = TravelerFamily
	} else if t, ok := travelerAliases[key]; ok {
		q.Traveler = t
	} else {
		return q, fmt.Errorf("%w: unknown traveler profile %q", ErrValidation, q.Traveler)
	}

	key = strings.ToLower(strings.TrimSpace(string(q.Budget)))
	if key == "" {
		q.Budget = BudgetStandard
	} else if b, ok := budgetAliases[key]; ok {
		q.Budget = b
	} else {
		return q, fmt.Errorf("%w: unknown budget tier %q", ErrValidation, q.Budget)
	}

	key = strings.ToLower(strings.TrimSpace(string(q.Interest)))
	switch {
	case key == "":
		q.Interest = InterestMixed
	case interestAliases[key] != "":
		q.Interest = interestAliases[key]
	default:
		q.Interest = Interest(key)
	}

	return q, nil
}
