package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
)

func validQuery() planner.TripQuery {
	return planner.TripQuery{
		Destination: "Kandy",
		StartDate:   day("2025-03-10"),
		EndDate:     day("2025-03-12"),
	}
}

func TestNormalizeQuery_FillsDefaults(t *testing.T) {
	q, err := planner.NormalizeQuery(validQuery(), 0)

	require.NoError(t, err)
	assert.Equal(t, planner.TravelerFamily, q.Traveler)
	assert.Equal(t, planner.BudgetStandard, q.Budget)
	assert.Equal(t, planner.InterestMixed, q.Interest)
}

func TestNormalizeQuery_Aliases(t *testing.T) {
	in := validQuery()
	in.Traveler = "Partner"
	in.Budget = "cheap"
	in.Interest = "Waterfall"

	q, err := planner.NormalizeQuery(in, 0)

	require.NoError(t, err)
	assert.Equal(t, planner.TravelerCouple, q.Traveler)
	assert.Equal(t, planner.BudgetLow, q.Budget)
	assert.Equal(t, planner.InterestNature, q.Interest)
}

func TestNormalizeQuery_FreeFormInterestKept(t *testing.T) {
	in := validQuery()
	in.Interest = "Street Food"

	q, err := planner.NormalizeQuery(in, 0)

	require.NoError(t, err)
	assert.Equal(t, planner.Interest("street food"), q.Interest)
}

func TestNormalizeQuery_IsIdempotent(t *testing.T) {
	in := validQuery()
	in.Destination = "  Kandy "
	in.Budget = "moderate"

	once, err := planner.NormalizeQuery(in, 0)
	require.NoError(t, err)
	twice, err := planner.NormalizeQuery(once, 0)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestNormalizeQuery_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*planner.TripQuery)
		want   string
	}{
		{"blank destination", func(q *planner.TripQuery) { q.Destination = "   " }, "destination"},
		{"missing start", func(q *planner.TripQuery) { q.StartDate = day("0001-01-01") }, "valid start and end"},
		{"end before start", func(q *planner.TripQuery) { q.EndDate = day("2025-03-09") }, "before start"},
		{"too long", func(q *planner.TripQuery) { q.EndDate = day("2025-05-10") }, "maximum is 30"},
		{"unknown traveler", func(q *planner.TripQuery) { q.Traveler = "pets" }, "traveler"},
		{"unknown budget", func(q *planner.TripQuery) { q.Budget = "free" }, "budget"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuery()
			tc.mutate(&q)

			_, err := planner.NormalizeQuery(q, 30)

			require.ErrorIs(t, err, planner.ErrValidation)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNormalizeQuery_OverrideSkipsChecks(t *testing.T) {
	q, err := planner.NormalizeQuery(planner.TripQuery{FreeFormOverride: "  plan me a weekend in Galle  "}, 0)

	require.NoError(t, err)
	assert.True(t, q.HasOverride())
	assert.Equal(t, "plan me a weekend in Galle", q.FreeFormOverride)
}

func TestNormalizeQuery_WhitespaceOverrideIsIgnored(t *testing.T) {
	_, err := planner.NormalizeQuery(planner.TripQuery{FreeFormOverride: "   "}, 0)
	require.ErrorIs(t, err, planner.ErrValidation)
}
