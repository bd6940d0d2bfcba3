package planner_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
)

// gatedGenerator answers immediately unless the prompt matches block, in
// which case it waits for release.
func gatedGenerator(t *testing.T, block string, release <-chan struct{}, reply func(planner.Prompt) string) *fakeGenerator {
	t.Helper()
	return &fakeGenerator{generate: func(ctx context.Context, p planner.Prompt) (string, error) {
		if strings.Contains(p.User, block) {
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return reply(p), nil
	}}
}

func generatedSession(t *testing.T, p *planner.Planner) *planner.Session {
	t.Helper()
	s := planner.NewSession("sess")
	_, err := p.Generate(context.Background(), s, validQuery())
	require.NoError(t, err)
	return s
}

func waitForPhase(t *testing.T, s *planner.Session, phase string) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Snapshot().Phase == phase }, time.Second, 5*time.Millisecond)
}

func TestSession_GenerateCommits(t *testing.T) {
	p := newPlanner(sunnyForecast(), replying(itineraryJSON(t, threeDayItinerary())), nil)

	s := generatedSession(t, p)
	snap := s.Snapshot()

	require.NotNil(t, snap.Itinerary)
	assert.Equal(t, threeDayItinerary(), *snap.Itinerary)
	assert.Equal(t, "Kandy", snap.Destination)
	assert.Len(t, snap.Weather, 2)
	assert.Empty(t, snap.Phase)
	assert.Empty(t, snap.Error)
}

func TestSession_ValidationLeavesSessionUntouched(t *testing.T) {
	p := newPlanner(sunnyForecast(), replying(itineraryJSON(t, threeDayItinerary())), nil)
	s := generatedSession(t, p)

	q := validQuery()
	q.Destination = ""
	_, err := p.Generate(context.Background(), s, q)

	require.ErrorIs(t, err, planner.ErrValidation)
	assert.NotNil(t, s.Snapshot().Itinerary)
}

func TestSession_FailedGenerationResetsResult(t *testing.T) {
	gen := replying(itineraryJSON(t, threeDayItinerary()))
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	gen.generate = func(context.Context, planner.Prompt) (string, error) { return "", errors.New("HTTP 503") }
	_, err := p.Generate(context.Background(), s, validQuery())

	require.ErrorIs(t, err, planner.ErrTransport)
	snap := s.Snapshot()
	assert.Nil(t, snap.Itinerary)
	assert.Contains(t, snap.Error, "HTTP 503")
}

func TestSession_OlderGenerationIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	galle := threeDayItinerary()
	galle.Summary = "Galle"
	gen := gatedGenerator(t, "for Kandy", release, func(p planner.Prompt) string {
		if strings.Contains(p.User, "for Galle") {
			return itineraryJSON(t, galle)
		}
		return itineraryJSON(t, threeDayItinerary())
	})
	p := newPlanner(sunnyForecast(), gen, nil)
	s := planner.NewSession("sess")

	errc := make(chan error, 1)
	go func() {
		_, err := p.Generate(context.Background(), s, validQuery())
		errc <- err
	}()
	require.Eventually(t, func() bool { return gen.calls() == 1 }, time.Second, 5*time.Millisecond)

	q := validQuery()
	q.Destination = "Galle"
	_, err := p.Generate(context.Background(), s, q)
	require.NoError(t, err)

	close(release)
	require.ErrorIs(t, <-errc, planner.ErrStale)

	snap := s.Snapshot()
	require.NotNil(t, snap.Itinerary)
	assert.Equal(t, "Galle", snap.Itinerary.Summary)
	assert.Equal(t, "Galle", snap.Destination)
}

func TestSession_RefineCommits(t *testing.T) {
	refined := threeDayItinerary()
	refined.Days[0].Activities[1].Activity = "Night market"
	gen := replying(itineraryJSON(t, threeDayItinerary()))
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	gen.generate = func(context.Context, planner.Prompt) (string, error) { return itineraryJSON(t, refined), nil }
	got, err := p.Refine(context.Background(), s, 0, 1, "")

	require.NoError(t, err)
	assert.Equal(t, refined, got)
	assert.Equal(t, refined, *s.Snapshot().Itinerary)
	assert.Equal(t, planner.SlotIdle, s.SlotState(planner.SlotKey{Day: 0, Activity: 1}))
}

func TestSession_RefineWithoutItinerary(t *testing.T) {
	p := newPlanner(nil, replying("{}"), nil)

	_, err := p.Refine(context.Background(), planner.NewSession("empty"), 0, 0, "")

	require.ErrorIs(t, err, planner.ErrValidation)
}

func TestSession_FailedRefineKeepsLastGood(t *testing.T) {
	gen := replying(itineraryJSON(t, threeDayItinerary()))
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	gen.generate = func(context.Context, planner.Prompt) (string, error) { return "not json", nil }
	_, err := p.Refine(context.Background(), s, 2, 0, "")

	require.ErrorIs(t, err, planner.ErrParse)
	snap := s.Snapshot()
	assert.Equal(t, threeDayItinerary(), *snap.Itinerary)
	assert.Equal(t, planner.SlotFailed, s.SlotState(planner.SlotKey{Day: 2, Activity: 0}))
	require.Len(t, snap.Slots, 1)
	assert.Equal(t, planner.SlotFailed, snap.Slots[0].State)
	assert.Contains(t, snap.Error, "refinement failed")
}

func TestSession_OneRefinementAtATime(t *testing.T) {
	release := make(chan struct{})
	gen := gatedGenerator(t, "Change ONLY", release, func(planner.Prompt) string {
		return itineraryJSON(t, threeDayItinerary())
	})
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Refine(context.Background(), s, 0, 0, "")
		errc <- err
	}()
	waitForPhase(t, s, "Refining Day 1...")
	assert.Equal(t, planner.SlotRefining, s.SlotState(planner.SlotKey{Day: 0, Activity: 0}))

	_, err := p.Refine(context.Background(), s, 1, 0, "")
	assert.ErrorIs(t, err, planner.ErrBusy)
	_, err = p.Replan(context.Background(), s, 0, "")
	assert.ErrorIs(t, err, planner.ErrBusy)

	close(release)
	require.NoError(t, <-errc)
	assert.Empty(t, s.Snapshot().Phase)
}

func TestSession_RefineDiscardedAfterRegeneration(t *testing.T) {
	release := make(chan struct{})
	fresh := threeDayItinerary()
	fresh.Summary = "Fresh plan"
	gen := gatedGenerator(t, "Change ONLY", release, func(p planner.Prompt) string {
		if strings.Contains(p.User, "Change ONLY") {
			return itineraryJSON(t, threeDayItinerary())
		}
		return itineraryJSON(t, fresh)
	})
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Refine(context.Background(), s, 0, 0, "")
		errc <- err
	}()
	waitForPhase(t, s, "Refining Day 1...")

	_, err := p.Generate(context.Background(), s, validQuery())
	require.NoError(t, err)

	close(release)
	require.ErrorIs(t, <-errc, planner.ErrStale)
	assert.Equal(t, "Fresh plan", s.Snapshot().Itinerary.Summary)
}

func TestSession_SupersededRefineKeepsGenerationPhase(t *testing.T) {
	refineGate := make(chan struct{})
	genGate := make(chan struct{})
	var holdGeneration atomic.Bool
	gen := &fakeGenerator{generate: func(ctx context.Context, p planner.Prompt) (string, error) {
		gate := genGate
		if strings.Contains(p.User, "Change ONLY") {
			gate = refineGate
		} else if !holdGeneration.Load() {
			return itineraryJSON(t, threeDayItinerary()), nil
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return itineraryJSON(t, threeDayItinerary()), nil
	}}
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	refinec := make(chan error, 1)
	go func() {
		_, err := p.Refine(context.Background(), s, 0, 0, "")
		refinec <- err
	}()
	waitForPhase(t, s, "Refining Day 1...")

	holdGeneration.Store(true)
	genc := make(chan error, 1)
	go func() {
		_, err := p.Generate(context.Background(), s, validQuery())
		genc <- err
	}()
	waitForPhase(t, s, planner.PhaseDrafting)

	close(refineGate)
	require.ErrorIs(t, <-refinec, planner.ErrStale)
	assert.Equal(t, planner.PhaseDrafting, s.Snapshot().Phase)

	close(genGate)
	require.NoError(t, <-genc)
	assert.Empty(t, s.Snapshot().Phase)
}

func TestSession_Replan(t *testing.T) {
	gen := replying(itineraryJSON(t, threeDayItinerary()))
	p := newPlanner(sunnyForecast(), gen, nil)
	s := generatedSession(t, p)

	gen.generate = func(context.Context, planner.Prompt) (string, error) {
		return `{"day": 3, "activities": [{"time": "Morning", "activity": "Tea factory"}]}`, nil
	}
	got, err := p.Replan(context.Background(), s, 2, "")

	require.NoError(t, err)
	assert.Equal(t, "Tea factory", got.Days[2].Activities[0].Activity)
	assert.Equal(t, got, *s.Snapshot().Itinerary)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	p := newPlanner(sunnyForecast(), replying(itineraryJSON(t, threeDayItinerary())), nil)
	s := generatedSession(t, p)

	snap := s.Snapshot()
	snap.Itinerary.Days[0].Activities[0].Activity = "mutated"

	assert.Equal(t, threeDayItinerary(), *s.Snapshot().Itinerary)
}
