package planner

import (
	"context"
	"errors"
	"log"
	"time"
)

// DefaultWeatherTimeout bounds the forecast call.
const DefaultWeatherTimeout = 30 * time.Second

// Observer receives the human-readable phase label before each suspension.
type Observer func(phase string)

// GenerationRecord is one row of the generation log. It carries request
// metadata only, never itinerary content.
type GenerationRecord struct {
	SessionID       string
	Kind            string // generate | refine | replan
	Destination     string
	DayCount        int
	WeatherDegraded bool
	Status          string // ok | validation | transport | parse | error
	Error           string
	Latency         time.Duration
	Model           string
	CreatedAt       time.Time
}

// Recorder persists generation log entries.
type Recorder interface {
	RecordGeneration(ctx context.Context, rec GenerationRecord) error
}

type Options struct {
	WeatherTimeout    time.Duration
	GenerationTimeout time.Duration
	MaxTripDays       int
	Recorder          Recorder
}

// Planner runs the composition pipeline: expand → weather → compose →
// generate, strictly in that order.
type Planner struct {
	weather        ForecastProvider
	gen            *GenerationClient
	weatherTimeout time.Duration
	maxDays        int
	recorder       Recorder
}

func New(weather ForecastProvider, gen Generator, opts Options) *Planner {
	if opts.WeatherTimeout <= 0 {
		opts.WeatherTimeout = DefaultWeatherTimeout
	}
	if opts.MaxTripDays <= 0 {
		opts.MaxTripDays = DefaultMaxTripDays
	}
	return &Planner{
		weather:        weather,
		gen:            NewGenerationClient(gen, opts.GenerationTimeout),
		weatherTimeout: opts.WeatherTimeout,
		maxDays:        opts.MaxTripDays,
		recorder:       opts.Recorder,
	}
}

// MaxTripDays is the longest range GenerateItinerary accepts.
func (p *Planner) MaxTripDays() int { return p.maxDays }

// GenerateItinerary validates q, gathers weather and returns a parsed
// itinerary. Weather failure never fails the run.
func (p *Planner) GenerateItinerary(ctx context.Context, q TripQuery, observe Observer) (res Result, err error) {
	started := time.Now()
	q, err = NormalizeQuery(q, p.maxDays)
	defer func() {
		p.record(ctx, GenerationRecord{
			Kind:            "generate",
			Destination:     q.Destination,
			DayCount:        len(res.Itinerary.Days),
			WeatherDegraded: res.WeatherDegraded,
			Latency:         time.Since(started),
		}, err)
	}()
	if err != nil {
		return Result{}, err
	}
	if observe == nil {
		observe = func(string) {}
	}

	if q.HasOverride() {
		res.Prompt = ComposeItineraryPrompt(q, nil, nil)
		res.WeatherDegraded = true
		observe(PhaseDrafting)
		res.Itinerary, err = p.gen.Generate(ctx, res.Prompt, 0)
		if err != nil {
			return Result{WeatherDegraded: true}, err
		}
		res.Weather = []DailyWeatherSummary{}
		return res, nil
	}

	res.Days = ExpandDateRange(q.StartDate, q.EndDate)

	observe(PhaseCheckingForecast)
	wctx, cancel := context.WithTimeout(ctx, p.weatherTimeout)
	res.Weather = AggregateWeather(wctx, p.weather, q.Destination, res.Days)
	cancel()
	res.WeatherDegraded = len(res.Weather) == 0

	res.Prompt = ComposeItineraryPrompt(q, res.Days, res.Weather)

	observe(PhaseDrafting)
	res.Itinerary, err = p.gen.Generate(ctx, res.Prompt, len(res.Days))
	if err != nil {
		return Result{Days: res.Days, Weather: res.Weather, WeatherDegraded: res.WeatherDegraded, Prompt: res.Prompt}, err
	}

	log.Printf("✅ Itinerary generated for %s (%d days, weather degraded: %t)", q.Destination, len(res.Days), res.WeatherDegraded)
	return res, nil
}

// RefineActivity regenerates one activity. The generator returns the full
// itinerary, which replaces current wholesale on success; current itself is
// never modified.
func (p *Planner) RefineActivity(ctx context.Context, current Itinerary, dayIndex, activityIndex int, feedback string) (updated Itinerary, err error) {
	started := time.Now()
	defer func() {
		p.record(ctx, GenerationRecord{Kind: "refine", DayCount: len(current.Days), Latency: time.Since(started)}, err)
	}()

	if err := checkSlot(current, SlotKey{Day: dayIndex, Activity: activityIndex}); err != nil {
		return Itinerary{}, err
	}
	prompt, err := ComposeRefinePrompt(current, dayIndex, activityIndex, feedback)
	if err != nil {
		return Itinerary{}, err
	}

	updated, err = p.gen.Generate(ctx, prompt, len(current.Days))
	if err != nil {
		return Itinerary{}, err
	}

	if drift := countDrift(current, updated, dayIndex, activityIndex); drift > 0 {
		log.Printf("⚠️  Refinement of day %d activity %d also changed %d other field(s)", dayIndex+1, activityIndex+1, drift)
	}
	return updated, nil
}

// ReplanDay regenerates a whole day and splices it into a copy of current.
// Other days are carried over untouched.
func (p *Planner) ReplanDay(ctx context.Context, current Itinerary, dayIndex int, feedback string) (updated Itinerary, err error) {
	started := time.Now()
	defer func() {
		p.record(ctx, GenerationRecord{Kind: "replan", DayCount: len(current.Days), Latency: time.Since(started)}, err)
	}()

	if err := checkSlot(current, SlotKey{Day: dayIndex, Activity: WholeDay}); err != nil {
		return Itinerary{}, err
	}
	prompt, err := ComposeReplanDayPrompt(current, dayIndex, feedback)
	if err != nil {
		return Itinerary{}, err
	}

	day, err := p.gen.GenerateDay(ctx, prompt)
	if err != nil {
		return Itinerary{}, err
	}

	updated = current.Clone()
	day.Day = current.Days[dayIndex].Day
	updated.Days[dayIndex] = day
	return updated, nil
}

// ─── Session-bound operations ───────────────────────────────────────────────

// Generate runs GenerateItinerary on behalf of s. Validation errors leave the
// session untouched; any later failure resets its result area.
func (p *Planner) Generate(ctx context.Context, s *Session, q TripQuery) (Result, error) {
	ctx = withSession(ctx, s.ID, "")
	normalized, err := NormalizeQuery(q, p.maxDays)
	if err != nil {
		p.record(ctx, GenerationRecord{Kind: "generate", Destination: normalized.Destination}, err)
		return Result{}, err
	}

	t := s.BeginGeneration()
	res, err := p.GenerateItinerary(ctx, normalized, func(phase string) { s.SetPhase(t, phase) })
	if err != nil {
		if ferr := s.FailGeneration(t, err); ferr != nil {
			return Result{}, ferr
		}
		return Result{}, err
	}
	if err := s.CommitGeneration(t, normalized.Destination, res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Refine runs RefineActivity against the session's itinerary.
func (p *Planner) Refine(ctx context.Context, s *Session, dayIndex, activityIndex int, feedback string) (Itinerary, error) {
	t, current, err := s.BeginRefine(SlotKey{Day: dayIndex, Activity: activityIndex})
	if err != nil {
		return Itinerary{}, err
	}
	s.SetPhase(t, phaseRefining(current.Days[dayIndex].Day))

	updated, err := p.RefineActivity(withSession(ctx, s.ID, s.Destination()), current, dayIndex, activityIndex, feedback)
	return p.finishRefine(s, t, updated, err)
}

// Replan runs ReplanDay against the session's itinerary.
func (p *Planner) Replan(ctx context.Context, s *Session, dayIndex int, feedback string) (Itinerary, error) {
	t, current, err := s.BeginRefine(SlotKey{Day: dayIndex, Activity: WholeDay})
	if err != nil {
		return Itinerary{}, err
	}
	s.SetPhase(t, phaseReplanning(current.Days[dayIndex].Day))

	updated, err := p.ReplanDay(withSession(ctx, s.ID, s.Destination()), current, dayIndex, feedback)
	return p.finishRefine(s, t, updated, err)
}

func (p *Planner) finishRefine(s *Session, t Ticket, updated Itinerary, err error) (Itinerary, error) {
	if err != nil {
		if ferr := s.FailRefine(t, err); ferr != nil {
			return Itinerary{}, ferr
		}
		return Itinerary{}, err
	}
	if err := s.CommitRefine(t, updated); err != nil {
		return Itinerary{}, err
	}
	return updated, nil
}

// ─── Generation log ──────────────────────────────────────────────────────────

type sessionKey struct{}

type sessionTag struct {
	id          string
	destination string
}

// WithSessionID tags ctx so generation log entries carry the session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withSession(ctx, id, "")
}

func withSession(ctx context.Context, id, destination string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionTag{id: id, destination: destination})
}

func sessionFrom(ctx context.Context) sessionTag {
	tag, _ := ctx.Value(sessionKey{}).(sessionTag)
	return tag
}

func (p *Planner) record(ctx context.Context, rec GenerationRecord, err error) {
	if p.recorder == nil {
		return
	}
	tag := sessionFrom(ctx)
	rec.SessionID = tag.id
	if rec.Destination == "" {
		rec.Destination = tag.destination
	}
	rec.Model = p.gen.Model()
	rec.CreatedAt = time.Now().UTC()
	rec.Status = statusOf(err)
	if err != nil {
		rec.Error = err.Error()
	}
	// The log is diagnostic; a cancelled request still gets its row.
	if rerr := p.recorder.RecordGeneration(context.WithoutCancel(ctx), rec); rerr != nil {
		log.Printf("⚠️  Failed to record %s generation: %v", rec.Kind, rerr)
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "error"
	}
}

func countDrift(before, after Itinerary, dayIndex, activityIndex int) int {
	drift := 0
	if before.Summary != after.Summary {
		drift++
	}
	if before.Logistics != after.Logistics {
		drift++
	}
	if before.Packing != after.Packing {
		drift++
	}
	for i := range before.Days {
		if i >= len(after.Days) {
			break
		}
		b, a := before.Days[i].Activities, after.Days[i].Activities
		if len(b) != len(a) {
			drift++
			continue
		}
		for j := range b {
			if i == dayIndex && j == activityIndex {
				continue
			}
			if b[j] != a[j] {
				drift++
			}
		}
	}
	return drift
}
