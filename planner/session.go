package planner

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Phase labels shown while a request is suspended on a provider call.
const (
	PhaseCheckingForecast = "Checking forecast..."
	PhaseDrafting         = "Drafting your itinerary..."
)

func phaseRefining(day int) string { return fmt.Sprintf("Refining Day %d...", day) }
func phaseReplanning(day int) string { return fmt.Sprintf("Replanning Day %d...", day) }

type SlotState string

const (
	SlotIdle     SlotState = "idle"
	SlotRefining SlotState = "refining"
	SlotFailed   SlotState = "failed"
)

// WholeDay is the activity index used for slot keys that cover a full day.
const WholeDay = -1

// SlotKey addresses one activity (or, with WholeDay, one day) by position.
type SlotKey struct {
	Day      int `json:"day_index"`
	Activity int `json:"activity_index"`
}

// Ticket identifies one request against a session. A response may only
// commit while its ticket is still current.
type Ticket struct {
	ID    uint64
	epoch uint64
	slot  *SlotKey
}

// Session is the per-user owner of the current itinerary. Every request takes
// a ticket; responses carrying an outdated ticket are discarded.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	seq         uint64 // monotonic request id
	latestGen   uint64 // ticket id of the newest generation
	epoch       uint64 // bumped whenever a generation starts or lands
	inflight    *Ticket
	current     *Itinerary
	weather     []DailyWeatherSummary
	destination string
	phase       string
	lastErr     string
	slots       map[SlotKey]SlotState
}

func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		slots:     make(map[SlotKey]SlotState),
	}
}

// BeginGeneration issues the ticket for a fresh generation. It supersedes any
// earlier generation and any refinement still in flight.
func (s *Session) BeginGeneration() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.latestGen = s.seq
	s.epoch++
	return Ticket{ID: s.seq, epoch: s.epoch}
}

// CommitGeneration stores res as the session itinerary if t is still the
// newest generation.
func (s *Session) CommitGeneration(t Ticket, destination string, res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID != s.latestGen {
		return fmt.Errorf("%w: generation %d superseded by %d", ErrStale, t.ID, s.latestGen)
	}
	it := res.Itinerary.Clone()
	s.current = &it
	s.weather = append([]DailyWeatherSummary(nil), res.Weather...)
	s.destination = destination
	s.lastErr = ""
	s.phase = ""
	s.epoch++
	s.slots = make(map[SlotKey]SlotState)
	return nil
}

// FailGeneration resets the result area to an error placeholder.
func (s *Session) FailGeneration(t Ticket, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID != s.latestGen {
		return fmt.Errorf("%w: generation %d superseded by %d", ErrStale, t.ID, s.latestGen)
	}
	s.current = nil
	s.weather = nil
	s.lastErr = cause.Error()
	s.phase = ""
	s.epoch++
	s.slots = make(map[SlotKey]SlotState)
	return nil
}

// BeginRefine marks slot as refining and returns a private copy of the
// current itinerary. Only one refinement may be in flight per session.
func (s *Session) BeginRefine(slot SlotKey) (Ticket, Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Ticket{}, Itinerary{}, fmt.Errorf("%w: there is no itinerary to refine", ErrValidation)
	}
	if err := checkSlot(*s.current, slot); err != nil {
		return Ticket{}, Itinerary{}, err
	}
	if s.slots[slot] == SlotRefining || s.inflight != nil {
		return Ticket{}, Itinerary{}, ErrBusy
	}

	s.seq++
	key := slot
	t := Ticket{ID: s.seq, epoch: s.epoch, slot: &key}
	s.inflight = &t
	s.slots[slot] = SlotRefining
	return t, s.current.Clone(), nil
}

// CommitRefine replaces the whole itinerary with it. A refinement that began
// before the latest generation is discarded as stale.
func (s *Session) CommitRefine(t Ticket, it Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishRefine(t); err != nil {
		return err
	}
	delete(s.slots, *t.slot)
	if t.epoch != s.epoch {
		return fmt.Errorf("%w: itinerary was regenerated during refinement", ErrStale)
	}
	next := it.Clone()
	s.current = &next
	s.lastErr = ""
	return nil
}

// FailRefine keeps the last-good itinerary and flags the slot.
func (s *Session) FailRefine(t Ticket, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishRefine(t); err != nil {
		return err
	}
	if t.epoch != s.epoch {
		delete(s.slots, *t.slot)
		return fmt.Errorf("%w: itinerary was regenerated during refinement", ErrStale)
	}
	s.slots[*t.slot] = SlotFailed
	s.lastErr = "refinement failed: " + cause.Error()
	return nil
}

func (s *Session) finishRefine(t Ticket) error {
	if s.inflight == nil || s.inflight.ID != t.ID || t.slot == nil {
		return fmt.Errorf("%w: refinement %d is not in flight", ErrStale, t.ID)
	}
	s.inflight = nil
	// A newer generation owns the label once the epoch has moved.
	if t.epoch == s.epoch {
		s.phase = ""
	}
	return nil
}

// SetPhase updates the progress label if t is still current.
func (s *Session) SetPhase(t Ticket, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == s.latestGen || (s.inflight != nil && s.inflight.ID == t.ID) {
		s.phase = phase
	}
}

// SlotStatus is one non-idle slot in a snapshot.
type SlotStatus struct {
	SlotKey
	State SlotState `json:"state"`
}

// Snapshot is an immutable view of a session.
type Snapshot struct {
	ID          string                `json:"session_id"`
	CreatedAt   time.Time             `json:"created_at"`
	Phase       string                `json:"phase,omitempty"`
	Destination string                `json:"destination,omitempty"`
	Itinerary   *Itinerary            `json:"itinerary"`
	Weather     []DailyWeatherSummary `json:"weather,omitempty"`
	Error       string                `json:"error,omitempty"`
	Slots       []SlotStatus          `json:"slots,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		Phase:       s.phase,
		Destination: s.destination,
		Weather:     append([]DailyWeatherSummary(nil), s.weather...),
		Error:       s.lastErr,
	}
	if s.current != nil {
		it := s.current.Clone()
		snap.Itinerary = &it
	}
	for k, st := range s.slots {
		if st != SlotIdle {
			snap.Slots = append(snap.Slots, SlotStatus{SlotKey: k, State: st})
		}
	}
	sort.Slice(snap.Slots, func(i, j int) bool {
		if snap.Slots[i].Day != snap.Slots[j].Day {
			return snap.Slots[i].Day < snap.Slots[j].Day
		}
		return snap.Slots[i].Activity < snap.Slots[j].Activity
	})
	return snap
}

// Destination is the destination of the committed itinerary, if any.
func (s *Session) Destination() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destination
}

// SlotState reports the refinement state of one slot.
func (s *Session) SlotState(slot SlotKey) SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.slots[slot]; ok {
		return st
	}
	return SlotIdle
}

func checkSlot(it Itinerary, slot SlotKey) error {
	if slot.Day < 0 || slot.Day >= len(it.Days) {
		return fmt.Errorf("%w: day index %d out of range (0-%d)", ErrValidation, slot.Day, len(it.Days)-1)
	}
	if slot.Activity == WholeDay {
		return nil
	}
	n := len(it.Days[slot.Day].Activities)
	if slot.Activity < 0 || slot.Activity >= n {
		return fmt.Errorf("%w: activity index %d out of range (0-%d)", ErrValidation, slot.Activity, n-1)
	}
	return nil
}
