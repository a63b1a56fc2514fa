package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "hirecal/internal/log"
	"hirecal/internal/model"
	"hirecal/internal/schedule"
)

// DefaultCancelGrace is how long a cancelled event stays in the store,
// visibly suppressed, before the deferred removal fires.
const DefaultCancelGrace = 300 * time.Millisecond

// MaxDay is the largest valid day-of-month bucket.
const MaxDay = 31

var (
	ErrClosed      = errors.New("store: closed")
	ErrDayRange    = errors.New("store: day out of range")
	ErrNotFound    = errors.New("store: event not found")
	ErrMissingDate = errors.New("store: event has neither day nor date")
)

// Store holds interview events keyed by day-of-month and owns the
// two-phase cancellation state machine. Cancelling flips the event's
// status synchronously and schedules a removal after the grace period;
// the scheduled removal checks for existence first and every timer
// handle is retained so Close can stop them, leaving no callback to
// touch a torn-down store.
//
// All methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	days   map[int][]model.Event
	timers map[string]*time.Timer
	grace  time.Duration
	closed bool
}

// New creates an empty store. A non-positive grace selects
// DefaultCancelGrace.
func New(grace time.Duration) *Store {
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	return &Store{
		days:   make(map[int][]model.Event),
		timers: make(map[string]*time.Timer),
		grace:  grace,
	}
}

// Add files ev under the given day bucket and returns the stored copy.
// A zero day is derived from ev.Date when present. Events without an ID
// get one assigned; the ID is immutable afterwards. An unset status
// defaults to pending.
func (s *Store) Add(day int, ev model.Event) (model.Event, error) {
	if day == 0 {
		on, ok := ev.On()
		if !ok {
			return model.Event{}, ErrMissingDate
		}
		day = on.Day()
	}
	if day < 1 || day > MaxDay {
		return model.Event{}, ErrDayRange
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if !ev.Status.Valid() {
		ev.Status = model.StatusPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Event{}, ErrClosed
	}
	s.days[day] = append(s.days[day], ev)
	return ev, nil
}

// Get returns a copy of the events filed under day. An unknown or
// out-of-range day yields an empty list, never an error.
func (s *Store) Get(day int) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.days[day]
	out := make([]model.Event, len(bucket))
	copy(out, bucket)
	return out
}

// Find returns the event with the given id, if present.
func (s *Store) Find(id string) (model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ev, ok := s.locate(id); ok {
		return ev, true
	}
	return model.Event{}, false
}

// Snapshot returns a deep copy of the day buckets for the pure grid and
// slot builders to consume.
func (s *Store) Snapshot() schedule.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(schedule.Snapshot, len(s.days))
	for day, bucket := range s.days {
		cp := make([]model.Event, len(bucket))
		copy(cp, bucket)
		snap[day] = cp
	}
	return snap
}

// Cancel flips the event's status to cancelled and schedules its
// removal after the grace period. Cancelling an already-cancelled event
// is a no-op: the status is terminal and the original removal timer
// keeps running. Returns ErrNotFound for unknown ids.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	day, idx, ev, ok := s.locate(id)
	if !ok {
		return ErrNotFound
	}
	if ev.Status.Terminal() {
		return nil
	}

	ev.Status = model.StatusCancelled
	s.days[day][idx] = ev

	// The removal guards on existence: by the time it fires the event
	// may already have been removed explicitly, or the store closed.
	s.timers[id] = time.AfterFunc(s.grace, func() {
		if err := s.Remove(id); err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrClosed) {
			appLog.Error("deferred removal failed", err, "event_id", id)
		}
	})
	return nil
}

// Remove deletes the event from its bucket and drops any pending
// removal timer for it.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}

	day, idx, _, ok := s.locate(id)
	if !ok {
		return ErrNotFound
	}

	bucket := s.days[day]
	s.days[day] = append(bucket[:idx], bucket[idx+1:]...)
	if len(s.days[day]) == 0 {
		delete(s.days, day)
	}
	return nil
}

// ReplaceSource swaps out every event previously imported from the
// given feed and files the replacement set, so repeated refresh cycles
// do not accumulate duplicates. Events created through the API
// (Source == "") are untouched.
func (s *Store) ReplaceSource(source string, events []model.Event) error {
	if source == "" {
		return errors.New("store: empty source")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for day, bucket := range s.days {
		kept := bucket[:0]
		for _, ev := range bucket {
			if ev.Source != source {
				kept = append(kept, ev)
			}
		}
		if len(kept) == 0 {
			delete(s.days, day)
		} else {
			s.days[day] = kept
		}
	}

	for _, ev := range events {
		on, ok := ev.On()
		if !ok {
			// Imported events always carry a concrete date.
			continue
		}
		ev.Source = source
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if !ev.Status.Valid() {
			ev.Status = model.StatusConfirmed
		}
		s.days[on.Day()] = append(s.days[on.Day()], ev)
	}
	return nil
}

// Len returns the total number of stored events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, bucket := range s.days {
		n += len(bucket)
	}
	return n
}

// Close stops every pending removal timer and rejects further
// mutations. Timers that already fired see ErrClosed from Remove and
// become no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// locate finds an event by id. Caller must hold s.mu.
func (s *Store) locate(id string) (day, idx int, ev model.Event, ok bool) {
	for d, bucket := range s.days {
		for i, e := range bucket {
			if e.ID == id {
				return d, i, e, true
			}
		}
	}
	return 0, 0, model.Event{}, false
}
