package model

import (
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of an interview event. Cancelled is
// terminal: an event never moves back to confirmed or pending.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCancelled
}

// InterviewType labels the kind of interview. It drives presentation
// (color tags in the dashboard) only; no scheduling behavior depends on it.
type InterviewType string

const (
	TypeTechnical       InterviewType = "Technical"
	TypeFirstRound      InterviewType = "First Round"
	TypeSecondRound     InterviewType = "Second Round"
	TypeFinalRound      InterviewType = "Final Round"
	TypePortfolioReview InterviewType = "Portfolio Review"
)

// DateLayout is the wire form of Event.Date.
const DateLayout = "2006-01-02"

// Event is a single scheduled interview.
//
// Events are stored keyed by day-of-month only; Date, when present,
// pins the event to a concrete month and year. An event without a Date
// is a legacy record and is treated as belonging to any month that
// shares its day bucket. That fallback is long-standing visible
// behavior and must not be "fixed" here.
type Event struct {
	// ID is assigned at creation and never changes.
	ID string `json:"id" yaml:"id"`

	CandidateName string `json:"candidate_name" yaml:"candidate_name"`
	Position      string `json:"position" yaml:"position"`

	// Time is the wall-clock start in "HH:MM" 24-hour form. Only the
	// hour component participates in slot layout.
	Time string `json:"time" yaml:"time"`

	// Duration is free text shown next to the event ("45 min", "1h").
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`

	Type   InterviewType `json:"type" yaml:"type"`
	Status Status        `json:"status" yaml:"status"`

	// Date is an absolute calendar date in "2006-01-02" form, or empty
	// for legacy events.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// Source identifies the ICS feed this event was imported from.
	// Empty for events created through the API.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Hour parses the hour component of Time. ok is false when Time is not
// a well-formed "HH:MM" value; such events are excluded from hourly
// slots rather than treated as an error.
func (e Event) Hour() (int, bool) {
	hh, mm, found := strings.Cut(e.Time, ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h, true
}

// On parses Date. ok is false for legacy events (empty Date) and for
// malformed values.
func (e Event) On() (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Legacy reports whether the event carries no absolute date.
func (e Event) Legacy() bool {
	return e.Date == ""
}
