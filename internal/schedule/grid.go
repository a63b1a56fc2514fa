package schedule

import (
	"time"

	"hirecal/internal/model"
)

// HoursPerDay is the number of hourly slots in the week and day views.
const HoursPerDay = 24

// DaysPerWeek is the width of the week view.
const DaysPerWeek = 7

// Snapshot is a read-only view of the event store: day-of-month bucket
// (1..31) to the ordered events filed under it. The key is deliberately
// lossy; membership in the displayed month is re-derived per event by
// the visibility filter.
type Snapshot map[int][]model.Event

// VisibleEvent is an event admitted by the visibility filter.
// Suppressed marks cancelled events that still render, faded and
// non-interactive, until their removal grace period elapses.
type VisibleEvent struct {
	model.Event
	Suppressed bool `json:"suppressed"`
}

// Cell is one entry of the month grid. Leading blanks before the 1st
// are encoded as nil cells so the rendering layer can wrap the flat
// sequence into a 7-column grid.
type Cell struct {
	Day    int            `json:"day"`
	Events []VisibleEvent `json:"events,omitempty"`
}

// DaySlots is the day view: one event list per hour of day.
type DaySlots [HoursPerDay][]VisibleEvent

// WeekDay is a single column of the week view.
type WeekDay struct {
	Date  time.Time `json:"date"`
	Slots DaySlots  `json:"slots"`
}

// DaysInMonth returns the number of days in the given month under
// Gregorian rules, including leap-year February.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// firstWeekday returns the weekday of the 1st of the month.
func firstWeekday(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// leadingBlanks returns how many nil cells precede day 1 when the grid
// starts on weekStart.
func leadingBlanks(year int, month time.Month, weekStart time.Weekday) int {
	return (int(firstWeekday(year, month)) - int(weekStart) + DaysPerWeek) % DaysPerWeek
}

// MonthCells builds the flat month-grid sequence: leadingBlanks nil
// cells followed by day cells 1..DaysInMonth, in order. The result has
// no trailing padding and its length is always leading+DaysInMonth.
// The function is pure; calling it twice yields identical sequences.
func MonthCells(year int, month time.Month, weekStart time.Weekday) []*Cell {
	lead := leadingBlanks(year, month, weekStart)
	days := DaysInMonth(year, month)

	cells := make([]*Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, nil)
	}
	for d := 1; d <= days; d++ {
		cells = append(cells, &Cell{Day: d})
	}
	return cells
}

// MonthView builds the month grid with each day cell annotated by the
// events visible for that day in the displayed month.
func MonthView(src Snapshot, year int, month time.Month, weekStart time.Weekday) []*Cell {
	cells := MonthCells(year, month, weekStart)
	for _, c := range cells {
		if c == nil {
			continue
		}
		c.Events = VisibleEvents(src[c.Day], year, month)
	}
	return cells
}

// StartOfWeek truncates ref to midnight and rolls it back to the
// nearest preceding (or equal) weekStart day.
func StartOfWeek(ref time.Time, weekStart time.Weekday) time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	back := (int(day.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	return day.AddDate(0, 0, -back)
}

// WeekView materializes the 7-day x 24-hour matrix around ref. Each
// visible event lands in exactly one hourly slot: the slot whose index
// equals the hour parsed from its Time field. Events whose time cannot
// be parsed are omitted from every slot.
func WeekView(src Snapshot, ref time.Time, weekStart time.Weekday) [DaysPerWeek]WeekDay {
	var week [DaysPerWeek]WeekDay

	start := StartOfWeek(ref, weekStart)
	for i := 0; i < DaysPerWeek; i++ {
		date := start.AddDate(0, 0, i)
		week[i] = WeekDay{
			Date:  date,
			Slots: slotsFor(src, date),
		}
	}
	return week
}

// DayView materializes the 24-slot agenda for the single day ref falls on.
func DayView(src Snapshot, ref time.Time) DaySlots {
	return slotsFor(src, ref)
}

func slotsFor(src Snapshot, date time.Time) DaySlots {
	var slots DaySlots
	for _, ev := range VisibleEvents(src[date.Day()], date.Year(), date.Month()) {
		h, ok := ev.Hour()
		if !ok {
			continue
		}
		slots[h] = append(slots[h], ev)
	}
	return slots
}

// VisibleEvents applies the visibility rules for one day bucket against
// the displayed month and year:
//
//  1. An event without a Date (legacy) is always visible for its bucket.
//  2. A dated event is visible only when its month and year match the
//     displayed ones. A Date that fails to parse is treated as absent.
//  3. Cancelled events stay in the visible set, flagged Suppressed, so
//     the UI can fade them out during the removal grace period.
func VisibleEvents(bucket []model.Event, year int, month time.Month) []VisibleEvent {
	if len(bucket) == 0 {
		return nil
	}

	out := make([]VisibleEvent, 0, len(bucket))
	for _, ev := range bucket {
		if on, ok := ev.On(); ok {
			if on.Year() != year || on.Month() != month {
				continue
			}
		}
		out = append(out, VisibleEvent{
			Event:      ev,
			Suppressed: ev.Status == model.StatusCancelled,
		})
	}
	return out
}
