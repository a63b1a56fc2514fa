package ics

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "hirecal/internal/log"
	"hirecal/internal/model"
)

const defaultMaxOccurrences = 1000

// Window bounds recurrence expansion and fixes the display timezone
// for the resulting events.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location

	// MaxOccurrences caps per-series expansion so a malformed RRULE
	// cannot produce an unbounded event list. Zero selects the default.
	MaxOccurrences int
}

// DefaultWindow spans from one day before now to horizonDays after it.
func DefaultWindow(now time.Time, horizonDays int, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}
	now = now.In(loc)
	return Window{
		Start:    now.AddDate(0, 0, -1),
		End:      now.AddDate(0, 0, horizonDays),
		Location: loc,
	}
}

// expandAll turns rawEvents into concrete store events inside the
// window. Non-recurring entries yield at most one event; RRULE series
// yield one per occurrence, with EXDATEs removed. All-day entries are
// skipped: an interview without a start time has no hourly slot.
func expandAll(raws []rawEvent, w Window) ([]model.Event, error) {
	if w.End.Before(w.Start) {
		return nil, errors.New("expand: window end before start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxOccurrences <= 0 {
		w.MaxOccurrences = defaultMaxOccurrences
	}

	out := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		if raw.AllDay {
			continue
		}
		if raw.RawRRule == "" {
			if overlaps(raw.Start, raw.End, w.Start, w.End) {
				out = append(out, makeEvent(raw, raw.Start, w.Location))
			}
			continue
		}
		out = append(out, expandSeries(raw, w)...)
	}
	return out, nil
}

func expandSeries(raw rawEvent, w Window) []model.Event {
	r, err := rrule.StrToRRule(raw.RawRRule)
	if err != nil {
		appLog.Warn("expand: unparseable RRULE, series skipped",
			"uid", raw.UID, "rrule", raw.RawRRule, "err", err.Error())
		return nil
	}
	r.DTStart(raw.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range raw.ExDates {
		set.ExDate(ex.In(raw.Start.Location()))
	}

	starts := set.Between(
		w.Start.In(raw.Start.Location()),
		w.End.In(raw.Start.Location()),
		true,
	)
	if len(starts) > w.MaxOccurrences {
		appLog.Warn("expand: occurrence cap hit", "uid", raw.UID, "cap", w.MaxOccurrences)
		starts = starts[:w.MaxOccurrences]
	}

	events := make([]model.Event, 0, len(starts))
	for _, start := range starts {
		events = append(events, makeEvent(raw, start, w.Location))
	}
	return events
}

// makeEvent converts one occurrence into a store event in the display
// timezone. Recurring occurrences get a per-instance ID derived from
// the UID and the occurrence date so a cancel targets exactly one
// instance.
func makeEvent(raw rawEvent, start time.Time, loc *time.Location) model.Event {
	local := start.In(loc)

	id := raw.UID
	if raw.RawRRule != "" {
		id = raw.UID + "/" + local.Format(model.DateLayout)
	}

	return model.Event{
		ID:            id,
		CandidateName: raw.Candidate,
		Position:      raw.Position,
		Time:          local.Format("15:04"),
		Duration:      humanDuration(raw.End.Sub(raw.Start)),
		Type:          raw.Type,
		Status:        raw.Status,
		Date:          local.Format(model.DateLayout),
		Source:        raw.Source.ID,
	}
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "60 min"
	}
	return fmt.Sprintf("%d min", int(d.Minutes()))
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
