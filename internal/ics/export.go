package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"hirecal/internal/model"
	"hirecal/internal/schedule"
)

// ExportMonth serializes the displayed month's visible interviews as an
// iCalendar payload, so recruiters can subscribe to the schedule from
// their own calendar clients. Legacy events (no absolute date) are
// pinned to their day bucket within the displayed month, matching what
// the dashboard shows. Cancelled events are included with
// STATUS:CANCELLED so subscribing clients drop them too.
func ExportMonth(src schedule.Snapshot, year int, month time.Month, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//hirecal//interview schedule//EN")

	days := schedule.DaysInMonth(year, month)
	for day := 1; day <= days; day++ {
		for _, ev := range schedule.VisibleEvents(src[day], year, month) {
			addVEvent(cal, ev.Event, year, month, day, loc)
		}
	}
	return cal.Serialize()
}

func addVEvent(cal *ical.Calendar, ev model.Event, year int, month time.Month, day int, loc *time.Location) {
	ve := cal.AddEvent(ev.ID)
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetSummary(summaryFor(ev))

	hour, minute := startClock(ev)
	start := time.Date(year, month, day, hour, minute, 0, 0, loc)
	ve.SetStartAt(start)
	ve.SetEndAt(start.Add(durationFor(ev)))

	ve.SetProperty(ical.ComponentPropertyStatus, icsStatus(ev.Status))
	if ev.Type != "" {
		ve.SetProperty(ical.ComponentPropertyCategories, string(ev.Type))
	}
}

func summaryFor(ev model.Event) string {
	if ev.Position == "" {
		return ev.CandidateName
	}
	return ev.CandidateName + " - " + ev.Position
}

// startClock falls back to 09:00 for events whose time is unparseable;
// the grid drops them from hourly slots but the export still needs a
// concrete DTSTART.
func startClock(ev model.Event) (hour, minute int) {
	h, ok := ev.Hour()
	if !ok {
		return 9, 0
	}
	if _, mm, found := strings.Cut(ev.Time, ":"); found {
		fmt.Sscanf(mm, "%d", &minute)
	}
	return h, minute
}

// durationFor interprets the free-text duration ("45 min", "1h") on a
// best-effort basis, defaulting to one hour.
func durationFor(ev model.Event) time.Duration {
	s := strings.ToLower(strings.TrimSpace(ev.Duration))
	var n int
	switch {
	case strings.HasSuffix(s, "min"):
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	case strings.HasSuffix(s, "h"):
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return time.Hour
}

func icsStatus(s model.Status) string {
	switch s {
	case model.StatusCancelled:
		return "CANCELLED"
	case model.StatusPending:
		return "TENTATIVE"
	default:
		return "CONFIRMED"
	}
}
