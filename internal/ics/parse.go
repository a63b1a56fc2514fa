package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "hirecal/internal/log"
	"hirecal/internal/model"
)

// rawEvent is the normalized form of a VEVENT before recurrence
// expansion. Recurring interview series (weekly screening blocks and
// the like) keep their RRULE here and are expanded in expand.go.
type rawEvent struct {
	Source Source

	UID       string
	Candidate string
	Position  string
	Type      model.InterviewType
	Status    model.Status

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
}

// parseFeed parses one ICS payload into rawEvents. Individual VEVENTs
// that fail to parse are logged and skipped so one bad entry does not
// sink the whole feed.
func parseFeed(src Source, body []byte) ([]rawEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]rawEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Warn("feed vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("feed parsed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (rawEvent, error) {
	var out rawEvent
	out.Source = src

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	var summary string
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = p.Value
	}
	out.Candidate, out.Position = splitSummary(summary)

	out.Type = interviewType(ve)
	out.Status = eventStatus(ve)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, errors.New("missing or malformed DTSTART")
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start.Add(time.Hour)
	}
	out.Start = start
	out.End = end

	// All-day entries (VALUE=DATE or a value without a time component)
	// carry no interview slot and are skipped upstream.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			out.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// splitSummary breaks a feed summary like "Ada Lovelace - Backend
// Engineer" into candidate and position. A summary without a separator
// becomes the candidate name with an empty position.
func splitSummary(summary string) (candidate, position string) {
	for _, sep := range []string{" - ", " – ", " | "} {
		if c, p, ok := strings.Cut(summary, sep); ok {
			return strings.TrimSpace(c), strings.TrimSpace(p)
		}
	}
	return strings.TrimSpace(summary), ""
}

// interviewType maps the first CATEGORIES value onto a known interview
// type, defaulting to Technical for unlabeled entries.
func interviewType(ve *ical.VEvent) model.InterviewType {
	p := ve.GetProperty(ical.ComponentPropertyCategories)
	if p == nil || p.Value == "" {
		return model.TypeTechnical
	}
	cat := strings.TrimSpace(strings.Split(p.Value, ",")[0])
	for _, known := range []model.InterviewType{
		model.TypeTechnical,
		model.TypeFirstRound,
		model.TypeSecondRound,
		model.TypeFinalRound,
		model.TypePortfolioReview,
	} {
		if strings.EqualFold(cat, string(known)) {
			return known
		}
	}
	return model.InterviewType(cat)
}

func eventStatus(ve *ical.VEvent) model.Status {
	p := ve.GetProperty(ical.ComponentPropertyStatus)
	if p == nil {
		return model.StatusConfirmed
	}
	switch strings.ToUpper(strings.TrimSpace(p.Value)) {
	case "CANCELLED":
		return model.StatusCancelled
	case "TENTATIVE":
		return model.StatusPending
	default:
		return model.StatusConfirmed
	}
}

// parseICSTime parses the basic ICS date/date-time forms used by
// EXDATE values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
