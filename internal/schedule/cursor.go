package schedule

import "time"

// Cursor is the navigation state of the calendar: the displayed month
// and year plus the selected day-of-month. It is mutated only by the
// explicit navigation operations below; all grid derivations are pure
// functions of its value.
type Cursor struct {
	Month       time.Month `json:"month"`
	Year        int        `json:"year"`
	SelectedDay int        `json:"selected_day"`
}

// NewCursor positions the cursor on today's month, year and day.
func NewCursor(today time.Time) Cursor {
	return Cursor{
		Month:       today.Month(),
		Year:        today.Year(),
		SelectedDay: today.Day(),
	}
}

// NextMonth advances the cursor by one month. December rolls over into
// January of the next year.
func (c *Cursor) NextMonth() {
	if c.Month == time.December {
		c.Month = time.January
		c.Year++
		return
	}
	c.Month++
}

// PrevMonth moves the cursor back by one month. January rolls back into
// December of the previous year.
func (c *Cursor) PrevMonth() {
	if c.Month == time.January {
		c.Month = time.December
		c.Year--
		return
	}
	c.Month--
}

// SelectDay sets the selected day without changing month or year.
// Inputs come from calendar cells and are already in range.
func (c *Cursor) SelectDay(day int) {
	c.SelectedDay = day
}

// Reference returns the absolute date the cursor points at, used as the
// anchor for week and day views. A zero SelectedDay anchors on the 1st.
func (c Cursor) Reference(loc *time.Location) time.Time {
	day := c.SelectedDay
	if day < 1 {
		day = 1
	}
	return time.Date(c.Year, c.Month, day, 0, 0, 0, 0, loc)
}
