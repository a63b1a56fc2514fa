package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirecal/internal/model"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2000, time.February, 29}, // divisible by 400
		{1900, time.February, 28}, // divisible by 100, not 400
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInMonth(tt.year, tt.month), "%v %d", tt.month, tt.year)
	}
}

func TestMonthCellsLengthInvariant(t *testing.T) {
	for year := 2020; year <= 2026; year++ {
		for m := time.January; m <= time.December; m++ {
			cells := MonthCells(year, m, time.Sunday)

			lead := leadingBlanks(year, m, time.Sunday)
			require.Len(t, cells, lead+DaysInMonth(year, m), "%v %d", m, year)

			// Leading blanks, then 1..daysInMonth with no gaps.
			for i := 0; i < lead; i++ {
				assert.Nil(t, cells[i])
			}
			for i := lead; i < len(cells); i++ {
				require.NotNil(t, cells[i])
				assert.Equal(t, i-lead+1, cells[i].Day)
			}
		}
	}
}

func TestMonthCellsIdempotent(t *testing.T) {
	a := MonthCells(2024, time.March, time.Sunday)
	b := MonthCells(2024, time.March, time.Sunday)
	require.Equal(t, len(a), len(b))
	for i := range a {
		if a[i] == nil {
			assert.Nil(t, b[i])
			continue
		}
		assert.Equal(t, a[i].Day, b[i].Day)
	}
}

func TestMonthCellsMondayStart(t *testing.T) {
	// September 2025 starts on a Monday: no leading blanks in a
	// Monday-first layout, one in a Sunday-first layout.
	assert.Nil(t, MonthCells(2025, time.September, time.Sunday)[0])
	first := MonthCells(2025, time.September, time.Monday)[0]
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Day)
}

func TestCursorRollover(t *testing.T) {
	c := Cursor{Month: time.March, Year: 2024, SelectedDay: 15}

	for i := 0; i < 12; i++ {
		c.NextMonth()
	}
	assert.Equal(t, time.March, c.Month)
	assert.Equal(t, 2025, c.Year)

	for i := 0; i < 12; i++ {
		c.PrevMonth()
	}
	assert.Equal(t, time.March, c.Month)
	assert.Equal(t, 2024, c.Year)
}

func TestCursorYearBoundaries(t *testing.T) {
	c := Cursor{Month: time.December, Year: 2024}
	c.NextMonth()
	assert.Equal(t, time.January, c.Month)
	assert.Equal(t, 2025, c.Year)

	c = Cursor{Month: time.January, Year: 2024}
	c.PrevMonth()
	assert.Equal(t, time.December, c.Month)
	assert.Equal(t, 2023, c.Year)
}

func TestCursorSelectDayKeepsMonth(t *testing.T) {
	c := Cursor{Month: time.March, Year: 2024, SelectedDay: 1}
	c.SelectDay(20)
	assert.Equal(t, 20, c.SelectedDay)
	assert.Equal(t, time.March, c.Month)
	assert.Equal(t, 2024, c.Year)
}

func TestVisibleEventsDateFilter(t *testing.T) {
	bucket := []model.Event{
		{ID: "e1", Date: "2024-03-15", Status: model.StatusConfirmed},
	}

	visible := VisibleEvents(bucket, 2024, time.March)
	require.Len(t, visible, 1)
	assert.Equal(t, "e1", visible[0].ID)

	assert.Empty(t, VisibleEvents(bucket, 2024, time.April))
	assert.Empty(t, VisibleEvents(bucket, 2025, time.March))
}

func TestVisibleEventsLegacyAlwaysVisible(t *testing.T) {
	bucket := []model.Event{
		{ID: "e2", Status: model.StatusConfirmed}, // no date
	}

	assert.Len(t, VisibleEvents(bucket, 2024, time.March), 1)
	assert.Len(t, VisibleEvents(bucket, 2031, time.November), 1)
}

func TestVisibleEventsMalformedDateTreatedAsLegacy(t *testing.T) {
	bucket := []model.Event{
		{ID: "e3", Date: "not-a-date", Status: model.StatusConfirmed},
	}
	assert.Len(t, VisibleEvents(bucket, 2024, time.March), 1)
}

func TestVisibleEventsCancelledSuppressedNotRemoved(t *testing.T) {
	bucket := []model.Event{
		{ID: "e4", Date: "2024-03-15", Status: model.StatusCancelled},
		{ID: "e5", Date: "2024-03-15", Status: model.StatusConfirmed},
	}

	visible := VisibleEvents(bucket, 2024, time.March)
	require.Len(t, visible, 2)

	byID := map[string]VisibleEvent{}
	for _, v := range visible {
		byID[v.ID] = v
	}
	assert.True(t, byID["e4"].Suppressed)
	assert.False(t, byID["e5"].Suppressed)
}

func TestWeekViewBucketsEachEventOnce(t *testing.T) {
	snap := Snapshot{
		15: {
			{ID: "a", Time: "10:00", Date: "2024-03-15", Status: model.StatusConfirmed},
			{ID: "b", Time: "10:30", Date: "2024-03-15", Status: model.StatusConfirmed},
			{ID: "c", Time: "23:59", Date: "2024-03-15", Status: model.StatusPending},
			{ID: "bad", Time: "later", Date: "2024-03-15", Status: model.StatusConfirmed},
		},
	}

	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	week := WeekView(snap, ref, time.Sunday)

	seen := map[string]int{}
	for _, day := range week {
		for _, slot := range day.Slots {
			for _, ev := range slot {
				seen[ev.ID]++
			}
		}
	}

	// Every parseable event in exactly one slot; unparseable excluded.
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}

func TestWeekViewScenario(t *testing.T) {
	// March 15th 2024 is a Friday. With a Sunday week start, the window
	// opens on Sunday March 10th, so the event lands in column 5,
	// hour slot 10, and nowhere else.
	snap := Snapshot{
		15: {
			{ID: "1", Time: "10:00", Date: "2024-03-15", Status: model.StatusConfirmed},
		},
	}

	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	week := WeekView(snap, ref, time.Sunday)

	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), week[0].Date)

	for dayIdx, day := range week {
		for hour, slot := range day.Slots {
			if dayIdx == 5 && hour == 10 {
				require.Len(t, slot, 1)
				assert.Equal(t, "1", slot[0].ID)
				continue
			}
			assert.Empty(t, slot, "day %d hour %d", dayIdx, hour)
		}
	}
}

func TestWeekViewCrossMonthCollision(t *testing.T) {
	// Two events share day bucket 15 but belong to different months;
	// only the one dated inside the displayed week is shown.
	snap := Snapshot{
		15: {
			{ID: "mar", Time: "09:00", Date: "2024-03-15", Status: model.StatusConfirmed},
			{ID: "apr", Time: "09:00", Date: "2024-04-15", Status: model.StatusConfirmed},
		},
	}

	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	week := WeekView(snap, ref, time.Sunday)

	var ids []string
	for _, day := range week {
		for _, slot := range day.Slots {
			for _, ev := range slot {
				ids = append(ids, ev.ID)
			}
		}
	}
	assert.Equal(t, []string{"mar"}, ids)
}

func TestDayViewEmptyBucket(t *testing.T) {
	slots := DayView(Snapshot{}, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	for _, slot := range slots {
		assert.Empty(t, slot)
	}
}

func TestMonthViewAnnotatesCells(t *testing.T) {
	snap := Snapshot{
		15: {{ID: "e1", Date: "2024-03-15", Time: "10:00", Status: model.StatusConfirmed}},
		20: {{ID: "e2", Status: model.StatusPending}}, // legacy
	}

	cells := MonthView(snap, 2024, time.March, time.Sunday)
	for _, c := range cells {
		if c == nil {
			continue
		}
		switch c.Day {
		case 15:
			require.Len(t, c.Events, 1)
			assert.Equal(t, "e1", c.Events[0].ID)
		case 20:
			require.Len(t, c.Events, 1)
			assert.Equal(t, "e2", c.Events[0].ID)
		default:
			assert.Empty(t, c.Events)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	fri := time.Date(2024, time.March, 15, 13, 45, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		StartOfWeek(fri, time.Sunday))
	assert.Equal(t,
		time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC),
		StartOfWeek(fri, time.Monday))

	// A Sunday is its own week start.
	sun := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sun, StartOfWeek(sun, time.Sunday))
}
