package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hirecal/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testEvent(id string) model.Event {
	return model.Event{
		ID:            id,
		CandidateName: "Ada Lovelace",
		Position:      "Backend Engineer",
		Time:          "10:00",
		Type:          model.TypeTechnical,
		Status:        model.StatusConfirmed,
		Date:          "2024-03-15",
	}
}

func TestAddAssignsIDAndDefaults(t *testing.T) {
	s := New(0)
	defer s.Close()

	ev, err := s.Add(15, model.Event{CandidateName: "Grace Hopper", Time: "14:00"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, model.StatusPending, ev.Status)

	got := s.Get(15)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
}

func TestAddDerivesDayFromDate(t *testing.T) {
	s := New(0)
	defer s.Close()

	_, err := s.Add(0, testEvent("e1"))
	require.NoError(t, err)
	assert.Len(t, s.Get(15), 1)
}

func TestAddRejectsBadDay(t *testing.T) {
	s := New(0)
	defer s.Close()

	_, err := s.Add(32, testEvent("e1"))
	assert.ErrorIs(t, err, ErrDayRange)

	_, err = s.Add(0, model.Event{ID: "no-date"})
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestGetUnknownDayIsEmpty(t *testing.T) {
	s := New(0)
	defer s.Close()

	assert.Empty(t, s.Get(7))
	assert.Empty(t, s.Get(99))
}

func TestCancelThenRemove(t *testing.T) {
	s := New(25 * time.Millisecond)
	defer s.Close()

	_, err := s.Add(15, testEvent("e1"))
	require.NoError(t, err)

	require.NoError(t, s.Cancel("e1"))

	// Immediately after the cancel, the event is still present with
	// its status flipped.
	ev, ok := s.Find("e1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCancelled, ev.Status)

	// After the grace period it is gone from the store.
	assert.Eventually(t, func() bool {
		_, ok := s.Find("e1")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New(time.Minute) // long grace so the event stays around
	defer s.Close()

	_, err := s.Add(15, testEvent("e1"))
	require.NoError(t, err)

	require.NoError(t, s.Cancel("e1"))
	require.NoError(t, s.Cancel("e1"))

	ev, ok := s.Find("e1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCancelled, ev.Status)
}

func TestCancelledIsTerminal(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	_, err := s.Add(15, testEvent("e1"))
	require.NoError(t, err)
	require.NoError(t, s.Cancel("e1"))

	// No operation in the store moves a cancelled event back; a repeat
	// cancel leaves it terminal and Find keeps reporting cancelled.
	require.NoError(t, s.Cancel("e1"))
	ev, ok := s.Find("e1")
	require.True(t, ok)
	assert.True(t, ev.Status.Terminal())
}

func TestCancelUnknownID(t *testing.T) {
	s := New(0)
	defer s.Close()

	assert.ErrorIs(t, s.Cancel("ghost"), ErrNotFound)
}

func TestRemoveStopsPendingTimer(t *testing.T) {
	s := New(time.Minute)
	defer s.Close()

	_, err := s.Add(15, testEvent("e1"))
	require.NoError(t, err)
	require.NoError(t, s.Cancel("e1"))

	require.NoError(t, s.Remove("e1"))
	_, ok := s.Find("e1")
	assert.False(t, ok)

	s.mu.Lock()
	timers := len(s.timers)
	s.mu.Unlock()
	assert.Zero(t, timers)
}

func TestCloseStopsTimersAndRejectsMutations(t *testing.T) {
	s := New(time.Hour)

	_, err := s.Add(15, testEvent("e1"))
	require.NoError(t, err)
	require.NoError(t, s.Cancel("e1"))

	s.Close()
	s.Close() // repeat close is a no-op

	_, err = s.Add(16, testEvent("e2"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Cancel("e1"), ErrClosed)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(0)
	defer s.Close()

	_, err := s.Add(15, testEvent("e1"))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap[15][0].CandidateName = "Mallory"

	assert.Equal(t, "Ada Lovelace", s.Get(15)[0].CandidateName)
}

func TestReplaceSource(t *testing.T) {
	s := New(0)
	defer s.Close()

	// A manually created event survives feed replacement.
	manual, err := s.Add(15, model.Event{CandidateName: "Manual", Time: "09:00", Date: "2024-03-15"})
	require.NoError(t, err)

	first := []model.Event{
		{ID: "f1", CandidateName: "A", Time: "10:00", Date: "2024-03-15"},
		{ID: "f2", CandidateName: "B", Time: "11:00", Date: "2024-03-16"},
	}
	require.NoError(t, s.ReplaceSource("greenhouse", first))
	assert.Equal(t, 3, s.Len())

	second := []model.Event{
		{ID: "f3", CandidateName: "C", Time: "12:00", Date: "2024-03-17"},
	}
	require.NoError(t, s.ReplaceSource("greenhouse", second))

	assert.Equal(t, 2, s.Len())
	_, ok := s.Find("f1")
	assert.False(t, ok)
	_, ok = s.Find("f3")
	assert.True(t, ok)
	_, ok = s.Find(manual.ID)
	assert.True(t, ok)
}

func TestReplaceSourceSkipsUndatedEvents(t *testing.T) {
	s := New(0)
	defer s.Close()

	require.NoError(t, s.ReplaceSource("feed", []model.Event{
		{ID: "ok", Date: "2024-03-15", Time: "10:00"},
		{ID: "undated", Time: "10:00"},
	}))
	assert.Equal(t, 1, s.Len())
}
