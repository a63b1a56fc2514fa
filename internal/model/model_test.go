package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHourParsing(t *testing.T) {
	tests := []struct {
		time string
		hour int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 9, true},
		{"9:30", 9, true},
		{"23:59", 23, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"-1:00", 0, false},
		{"noon", 0, false},
		{"", 0, false},
		{"10", 0, false},
	}
	for _, tt := range tests {
		h, ok := Event{Time: tt.time}.Hour()
		assert.Equal(t, tt.ok, ok, "time %q", tt.time)
		if tt.ok {
			assert.Equal(t, tt.hour, h, "time %q", tt.time)
		}
	}
}

func TestOnAndLegacy(t *testing.T) {
	ev := Event{Date: "2024-03-15"}
	on, ok := ev.On()
	assert.True(t, ok)
	assert.Equal(t, 2024, on.Year())
	assert.Equal(t, 15, on.Day())
	assert.False(t, ev.Legacy())

	legacy := Event{}
	_, ok = legacy.On()
	assert.False(t, ok)
	assert.True(t, legacy.Legacy())

	malformed := Event{Date: "03/15/2024"}
	_, ok = malformed.On()
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusPending.Terminal())

	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("archived").Valid())
}
