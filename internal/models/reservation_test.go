package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 6, 3, hour, min, 0, 0, time.UTC)
}

func TestReservation_Overlaps(t *testing.T) {
	res := Reservation{
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected bool
	}{
		{
			name:     "identical interval overlaps",
			start:    at(10, 0),
			end:      at(11, 0),
			expected: true,
		},
		{
			name:     "partial overlap from the middle",
			start:    at(10, 30),
			end:      at(11, 30),
			expected: true,
		},
		{
			name:     "containing interval overlaps",
			start:    at(9, 0),
			end:      at(12, 0),
			expected: true,
		},
		{
			name:     "contained interval overlaps",
			start:    at(10, 15),
			end:      at(10, 45),
			expected: true,
		},
		{
			name:     "adjacent after does not overlap",
			start:    at(11, 0),
			end:      at(12, 0),
			expected: false,
		},
		{
			name:     "adjacent before does not overlap",
			start:    at(9, 0),
			end:      at(10, 0),
			expected: false,
		},
		{
			name:     "disjoint does not overlap",
			start:    at(14, 0),
			end:      at(15, 0),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, res.Overlaps(tt.start, tt.end))

			// Overlap is symmetric.
			other := Reservation{StartTime: tt.start, EndTime: tt.end}
			assert.Equal(t, tt.expected, other.Overlaps(res.StartTime, res.EndTime))
		})
	}
}

func TestReservation_Day(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Makassar")
	require.NoError(t, err)

	tests := []struct {
		name     string
		start    time.Time
		expected time.Weekday
	}{
		{
			name:     "local monday morning",
			start:    time.Date(2024, 6, 3, 9, 0, 0, 0, loc),
			expected: time.Monday,
		},
		{
			name:     "utc instant crossing midnight locally",
			start:    time.Date(2024, 6, 2, 17, 0, 0, 0, time.UTC), // 01:00 Monday WITA
			expected: time.Monday,
		},
		{
			name:     "sunday stays sunday",
			start:    time.Date(2024, 6, 9, 12, 0, 0, 0, loc),
			expected: time.Sunday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reservation{StartTime: tt.start}
			assert.Equal(t, tt.expected, res.Day(loc))
		})
	}
}

func TestReservation_IsTerminal(t *testing.T) {
	terminal := map[string]bool{
		StatusPending:   false,
		StatusApproved:  false,
		StatusRejected:  true,
		StatusCancelled: true,
		StatusClosed:    true,
	}
	for status, expected := range terminal {
		res := Reservation{Status: status}
		assert.Equal(t, expected, res.IsTerminal(), "status %s", status)
	}
}

func TestReservation_OwnerDeletable(t *testing.T) {
	deletable := map[string]bool{
		StatusPending:   true,
		StatusRejected:  true,
		StatusApproved:  false,
		StatusCancelled: false,
		StatusClosed:    false,
	}
	for status, expected := range deletable {
		res := Reservation{Status: status}
		assert.Equal(t, expected, res.OwnerDeletable(), "status %s", status)
	}
}

func TestReservation_Expired(t *testing.T) {
	now := at(10, 0)

	tests := []struct {
		name     string
		res      Reservation
		expected bool
	}{
		{
			name:     "approved and elapsed",
			res:      Reservation{Status: StatusApproved, EndTime: at(9, 0)},
			expected: true,
		},
		{
			name:     "approved ending exactly now is elapsed",
			res:      Reservation{Status: StatusApproved, EndTime: at(10, 0)},
			expected: true,
		},
		{
			name:     "approved still running",
			res:      Reservation{Status: StatusApproved, EndTime: at(11, 0)},
			expected: false,
		},
		{
			name:     "pending never expires",
			res:      Reservation{Status: StatusPending, EndTime: at(9, 0)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.res.Expired(now))
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusClosed} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus("DONE"))
}
