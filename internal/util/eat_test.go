package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToEAT(t *testing.T) {
	// 21:30 UTC is 00:30 the next day in EAT (UTC+3).
	utc := time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC)
	local := ToEAT(utc)

	assert.Equal(t, 11, local.Day())
	assert.Equal(t, 0, local.Hour())
	assert.Equal(t, 30, local.Minute())

	_, offset := local.Zone()
	assert.Equal(t, eatOffsetSeconds, offset)
}

func TestFormatEAT(t *testing.T) {
	utc := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "10 Mar 2025 12:00 EAT", FormatEAT(utc))
	assert.Equal(t, "—", FormatEAT(time.Time{}))
}

func TestFormatEATDate(t *testing.T) {
	// 22:00 UTC already belongs to the next EAT day.
	utc := time.Date(2025, 12, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "01 Jan 2026", FormatEATDate(utc))
}

func TestDayBoundsEAT(t *testing.T) {
	// Midday EAT on 2025-06-15.
	at := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	start, end := DayBoundsEAT(at)

	// EAT midnight is 21:00 UTC the previous day.
	assert.Equal(t, time.Date(2025, 6, 14, 21, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 15, 21, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestSameEATDay(t *testing.T) {
	// 20:00 UTC and 22:00 UTC straddle the EAT midnight at 21:00 UTC.
	a := time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC)

	assert.False(t, SameEATDay(a, b))
	assert.True(t, SameEATDay(b, b.Add(time.Hour)))
}

func TestFixedClock(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFixedClock(base)

	assert.Equal(t, base, clock.Now())

	clock.Advance(90 * time.Second)
	assert.Equal(t, base.Add(90*time.Second), clock.Now())

	clock.Set(base.Add(time.Hour))
	assert.Equal(t, base.Add(time.Hour), clock.Now())
}
