package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/domain/shared/errs"
)

func day(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewRejectsEmptyAndInverted(t *testing.T) {
	_, err := New(day("2025-07-10"), day("2025-07-10"))
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = New(day("2025-07-10"), day("2025-07-09"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNewTruncatesToUTCDays(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*3600)
	dr, err := New(time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC), time.Date(2025, 7, 13, 1, 0, 0, 0, nairobi))
	require.NoError(t, err)
	assert.Equal(t, day("2025-07-10"), dr.CheckIn)
	assert.Equal(t, day("2025-07-12"), dr.CheckOut)
	assert.Equal(t, 2, dr.Nights())
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base, _ := New(day("2025-07-10"), day("2025-07-15"))
	overlapping, _ := New(day("2025-07-14"), day("2025-07-18"))
	adjacent, _ := New(day("2025-07-15"), day("2025-07-20"))
	before, _ := New(day("2025-07-05"), day("2025-07-10"))

	assert.True(t, base.Overlaps(overlapping))
	assert.True(t, overlapping.Overlaps(base))
	assert.False(t, base.Overlaps(adjacent))
	assert.False(t, base.Overlaps(before))
	assert.True(t, base.Adjacent(adjacent))
	assert.True(t, base.Adjacent(before))
}

func TestDays(t *testing.T) {
	dr, _ := New(day("2025-12-30"), day("2026-01-02"))
	days := dr.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2025-12-30", DayKey(days[0]))
	assert.Equal(t, "2026-01-01", DayKey(days[2]))
	assert.True(t, dr.ContainsDate(day("2026-01-01")))
	assert.False(t, dr.ContainsDate(day("2026-01-02")))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 10, DaysBetween(day("2025-07-05"), time.Date(2025, 7, 15, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, -3, DaysBetween(day("2025-07-05"), day("2025-07-02")))
}
