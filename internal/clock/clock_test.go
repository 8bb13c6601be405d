package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameState(t *testing.T) {
	c := New()

	assert.Equal(t, 1, c.Day)
	assert.Equal(t, 8, c.Hour)
	assert.Equal(t, 0, c.Minute)
	assert.Equal(t, 1, c.Month)
	assert.Equal(t, 1, c.Year)
	assert.Equal(t, 1, c.Week)
	assert.True(t, c.IsPaused(), "a new game starts paused")
}

func TestAddMinutesCascade(t *testing.T) {
	c := New()
	c.Minute = 59
	c.Hour = 23
	c.Day = 30
	c.Month = 12
	c.Year = 1

	c.AddMinutes(1)

	assert.Equal(t, 0, c.Minute)
	assert.Equal(t, 0, c.Hour)
	assert.Equal(t, 1, c.Day)
	assert.Equal(t, 1, c.Month)
	assert.Equal(t, 2, c.Year, "minute overflow must cascade all the way to the year")
}

func TestAddMinutesMultiUnitJump(t *testing.T) {
	c := New()
	// 3 days, 4 hours, 30 minutes in a single call.
	c.AddMinutes(3*MinutesPerDay + 4*MinutesPerHour + 30)

	assert.Equal(t, 30, c.Minute)
	assert.Equal(t, 12, c.Hour)
	assert.Equal(t, 4, c.Day)
	assert.Equal(t, 1, c.Month)
}

func TestAddMinutesInvariantsHold(t *testing.T) {
	c := New()
	steps := []int{1, 7, 59, 60, 1439, 1440, 43199, 518400, 12345}
	for _, n := range steps {
		c.AddMinutes(n)
		assert.GreaterOrEqual(t, c.Minute, 0)
		assert.Less(t, c.Minute, 60)
		assert.GreaterOrEqual(t, c.Hour, 0)
		assert.Less(t, c.Hour, 24)
		assert.GreaterOrEqual(t, c.Day, 1)
		assert.LessOrEqual(t, c.Day, 30)
		assert.GreaterOrEqual(t, c.Month, 1)
		assert.LessOrEqual(t, c.Month, 12)
		assert.GreaterOrEqual(t, c.Week, 1)
		assert.LessOrEqual(t, c.Week, 5)
	}
}

func TestAddMinutesAssociative(t *testing.T) {
	pairs := [][2]int{{1, 1}, {59, 1}, {30, 4000}, {1439, 1}, {100000, 23456}}
	for _, pair := range pairs {
		a := New()
		a.AddMinutes(pair[0])
		a.AddMinutes(pair[1])

		b := New()
		b.AddMinutes(pair[0] + pair[1])

		assert.Equal(t, b.TotalMinutes(), a.TotalMinutes(), "addMinutes(%d)+addMinutes(%d) must equal addMinutes(%d)", pair[0], pair[1], pair[0]+pair[1])
	}
}

func TestAdvancePausedIsStrictNoOp(t *testing.T) {
	c := New()
	before := c.TotalMinutes()

	for i := 0; i < 100; i++ {
		assert.Zero(t, c.Advance(time.Second))
	}
	assert.Equal(t, before, c.TotalMinutes())

	// Unpausing must not release accumulated time: nothing accumulated.
	require.True(t, c.SetSpeed(Normal))
	assert.Zero(t, c.Advance(100*time.Millisecond), "first running frame after unpause carries no backlog")
}

func TestAdvanceFractionalAccumulation(t *testing.T) {
	c := New()
	require.True(t, c.SetSpeed(Normal)) // 2 game-minutes per real second

	// 400ms at Normal = 0.8 game-minutes: not enough for a whole minute.
	assert.Zero(t, c.Advance(400*time.Millisecond))
	// Another 400ms brings the accumulator to 1.6: one whole minute.
	assert.Equal(t, 1, c.Advance(400*time.Millisecond))
	assert.Equal(t, 1, c.Minute)
}

func TestAdvanceHighSpeedJump(t *testing.T) {
	c := New()
	require.True(t, c.SetSpeed(VeryFast)) // 30 game-minutes per real second

	assert.Equal(t, 90, c.Advance(3*time.Second))
	assert.Equal(t, 9, c.Hour)
	assert.Equal(t, 30, c.Minute)
}

func TestSetSpeedRejectsUnknown(t *testing.T) {
	c := New()
	assert.False(t, c.SetSpeed(Speed(7)))
	assert.Equal(t, Paused, c.Speed, "a rejected speed leaves the clock untouched")

	assert.True(t, c.SetSpeed(Fast))
	assert.False(t, c.IsPaused())
}

func TestTotalMinutesMonotonic(t *testing.T) {
	c := New()
	require.True(t, c.SetSpeed(VeryFast))

	last := c.TotalMinutes()
	for i := 0; i < 200; i++ {
		c.Advance(250 * time.Millisecond)
		total := c.TotalMinutes()
		assert.GreaterOrEqual(t, total, last)
		last = total
	}
}

func TestInfoDayPhases(t *testing.T) {
	cases := []struct {
		hour                                  int
		daytime, morning, evening, nighttime bool
	}{
		{3, false, false, false, true},
		{6, true, true, false, false},
		{11, true, true, false, false},
		{12, true, false, false, false},
		{19, true, false, true, false},
		{21, false, false, true, false},
		{22, false, false, false, true},
	}

	for _, tc := range cases {
		c := New()
		c.Hour = tc.hour
		info := c.Info()
		assert.Equal(t, tc.daytime, info.IsDaytime, "hour %d daytime", tc.hour)
		assert.Equal(t, tc.morning, info.IsMorning, "hour %d morning", tc.hour)
		assert.Equal(t, tc.evening, info.IsEvening, "hour %d evening", tc.hour)
		assert.Equal(t, tc.nighttime, info.IsNight, "hour %d night", tc.hour)
	}
}

func TestFormatted(t *testing.T) {
	c := New()
	c.Day = 12
	c.Hour = 8
	c.Minute = 5
	c.Month = 3

	assert.Equal(t, "Day 12, 08:05 (Month 3, Year 1)", c.Formatted())
}

func TestRestoreFallsBackPerField(t *testing.T) {
	c := New()
	// Day and speed are nonsense; the rest is valid.
	c.Restore(30, 14, 99, 6, 3, Speed(42))

	assert.Equal(t, 30, c.Minute)
	assert.Equal(t, 14, c.Hour)
	assert.Equal(t, 1, c.Day, "invalid day falls back to the new-game value")
	assert.Equal(t, 6, c.Month)
	assert.Equal(t, 3, c.Year)
	assert.Equal(t, Paused, c.Speed, "invalid speed falls back to paused")
}
