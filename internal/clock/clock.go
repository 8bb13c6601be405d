/*
Package clock
File: clock.go
Description:
    Owns the in-game calendar (minute/hour/day/month/year) and the discrete
    speed setting. Real elapsed time is converted into whole game-minutes via
    a fractional accumulator so frame jitter never loses or invents time.

    The calendar is intentionally not a real one: every month has 30 days and
    every year has 12 months, which keeps total-minute arithmetic trivial for
    the scheduler.
*/

package clock

import (
	"fmt"
	"math"
	"time"
)

// Speed is the number of game-minutes that pass per real second.
type Speed int

const (
	Paused   Speed = 0
	Normal   Speed = 2
	Fast     Speed = 10
	VeryFast Speed = 30
)

// Calendar constants. 30-day months and 12-month years, by design.
const (
	MinutesPerHour  = 60
	HoursPerDay     = 24
	DaysPerMonth    = 30
	MonthsPerYear   = 12
	MinutesPerDay   = MinutesPerHour * HoursPerDay   // 1440
	MinutesPerMonth = MinutesPerDay * DaysPerMonth   // 43200
	MinutesPerYear  = MinutesPerMonth * MonthsPerYear // 518400
)

// validSpeeds is the closed set SetSpeed accepts.
var validSpeeds = map[Speed]bool{
	Paused:   true,
	Normal:   true,
	Fast:     true,
	VeryFast: true,
}

// GameClock is the authoritative source of game time.
// It is mutated only through Advance/AddMinutes (and Restore on load).
type GameClock struct {
	Minute int `json:"minute"` // 0..59
	Hour   int `json:"hour"`   // 0..23
	Day    int `json:"day"`    // 1..30
	Week   int `json:"week"`   // 1..5, derived from Day
	Month  int `json:"month"`  // 1..12
	Year   int `json:"year"`   // 1..

	Speed Speed `json:"speed"`

	// Carry-over of sub-minute time between frames.
	accumulated float64
}

// New returns a clock in the standard new-game state:
// Day 1, 08:00, paused until the player picks a speed.
func New() *GameClock {
	return &GameClock{
		Minute: 0,
		Hour:   8,
		Day:    1,
		Week:   1,
		Month:  1,
		Year:   1,
		Speed:  Paused,
	}
}

// Advance converts real elapsed time into game-minutes and applies them.
// Returns the number of whole game-minutes that passed (0 while paused).
// While paused nothing accumulates: unpausing never triggers a catch-up burst.
func (c *GameClock) Advance(elapsed time.Duration) int {
	if c.Speed == Paused || elapsed <= 0 {
		return 0
	}

	c.accumulated += elapsed.Seconds() * float64(c.Speed)

	whole := int(math.Floor(c.accumulated))
	if whole <= 0 {
		return 0
	}

	c.accumulated -= float64(whole)
	c.AddMinutes(whole)
	return whole
}

// AddMinutes moves the calendar forward by n minutes, cascading overflow
// minute -> hour -> day -> month -> year. Handles jumps spanning multiple
// days or months in one call, which high speeds routinely produce.
func (c *GameClock) AddMinutes(n int) {
	if n <= 0 {
		return
	}

	total := c.Minute + n
	c.Minute = total % MinutesPerHour

	hours := c.Hour + total/MinutesPerHour
	c.Hour = hours % HoursPerDay

	// Day/month are 1-based, so shift to 0-based before dividing.
	days := (c.Day - 1) + hours/HoursPerDay
	c.Day = days%DaysPerMonth + 1

	months := (c.Month - 1) + days/DaysPerMonth
	c.Month = months%MonthsPerYear + 1

	c.Year += months / MonthsPerYear

	c.Week = (c.Day-1)/7 + 1
}

// SetSpeed changes the simulation speed. Returns false for an unknown value
// so a bad UI button state can never crash the loop.
func (c *GameClock) SetSpeed(s Speed) bool {
	if !validSpeeds[s] {
		return false
	}
	c.Speed = s
	return true
}

// IsPaused reports whether time is frozen.
func (c *GameClock) IsPaused() bool {
	return c.Speed == Paused
}

// TotalMinutes returns the absolute minute count used for all scheduling
// comparisons. Monotonically non-decreasing except across an explicit Restore.
func (c *GameClock) TotalMinutes() int64 {
	return int64(c.Minute) +
		int64(c.Hour)*MinutesPerHour +
		int64(c.Day)*MinutesPerDay +
		int64(c.Month)*MinutesPerMonth +
		int64(c.Year)*MinutesPerYear
}

// Info is the structured time snapshot handed to UI consumers.
type Info struct {
	Minute    int   `json:"minute"`
	Hour      int   `json:"hour"`
	Day       int   `json:"day"`
	Week      int   `json:"week"`
	Month     int   `json:"month"`
	Year      int   `json:"year"`
	Speed     Speed `json:"speed"`
	IsPaused  bool  `json:"is_paused"`
	IsDaytime bool  `json:"is_daytime"`
	IsMorning bool  `json:"is_morning"`
	IsEvening bool  `json:"is_evening"`
	IsNight   bool  `json:"is_night"`

	TotalMinutes int64 `json:"total_minutes"`
}

// Info returns the current calendar state plus the derived day-phase flags
// the market and the UI both key off.
func (c *GameClock) Info() Info {
	return Info{
		Minute:    c.Minute,
		Hour:      c.Hour,
		Day:       c.Day,
		Week:      c.Week,
		Month:     c.Month,
		Year:      c.Year,
		Speed:     c.Speed,
		IsPaused:  c.Speed == Paused,
		IsDaytime: c.Hour >= 6 && c.Hour < 20,
		IsMorning: c.Hour >= 6 && c.Hour < 12,
		IsEvening: c.Hour >= 18 && c.Hour < 22,
		IsNight:   c.Hour >= 22 || c.Hour < 6,

		TotalMinutes: c.TotalMinutes(),
	}
}

// Formatted returns the display string the UI header shows,
// e.g. "Day 12, 08:05 (Month 3, Year 1)".
func (c *GameClock) Formatted() string {
	return fmt.Sprintf("Day %d, %02d:%02d (Month %d, Year %d)", c.Day, c.Hour, c.Minute, c.Month, c.Year)
}

// Restore overwrites the calendar from saved state. This is the only code
// path allowed to move the clock backwards. Out-of-range fields fall back to
// the new-game value for that field rather than rejecting the whole load.
func (c *GameClock) Restore(minute, hour, day, month, year int, speed Speed) {
	fresh := New()

	if minute >= 0 && minute < MinutesPerHour {
		c.Minute = minute
	} else {
		c.Minute = fresh.Minute
	}
	if hour >= 0 && hour < HoursPerDay {
		c.Hour = hour
	} else {
		c.Hour = fresh.Hour
	}
	if day >= 1 && day <= DaysPerMonth {
		c.Day = day
	} else {
		c.Day = fresh.Day
	}
	if month >= 1 && month <= MonthsPerYear {
		c.Month = month
	} else {
		c.Month = fresh.Month
	}
	if year >= 1 {
		c.Year = year
	} else {
		c.Year = fresh.Year
	}
	if validSpeeds[speed] {
		c.Speed = speed
	} else {
		c.Speed = Paused
	}

	c.Week = (c.Day-1)/7 + 1
	c.accumulated = 0
}
