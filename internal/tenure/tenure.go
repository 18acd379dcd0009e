// Package tenure computes elapsed time between an employment start date and
// "now" for the resume and stats pages.
//
// Two renditions exist:
//
//   - Coarse: a single number with a unit, e.g. {1.5 Years} or {11 Months}.
//     Used by the "Years of Experience" counter.
//   - Fine: a calendar breakdown, e.g. "1+ Year 3 Months 4 Days". Used next
//     to the current role on the resume.
//
// Both are pure functions of (start, now). Nothing in this package reads the
// wall clock except Calculator, whose clock is injected.
package tenure

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unit is the unit a coarse Experience is expressed in.
type Unit string

const (
	Years  Unit = "Years"
	Months Unit = "Months"
)

// daysPerMonth is the fixed divisor used to turn a day difference into a
// fraction of a month in the coarse calculation.
const daysPerMonth = 30

// Experience is the coarse elapsed time: a value and its unit.
type Experience struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// String renders the experience the way the counter shows it: years carry a
// trailing plus sign and one decimal when fractional, months are whole.
func (e Experience) String() string {
	if e.Unit == Years {
		return strconv.FormatFloat(e.Value, 'f', -1, 64) + "+ Years"
	}
	return fmt.Sprintf("%d Months", int(e.Value))
}

// Coarse returns the elapsed time between start and now as a single value.
//
// The month difference is (Δyears*12 + Δmonths) plus Δdays/30. Under one
// year (after rounding years to one decimal) the result is whole months;
// otherwise it is years with one decimal place. A start in the future
// yields zero months, never a negative value.
func Coarse(start, now time.Time) Experience {
	now = now.In(start.Location())

	diffInMonths := float64((now.Year()-start.Year())*12+int(now.Month())-int(start.Month())) +
		float64(now.Day()-start.Day())/daysPerMonth

	if diffInMonths < 0 {
		return Experience{Value: 0, Unit: Months}
	}

	years := roundHalfUp(diffInMonths/12, 1)
	if years < 1 {
		return Experience{
			Value: math.Max(0, roundHalfUp(diffInMonths, 0)),
			Unit:  Months,
		}
	}

	return Experience{Value: years, Unit: Years}
}

// Fine returns a calendar breakdown of the time between start and now.
//
// Whole months come from the year/month fields. When now's day-of-month is
// before start's, one month is borrowed and the length of the month
// preceding now's month is added to the day count. Only non-zero parts are
// emitted; "0 Days" is returned when nothing has elapsed or start is in the
// future.
func Fine(start, now time.Time) string {
	now = now.In(start.Location())
	if now.Before(start) {
		return "0 Days"
	}

	totalMonths := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	days := now.Day() - start.Day()

	if days < 0 {
		totalMonths--
		days += daysInPreviousMonth(now)
	}
	totalMonths = max(0, totalMonths)

	var parts []string
	if totalMonths >= 12 {
		parts = append(parts, fmt.Sprintf("%d+ %s", totalMonths/12, plural(totalMonths/12, "Year")))
	}
	if m := totalMonths % 12; m > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", m, plural(m, "Month")))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", days, plural(days, "Day")))
	}

	if len(parts) == 0 {
		return "0 Days"
	}
	return strings.Join(parts, " ")
}

// daysInPreviousMonth returns the length of the month before t's month.
// Day 0 of a month normalises to the last day of the month before it.
func daysInPreviousMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 0, 0, 0, 0, 0, t.Location()).Day()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// roundHalfUp rounds x to the given number of decimal places, with halves
// going up (toward +Inf) as the front-end's counters did.
func roundHalfUp(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Floor(x*p+0.5) / p
}

// Calculator binds a fixed start date to a clock so callers can ask for the
// tenure "as of now" without touching the wall clock in tests.
type Calculator struct {
	start time.Time
	clock func() time.Time
}

// NewCalculator returns a Calculator for start. A nil clock means time.Now.
func NewCalculator(start time.Time, clock func() time.Time) *Calculator {
	if clock == nil {
		clock = time.Now
	}
	return &Calculator{start: start, clock: clock}
}

// Start returns the configured start date.
func (c *Calculator) Start() time.Time {
	return c.start
}

// Experience returns Coarse(start, now).
func (c *Calculator) Experience() Experience {
	return Coarse(c.start, c.clock())
}

// Elapsed returns Fine(start, now).
func (c *Calculator) Elapsed() string {
	return Fine(c.start, c.clock())
}
