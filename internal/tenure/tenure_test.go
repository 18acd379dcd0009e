package tenure

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCoarse(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		want  Experience
	}{
		{
			name:  "exactly one year",
			start: date(2024, time.April, 1),
			now:   date(2025, time.April, 1),
			want:  Experience{Value: 1, Unit: Years},
		},
		{
			name:  "eleven months stays in months",
			start: date(2024, time.April, 1),
			now:   date(2025, time.March, 1),
			want:  Experience{Value: 11, Unit: Months},
		},
		{
			name:  "eleven and a half months rounds up to a year",
			start: date(2024, time.April, 1),
			now:   date(2025, time.March, 16),
			want:  Experience{Value: 1, Unit: Years},
		},
		{
			name:  "year and a half",
			start: date(2024, time.April, 1),
			now:   date(2025, time.October, 16),
			want:  Experience{Value: 1.5, Unit: Years},
		},
		{
			name:  "years keep one decimal",
			start: date(2024, time.April, 1),
			now:   date(2026, time.June, 1),
			want:  Experience{Value: 2.2, Unit: Years},
		},
		{
			name:  "partial month rounds to nearest whole month",
			start: date(2024, time.April, 1),
			now:   date(2024, time.September, 20),
			want:  Experience{Value: 6, Unit: Months},
		},
		{
			name:  "same day is zero months",
			start: date(2025, time.July, 1),
			now:   date(2025, time.July, 1),
			want:  Experience{Value: 0, Unit: Months},
		},
		{
			name:  "start in the future clamps to zero",
			start: date(2024, time.April, 15),
			now:   date(2024, time.April, 10),
			want:  Experience{Value: 0, Unit: Months},
		},
		{
			name:  "start years in the future clamps to zero",
			start: date(2030, time.January, 1),
			now:   date(2025, time.June, 1),
			want:  Experience{Value: 0, Unit: Months},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coarse(tt.start, tt.now)
			assert.Equal(t, tt.want.Unit, got.Unit)
			assert.InDelta(t, tt.want.Value, got.Value, 1e-9)
			assert.GreaterOrEqual(t, got.Value, 0.0)
		})
	}
}

func TestFine(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		want  string
	}{
		{
			name:  "exactly one year is singular",
			start: date(2024, time.April, 1),
			now:   date(2025, time.April, 1),
			want:  "1+ Year",
		},
		{
			name:  "years months and days",
			start: date(2024, time.April, 1),
			now:   date(2025, time.October, 16),
			want:  "1+ Year 6 Months 15 Days",
		},
		{
			name:  "plural years",
			start: date(2024, time.April, 1),
			now:   date(2026, time.June, 1),
			want:  "2+ Years 2 Months",
		},
		{
			name:  "single month and day",
			start: date(2025, time.July, 1),
			now:   date(2025, time.August, 2),
			want:  "1 Month 1 Day",
		},
		{
			name:  "borrows days from the previous month",
			start: date(2025, time.July, 20),
			now:   date(2025, time.September, 5),
			want:  "1 Month 16 Days",
		},
		{
			name:  "borrow across february in a leap year",
			start: date(2024, time.January, 30),
			now:   date(2024, time.March, 1),
			want:  "1 Month",
		},
		{
			name:  "days only",
			start: date(2025, time.July, 1),
			now:   date(2025, time.July, 9),
			want:  "8 Days",
		},
		{
			name:  "same instant",
			start: date(2025, time.July, 1),
			now:   date(2025, time.July, 1),
			want:  "0 Days",
		},
		{
			name:  "start in the future",
			start: date(2025, time.July, 1),
			now:   date(2025, time.June, 30),
			want:  "0 Days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fine(tt.start, tt.now))
		})
	}
}

func TestFine_OneYearHasNoTrailingS(t *testing.T) {
	got := Fine(date(2023, time.May, 10), date(2024, time.May, 10))
	assert.True(t, strings.HasPrefix(got, "1+ Year"))
	assert.False(t, strings.HasPrefix(got, "1+ Years"))
}

func TestFine_UsesStartLocation(t *testing.T) {
	// 23:30 UTC on June 30 is already July 1 in Kolkata (UTC+5:30).
	kolkata := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, kolkata)
	now := time.Date(2025, time.June, 30, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "1 Month", Fine(start, now))
}

func TestExperienceString(t *testing.T) {
	assert.Equal(t, "1.5+ Years", Experience{Value: 1.5, Unit: Years}.String())
	assert.Equal(t, "2+ Years", Experience{Value: 2, Unit: Years}.String())
	assert.Equal(t, "11 Months", Experience{Value: 11, Unit: Months}.String())
}

func TestCalculator_UsesInjectedClock(t *testing.T) {
	now := date(2025, time.April, 1)
	calc := NewCalculator(date(2024, time.April, 1), func() time.Time { return now })

	assert.Equal(t, Experience{Value: 1, Unit: Years}, calc.Experience())
	assert.Equal(t, "1+ Year", calc.Elapsed())

	now = date(2025, time.May, 3)
	assert.Equal(t, "1+ Year 1 Month 2 Days", calc.Elapsed())
	assert.Equal(t, date(2024, time.April, 1), calc.Start())
}
