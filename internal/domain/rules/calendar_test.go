package rules

import (
	"testing"
	"time"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCalendarIsBusinessDay(t *testing.T) {
	calendar := NewCalendar([]time.Time{
		d(2023, time.April, 24), // second day of Aid Al-Fitr, a Monday
	})

	tests := []struct {
		name     string
		date     time.Time
		business bool
	}{
		{"regular monday", d(2023, time.September, 18), true},
		{"saturday", d(2023, time.September, 16), false},
		{"sunday", d(2023, time.September, 17), false},
		{"new year", d(2023, time.January, 1), false},
		{"independence manifesto", d(2023, time.January, 11), false},
		{"labour day", d(2023, time.May, 1), false},
		{"throne day", d(2023, time.July, 30), false},
		{"oued ed-dahab day", d(2023, time.August, 14), false},
		{"king and people revolution", d(2023, time.August, 20), false},
		{"youth day", d(2023, time.August, 21), false},
		{"green march", d(2023, time.November, 6), false},
		{"independence day", d(2023, time.November, 18), false},
		{"movable holiday", d(2023, time.April, 24), false},
		{"day after movable holiday", d(2023, time.April, 25), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calendar.IsBusinessDay(tt.date); got != tt.business {
				t.Errorf("IsBusinessDay(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.business)
			}
		})
	}
}

func TestCalendarNextBusinessDay(t *testing.T) {
	calendar := NewCalendar(nil)

	tests := []struct {
		name string
		date time.Time
		want time.Time
	}{
		// A business day maps to itself.
		{"monday stays", d(2023, time.September, 18), d(2023, time.September, 18)},
		{"saturday to monday", d(2023, time.September, 16), d(2023, time.September, 18)},
		{"sunday to monday", d(2023, time.September, 17), d(2023, time.September, 18)},
		// Green March 2023 fell on a Monday.
		{"holiday monday to tuesday", d(2023, time.November, 6), d(2023, time.November, 7)},
		// Saturday, then Sunday which is also a holiday (Aug 20), then the
		// Youth Day holiday on Monday Aug 21.
		{"weekend holiday chain", d(2023, time.August, 19), d(2023, time.August, 22)},
		// Independence Day 2023 fell on a Saturday.
		{"holiday saturday to monday", d(2023, time.November, 18), d(2023, time.November, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendar.NextBusinessDay(tt.date)
			if !got.Equal(tt.want) {
				t.Errorf("NextBusinessDay(%s) = %s, want %s",
					tt.date.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestCalendarAddBusinessDays(t *testing.T) {
	calendar := NewCalendar(nil)

	// Friday Sept 15 + 2 business days skips the weekend.
	got := calendar.AddBusinessDays(d(2023, time.September, 15), 2)
	want := d(2023, time.September, 19)
	if !got.Equal(want) {
		t.Errorf("AddBusinessDays = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	// Zero days returns the start date unchanged.
	got = calendar.AddBusinessDays(d(2023, time.September, 15), 0)
	if !got.Equal(d(2023, time.September, 15)) {
		t.Errorf("AddBusinessDays with 0 days = %s, want start date", got.Format("2006-01-02"))
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	stamped := time.Date(2023, time.September, 18, 23, 45, 12, 0, loc)

	got := DateOnly(stamped)
	want := d(2023, time.September, 18)
	if !got.Equal(want) {
		t.Errorf("DateOnly = %v, want %v", got, want)
	}
}
