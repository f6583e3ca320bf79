// Package rules implements the Moroccan payment-delay regulations: legal
// payment terms (Article 78-2, Loi 15-95 as modified by Loi 69-21), late
// payment penalties (Article 78-3) and the legal status special cases.
package rules

import "time"

// monthDay identifies a recurring calendar date.
type monthDay struct {
	Month time.Month
	Day   int
}

// fixedHolidays lists the fixed Moroccan public holidays. Religious
// holidays follow the lunar calendar and are injected per year through
// the calendar constructor.
var fixedHolidays = map[monthDay]string{
	{time.January, 1}:   "Nouvel An",
	{time.January, 11}:  "Manifeste de l'indépendance",
	{time.May, 1}:       "Fête du Travail",
	{time.July, 30}:     "Fête du Trône",
	{time.August, 14}:   "Journée de l'oued Ed-Dahab",
	{time.August, 20}:   "Révolution du Roi et du Peuple",
	{time.August, 21}:   "Fête de la Jeunesse",
	{time.November, 6}:  "Marche Verte",
	{time.November, 18}: "Fête de l'Indépendance",
}

// Calendar answers business-day questions for Moroccan legal deadlines.
type Calendar struct {
	movable map[time.Time]struct{}
}

// NewCalendar creates a Calendar with the given movable (religious)
// holidays. Dates are compared at day precision; time components are
// discarded.
func NewCalendar(movableHolidays []time.Time) *Calendar {
	movable := make(map[time.Time]struct{}, len(movableHolidays))
	for _, d := range movableHolidays {
		movable[DateOnly(d)] = struct{}{}
	}
	return &Calendar{movable: movable}
}

// DateOnly truncates a timestamp to midnight UTC so dates compare at day
// precision.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func (c *Calendar) IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsFixedHoliday reports whether the date is a fixed Moroccan holiday.
func (c *Calendar) IsFixedHoliday(d time.Time) bool {
	_, ok := fixedHolidays[monthDay{d.Month(), d.Day()}]
	return ok
}

// IsMovableHoliday reports whether the date is one of the injected
// religious holidays.
func (c *Calendar) IsMovableHoliday(d time.Time) bool {
	_, ok := c.movable[DateOnly(d)]
	return ok
}

// IsBusinessDay reports whether the date is a working day.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	return !c.IsWeekend(d) && !c.IsFixedHoliday(d) && !c.IsMovableHoliday(d)
}

// NextBusinessDay returns the date itself when it is a business day,
// otherwise the first business day after it. The scan is capped; past the
// cap only weekends are skipped, so a misconfigured calendar cannot loop
// forever.
func (c *Calendar) NextBusinessDay(d time.Time) time.Time {
	current := DateOnly(d)

	const maxIterations = 30
	iterations := 0

	for !c.IsBusinessDay(current) && iterations < maxIterations {
		current = current.AddDate(0, 0, 1)
		iterations++
	}

	if iterations >= maxIterations {
		for c.IsWeekend(current) {
			current = current.AddDate(0, 0, 1)
		}
	}

	return current
}

// AddBusinessDays adds the given number of working days to a date,
// skipping weekends and holidays.
func (c *Calendar) AddBusinessDays(start time.Time, days int) time.Time {
	current := DateOnly(start)
	added := 0

	for added < days {
		current = current.AddDate(0, 0, 1)
		if c.IsBusinessDay(current) {
			added++
		}
	}

	return current
}
