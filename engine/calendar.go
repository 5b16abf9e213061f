/*
calendar.go - Working-day determination

PURPOSE:
  Decides whether a calendar date is a working day. A date is non-working
  when it falls on a weekend or on a public holiday of the configured
  jurisdiction.

HOLIDAY SETS:
  French public holidays are computed per year: the fixed dates plus the
  Easter-derived ones (Easter Monday, Ascension, Whit Monday). The
  Alsace-Moselle jurisdiction additionally observes Good Friday and
  December 26.

CACHING:
  Holiday sets are pure functions of (jurisdiction, year), so they are
  computed once and cached on the calendar instance. The cache is bounded
  (last 32 years touched); eviction is purely a memory concern and has no
  behavioral effect.

SEE ALSO:
  - projection.go: The projector skips non-working days
*/
package engine

import (
	"sync"
	"time"
)

// WorkingCalendar answers the single question the projector needs.
type WorkingCalendar interface {
	IsWorkingDay(date TimePoint) bool
}

// Jurisdiction selects which holiday set applies.
type Jurisdiction string

const (
	Metropole     Jurisdiction = "metropole"
	AlsaceMoselle Jurisdiction = "alsace-moselle"
)

// maxCachedYears bounds the per-instance holiday cache.
const maxCachedYears = 32

// HolidayCalendar implements WorkingCalendar for French public holidays.
// Safe for concurrent use; the cache follows a read-or-populate discipline
// and recomputation is idempotent.
type HolidayCalendar struct {
	jurisdiction Jurisdiction

	mu    sync.Mutex
	years map[int]map[int]struct{} // year -> set of month*100+day
	order []int                    // years in insertion order, for eviction
}

func NewHolidayCalendar(j Jurisdiction) *HolidayCalendar {
	if j == "" {
		j = Metropole
	}
	return &HolidayCalendar{
		jurisdiction: j,
		years:        make(map[int]map[int]struct{}),
	}
}

// IsWorkingDay returns false on weekends and public holidays.
func (c *HolidayCalendar) IsWorkingDay(date TimePoint) bool {
	if date.IsWeekend() {
		return false
	}
	holidays := c.holidaysFor(date.Year())
	_, isHoliday := holidays[monthDay(date.Month(), date.Day())]
	return !isHoliday
}

func (c *HolidayCalendar) holidaysFor(year int) map[int]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.years[year]; ok {
		return set
	}

	set := frenchHolidays(year, c.jurisdiction)
	c.years[year] = set
	c.order = append(c.order, year)
	if len(c.order) > maxCachedYears {
		delete(c.years, c.order[0])
		c.order = c.order[1:]
	}
	return set
}

func monthDay(m time.Month, d int) int { return int(m)*100 + d }

// frenchHolidays returns the public holidays of the given year as a set of
// month*100+day keys.
func frenchHolidays(year int, j Jurisdiction) map[int]struct{} {
	set := map[int]struct{}{
		monthDay(time.January, 1):   {}, // Jour de l'an
		monthDay(time.May, 1):       {}, // Fête du travail
		monthDay(time.May, 8):       {}, // Victoire 1945
		monthDay(time.July, 14):     {}, // Fête nationale
		monthDay(time.August, 15):   {}, // Assomption
		monthDay(time.November, 1):  {}, // Toussaint
		monthDay(time.November, 11): {}, // Armistice 1918
		monthDay(time.December, 25): {}, // Noël
	}

	easter := easterSunday(year)
	addOffset := func(days int) {
		d := easter.AddDate(0, 0, days)
		set[monthDay(d.Month(), d.Day())] = struct{}{}
	}
	addOffset(1)  // Lundi de Pâques
	addOffset(39) // Ascension
	addOffset(50) // Lundi de Pentecôte

	if j == AlsaceMoselle {
		addOffset(-2)                                 // Vendredi saint
		set[monthDay(time.December, 26)] = struct{}{} // Saint Étienne
	}

	return set
}

// easterSunday computes Gregorian Easter using the anonymous/Meeus
// algorithm. Valid for all Gregorian years.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
