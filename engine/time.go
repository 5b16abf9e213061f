package engine

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date (no time-of-day, no timezone)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() TimePoint {
	now := time.Now()
	return NewTimePoint(now.Year(), now.Month(), now.Day())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}
	return TimePoint{Time: t}, nil
}

// ParseDateOr parses an ISO calendar date, falling back to the given
// default when the input is malformed. The second return value is false
// when the fallback was used, so callers can surface a warning instead of
// silently proceeding.
func ParseDateOr(s string, fallback TimePoint) (TimePoint, bool) {
	tp, err := ParseDate(s)
	if err != nil {
		return fallback, false
	}
	return tp, true
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool {
	return tp.Before(other) || tp.Equal(other)
}
func (tp TimePoint) AfterOrEqual(other TimePoint) bool {
	return tp.After(other) || tp.Equal(other)
}

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsZero() bool { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format("2006-01-02") }

func (tp TimePoint) MarshalJSON() ([]byte, error) {
	if tp.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + tp.String() + `"`), nil
}

func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrUnparseableDate, s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// MOMENT - Half-day granularity
// =============================================================================

// Moment identifies the half of a working day an event falls on.
type Moment string

const (
	Morning   Moment = "morning"
	Afternoon Moment = "afternoon"
)

// ParseMoment maps free-form input to a Moment, defaulting to Morning for
// anything unrecognized (lenient by design: a garbled moment should not
// block reporting).
func ParseMoment(s string) Moment {
	switch s {
	case string(Afternoon), "pm", "apres-midi", "après-midi":
		return Afternoon
	default:
		return Morning
	}
}

// Valid reports whether the moment is one of the two known values.
func (m Moment) Valid() bool { return m == Morning || m == Afternoon }

// =============================================================================
// SLOT - A (date, moment) pair, the projector's unit of simulation
// =============================================================================

type Slot struct {
	Date   TimePoint
	Moment Moment
}

// Next advances one half-day: Morning -> Afternoon of the same date,
// Afternoon -> Morning of the next date.
func (s Slot) Next() Slot {
	if s.Moment == Morning {
		return Slot{Date: s.Date, Moment: Afternoon}
	}
	return Slot{Date: s.Date.AddDays(1), Moment: Morning}
}

func (s Slot) String() string {
	return s.Date.String() + " " + string(s.Moment)
}

// =============================================================================
// PERIOD KEY - Month bucket for consumption records
// =============================================================================

// PeriodKey identifies a consumption period: a calendar month, or the
// reserved initial bucket for consumption recorded before any tracked
// month. The initial bucket sorts before every month.
type PeriodKey struct {
	Year    int
	Month   time.Month
	Initial bool
}

// InitialPeriod returns the reserved out-of-period bucket.
func InitialPeriod() PeriodKey { return PeriodKey{Initial: true} }

func NewPeriodKey(year int, month time.Month) PeriodKey {
	return PeriodKey{Year: year, Month: month}
}

// PeriodOf returns the month bucket containing the given date.
func PeriodOf(tp TimePoint) PeriodKey {
	return PeriodKey{Year: tp.Year(), Month: tp.Month()}
}

// ParsePeriodKey parses "YYYY-MM" or the reserved "initial" key.
func ParsePeriodKey(s string) (PeriodKey, error) {
	if s == "initial" {
		return InitialPeriod(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return PeriodKey{}, fmt.Errorf("invalid period key %q: %w", s, err)
	}
	return PeriodKey{Year: t.Year(), Month: t.Month()}, nil
}

func (k PeriodKey) String() string {
	if k.Initial {
		return "initial"
	}
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

func (k PeriodKey) Before(other PeriodKey) bool {
	if k.Initial {
		return !other.Initial
	}
	if other.Initial {
		return false
	}
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func (k PeriodKey) After(other PeriodKey) bool { return other.Before(k) }

func (k PeriodKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PeriodKey) UnmarshalText(data []byte) error {
	parsed, err := ParsePeriodKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SortPeriodKeys orders keys chronologically, initial bucket first.
func SortPeriodKeys(keys []PeriodKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
}
