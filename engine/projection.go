/*
projection.go - Half-day exhaustion simulation

PURPOSE:
  Projects when a day-budget will be exhausted given the holder's
  attendance rate. The simulation walks forward in half-day slots from a
  start slot, burning (attendancePct/100)/2 on each half of a working day
  and skipping non-working days entirely.

KEY RULES:
  - daysRemaining <= 0: already complete, no simulation
  - attendancePct <= 0: never completes (zero burn rate would not
    terminate), no date arithmetic performed
  - The returned slot is the one at which the remainder crossed the
    epsilon threshold. The cursor is NOT advanced past the crossing.

TERMINATION:
  A hard cap of 3650 half-day steps (10 simulated years) bounds the walk
  against pathological input. On cap exhaustion the current slot is
  returned with Capped set; callers see an implausibly far-future date
  rather than an error.

EXAMPLE:
  projector := &ExhaustionProjector{Calendar: NewHolidayCalendar(Metropole)}
  p := projector.Project(
      Slot{Date: NewTimePoint(2026, time.March, 2), Moment: Morning},
      Days(8),
      decimal.NewFromInt(100),
  )
  // p.Slot is the afternoon of the 8th working day on or after March 2.

SEE ALSO:
  - calendar.go: Working-day determination
  - allocation.go: Chooses the projection start slot per order state
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// maxProjectionSteps caps the simulation at ~10 years of half-day slots.
const maxProjectionSteps = 3650

// ProjectionStatus classifies a projection outcome.
type ProjectionStatus string

const (
	// ProjectionCompleted: nothing left to burn, no date to report.
	ProjectionCompleted ProjectionStatus = "completed"
	// ProjectionNever: zero burn rate, the budget never exhausts.
	ProjectionNever ProjectionStatus = "never"
	// ProjectionOn: exhaustion lands on Slot.
	ProjectionOn ProjectionStatus = "on"
)

// Projection is the outcome of an exhaustion simulation.
type Projection struct {
	Status ProjectionStatus
	Slot   Slot
	// Capped is set when the iteration bound was hit and Slot is only the
	// best available estimate.
	Capped bool
}

// ExhaustionProjector simulates day-budget burn-down over a calendar.
type ExhaustionProjector struct {
	Calendar WorkingCalendar
}

// Project walks forward from start, consuming daysRemaining at the given
// attendance percentage, and returns the slot at which the budget runs
// out. An invalid start moment defaults to Morning.
func (p *ExhaustionProjector) Project(start Slot, daysRemaining Amount, attendancePct decimal.Decimal) Projection {
	if daysRemaining.Value.LessThanOrEqual(decimal.Zero) {
		return Projection{Status: ProjectionCompleted}
	}
	if attendancePct.LessThanOrEqual(decimal.Zero) {
		return Projection{Status: ProjectionNever}
	}

	halfDayBurn := attendancePct.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(2))

	cur := start
	if !cur.Moment.Valid() {
		cur.Moment = Morning
	}

	remaining := daysRemaining.Value
	for step := 0; step < maxProjectionSteps; step++ {
		if p.Calendar.IsWorkingDay(cur.Date) {
			remaining = remaining.Sub(halfDayBurn)
			if remaining.LessThanOrEqual(epsilonDays) {
				return Projection{Status: ProjectionOn, Slot: cur}
			}
		}
		cur = cur.Next()
	}

	return Projection{Status: ProjectionOn, Slot: cur, Capped: true}
}
