/*
allocation.go - Chronological bucket allocation across ordered budgets

PURPOSE:
  Assigns a provider's total consumed days to their purchase orders in
  strict start-date order. Consumption fills the earliest order first and
  spills into later ones; it can never flow backwards.

THE BUCKET RULE:
  A single consumedBuffer accumulator starts at totalConsumedDays and is
  folded over the sorted lines:

    buffer >= line.Days  ->  Completed (line fully consumed, no projection)
    buffer > 0           ->  InProgress (buffer drained into this line)
    buffer == 0          ->  Future (untouched)

PROJECTION START:
  An InProgress order continues from "now", not from its nominal start:
  the projection begins the day AFTER the reference date, at Morning, for
  the line's remaining days. A Future order projects from its own start
  slot when that start is still ahead of the reference date; an order that
  should already be active but has no recorded consumption falls back to
  the same day-after-reference start.

PURITY:
  Allocate is a pure function of (totalConsumedDays, lines, attendance,
  reference date): identical inputs yield identical rows.

SEE ALSO:
  - projection.go: The half-day simulation invoked per row
  - costcurve.go: The same cumulative-cursor idea applied month by month
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER STATE
// =============================================================================

type OrderState string

const (
	StateCompleted  OrderState = "completed"
	StateInProgress OrderState = "in_progress"
	StateFuture     OrderState = "future"
)

// =============================================================================
// ALLOCATION ROW - Per-order report output
// =============================================================================

type AllocationRow struct {
	Line      BudgetLine
	State     OrderState
	Consumed  Amount
	Remaining Amount
	// Value is the line's monetary value (day-budget x rate, HT).
	Value      Amount
	Projection Projection
}

// =============================================================================
// ORDER ALLOCATOR
// =============================================================================

type OrderAllocator struct {
	Projector *ExhaustionProjector
}

func NewOrderAllocator(calendar WorkingCalendar) *OrderAllocator {
	return &OrderAllocator{Projector: &ExhaustionProjector{Calendar: calendar}}
}

// Allocate distributes totalConsumed across lines sorted by start date and
// returns one row per line. asOf is the analysis reference date.
func (a *OrderAllocator) Allocate(totalConsumed Amount, lines []BudgetLine, attendancePct decimal.Decimal, asOf TimePoint) []AllocationRow {
	rows := make([]AllocationRow, 0, len(lines))
	buffer := totalConsumed.Value

	resumeSlot := Slot{Date: asOf.AddDays(1), Moment: Morning}

	for _, line := range lines {
		days := line.Days.Value
		row := AllocationRow{Line: line, Value: line.MonetaryValue()}

		switch {
		case buffer.GreaterThanOrEqual(days):
			row.State = StateCompleted
			row.Consumed = Amount{Value: days, Unit: UnitDays}
			row.Remaining = Days(0)
			row.Projection = Projection{Status: ProjectionCompleted}
			buffer = buffer.Sub(days)

		case buffer.GreaterThan(decimal.Zero):
			row.State = StateInProgress
			row.Consumed = Amount{Value: buffer, Unit: UnitDays}
			remaining := days.Sub(buffer)
			row.Remaining = Amount{Value: remaining, Unit: UnitDays}
			buffer = decimal.Zero
			// Work on this order continues from now, not from its nominal start.
			row.Projection = a.Projector.Project(resumeSlot, row.Remaining, attendancePct)

		default:
			row.State = StateFuture
			row.Consumed = Days(0)
			row.Remaining = line.Days
			start := resumeSlot
			if line.HasStart && line.Start.After(asOf) {
				start = Slot{Date: line.Start, Moment: line.StartMoment}
			}
			row.Projection = a.Projector.Project(start, line.Days, attendancePct)
		}

		rows = append(rows, row)
	}

	return rows
}

// SortBudgetLines orders lines ascending by start date. Lines with no
// start date sort last, matching the "9999-99-99" sentinel of the source
// records.
func SortBudgetLines(lines []BudgetLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return budgetLineSortKey(lines[i]) < budgetLineSortKey(lines[j])
	})
}

func budgetLineSortKey(l BudgetLine) string {
	if !l.HasStart {
		return "9999-99-99"
	}
	return l.Start.String()
}
