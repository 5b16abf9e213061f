/*
costcurve.go - Month-by-month cost distribution

PURPOSE:
  Converts per-month consumed-day counts into per-month costs by pricing
  each consumed day at the rate of the order it falls into. The walk is
  cumulative across the provider's entire history: a single monotonic
  cursor tracks how many days have been distributed so far, independent of
  month boundaries, so a month's consumption can straddle two orders.

THE CURSOR RULE:
  Orders define contiguous capacity ranges on the day axis:

    order 1: [0, d1)    order 2: [d1, d1+d2)    ...

  For each month (ascending), days are taken from the order whose range
  contains the cursor, at that order's rate, until the month is exhausted.
  The lower bound is inclusive; the upper bound carries an epsilon
  tolerance so a cursor sitting within epsilon of an order's end moves on
  to the next order.

OVERRUN:
  Days beyond the last order's capacity are priced at the LAST order's
  rate: unbudgeted overrun billed at the last known rate.

ORDERING:
  Months MUST be processed chronologically because the cursor is shared
  and monotonic. Distribute sorts its input to enforce this.

SEE ALSO:
  - allocation.go: The same chronological bucket rule, per-order states
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthConsumption is one month's consumed-day count.
type MonthConsumption struct {
	Period PeriodKey
	Days   Amount
}

// MonthCost is the cost attributable to one month, broken down by order.
type MonthCost struct {
	Period  PeriodKey
	ByOrder map[string]Amount // line ref -> euros
	Total   Amount
}

// CostCurve is a provider's chronological month -> cost series.
type CostCurve struct {
	Months []MonthCost
}

// TotalFor returns the total for a period, zero if absent.
func (c CostCurve) TotalFor(period PeriodKey) Amount {
	for _, m := range c.Months {
		if m.Period == period {
			return m.Total
		}
	}
	return Euros(0)
}

// MonthlyCostDistributor walks monthly consumption across order capacity.
type MonthlyCostDistributor struct{}

// Distribute prices each month's consumed days against the sorted lines
// and returns the resulting cost curve. Months are processed in ascending
// order; the input slices are not modified.
func (d *MonthlyCostDistributor) Distribute(months []MonthConsumption, lines []BudgetLine) CostCurve {
	sorted := make([]MonthConsumption, len(months))
	copy(sorted, months)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period.Before(sorted[j].Period) })

	// Cumulative lower bound of each line's capacity range.
	lowers := make([]decimal.Decimal, len(lines))
	cumulative := decimal.Zero
	for i, line := range lines {
		lowers[i] = cumulative
		cumulative = cumulative.Add(line.Days.Value)
	}

	curve := CostCurve{Months: make([]MonthCost, 0, len(sorted))}
	cursor := decimal.Zero // days distributed across the whole history

	for _, month := range sorted {
		mc := MonthCost{Period: month.Period, ByOrder: make(map[string]Amount), Total: Euros(0)}
		toDistribute := month.Days.Value

		for toDistribute.GreaterThan(epsilonDays) {
			idx := findCoveringLine(lowers, lines, cursor)
			if idx < 0 {
				// All orders exhausted: overrun priced at the last known rate.
				if len(lines) == 0 {
					break
				}
				last := lines[len(lines)-1]
				cost := toDistribute.Mul(last.Rate.Value)
				mc.accrue(last.Ref, cost)
				cursor = cursor.Add(toDistribute)
				toDistribute = decimal.Zero
				break
			}

			line := lines[idx]
			capacity := lowers[idx].Add(line.Days.Value).Sub(cursor)
			portion := toDistribute
			if capacity.LessThan(portion) {
				portion = capacity
			}

			mc.accrue(line.Ref, portion.Mul(line.Rate.Value))
			cursor = cursor.Add(portion)
			toDistribute = toDistribute.Sub(portion)
		}

		curve.Months = append(curve.Months, mc)
	}

	return curve
}

// findCoveringLine returns the first line whose capacity range contains
// the cursor: lower inclusive, upper bound with epsilon tolerance.
func findCoveringLine(lowers []decimal.Decimal, lines []BudgetLine, cursor decimal.Decimal) int {
	for i, line := range lines {
		upper := lowers[i].Add(line.Days.Value)
		if cursor.GreaterThanOrEqual(lowers[i]) && cursor.LessThan(upper.Sub(epsilonDays)) {
			return i
		}
	}
	return -1
}

func (mc *MonthCost) accrue(ref string, cost decimal.Decimal) {
	prev := mc.ByOrder[ref]
	if prev.Unit == "" {
		prev = Euros(0)
	}
	mc.ByOrder[ref] = Amount{Value: prev.Value.Add(cost), Unit: UnitEuros}
	mc.Total = Amount{Value: mc.Total.Value.Add(cost), Unit: UnitEuros}
}
