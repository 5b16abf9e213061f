/*
Package engine provides the consumption allocation and projection core.

PURPOSE:
  This package contains the domain-agnostic algorithms for tracking how
  contracted day-budgets are consumed over time: a business calendar,
  half-day exhaustion projection, chronological bucket allocation across
  ordered budgets, and monthly cost distribution.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 12.5 days, 500 euros)
  - BudgetLine: The neutral shape of an ordered day-budget the allocator
    and cost distributor operate on

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Snapshots in, snapshots out: no function mutates caller-owned state
  3. Explicit accumulators: allocation is a fold over sorted lines, not a
     loop mutating external counters

SEE ALSO:
  - calendar.go: Working-day determination with holiday caching
  - projection.go: Half-day exhaustion simulation
  - allocation.go: Chronological bucket allocation
  - costcurve.go: Month-by-month cost distribution
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal `json:"value"`
	Unit  Unit            `json:"unit"`
}

type Unit string

const (
	UnitDays  Unit = "days"
	UnitEuros Unit = "euros"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// Days is shorthand for a day-count amount.
func Days(value float64) Amount { return NewAmount(value, UnitDays) }

// Euros is shorthand for a monetary amount (HT unless stated otherwise).
func Euros(value float64) Amount { return NewAmount(value, UnitEuros) }

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Float64 returns the value as a float64 for display layers.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

// epsilonDays is the tolerance used by the projector and the cost
// distributor when deciding whether a day-count is exhausted.
var epsilonDays = decimal.NewFromFloat(0.0001)

// =============================================================================
// BUDGET LINE - Neutral order shape consumed by the allocator
// =============================================================================

// BudgetLine is the engine-side view of a purchase order: a day-budget
// with a daily rate and an optional start slot. The domain layer converts
// its richer order records into BudgetLines before calling the allocator
// or the cost distributor.
type BudgetLine struct {
	// Ref identifies the line in allocator and distributor output.
	Ref string

	// Days is the ordered day-budget (non-negative).
	Days Amount

	// Rate is the daily rate in currency units (HT).
	Rate Amount

	// Start is the nominal start date. Only meaningful when HasStart.
	Start       TimePoint
	StartMoment Moment
	HasStart    bool
}

// MonetaryValue returns the line's total value (day-budget x daily rate).
func (l BudgetLine) MonetaryValue() Amount {
	return Amount{Value: l.Days.Value.Mul(l.Rate.Value), Unit: UnitEuros}
}
