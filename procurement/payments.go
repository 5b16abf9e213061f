/*
payments.go - Payment validation and application

PURPOSE:
  Validates partial payments against an order's monetary value and applies
  them without ever permitting overpayment. The ledger is the only writer
  of an order's payment list.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: accepted payments are never deleted. Corrections are
     limited to the external service-completion reference.
  2. ATOMIC: a payment is validated in full before any mutation. A
     rejection leaves the order snapshot byte-for-byte unchanged.
  3. For every unit code: paid quantity <= ordered quantity. Strict, no
     tolerance, the whole submission stands or falls together.
  4. Percentage payments: the running sum never exceeds 100% (tolerance
     0.1 to absorb rounding in data entry).

DERIVED MONEY:
  Paid-TTC is always derived as paidHT x (1 + taxRate/100) and never
  stored. Remaining-to-pay is clamped at zero.

EXAMPLE:
  ledger := NewPaymentLedger(catalog, log)
  updated, err := ledger.Record(order, payment)
  if errors.Is(err, engine.ErrOverpaymentRejected) {
      // order unchanged, reject the submission upstream
  }

SEE ALSO:
  - types.go: Payment, UnitOrder, Catalog
  - engine/errors.go: ErrOverpaymentRejected sentinel
*/
package procurement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/procurement-engine/engine"
)

// percentTolerance absorbs rounding on percentage payments: the running
// sum may exceed 100 by at most this much.
var percentTolerance = decimal.NewFromFloat(0.1)

var hundred = decimal.NewFromInt(100)

// PaymentLedger validates and applies payments against purchase orders.
type PaymentLedger struct {
	Catalog Catalog
	Log     zerolog.Logger
}

func NewPaymentLedger(catalog Catalog, log zerolog.Logger) *PaymentLedger {
	return &PaymentLedger{Catalog: catalog, Log: log}
}

// Record validates payment against order and returns a new order snapshot
// with the payment appended. On rejection the input order is returned
// unchanged alongside an error unwrapping to engine.ErrOverpaymentRejected.
func (l *PaymentLedger) Record(order PurchaseOrder, payment Payment) (PurchaseOrder, error) {
	switch payment.Kind {
	case PaymentUnit:
		if err := l.validateUnitPayment(order, payment); err != nil {
			return order, err
		}
	case PaymentPercentage:
		if err := l.validatePercentagePayment(order, payment); err != nil {
			return order, err
		}
	default:
		return order, fmt.Errorf("unknown payment kind %q", payment.Kind)
	}

	accepted := payment.Clone()
	if accepted.ID == "" {
		accepted.ID = uuid.NewString()
	}

	updated := order.Clone()
	updated.Payments = append(updated.Payments, accepted)
	return updated, nil
}

// AmendServiceRef corrects the external service-completion reference of
// an existing payment. The correction has no monetary effect.
func (l *PaymentLedger) AmendServiceRef(order PurchaseOrder, paymentIndex int, serviceRef string) (PurchaseOrder, error) {
	if paymentIndex < 0 || paymentIndex >= len(order.Payments) {
		return order, fmt.Errorf("payment %d: %w", paymentIndex, engine.ErrOrderIndexOutOfRange)
	}
	updated := order.Clone()
	updated.Payments[paymentIndex].ServiceRef = serviceRef
	return updated, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

func (l *PaymentLedger) validateUnitPayment(order PurchaseOrder, payment Payment) error {
	// A submission may repeat a code across lines; the cap applies to the
	// aggregated quantity, not to each line in isolation.
	requested := make(map[string]decimal.Decimal)
	for _, line := range payment.Lines {
		requested[line.Code] = requested[line.Code].Add(line.Quantity)
	}

	for _, line := range payment.Lines {
		total, pending := requested[line.Code]
		if !pending {
			continue
		}
		delete(requested, line.Code)

		ordered := order.OrderedQuantity(line.Code)
		alreadyPaid := paidQuantity(order.Payments, line.Code)
		if alreadyPaid.Add(total).GreaterThan(ordered) {
			return &OverpaymentError{
				OrderRef:    order.ChorusRef,
				Code:        line.Code,
				Ordered:     ordered,
				AlreadyPaid: alreadyPaid,
				Requested:   total,
			}
		}
	}
	return nil
}

func (l *PaymentLedger) validatePercentagePayment(order PurchaseOrder, payment Payment) error {
	prior := paidPercentage(order.Payments)
	if prior.Add(payment.Percentage).GreaterThan(hundred.Add(percentTolerance)) {
		return &OverpaymentError{
			OrderRef:         order.ChorusRef,
			PriorPercentage:  prior,
			Percentage:       payment.Percentage,
			PercentageExceed: true,
		}
	}
	return nil
}

func paidQuantity(payments []Payment, code string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Kind != PaymentUnit {
			continue
		}
		for _, line := range p.Lines {
			if line.Code == code {
				total = total.Add(line.Quantity)
			}
		}
	}
	return total
}

func paidPercentage(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Kind == PaymentPercentage {
			total = total.Add(p.Percentage)
		}
	}
	return total
}

// =============================================================================
// DERIVED TOTALS
// =============================================================================

// PaidHT sums the accepted payments of an order at catalog prices: unit
// payments at price x quantity, percentage payments as a share of the
// order's total HT. Unknown catalog codes price at zero and are logged.
func (l *PaymentLedger) PaidHT(order PurchaseOrder) engine.Amount {
	totalHT := order.TotalHT(l.Catalog)
	paid := decimal.Zero
	for _, p := range order.Payments {
		switch p.Kind {
		case PaymentUnit:
			for _, line := range p.Lines {
				price, known := l.Catalog.PriceFor(line.Code)
				if !known {
					l.Log.Warn().
						Str("order", order.ChorusRef).
						Str("code", line.Code).
						Msg("unknown catalog code priced at zero")
				}
				paid = paid.Add(price.Value.Mul(line.Quantity))
			}
		case PaymentPercentage:
			paid = paid.Add(p.Percentage.Div(hundred).Mul(totalHT.Value))
		}
	}
	return engine.Amount{Value: paid, Unit: engine.UnitEuros}
}

// PaidTTC derives the tax-inclusive paid total from PaidHT. Never stored.
func (l *PaymentLedger) PaidTTC(order PurchaseOrder) engine.Amount {
	factor := decimal.NewFromInt(1).Add(l.Catalog.TaxRatePct.Div(hundred))
	return engine.Amount{Value: l.PaidHT(order).Value.Mul(factor), Unit: engine.UnitEuros}
}

// RemainingHT is max(0, totalHT - paidHT).
func (l *PaymentLedger) RemainingHT(order PurchaseOrder) engine.Amount {
	remaining := order.TotalHT(l.Catalog).Value.Sub(l.PaidHT(order).Value)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return engine.Amount{Value: remaining, Unit: engine.UnitEuros}
}

// RemainingTTC is the tax-inclusive counterpart of RemainingHT.
func (l *PaymentLedger) RemainingTTC(order PurchaseOrder) engine.Amount {
	factor := decimal.NewFromInt(1).Add(l.Catalog.TaxRatePct.Div(hundred))
	return engine.Amount{Value: l.RemainingHT(order).Value.Mul(factor), Unit: engine.UnitEuros}
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// OverpaymentError carries the details of a rejected payment.
type OverpaymentError struct {
	OrderRef string

	// Unit-quantity rejection
	Code        string
	Ordered     decimal.Decimal
	AlreadyPaid decimal.Decimal
	Requested   decimal.Decimal

	// Percentage rejection
	PercentageExceed bool
	PriorPercentage  decimal.Decimal
	Percentage       decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	if e.PercentageExceed {
		return fmt.Sprintf("overpayment on order %s: %s%% already paid, %s%% requested (cap 100%%)",
			e.OrderRef, e.PriorPercentage, e.Percentage)
	}
	return fmt.Sprintf("overpayment on order %s: code %s ordered %s, already paid %s, requested %s",
		e.OrderRef, e.Code, e.Ordered, e.AlreadyPaid, e.Requested)
}

func (e *OverpaymentError) Unwrap() error { return engine.ErrOverpaymentRejected }
