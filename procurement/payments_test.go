package procurement_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testCatalog() procurement.Catalog {
	c := procurement.NewCatalog()
	c.Prices["DEV"] = engine.Euros(500)
	c.Prices["OPS"] = engine.Euros(800)
	return c
}

func testOrder() procurement.PurchaseOrder {
	return procurement.PurchaseOrder{
		ChorusRef:   "BC-2026-001",
		IbisRef:     "IB-42",
		OrderedDays: engine.Days(20),
		DailyRate:   engine.Euros(500),
		StartDate:   "2026-01-05",
		StartMoment: engine.Morning,
		UnitOrders: []procurement.UnitOrder{
			{Code: "DEV", Quantity: decimal.NewFromInt(10)},
		},
	}
}

func newLedger() *procurement.PaymentLedger {
	return procurement.NewPaymentLedger(testCatalog(), zerolog.Nop())
}

func unitPayment(code string, qty float64) procurement.Payment {
	return procurement.Payment{
		Kind:  procurement.PaymentUnit,
		Lines: []procurement.UnitOrder{{Code: code, Quantity: decimal.NewFromFloat(qty)}},
	}
}

func pctPayment(pct float64) procurement.Payment {
	return procurement.Payment{
		Kind:       procurement.PaymentPercentage,
		Percentage: decimal.NewFromFloat(pct),
	}
}

// =============================================================================
// UNIT PAYMENT CAP
// =============================================================================

func TestRecord_UnitPayment_WithinCap_Accepted(t *testing.T) {
	// GIVEN: An order with 10 units of DEV
	// WHEN: Paying 6 units
	// THEN: Accepted, appended, ID assigned

	ledger := newLedger()

	updated, err := ledger.Record(testOrder(), unitPayment("DEV", 6))
	require.NoError(t, err)
	require.Len(t, updated.Payments, 1)
	assert.NotEmpty(t, updated.Payments[0].ID)
}

func TestRecord_UnitPayment_ExceedsOrderedQuantity_Rejected(t *testing.T) {
	// GIVEN: 6 of 10 DEV units already paid
	// WHEN: Paying 5 more
	// THEN: Rejected (strict cap, no tolerance), order unchanged

	ledger := newLedger()
	order, err := ledger.Record(testOrder(), unitPayment("DEV", 6))
	require.NoError(t, err)

	rejected, err := ledger.Record(order, unitPayment("DEV", 5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrOverpaymentRejected))

	var overErr *procurement.OverpaymentError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, "DEV", overErr.Code)

	// Rejection leaves the order untouched
	assert.Len(t, rejected.Payments, 1)
}

func TestRecord_UnitPayment_ExactRemainder_Accepted(t *testing.T) {
	// GIVEN: 6 of 10 paid
	// WHEN: Paying exactly the remaining 4
	// THEN: Accepted

	ledger := newLedger()
	order, err := ledger.Record(testOrder(), unitPayment("DEV", 6))
	require.NoError(t, err)

	updated, err := ledger.Record(order, unitPayment("DEV", 4))
	require.NoError(t, err)
	assert.Len(t, updated.Payments, 2)
}

func TestRecord_UnitPayment_RepeatedCodeAggregatedAcrossLines(t *testing.T) {
	// GIVEN: An order with 10 DEV units and nothing paid
	// WHEN: One payment carries two DEV lines of 6 each
	// THEN: Rejected on the 12-unit aggregate, not accepted line by line

	ledger := newLedger()
	payment := procurement.Payment{
		Kind: procurement.PaymentUnit,
		Lines: []procurement.UnitOrder{
			{Code: "DEV", Quantity: decimal.NewFromInt(6)},
			{Code: "DEV", Quantity: decimal.NewFromInt(6)},
		},
	}

	rejected, err := ledger.Record(testOrder(), payment)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrOverpaymentRejected))

	var overErr *procurement.OverpaymentError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, "DEV", overErr.Code)
	assert.True(t, overErr.Requested.Equal(decimal.NewFromInt(12)))

	assert.Empty(t, rejected.Payments)
}

func TestRecord_UnitPayment_MixedCodesInOnePayment(t *testing.T) {
	// GIVEN: An order with 10 DEV and 2 OPS units
	// WHEN: One payment pays 4 DEV and 2 OPS
	// THEN: Each code is capped independently and the whole payment lands

	order := testOrder()
	order.UnitOrders = append(order.UnitOrders, procurement.UnitOrder{
		Code: "OPS", Quantity: decimal.NewFromInt(2),
	})

	ledger := newLedger()
	updated, err := ledger.Record(order, procurement.Payment{
		Kind: procurement.PaymentUnit,
		Lines: []procurement.UnitOrder{
			{Code: "DEV", Quantity: decimal.NewFromInt(4)},
			{Code: "OPS", Quantity: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Payments, 1)

	// One code over its cap sinks the whole submission, valid lines included
	_, err = ledger.Record(updated, procurement.Payment{
		Kind: procurement.PaymentUnit,
		Lines: []procurement.UnitOrder{
			{Code: "DEV", Quantity: decimal.NewFromInt(1)},
			{Code: "OPS", Quantity: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrOverpaymentRejected))
}

func TestRecord_UnitPayment_UnorderedCode_Rejected(t *testing.T) {
	// GIVEN: An order with no OPS units
	// WHEN: Paying 1 OPS unit
	// THEN: Rejected (ordered quantity is zero)

	ledger := newLedger()

	_, err := ledger.Record(testOrder(), unitPayment("OPS", 1))
	assert.True(t, errors.Is(err, engine.ErrOverpaymentRejected))
}

// =============================================================================
// PERCENTAGE PAYMENT CAP
// =============================================================================

func TestRecord_PercentagePayments_SumOverCap_Rejected(t *testing.T) {
	// GIVEN: 60% already paid
	// WHEN: Paying 41% more
	// THEN: Rejected, only the 60% stands

	ledger := newLedger()
	order, err := ledger.Record(testOrder(), pctPayment(60))
	require.NoError(t, err)

	rejected, err := ledger.Record(order, pctPayment(41))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrOverpaymentRejected))
	assert.Len(t, rejected.Payments, 1)
}

func TestRecord_PercentagePayments_ToleranceAbsorbs100Point05(t *testing.T) {
	// GIVEN: 60% already paid
	// WHEN: Paying 40.05% (sum 100.05, within the 0.1 tolerance)
	// THEN: Accepted

	ledger := newLedger()
	order, err := ledger.Record(testOrder(), pctPayment(60))
	require.NoError(t, err)

	updated, err := ledger.Record(order, pctPayment(40.05))
	require.NoError(t, err)
	assert.Len(t, updated.Payments, 2)
}

func TestRecord_UnknownKind_Rejected(t *testing.T) {
	ledger := newLedger()
	_, err := ledger.Record(testOrder(), procurement.Payment{Kind: "bonus"})
	assert.Error(t, err)
}

// =============================================================================
// DERIVED TOTALS
// =============================================================================

func TestPaidTotals_UnitAndPercentageMix(t *testing.T) {
	// GIVEN: Order worth 10 x 500 = 5000 HT; 6 units paid plus 10%
	// WHEN: Deriving totals at 20% VAT
	// THEN: paid HT 3500, paid TTC 4200, remaining HT 1500

	ledger := newLedger()
	order, err := ledger.Record(testOrder(), unitPayment("DEV", 6))
	require.NoError(t, err)
	order, err = ledger.Record(order, pctPayment(10))
	require.NoError(t, err)

	assert.InDelta(t, 5000, order.TotalHT(ledger.Catalog).Float64(), 0.0001)
	assert.InDelta(t, 3500, ledger.PaidHT(order).Float64(), 0.0001)
	assert.InDelta(t, 4200, ledger.PaidTTC(order).Float64(), 0.0001)
	assert.InDelta(t, 1500, ledger.RemainingHT(order).Float64(), 0.0001)
	assert.InDelta(t, 1800, ledger.RemainingTTC(order).Float64(), 0.0001)
}

func TestPaidHT_UnknownCatalogCode_PricesAtZero(t *testing.T) {
	// GIVEN: A recorded payment whose code has since left the catalog
	// WHEN: Deriving paid HT
	// THEN: The unknown line contributes zero instead of failing

	order := testOrder()
	order.Payments = []procurement.Payment{unitPayment("GONE", 3)}

	ledger := newLedger()
	assert.InDelta(t, 0, ledger.PaidHT(order).Float64(), 0.0001)
}

func TestRemainingHT_NeverNegative(t *testing.T) {
	// GIVEN: Percentage payments at the tolerance edge (100.05%)
	// WHEN: Deriving remaining HT
	// THEN: Clamped at zero

	ledger := newLedger()
	order, err := ledger.Record(testOrder(), pctPayment(60))
	require.NoError(t, err)
	order, err = ledger.Record(order, pctPayment(40.05))
	require.NoError(t, err)

	assert.InDelta(t, 0, ledger.RemainingHT(order).Float64(), 0.0001)
}

// =============================================================================
// SERVICE REFERENCE CORRECTION
// =============================================================================

func TestAmendServiceRef_UpdatesOnlyTheReference(t *testing.T) {
	ledger := newLedger()
	order, err := ledger.Record(testOrder(), unitPayment("DEV", 6))
	require.NoError(t, err)

	paidBefore := ledger.PaidHT(order)

	updated, err := ledger.AmendServiceRef(order, 0, "SF-2026-0099")
	require.NoError(t, err)
	assert.Equal(t, "SF-2026-0099", updated.Payments[0].ServiceRef)
	assert.True(t, ledger.PaidHT(updated).Value.Equal(paidBefore.Value))
}

func TestAmendServiceRef_IndexOutOfRange(t *testing.T) {
	ledger := newLedger()

	_, err := ledger.AmendServiceRef(testOrder(), 3, "SF-1")
	assert.True(t, errors.Is(err, engine.ErrOrderIndexOutOfRange))
	assert.True(t, engine.IsClientError(err))
}
