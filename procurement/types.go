// Package procurement implements contractor purchase-order tracking on top
// of the engine package: providers with their ordered day-budgets, the
// unit-price catalog, payments, and imported consumption records.
package procurement

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/procurement-engine/engine"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProviderID string

// =============================================================================
// PROVIDER - External contractor with ordered purchase orders
// =============================================================================

// Provider is a contracted team member. The engine only reads providers;
// creation and edits happen through the team management API.
type Provider struct {
	ID        ProviderID `json:"id"`
	Surname   string     `json:"surname"`
	GivenName string     `json:"given_name"`
	Company   string     `json:"company"`

	// AttendancePct is the fraction of a working day the provider is
	// actually present, in percent (0-100].
	AttendancePct decimal.Decimal `json:"attendance_pct"`

	Orders []PurchaseOrder `json:"orders"`
}

// DisplayName renders "SURNAME GivenName", the report convention.
func (p Provider) DisplayName() string {
	return strings.ToUpper(p.Surname) + " " + p.GivenName
}

// Validate checks the fields the engine depends on.
func (p Provider) Validate() error {
	if p.AttendancePct.LessThanOrEqual(decimal.Zero) || p.AttendancePct.GreaterThan(decimal.NewFromInt(100)) {
		return engine.ErrInvalidAttendanceRate
	}
	return nil
}

// Clone returns a deep copy. Stores and the payment ledger hand out
// snapshots; nothing in this package mutates a caller-owned Provider.
func (p Provider) Clone() Provider {
	out := p
	out.Orders = make([]PurchaseOrder, len(p.Orders))
	for i, o := range p.Orders {
		out.Orders[i] = o.Clone()
	}
	return out
}

// =============================================================================
// PURCHASE ORDER
// =============================================================================

// PurchaseOrder is one ordered day-budget for a provider, referenced in
// two external ticketing systems (CHORUS and IBIS).
type PurchaseOrder struct {
	ChorusRef string `json:"chorus_ref"`
	IbisRef   string `json:"ibis_ref"`

	OrderedDays engine.Amount `json:"ordered_days"`
	DailyRate   engine.Amount `json:"daily_rate"` // euros HT per day

	// StartDate is kept as the raw ISO string from data entry. Parsing is
	// lenient and happens at report time (malformed dates fall back to the
	// reference date rather than failing the whole report).
	StartDate   string        `json:"start_date"`
	StartMoment engine.Moment `json:"start_moment"`

	UnitOrders []UnitOrder `json:"unit_orders"`
	Payments   []Payment   `json:"payments"`
}

func (o PurchaseOrder) Clone() PurchaseOrder {
	out := o
	out.UnitOrders = append([]UnitOrder(nil), o.UnitOrders...)
	out.Payments = make([]Payment, len(o.Payments))
	for i, p := range o.Payments {
		out.Payments[i] = p.Clone()
	}
	return out
}

// sortKey treats a missing start date as far-future so undated orders
// sort last.
func (o PurchaseOrder) sortKey() string {
	if o.StartDate == "" {
		return "9999-99-99"
	}
	return o.StartDate
}

// SortOrders orders purchase orders chronologically by start date,
// undated orders last.
func SortOrders(orders []PurchaseOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].sortKey() < orders[j].sortKey()
	})
}

// TotalHT is the order's pre-tax monetary total derived from the catalog:
// the sum of catalog price x quantity over its unit orders. Unknown codes
// price at zero.
func (o PurchaseOrder) TotalHT(catalog Catalog) engine.Amount {
	total := decimal.Zero
	for _, u := range o.UnitOrders {
		price, _ := catalog.PriceFor(u.Code)
		total = total.Add(price.Value.Mul(u.Quantity))
	}
	return engine.Amount{Value: total, Unit: engine.UnitEuros}
}

// OrderedQuantity returns the ordered quantity for a unit code, zero when
// the code is not part of this order.
func (o PurchaseOrder) OrderedQuantity(code string) decimal.Decimal {
	total := decimal.Zero
	for _, u := range o.UnitOrders {
		if u.Code == code {
			total = total.Add(u.Quantity)
		}
	}
	return total
}

// =============================================================================
// UNIT ORDER - (code, quantity) against the priced catalog
// =============================================================================

type UnitOrder struct {
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// =============================================================================
// PAYMENT - Partial payment against an order
// =============================================================================

type PaymentKind string

const (
	PaymentUnit       PaymentKind = "unit"
	PaymentPercentage PaymentKind = "percentage"
)

// Payment records a partial payment. Payments are append-only: once
// accepted they are never deleted; only the external service-completion
// reference may be corrected after the fact.
type Payment struct {
	ID   string      `json:"id"`
	Kind PaymentKind `json:"kind"`

	RequestDate engine.TimePoint `json:"request_date"`

	// ServiceRef is the external service-completion reference. Correctable
	// without affecting monetary validation.
	ServiceRef string `json:"service_ref"`

	// Lines holds the (code, quantity) pairs for unit payments.
	Lines []UnitOrder `json:"lines,omitempty"`

	// Percentage of the order's total HT value, for percentage payments.
	Percentage decimal.Decimal `json:"percentage,omitempty"`
}

func (p Payment) Clone() Payment {
	out := p
	out.Lines = append([]UnitOrder(nil), p.Lines...)
	return out
}

// =============================================================================
// CATALOG - Unit code -> HT price, externally owned
// =============================================================================

// Catalog maps unit codes to pre-tax unit prices. The engine treats it as
// a read-only snapshot.
type Catalog struct {
	Prices map[string]engine.Amount `json:"prices"`

	// TaxRatePct converts HT to TTC (e.g. 20 for 20% VAT).
	TaxRatePct decimal.Decimal `json:"tax_rate_pct"`
}

// defaultTaxRatePct is the standard French VAT rate.
var defaultTaxRatePct = decimal.NewFromInt(20)

func NewCatalog() Catalog {
	return Catalog{Prices: make(map[string]engine.Amount), TaxRatePct: defaultTaxRatePct}
}

// PriceFor looks up a unit price. Unknown codes degrade to zero; the
// second return value lets callers log the miss.
func (c Catalog) PriceFor(code string) (engine.Amount, bool) {
	price, ok := c.Prices[code]
	if !ok {
		return engine.Euros(0), false
	}
	return price, true
}

func (c Catalog) Clone() Catalog {
	out := Catalog{Prices: make(map[string]engine.Amount, len(c.Prices)), TaxRatePct: c.TaxRatePct}
	for k, v := range c.Prices {
		out.Prices[k] = v
	}
	return out
}
