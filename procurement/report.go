/*
report.go - Team consumption report

PURPOSE:
  Produces the per-order report rows: for each provider, their orders in
  chronological sequence with state (Completed / InProgress / Future),
  consumed and remaining days, monetary value and projected completion.
  This is the domain face of engine.OrderAllocator.

LENIENT DATES:
  Order start dates are raw strings from data entry. A malformed date
  falls back to the analysis reference date so one bad record cannot
  block reporting for the whole team; the row carries DateFallback so
  callers can surface the problem instead of hiding it.

SEE ALSO:
  - engine/allocation.go: The bucket rule
  - consumption.go: Where totals come from
*/
package procurement

import (
	"github.com/rs/zerolog"

	"github.com/warp/procurement-engine/engine"
)

// ReportRow is one (provider, order) line of the consumption report.
type ReportRow struct {
	ProviderID   ProviderID
	ProviderName string
	Company      string

	ChorusRef string
	IbisRef   string

	State         engine.OrderState
	OrderedDays   engine.Amount
	ConsumedDays  engine.Amount
	RemainingDays engine.Amount
	DailyRate     engine.Amount

	// ValueKEuros is the order's monetary value in thousands of euros HT,
	// the unit the report is published in.
	ValueKEuros engine.Amount

	StartDate    engine.TimePoint
	StartMoment  engine.Moment
	DateFallback bool

	Projection engine.Projection

	UnitOrders []UnitOrder
}

// ReportBuilder assembles report rows for providers and whole teams.
type ReportBuilder struct {
	Allocator *engine.OrderAllocator
	Log       zerolog.Logger
}

func NewReportBuilder(calendar engine.WorkingCalendar, log zerolog.Logger) *ReportBuilder {
	return &ReportBuilder{Allocator: engine.NewOrderAllocator(calendar), Log: log}
}

// ProviderRows builds the rows for a single provider given their total
// consumed days and the analysis reference date.
func (b *ReportBuilder) ProviderRows(p Provider, totalConsumed engine.Amount, asOf engine.TimePoint) []ReportRow {
	orders := append([]PurchaseOrder(nil), p.Orders...)
	SortOrders(orders)

	lines := make([]engine.BudgetLine, len(orders))
	fallbacks := make([]bool, len(orders))
	for i, o := range orders {
		lines[i], fallbacks[i] = b.toBudgetLine(p, o, asOf)
	}

	allocated := b.Allocator.Allocate(totalConsumed, lines, p.AttendancePct, asOf)

	rows := make([]ReportRow, len(allocated))
	for i, ar := range allocated {
		o := orders[i]
		rows[i] = ReportRow{
			ProviderID:    p.ID,
			ProviderName:  p.DisplayName(),
			Company:       p.Company,
			ChorusRef:     o.ChorusRef,
			IbisRef:       o.IbisRef,
			State:         ar.State,
			OrderedDays:   o.OrderedDays,
			ConsumedDays:  ar.Consumed,
			RemainingDays: ar.Remaining,
			DailyRate:     o.DailyRate,
			ValueKEuros:   ar.Value.Div(engine.MustParseDecimal("1000")),
			StartDate:     ar.Line.Start,
			StartMoment:   ar.Line.StartMoment,
			DateFallback:  fallbacks[i],
			Projection:    ar.Projection,
			UnitOrders:    append([]UnitOrder(nil), o.UnitOrders...),
		}
	}
	return rows
}

// TeamRows builds the report for a whole team. Consumption is joined by
// provider ID only; name-based matching belongs to the ingestion layer.
func (b *ReportBuilder) TeamRows(team []Provider, consumption ConsumptionByProvider, asOf engine.TimePoint) []ReportRow {
	var rows []ReportRow
	for _, p := range team {
		total := engine.Days(0)
		if history, ok := consumption[p.ID]; ok {
			total = history.Total()
		}
		rows = append(rows, b.ProviderRows(p, total, asOf)...)
	}
	return rows
}

// toBudgetLine converts an order, parsing its start date leniently. A
// missing date yields HasStart=false (sorts last, projects from the
// reference date); a malformed one falls back to asOf with a warning.
func (b *ReportBuilder) toBudgetLine(p Provider, o PurchaseOrder, asOf engine.TimePoint) (engine.BudgetLine, bool) {
	line := engine.BudgetLine{
		Ref:         o.ChorusRef,
		Days:        o.OrderedDays,
		Rate:        o.DailyRate,
		StartMoment: o.StartMoment,
	}
	if !line.StartMoment.Valid() {
		line.StartMoment = engine.Morning
	}

	fallback := false
	if o.StartDate != "" {
		start, ok := engine.ParseDateOr(o.StartDate, asOf)
		line.Start = start
		line.HasStart = ok
		if !ok {
			fallback = true
			b.Log.Warn().
				Str("provider", string(p.ID)).
				Str("order", o.ChorusRef).
				Str("start_date", o.StartDate).
				Msg("unparseable order start date, falling back to reference date")
		}
	}
	return line, fallback
}
