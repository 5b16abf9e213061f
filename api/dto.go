/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND DAYS:
  The domain computes on decimals; DTOs carry float64 for display. The
  conversion happens at this boundary only.

SEE ALSO:
  - handlers.go: Uses these types
  - procurement/types.go: Domain model
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProviderDTO represents a contractor in API responses.
type ProviderDTO struct {
	ID            string     `json:"id"`
	Surname       string     `json:"surname"`
	GivenName     string     `json:"given_name"`
	Company       string     `json:"company,omitempty"`
	AttendancePct float64    `json:"attendance_pct"`
	Orders        []OrderDTO `json:"orders"`
}

// OrderDTO represents a purchase order.
type OrderDTO struct {
	ChorusRef   string         `json:"chorus_ref"`
	IbisRef     string         `json:"ibis_ref,omitempty"`
	OrderedDays float64        `json:"ordered_days"`
	DailyRate   float64        `json:"daily_rate"`
	StartDate   string         `json:"start_date,omitempty"`
	StartMoment string         `json:"start_moment,omitempty"`
	UnitOrders  []UnitOrderDTO `json:"unit_orders,omitempty"`
	Payments    []PaymentDTO   `json:"payments,omitempty"`
}

// UnitOrderDTO is a catalog line on an order or a payment.
type UnitOrderDTO struct {
	Code     string  `json:"code"`
	Quantity float64 `json:"quantity"`
}

// PaymentDTO represents a recorded payment.
type PaymentDTO struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	RequestDate string         `json:"request_date,omitempty"`
	ServiceRef  string         `json:"service_ref,omitempty"`
	Lines       []UnitOrderDTO `json:"lines,omitempty"`
	Percentage  float64        `json:"percentage,omitempty"`
}

// PaymentStatusDTO summarizes how much of an order has been paid.
type PaymentStatusDTO struct {
	OrderRef     string  `json:"order_ref"`
	TotalHT      float64 `json:"total_ht"`
	PaidHT       float64 `json:"paid_ht"`
	PaidTTC      float64 `json:"paid_ttc"`
	RemainingHT  float64 `json:"remaining_ht"`
	RemainingTTC float64 `json:"remaining_ttc"`
}

// RecordPaymentRequest is the request to record a payment on an order.
type RecordPaymentRequest struct {
	Kind        string         `json:"kind"`
	RequestDate string         `json:"request_date,omitempty"`
	ServiceRef  string         `json:"service_ref,omitempty"`
	Lines       []UnitOrderDTO `json:"lines,omitempty"`
	Percentage  float64        `json:"percentage,omitempty"`
}

// AmendServiceRefRequest corrects a payment's service-completion reference.
type AmendServiceRefRequest struct {
	ServiceRef string `json:"service_ref"`
}

// ReportRowDTO is one line of the consumption report.
type ReportRowDTO struct {
	ProviderID       string  `json:"provider_id"`
	ProviderName     string  `json:"provider_name"`
	Company          string  `json:"company,omitempty"`
	ChorusRef        string  `json:"chorus_ref"`
	IbisRef          string  `json:"ibis_ref,omitempty"`
	State            string  `json:"state"`
	OrderedDays      float64 `json:"ordered_days"`
	ConsumedDays     float64 `json:"consumed_days"`
	RemainingDays    float64 `json:"remaining_days"`
	DailyRate        float64 `json:"daily_rate"`
	ValueKEuros      float64 `json:"value_keuros"`
	StartDate        string  `json:"start_date,omitempty"`
	StartMoment      string  `json:"start_moment,omitempty"`
	DateFallback     bool    `json:"date_fallback,omitempty"`
	Projection       string  `json:"projection"`
	ProjectionCapped bool    `json:"projection_capped,omitempty"`
}

// MonthCostDTO is one month of a provider's cost curve.
type MonthCostDTO struct {
	Period  string             `json:"period"`
	ByOrder map[string]float64 `json:"by_order"`
	Total   float64            `json:"total"`
}

// GlobalCostDTO is one month of team-wide cost.
type GlobalCostDTO struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
}

// TeamCostsDTO wraps per-provider curves and the team aggregate.
type TeamCostsDTO struct {
	Providers map[string][]MonthCostDTO `json:"providers"`
	Global    []GlobalCostDTO           `json:"global"`
}

// CatalogDTO represents the unit-price catalog.
type CatalogDTO struct {
	Prices     map[string]float64 `json:"prices"`
	TaxRatePct float64            `json:"tax_rate_pct"`
}

// HistoryDTO is a provider's consumption keyed by period string.
type HistoryDTO struct {
	Periods map[string]float64 `json:"periods"`
	Total   float64            `json:"total"`
}

// ImportResultDTO reports what a workbook import changed.
type ImportResultDTO struct {
	Cutoff           string   `json:"cutoff"`
	ProvidersUpdated []string `json:"providers_updated"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProviderDTO(p procurement.Provider) ProviderDTO {
	pct, _ := p.AttendancePct.Float64()
	orders := make([]OrderDTO, len(p.Orders))
	for i, o := range p.Orders {
		orders[i] = toOrderDTO(o)
	}
	return ProviderDTO{
		ID:            string(p.ID),
		Surname:       p.Surname,
		GivenName:     p.GivenName,
		Company:       p.Company,
		AttendancePct: pct,
		Orders:        orders,
	}
}

func toOrderDTO(o procurement.PurchaseOrder) OrderDTO {
	units := make([]UnitOrderDTO, len(o.UnitOrders))
	for i, u := range o.UnitOrders {
		units[i] = toUnitOrderDTO(u)
	}
	payments := make([]PaymentDTO, len(o.Payments))
	for i, p := range o.Payments {
		payments[i] = toPaymentDTO(p)
	}
	return OrderDTO{
		ChorusRef:   o.ChorusRef,
		IbisRef:     o.IbisRef,
		OrderedDays: o.OrderedDays.Float64(),
		DailyRate:   o.DailyRate.Float64(),
		StartDate:   o.StartDate,
		StartMoment: string(o.StartMoment),
		UnitOrders:  units,
		Payments:    payments,
	}
}

func toUnitOrderDTO(u procurement.UnitOrder) UnitOrderDTO {
	qty, _ := u.Quantity.Float64()
	return UnitOrderDTO{Code: u.Code, Quantity: qty}
}

func toPaymentDTO(p procurement.Payment) PaymentDTO {
	lines := make([]UnitOrderDTO, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = toUnitOrderDTO(l)
	}
	pct, _ := p.Percentage.Float64()
	dto := PaymentDTO{
		ID:         p.ID,
		Kind:       string(p.Kind),
		ServiceRef: p.ServiceRef,
		Lines:      lines,
		Percentage: pct,
	}
	if !p.RequestDate.IsZero() {
		dto.RequestDate = p.RequestDate.String()
	}
	return dto
}

func fromProviderDTO(dto ProviderDTO) procurement.Provider {
	orders := make([]procurement.PurchaseOrder, len(dto.Orders))
	for i, o := range dto.Orders {
		orders[i] = fromOrderDTO(o)
	}
	return procurement.Provider{
		ID:            procurement.ProviderID(dto.ID),
		Surname:       dto.Surname,
		GivenName:     dto.GivenName,
		Company:       dto.Company,
		AttendancePct: decimal.NewFromFloat(dto.AttendancePct),
		Orders:        orders,
	}
}

func fromOrderDTO(dto OrderDTO) procurement.PurchaseOrder {
	units := make([]procurement.UnitOrder, len(dto.UnitOrders))
	for i, u := range dto.UnitOrders {
		units[i] = fromUnitOrderDTO(u)
	}
	payments := make([]procurement.Payment, len(dto.Payments))
	for i, p := range dto.Payments {
		payments[i] = fromPaymentDTO(p)
	}
	return procurement.PurchaseOrder{
		ChorusRef:   dto.ChorusRef,
		IbisRef:     dto.IbisRef,
		OrderedDays: engine.Amount{Value: decimal.NewFromFloat(dto.OrderedDays), Unit: engine.UnitDays},
		DailyRate:   engine.Amount{Value: decimal.NewFromFloat(dto.DailyRate), Unit: engine.UnitEuros},
		StartDate:   dto.StartDate,
		StartMoment: engine.ParseMoment(dto.StartMoment),
		UnitOrders:  units,
		Payments:    payments,
	}
}

func fromUnitOrderDTO(dto UnitOrderDTO) procurement.UnitOrder {
	return procurement.UnitOrder{Code: dto.Code, Quantity: decimal.NewFromFloat(dto.Quantity)}
}

func fromPaymentDTO(dto PaymentDTO) procurement.Payment {
	lines := make([]procurement.UnitOrder, len(dto.Lines))
	for i, l := range dto.Lines {
		lines[i] = fromUnitOrderDTO(l)
	}
	requestDate, _ := engine.ParseDateOr(dto.RequestDate, engine.TimePoint{})
	return procurement.Payment{
		ID:          dto.ID,
		Kind:        procurement.PaymentKind(dto.Kind),
		RequestDate: requestDate,
		ServiceRef:  dto.ServiceRef,
		Lines:       lines,
		Percentage:  decimal.NewFromFloat(dto.Percentage),
	}
}

func toReportRowDTO(row procurement.ReportRow) ReportRowDTO {
	dto := ReportRowDTO{
		ProviderID:    string(row.ProviderID),
		ProviderName:  row.ProviderName,
		Company:       row.Company,
		ChorusRef:     row.ChorusRef,
		IbisRef:       row.IbisRef,
		State:         string(row.State),
		OrderedDays:   row.OrderedDays.Float64(),
		ConsumedDays:  row.ConsumedDays.Float64(),
		RemainingDays: row.RemainingDays.Float64(),
		DailyRate:     row.DailyRate.Float64(),
		ValueKEuros:   row.ValueKEuros.Float64(),
		StartMoment:   string(row.StartMoment),
		DateFallback:  row.DateFallback,
	}
	if !row.StartDate.IsZero() {
		dto.StartDate = row.StartDate.String()
	}
	switch row.Projection.Status {
	case engine.ProjectionCompleted:
		dto.Projection = "completed"
	case engine.ProjectionNever:
		dto.Projection = "never"
	case engine.ProjectionOn:
		dto.Projection = row.Projection.Slot.String()
		dto.ProjectionCapped = row.Projection.Capped
	}
	return dto
}

func toTeamCostsDTO(costs procurement.TeamCosts) TeamCostsDTO {
	out := TeamCostsDTO{Providers: make(map[string][]MonthCostDTO, len(costs.Providers))}
	for id, curve := range costs.Providers {
		months := make([]MonthCostDTO, len(curve.Months))
		for i, mc := range curve.Months {
			byOrder := make(map[string]float64, len(mc.ByOrder))
			for ref, amount := range mc.ByOrder {
				byOrder[ref] = amount.Float64()
			}
			months[i] = MonthCostDTO{
				Period:  mc.Period.String(),
				ByOrder: byOrder,
				Total:   mc.Total.Float64(),
			}
		}
		out.Providers[string(id)] = months
	}
	for _, gc := range costs.Global {
		out.Global = append(out.Global, GlobalCostDTO{Period: gc.Period.String(), Total: gc.Total.Float64()})
	}
	return out
}

func toCatalogDTO(c procurement.Catalog) CatalogDTO {
	prices := make(map[string]float64, len(c.Prices))
	for code, price := range c.Prices {
		prices[code] = price.Float64()
	}
	rate, _ := c.TaxRatePct.Float64()
	return CatalogDTO{Prices: prices, TaxRatePct: rate}
}

func fromCatalogDTO(dto CatalogDTO) procurement.Catalog {
	c := procurement.NewCatalog()
	for code, price := range dto.Prices {
		c.Prices[code] = engine.Amount{Value: decimal.NewFromFloat(price), Unit: engine.UnitEuros}
	}
	// An absent tax_rate_pct decodes to zero; keep the default rate rather
	// than silently switching VAT off.
	if dto.TaxRatePct > 0 {
		c.TaxRatePct = decimal.NewFromFloat(dto.TaxRatePct)
	}
	return c
}

func toHistoryDTO(h procurement.ConsumptionHistory) HistoryDTO {
	periods := make(map[string]float64, len(h.Periods))
	for k, v := range h.Periods {
		periods[k.String()] = v.Float64()
	}
	return HistoryDTO{Periods: periods, Total: h.Total().Float64()}
}
