/*
handlers.go - HTTP API handlers for the procurement engine

PURPOSE:
  Exposes the procurement engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Providers:
    GET    /api/providers                List the team
    POST   /api/providers                Create a provider
    GET    /api/providers/{id}           Get provider details
    PUT    /api/providers/{id}           Replace a provider snapshot
    DELETE /api/providers/{id}           Remove a provider

  Payments:
    GET    /api/providers/{id}/orders/{ref}/payments             Payment status
    POST   /api/providers/{id}/orders/{ref}/payments             Record a payment
    PUT    /api/providers/{id}/orders/{ref}/payments/{index}/service-ref
                                         Correct a service-completion reference

  Reporting:
    GET    /api/report                   Consumption report (JSON)
    GET    /api/report/export            Consumption report (xlsx)
    GET    /api/costs                    Monthly cost curves

  Consumption:
    GET    /api/providers/{id}/consumption  Per-provider history
    POST   /api/consumption/import          Ingest an attendance workbook

  Catalog:
    GET    /api/catalog                  Unit-price catalog
    PUT    /api/catalog                  Replace the catalog

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Rejected payments (overpayment)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/planning"
	"github.com/warp/procurement-engine/procurement"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    procurement.Store
	Log      zerolog.Logger
	Reports  *procurement.ReportBuilder
	Costs    *procurement.CostReporter
	Importer *planning.Importer
}

// NewHandler wires the domain services around the given store.
func NewHandler(store procurement.Store, calendar engine.WorkingCalendar, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Log:      log,
		Reports:  procurement.NewReportBuilder(calendar, log),
		Costs:    procurement.NewCostReporter(),
		Importer: planning.NewImporter(log),
	}
}

// =============================================================================
// PROVIDER HANDLERS
// =============================================================================

// ListProviders returns the whole team.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	team, err := h.Store.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list providers", err)
		return
	}

	dtos := make([]ProviderDTO, len(team))
	for i, p := range team {
		dtos[i] = toProviderDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProvider returns a single provider.
func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := procurement.ProviderID(chi.URLParam(r, "id"))

	p, err := h.Store.GetProvider(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get provider", err)
		return
	}
	writeJSON(w, http.StatusOK, toProviderDTO(p))
}

// CreateProvider creates a provider, assigning an ID when none is given.
func (h *Handler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var dto ProviderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := fromProviderDTO(dto)
	if p.ID == "" {
		p.ID = procurement.ProviderID(uuid.NewString())
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider", err)
		return
	}

	if err := h.Store.SaveProvider(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create provider", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProviderDTO(p))
}

// UpdateProvider replaces a provider snapshot, orders included.
func (h *Handler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := procurement.ProviderID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetProvider(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get provider", err)
		return
	}

	var dto ProviderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := fromProviderDTO(dto)
	p.ID = id
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid provider", err)
		return
	}

	if err := h.Store.SaveProvider(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update provider", err)
		return
	}
	writeJSON(w, http.StatusOK, toProviderDTO(p))
}

// DeleteProvider removes a provider and their consumption records.
func (h *Handler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	id := procurement.ProviderID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteProvider(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete provider", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport returns the team consumption report as JSON. The analysis
// reference date defaults to today and can be overridden with ?as_of=.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.buildReport(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	dtos := make([]ReportRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toReportRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportReport returns the consumption report as an xlsx workbook.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.buildReport(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	data, err := planning.WriteReport(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="suivi_bc.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) buildReport(r *http.Request) ([]procurement.ReportRow, error) {
	asOf := engine.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		parsed, err := engine.ParseDate(s)
		if err != nil {
			return nil, err
		}
		asOf = parsed
	}

	team, err := h.Store.ListProviders(r.Context())
	if err != nil {
		return nil, err
	}
	consumption, err := h.Store.ListHistories(r.Context())
	if err != nil {
		return nil, err
	}
	return h.Reports.TeamRows(team, consumption, asOf), nil
}

// GetCosts returns per-provider cost curves and the team aggregate.
func (h *Handler) GetCosts(w http.ResponseWriter, r *http.Request) {
	team, err := h.Store.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list providers", err)
		return
	}
	consumption, err := h.Store.ListHistories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load consumption", err)
		return
	}

	writeJSON(w, http.StatusOK, toTeamCostsDTO(h.Costs.TeamCurves(team, consumption)))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// GetPaymentStatus returns paid and remaining totals for an order.
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	p, orderIdx, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	catalog, err := h.Store.GetCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	ledger := procurement.NewPaymentLedger(catalog, h.Log)
	writeJSON(w, http.StatusOK, paymentStatus(ledger, p.Orders[orderIdx]))
}

// RecordPayment validates and appends a payment to an order.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	p, orderIdx, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	catalog, err := h.Store.GetCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	payment := fromPaymentDTO(PaymentDTO{
		Kind:        req.Kind,
		RequestDate: req.RequestDate,
		ServiceRef:  req.ServiceRef,
		Lines:       req.Lines,
		Percentage:  req.Percentage,
	})

	ledger := procurement.NewPaymentLedger(catalog, h.Log)
	updated, err := ledger.Record(p.Orders[orderIdx], payment)
	if err != nil {
		if errors.Is(err, engine.ErrOverpaymentRejected) {
			writeError(w, http.StatusConflict, "Payment rejected", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid payment", err)
		return
	}

	p.Orders[orderIdx] = updated
	if err := h.Store.SaveProvider(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentStatus(ledger, updated))
}

// AmendServiceRef corrects the service-completion reference of a payment.
func (h *Handler) AmendServiceRef(w http.ResponseWriter, r *http.Request) {
	p, orderIdx, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment index", err)
		return
	}

	var req AmendServiceRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	catalog, err := h.Store.GetCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	ledger := procurement.NewPaymentLedger(catalog, h.Log)
	updated, err := ledger.AmendServiceRef(p.Orders[orderIdx], index, req.ServiceRef)
	if err != nil {
		writeDomainError(w, "Failed to amend payment", err)
		return
	}

	p.Orders[orderIdx] = updated
	if err := h.Store.SaveProvider(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(updated))
}

// loadOrder resolves the {id}/{ref} pair to a provider snapshot and an
// order index, writing the error response itself on failure.
func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (procurement.Provider, int, bool) {
	id := procurement.ProviderID(chi.URLParam(r, "id"))
	ref := chi.URLParam(r, "ref")

	p, err := h.Store.GetProvider(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get provider", err)
		return procurement.Provider{}, 0, false
	}

	for i, o := range p.Orders {
		if o.ChorusRef == ref {
			return p, i, true
		}
	}
	writeError(w, http.StatusNotFound, "Order not found", nil)
	return procurement.Provider{}, 0, false
}

func paymentStatus(ledger *procurement.PaymentLedger, order procurement.PurchaseOrder) PaymentStatusDTO {
	return PaymentStatusDTO{
		OrderRef:     order.ChorusRef,
		TotalHT:      order.TotalHT(ledger.Catalog).Float64(),
		PaidHT:       ledger.PaidHT(order).Float64(),
		PaidTTC:      ledger.PaidTTC(order).Float64(),
		RemainingHT:  ledger.RemainingHT(order).Float64(),
		RemainingTTC: ledger.RemainingTTC(order).Float64(),
	}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// GetCatalog returns the unit-price catalog.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Store.GetCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogDTO(catalog))
}

// SaveCatalog replaces the unit-price catalog.
func (h *Handler) SaveCatalog(w http.ResponseWriter, r *http.Request) {
	var dto CatalogDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	catalog := fromCatalogDTO(dto)
	if err := h.Store.SaveCatalog(r.Context(), catalog); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogDTO(catalog))
}

// =============================================================================
// CONSUMPTION HANDLERS
// =============================================================================

// GetHistory returns a provider's consumption history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := procurement.ProviderID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetProvider(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get provider", err)
		return
	}

	history, err := h.Store.GetHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load consumption", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTO(history))
}

// ImportConsumption ingests an attendance workbook. The request body is
// the xlsx file; ?cutoff=YYYY-MM bounds which periods the import rewrites.
// The workbook is authoritative for the whole team up to the cutoff: a
// provider without marks has their periods up to the cutoff cleared.
func (h *Handler) ImportConsumption(w http.ResponseWriter, r *http.Request) {
	cutoffParam := r.URL.Query().Get("cutoff")
	if cutoffParam == "" {
		writeError(w, http.StatusBadRequest, "Missing cutoff query parameter (YYYY-MM)", nil)
		return
	}
	cutoff, err := engine.ParsePeriodKey(cutoffParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cutoff (use YYYY-MM)", err)
		return
	}

	team, err := h.Store.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list providers", err)
		return
	}

	imported, err := h.Importer.ParseWorkbook(r.Body, planning.RosterFromTeam(team))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse workbook", err)
		return
	}

	result := ImportResultDTO{Cutoff: cutoff.String(), ProvidersUpdated: []string{}}
	for _, p := range team {
		history, err := h.Store.GetHistory(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load consumption", err)
			return
		}
		updated := history.ApplyImport(imported[p.ID], cutoff)
		if err := h.Store.SaveHistory(r.Context(), p.ID, updated); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save consumption", err)
			return
		}
		result.ProvidersUpdated = append(result.ProvidersUpdated, string(p.ID))
	}

	h.Log.Info().
		Str("cutoff", cutoff.String()).
		Int("providers", len(result.ProvidersUpdated)).
		Msg("attendance workbook imported")
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine sentinels onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
