package planning

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

const reportSheet = "Suivi BC"

// reportHeaders are the column labels finance expects, in order.
var reportHeaders = []string{
	"n°Bon de Commande CHORUS",
	"Prestataire",
	"NOM Prénom",
	"Montant BC (K€ HT)",
	"N° commande IBIS",
	"Jours Commandés",
	"TJM (HT) €",
	"Date début",
	"Jours Consommés",
	"Jours Restants",
	"Fin Estimée",
	"État",
}

// WriteReport renders report rows as the spreadsheet handed to finance.
func WriteReport(rows []procurement.ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", reportSheet)

	set := func(cell string, value interface{}) {
		_ = f.SetCellValue(reportSheet, cell, value)
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, row := range rows {
		values := []interface{}{
			row.ChorusRef,
			row.Company,
			row.ProviderName,
			row.ValueKEuros.Float64(),
			row.IbisRef,
			row.OrderedDays.Float64(),
			row.DailyRate.Float64(),
			formatStartDate(row),
			row.ConsumedDays.Float64(),
			row.RemainingDays.Float64(),
			formatProjection(row.Projection),
			stateLabel(row.State),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			set(cell, v)
		}
	}

	_ = f.SetColWidth(reportSheet, "A", "A", 26)
	_ = f.SetColWidth(reportSheet, "B", "C", 24)
	_ = f.SetColWidth(reportSheet, "D", "J", 16)
	_ = f.SetColWidth(reportSheet, "K", "K", 24)
	_ = f.SetColWidth(reportSheet, "L", "L", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatStartDate(row procurement.ReportRow) string {
	if row.StartDate.IsZero() {
		return "-"
	}
	date := row.StartDate.Time.Format("02/01/2006")
	if row.DateFallback {
		return date + " (?)"
	}
	return date
}

// formatProjection renders the estimated completion: a closed order shows
// Clôturé, a stalled one Jamais, otherwise the projected half day.
func formatProjection(p engine.Projection) string {
	switch p.Status {
	case engine.ProjectionCompleted:
		return "Clôturé"
	case engine.ProjectionNever:
		return "Jamais"
	case engine.ProjectionOn:
		label := fmt.Sprintf("%s %s", p.Slot.Date.Time.Format("02/01/2006"), momentLabel(p.Slot.Moment))
		if p.Capped {
			return label + " (au-delà de l'horizon)"
		}
		return label
	default:
		return ""
	}
}

func momentLabel(m engine.Moment) string {
	if m == engine.Afternoon {
		return "Après-midi"
	}
	return "Matin"
}

func stateLabel(s engine.OrderState) string {
	switch s {
	case engine.StateCompleted:
		return "Terminé"
	case engine.StateInProgress:
		return "En cours"
	case engine.StateFuture:
		return "Futur"
	default:
		return string(s)
	}
}
