/*
Package planning reads and writes the Excel workbooks the procurement
team actually works with.

PURPOSE:
  Ingestion side: parses the attendance workbook (one sheet per month,
  one column per contractor, an "X" per half day worked) into consumed
  day counts per provider and period. Export side: renders the team
  report as the spreadsheet finance expects, French labels included.

WORKBOOK CONVENTIONS:
  - Sheet "Janvier_2026" (or "Janvier 2026") maps to period 2026-01.
  - A sheet named "Initial" holds pre-system consumption.
  - Parameter sheets (Paramètres, Config) are skipped.
  - Row 1 holds contractor display names; each "X" below counts 0.5 day.

ROSTER JOIN:
  Column headers are matched to providers by normalized display name,
  exact match only. Unmatched columns are logged and skipped; guessing a
  contractor from a near-miss name would silently misattribute days.
*/
package planning

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

const initialSheetName = "INITIAL"

// skippedSheets are workbook tabs that never carry attendance data.
var skippedSheets = map[string]struct{}{
	"PARAMÈTRES": {},
	"PARAMETRES": {},
	"CONFIG":     {},
}

var frenchMonths = map[string]time.Month{
	"JANVIER":   time.January,
	"FÉVRIER":   time.February,
	"FEVRIER":   time.February,
	"MARS":      time.March,
	"AVRIL":     time.April,
	"MAI":       time.May,
	"JUIN":      time.June,
	"JUILLET":   time.July,
	"AOÛT":      time.August,
	"AOUT":      time.August,
	"SEPTEMBRE": time.September,
	"OCTOBRE":   time.October,
	"NOVEMBRE":  time.November,
	"DÉCEMBRE":  time.December,
	"DECEMBRE":  time.December,
}

// halfDay is the weight of a single "X" mark.
var halfDay = engine.Days(0.5)

// Importer parses attendance workbooks.
type Importer struct {
	Log zerolog.Logger
}

func NewImporter(log zerolog.Logger) *Importer {
	return &Importer{Log: log}
}

// Import is what a workbook contributes per provider and period.
type Import map[procurement.ProviderID]map[engine.PeriodKey]engine.Amount

// ParseWorkbook reads the workbook and counts marks per provider and
// period. Sheets whose name is neither a month nor the initial bucket
// are skipped with a log line.
func (im *Importer) ParseWorkbook(r io.Reader, roster map[string]procurement.ProviderID) (Import, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	out := make(Import)
	for _, sheet := range f.GetSheetList() {
		period, ok := periodFromSheetName(sheet)
		if !ok {
			if _, skip := skippedSheets[normalize(sheet)]; !skip {
				im.Log.Debug().Str("sheet", sheet).Msg("skipping unrecognized sheet")
			}
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		im.ingestSheet(out, sheet, period, rows, roster)
	}
	return out, nil
}

func (im *Importer) ingestSheet(out Import, sheet string, period engine.PeriodKey, rows [][]string, roster map[string]procurement.ProviderID) {
	if len(rows) == 0 {
		return
	}

	header := rows[0]
	for col, name := range header {
		normalized := normalize(name)
		if normalized == "" {
			continue
		}
		id, ok := roster[normalized]
		if !ok {
			im.Log.Warn().
				Str("sheet", sheet).
				Str("column", name).
				Msg("column header matches no roster member, skipping")
			continue
		}

		marks := 0
		for _, row := range rows[1:] {
			if col < len(row) && normalize(row[col]) == "X" {
				marks++
			}
		}
		if marks == 0 {
			continue
		}

		periods, ok := out[id]
		if !ok {
			periods = make(map[engine.PeriodKey]engine.Amount)
			out[id] = periods
		}
		prev, ok := periods[period]
		if !ok {
			prev = engine.Days(0)
		}
		periods[period] = prev.Add(halfDay.Mul(decimal.NewFromInt(int64(marks))))
	}
}

// periodFromSheetName maps "Janvier_2026" or "Janvier 2026" to its
// period, and "Initial" to the pre-system bucket.
func periodFromSheetName(sheet string) (engine.PeriodKey, bool) {
	normalized := normalize(sheet)
	if normalized == initialSheetName {
		return engine.InitialPeriod(), true
	}

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == '_' || r == ' '
	})
	if len(parts) != 2 {
		return engine.PeriodKey{}, false
	}
	month, ok := frenchMonths[parts[0]]
	if !ok {
		return engine.PeriodKey{}, false
	}
	var year int
	if _, err := fmt.Sscanf(parts[1], "%d", &year); err != nil || year < 1000 || year > 9999 {
		return engine.PeriodKey{}, false
	}
	return engine.NewPeriodKey(year, month), true
}

// RosterFromTeam builds the normalized-name index used to match
// workbook columns to providers.
func RosterFromTeam(team []procurement.Provider) map[string]procurement.ProviderID {
	roster := make(map[string]procurement.ProviderID, len(team))
	for _, p := range team {
		roster[normalize(p.DisplayName())] = p.ID
	}
	return roster
}

// normalize collapses whitespace and upper-cases for exact matching.
func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
