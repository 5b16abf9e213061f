package planning_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/planning"
	"github.com/warp/procurement-engine/procurement"

	"github.com/rs/zerolog"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// buildWorkbook assembles an attendance workbook in memory. Each sheet
// maps header names to their column's cell values.
func buildWorkbook(t *testing.T, sheets map[string]map[string][]string) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	first := true
	for name, columns := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}

		col := 1
		for header, cells := range columns {
			headerCell, err := excelize.CoordinatesToCellName(col, 1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(name, headerCell, header))
			for i, v := range cells {
				cell, err := excelize.CoordinatesToCellName(col, i+2)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, v))
			}
			col++
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func testRoster() map[string]procurement.ProviderID {
	return planning.RosterFromTeam([]procurement.Provider{
		{ID: "p-1", Surname: "Dupont", GivenName: "Jean"},
		{ID: "p-2", Surname: "Martin", GivenName: "Luc"},
	})
}

// =============================================================================
// WORKBOOK PARSING
// =============================================================================

func TestParseWorkbook_CountsHalfDayMarks(t *testing.T) {
	// GIVEN: A January sheet where Dupont has three marks, in mixed case
	//        and with stray whitespace
	// WHEN: Parsing against the roster
	// THEN: Dupont gets 1.5 days for 2026-01

	wb := buildWorkbook(t, map[string]map[string][]string{
		"Janvier_2026": {
			"DUPONT Jean": {"X", "x", "", " X "},
		},
	})

	imported, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(wb, testRoster())
	require.NoError(t, err)

	periods := imported["p-1"]
	require.NotNil(t, periods)
	assert.InDelta(t, 1.5, periods[engine.NewPeriodKey(2026, time.January)].Float64(), 0.0001)
}

func TestParseWorkbook_SheetNameVariants(t *testing.T) {
	// Both "Janvier_2026" and "Février 2026" style names resolve.
	wb := buildWorkbook(t, map[string]map[string][]string{
		"Février 2026": {
			"DUPONT Jean": {"X", "X"},
		},
	})

	imported, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(wb, testRoster())
	require.NoError(t, err)
	assert.InDelta(t, 1, imported["p-1"][engine.NewPeriodKey(2026, time.February)].Float64(), 0.0001)
}

func TestParseWorkbook_InitialSheetMapsToInitialBucket(t *testing.T) {
	wb := buildWorkbook(t, map[string]map[string][]string{
		"Initial": {
			"MARTIN Luc": {"X", "X", "X", "X"},
		},
	})

	imported, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(wb, testRoster())
	require.NoError(t, err)
	assert.InDelta(t, 2, imported["p-2"][engine.InitialPeriod()].Float64(), 0.0001)
}

func TestParseWorkbook_SkipsParameterAndUnknownSheets(t *testing.T) {
	// Marks on non-month sheets never become consumption.
	wb := buildWorkbook(t, map[string]map[string][]string{
		"Paramètres": {
			"DUPONT Jean": {"X", "X"},
		},
		"Notes": {
			"DUPONT Jean": {"X"},
		},
	})

	imported, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(wb, testRoster())
	require.NoError(t, err)
	assert.Empty(t, imported)
}

func TestParseWorkbook_UnknownColumnSkipped(t *testing.T) {
	// GIVEN: A column header matching no roster member
	// WHEN: Parsing
	// THEN: Its marks are dropped rather than guessed onto someone

	wb := buildWorkbook(t, map[string]map[string][]string{
		"Mars_2026": {
			"INCONNU Paul": {"X", "X"},
			"DUPONT Jean":  {"X"},
		},
	})

	imported, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(wb, testRoster())
	require.NoError(t, err)

	require.Len(t, imported, 1)
	assert.InDelta(t, 0.5, imported["p-1"][engine.NewPeriodKey(2026, time.March)].Float64(), 0.0001)
}

func TestParseWorkbook_NonMarkCellsIgnored(t *testing.T) {
	// Only "X" counts; annotations and other letters do not.
	wb := buildWorkbook(t, map[string]map[string][]string{
		"Avril_2026": {
			"DUPONT Jean": {"X", "congé", "0.5", "XX"},
		},
	})

	imported, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(wb, testRoster())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, imported["p-1"][engine.NewPeriodKey(2026, time.April)].Float64(), 0.0001)
}

func TestParseWorkbook_NotAWorkbook(t *testing.T) {
	_, err := planning.NewImporter(zerolog.Nop()).ParseWorkbook(bytes.NewReader([]byte("not an xlsx")), testRoster())
	assert.Error(t, err)
}

func TestRosterFromTeam_NormalizesNames(t *testing.T) {
	roster := planning.RosterFromTeam([]procurement.Provider{
		{ID: "p-1", Surname: "De La Tour", GivenName: "Anne"},
	})

	assert.Equal(t, procurement.ProviderID("p-1"), roster["DE LA TOUR ANNE"])
}
