package procurement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/procurement"
)

func period(y int, m time.Month) engine.PeriodKey { return engine.NewPeriodKey(y, m) }

func historyOf(entries map[engine.PeriodKey]float64) procurement.ConsumptionHistory {
	h := procurement.NewConsumptionHistory()
	for k, v := range entries {
		h.Periods[k] = engine.Days(v)
	}
	return h
}

func TestHistory_Total(t *testing.T) {
	h := historyOf(map[engine.PeriodKey]float64{
		engine.InitialPeriod():      10,
		period(2026, time.January):  5.5,
		period(2026, time.February): 4,
	})

	assert.InDelta(t, 19.5, h.Total().Float64(), 0.0001)
}

func TestHistory_Monthly_InitialBucketFirst(t *testing.T) {
	h := historyOf(map[engine.PeriodKey]float64{
		period(2026, time.February): 4,
		engine.InitialPeriod():      10,
		period(2026, time.January):  5,
	})

	months := h.Monthly()
	require.Len(t, months, 3)
	assert.True(t, months[0].Period.Initial)
	assert.Equal(t, period(2026, time.January), months[1].Period)
	assert.Equal(t, period(2026, time.February), months[2].Period)
}

func TestApplyImport_ReplacesUpToCutoff_KeepsLaterPeriods(t *testing.T) {
	// GIVEN: Existing records across the initial bucket and three months
	// WHEN: Importing with a February cutoff, where January changed and
	//       the initial bucket and February are absent from the import
	// THEN: Everything at or before the cutoff mirrors the import exactly
	//       (absences clear old values); March is carried over untouched

	existing := historyOf(map[engine.PeriodKey]float64{
		engine.InitialPeriod():      10,
		period(2026, time.January):  5,
		period(2026, time.February): 4,
		period(2026, time.March):    2,
	})

	imported := map[engine.PeriodKey]engine.Amount{
		period(2026, time.January): engine.Days(6),
	}

	updated := existing.ApplyImport(imported, period(2026, time.February))

	assert.InDelta(t, 6, updated.Periods[period(2026, time.January)].Float64(), 0.0001)
	assert.NotContains(t, updated.Periods, engine.InitialPeriod())
	assert.NotContains(t, updated.Periods, period(2026, time.February))
	assert.InDelta(t, 2, updated.Periods[period(2026, time.March)].Float64(), 0.0001)

	// Re-importing the same workbook must not double-count
	again := updated.ApplyImport(imported, period(2026, time.February))
	assert.InDelta(t, 6, again.Periods[period(2026, time.January)].Float64(), 0.0001)
	assert.InDelta(t, again.Total().Float64(), updated.Total().Float64(), 0.0001)
}

func TestApplyImport_DoesNotMutateReceiver(t *testing.T) {
	existing := historyOf(map[engine.PeriodKey]float64{
		period(2026, time.January): 5,
	})

	_ = existing.ApplyImport(map[engine.PeriodKey]engine.Amount{
		period(2026, time.January): engine.Days(9),
	}, period(2026, time.December))

	assert.InDelta(t, 5, existing.Periods[period(2026, time.January)].Float64(), 0.0001)
}

func TestApplyImport_IgnoresImportedPeriodsAfterCutoff(t *testing.T) {
	// GIVEN: A workbook carrying marks beyond the cutoff month
	// WHEN: Importing with a January cutoff
	// THEN: The post-cutoff marks are not applied

	existing := procurement.NewConsumptionHistory()
	imported := map[engine.PeriodKey]engine.Amount{
		period(2026, time.January):  engine.Days(3),
		period(2026, time.February): engine.Days(7),
	}

	updated := existing.ApplyImport(imported, period(2026, time.January))

	assert.InDelta(t, 3, updated.Periods[period(2026, time.January)].Float64(), 0.0001)
	assert.NotContains(t, updated.Periods, period(2026, time.February))
}
