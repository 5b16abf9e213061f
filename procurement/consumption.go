/*
consumption.go - Imported consumption records

PURPOSE:
  Holds per-provider consumed-day counts keyed by period (month, or the
  reserved initial bucket for pre-system consumption). Records are
  refreshed from planning imports scoped by a cut-off period: everything
  at or before the cut-off is recomputed from the import (last import
  wins), later periods are left untouched. Counts are never summed
  blindly across re-imports of the same period.

SNAPSHOT DISCIPLINE:
  ApplyImport returns a new history; the receiver is not modified. The
  calling layer owns persistence and write serialization.
*/
package procurement

import (
	"github.com/warp/procurement-engine/engine"
)

// ConsumptionHistory maps periods to consumed-day counts for one
// provider. Counts are in half-day increments.
type ConsumptionHistory struct {
	Periods map[engine.PeriodKey]engine.Amount `json:"periods"`
}

func NewConsumptionHistory() ConsumptionHistory {
	return ConsumptionHistory{Periods: make(map[engine.PeriodKey]engine.Amount)}
}

// ConsumptionByProvider is the team-wide view handed to report building.
type ConsumptionByProvider map[ProviderID]ConsumptionHistory

// Total sums consumption across all periods, the input to the allocator.
func (h ConsumptionHistory) Total() engine.Amount {
	total := engine.Days(0)
	for _, days := range h.Periods {
		total = total.Add(days)
	}
	return total
}

// Monthly returns the history as a chronological series (initial bucket
// first), the input to the cost distributor.
func (h ConsumptionHistory) Monthly() []engine.MonthConsumption {
	keys := make([]engine.PeriodKey, 0, len(h.Periods))
	for k := range h.Periods {
		keys = append(keys, k)
	}
	engine.SortPeriodKeys(keys)

	months := make([]engine.MonthConsumption, len(keys))
	for i, k := range keys {
		months[i] = engine.MonthConsumption{Period: k, Days: h.Periods[k]}
	}
	return months
}

// ApplyImport merges an import scoped by cutoff into a new history:
// periods at or before the cutoff are replaced wholesale by the imported
// values (a period absent from the import is cleared), periods after the
// cutoff are carried over unchanged.
func (h ConsumptionHistory) ApplyImport(imported map[engine.PeriodKey]engine.Amount, cutoff engine.PeriodKey) ConsumptionHistory {
	out := NewConsumptionHistory()
	for k, v := range h.Periods {
		if k.After(cutoff) {
			out.Periods[k] = v
		}
	}
	for k, v := range imported {
		if !k.After(cutoff) {
			out.Periods[k] = v
		}
	}
	return out
}

func (h ConsumptionHistory) Clone() ConsumptionHistory {
	out := NewConsumptionHistory()
	for k, v := range h.Periods {
		out.Periods[k] = v
	}
	return out
}
