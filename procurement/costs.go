/*
costs.go - Monthly cost curves

PURPOSE:
  Bridges consumption histories to engine.MonthlyCostDistributor: one
  cost curve per provider, plus a global month -> cost aggregate across
  the whole team.
*/
package procurement

import (
	"github.com/warp/procurement-engine/engine"
)

// GlobalCost is one month of team-wide cost.
type GlobalCost struct {
	Period engine.PeriodKey
	Total  engine.Amount
}

// TeamCosts holds per-provider curves and the team aggregate.
type TeamCosts struct {
	Providers map[ProviderID]engine.CostCurve
	Global    []GlobalCost
}

// CostReporter builds cost curves from consumption histories.
type CostReporter struct {
	Distributor *engine.MonthlyCostDistributor
}

func NewCostReporter() *CostReporter {
	return &CostReporter{Distributor: &engine.MonthlyCostDistributor{}}
}

// ProviderCurve distributes one provider's monthly consumption across
// their sorted orders.
func (r *CostReporter) ProviderCurve(p Provider, history ConsumptionHistory) engine.CostCurve {
	orders := append([]PurchaseOrder(nil), p.Orders...)
	SortOrders(orders)

	lines := make([]engine.BudgetLine, len(orders))
	for i, o := range orders {
		lines[i] = engine.BudgetLine{
			Ref:  o.ChorusRef,
			Days: o.OrderedDays,
			Rate: o.DailyRate,
		}
	}
	return r.Distributor.Distribute(history.Monthly(), lines)
}

// TeamCurves builds every provider's curve and the global aggregate.
func (r *CostReporter) TeamCurves(team []Provider, consumption ConsumptionByProvider) TeamCosts {
	out := TeamCosts{Providers: make(map[ProviderID]engine.CostCurve, len(team))}
	totals := make(map[engine.PeriodKey]engine.Amount)

	for _, p := range team {
		history, ok := consumption[p.ID]
		if !ok {
			continue
		}
		curve := r.ProviderCurve(p, history)
		out.Providers[p.ID] = curve

		for _, mc := range curve.Months {
			prev, seen := totals[mc.Period]
			if !seen {
				prev = engine.Euros(0)
			}
			totals[mc.Period] = prev.Add(mc.Total)
		}
	}

	keys := make([]engine.PeriodKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	engine.SortPeriodKeys(keys)
	for _, k := range keys {
		out.Global = append(out.Global, GlobalCost{Period: k, Total: totals[k]})
	}
	return out
}
