// The aggregation engine. Every figure is recomputed from the current child
// rows on each call — no cache, no incremental update. Queries on an empty
// or missing period return zero/empty values, never errors.
package logbook

import (
	"github.com/cadencelog/cadence/internal/domain"
	"github.com/cadencelog/cadence/internal/infra/observability"
)

// Aggregator derives read-only summary figures from a period's children.
type Aggregator struct {
	store domain.Store
}

// NewAggregator creates the aggregation engine.
func NewAggregator(store domain.Store) *Aggregator {
	return &Aggregator{store: store}
}

// ─── Expense Aggregates ─────────────────────────────────────────────────────

// TotalExpenses sums expense amounts over a period.
func (a *Aggregator) TotalExpenses(periodID int64) (float64, error) {
	observability.AggregateQueries.WithLabelValues("expenses_total").Inc()
	return a.store.SumExpenses(periodID)
}

// TotalExpensesByCard sums expense amounts for one payment card.
func (a *Aggregator) TotalExpensesByCard(periodID int64, card string) (float64, error) {
	observability.AggregateQueries.WithLabelValues("expenses_by_card").Inc()
	return a.store.SumExpensesByCard(periodID, card)
}

// TotalsByCurrency groups expense amounts by currency code, one entry per
// distinct currency present.
func (a *Aggregator) TotalsByCurrency(periodID int64) (map[string]float64, error) {
	observability.AggregateQueries.WithLabelValues("expenses_by_currency").Inc()
	expenses, err := a.store.ListExpenses(periodID)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, e := range expenses {
		totals[e.Currency] += e.Amount
	}
	return totals, nil
}

// TotalsByCard groups expense amounts by card name.
func (a *Aggregator) TotalsByCard(periodID int64) (map[string]float64, error) {
	observability.AggregateQueries.WithLabelValues("expenses_by_card_group").Inc()
	expenses, err := a.store.ListExpenses(periodID)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, e := range expenses {
		totals[e.Card] += e.Amount
	}
	return totals, nil
}

// ─── Fuel Aggregates ────────────────────────────────────────────────────────

// TotalFuel sums truck + trailer fuel over a period's refuelings, counting
// missing readings as zero rather than excluding the record.
func (a *Aggregator) TotalFuel(periodID int64) (int64, error) {
	observability.AggregateQueries.WithLabelValues("fuel_total").Inc()
	return a.store.SumFuel(periodID)
}

// TotalAdBlue sums AdBlue over a period's refuelings.
func (a *Aggregator) TotalAdBlue(periodID int64) (int64, error) {
	observability.AggregateQueries.WithLabelValues("adblue_total").Inc()
	return a.store.SumAdBlue(periodID)
}

// FuelByCard groups truck+trailer fuel by payment card.
func (a *Aggregator) FuelByCard(periodID int64) (map[string]int64, error) {
	observability.AggregateQueries.WithLabelValues("fuel_by_card").Inc()
	refuelings, err := a.store.ListRefuelings(periodID)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, r := range refuelings {
		totals[r.Card] += r.FuelTotal()
	}
	return totals, nil
}

// ─── Route and Coupling Aggregates ──────────────────────────────────────────

// TotalMileage sums the stored per-route mileage over a period. Routes store
// their own mileage at creation/edit time; this only sums the stored field.
func (a *Aggregator) TotalMileage(periodID int64) (int64, error) {
	observability.AggregateQueries.WithLabelValues("mileage_total").Inc()
	return a.store.SumRouteMileage(periodID)
}

// TotalEngineHours sums coupling engine-hour totals over a period. Open
// couplings contribute zero.
func (a *Aggregator) TotalEngineHours(periodID int64) (int64, error) {
	observability.AggregateQueries.WithLabelValues("engine_hours_total").Inc()
	return a.store.SumCouplingEngineHours(periodID)
}

// OpenCouplings returns the period's couplings still awaiting hand-back.
func (a *Aggregator) OpenCouplings(periodID int64) ([]domain.TrailerCoupling, error) {
	observability.AggregateQueries.WithLabelValues("open_couplings").Inc()
	couplings, err := a.store.ListCouplings(periodID)
	if err != nil {
		return nil, err
	}
	var open []domain.TrailerCoupling
	for _, c := range couplings {
		if c.Open() {
			open = append(open, c)
		}
	}
	return open, nil
}

// ─── Period Summary ─────────────────────────────────────────────────────────

// PeriodSummary bundles every per-period figure for one screen load.
type PeriodSummary struct {
	PeriodID  int64 `json:"period_id"`
	Routes    int   `json:"routes"`
	Completed int   `json:"completed_routes"`

	Mileage     int64 `json:"mileage"`
	Fuel        int64 `json:"fuel"`
	AdBlue      int64 `json:"ad_blue"`
	EngineHours int64 `json:"engine_hours"`

	Expenses   float64            `json:"expenses"`
	ByCurrency map[string]float64 `json:"by_currency"`
	ByCard     map[string]float64 `json:"by_card"`
	FuelByCard map[string]int64   `json:"fuel_by_card"`

	Couplings     int `json:"couplings"`
	OpenCouplings int `json:"open_couplings"`
}

// Summarize computes the full figure set for one period.
func (a *Aggregator) Summarize(periodID int64) (*PeriodSummary, error) {
	observability.AggregateQueries.WithLabelValues("period_summary").Inc()

	s := &PeriodSummary{PeriodID: periodID}

	routes, err := a.store.ListRoutes(periodID)
	if err != nil {
		return nil, err
	}
	s.Routes = len(routes)
	for _, r := range routes {
		if r.Status() == domain.RouteCompleted {
			s.Completed++
		}
		s.Mileage += r.Mileage
	}

	if s.Fuel, err = a.store.SumFuel(periodID); err != nil {
		return nil, err
	}
	if s.AdBlue, err = a.store.SumAdBlue(periodID); err != nil {
		return nil, err
	}
	if s.EngineHours, err = a.store.SumCouplingEngineHours(periodID); err != nil {
		return nil, err
	}
	if s.Expenses, err = a.store.SumExpenses(periodID); err != nil {
		return nil, err
	}
	if s.ByCurrency, err = a.TotalsByCurrency(periodID); err != nil {
		return nil, err
	}
	if s.ByCard, err = a.TotalsByCard(periodID); err != nil {
		return nil, err
	}
	if s.FuelByCard, err = a.FuelByCard(periodID); err != nil {
		return nil, err
	}

	couplings, err := a.store.ListCouplings(periodID)
	if err != nil {
		return nil, err
	}
	s.Couplings = len(couplings)
	for _, c := range couplings {
		if c.Open() {
			s.OpenCouplings++
		}
	}
	return s, nil
}
