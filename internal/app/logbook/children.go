// Child-record operations: routes, refuelings, expenses, trailer couplings.
//
// Each child type has two creation paths. The scoped path
// (AddXToCurrentPeriod) looks up the cadence's open period and fails with
// ErrNoActivePeriod when there is none — the caller never supplies a period
// id. The direct path (AddX) takes a period id for editing and back-filling;
// the caller is responsible for it being the intended period.
package logbook

import (
	"github.com/cadencelog/cadence/internal/domain"
	"github.com/cadencelog/cadence/internal/infra/changefeed"
	"github.com/cadencelog/cadence/internal/infra/observability"
)

// cadenceOf resolves a period's owning cadence for event scoping.
// Best effort: a missing period yields zero, not a failure.
func (l *Lifecycle) cadenceOf(periodID int64) int64 {
	p, err := l.store.GetPeriod(periodID)
	if err != nil {
		return 0
	}
	return p.CadenceID
}

// ─── Routes ─────────────────────────────────────────────────────────────────

// validateRoute rejects end readings that move backwards. Absent end fields
// are fine — the route is simply still a draft.
func validateRoute(r domain.Route) error {
	if r.EndDate != nil && *r.EndDate < r.StartDate {
		return domain.ErrDateBackwards
	}
	if r.EndOdometer != nil && *r.EndOdometer <= r.StartOdometer {
		return domain.ErrOdometerBackwards
	}
	if r.EndEngineHours != nil && *r.EndEngineHours <= r.StartEngineHours {
		return domain.ErrEngineHoursBackwards
	}
	return nil
}

// AddRouteToCurrentPeriod validates the route and files it under the
// cadence's open period.
func (l *Lifecycle) AddRouteToCurrentPeriod(cadenceID int64, r domain.Route) (*domain.Route, error) {
	current, err := l.CurrentPeriod(cadenceID)
	if err != nil {
		return nil, err
	}
	if err := validateRoute(r); err != nil {
		return nil, err
	}
	r.PeriodID = current.ID
	return l.insertRoute(r, cadenceID)
}

// AddRoute files a route under an explicit period. Back-fill path: readings
// are not validated, but derived totals still follow the status rules, so a
// route with backwards readings stays a zero-mileage draft.
func (l *Lifecycle) AddRoute(periodID int64, r domain.Route) (*domain.Route, error) {
	r.PeriodID = periodID
	return l.insertRoute(r, l.cadenceOf(periodID))
}

func (l *Lifecycle) insertRoute(r domain.Route, cadenceID int64) (*domain.Route, error) {
	r.DeriveTotals()
	id, err := l.store.InsertRoute(r)
	observability.RecordOutcome("route", "insert", err)
	if err != nil {
		return nil, err
	}
	r.ID = id
	l.publish(changefeed.Event{Table: changefeed.TableRoutes, Op: changefeed.OpInsert, CadenceID: cadenceID, PeriodID: r.PeriodID})
	return &r, nil
}

// CompleteRoute fills in the unloading fields of a draft route and
// recomputes its derived totals.
func (l *Lifecycle) CompleteRoute(id int64, endDate, endOdometer, endEngineHours int64, arrivalCountry string) (*domain.Route, error) {
	r, err := l.store.GetRoute(id)
	if err != nil {
		return nil, err
	}
	r.EndDate = &endDate
	r.EndOdometer = &endOdometer
	r.EndEngineHours = &endEngineHours
	r.ArrivalCountry = &arrivalCountry
	if err := validateRoute(*r); err != nil {
		return nil, err
	}
	return r, l.UpdateRoute(*r)
}

// UpdateRoute rewrites a route, recomputing its derived totals.
func (l *Lifecycle) UpdateRoute(r domain.Route) error {
	r.DeriveTotals()
	err := l.store.UpdateRoute(r)
	observability.RecordOutcome("route", "update", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableRoutes, Op: changefeed.OpUpdate, CadenceID: l.cadenceOf(r.PeriodID), PeriodID: r.PeriodID})
	return nil
}

// DeleteRoute removes a route.
func (l *Lifecycle) DeleteRoute(id int64) error {
	r, err := l.store.GetRoute(id)
	if err != nil {
		return err
	}
	err = l.store.DeleteRoute(id)
	observability.RecordOutcome("route", "delete", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableRoutes, Op: changefeed.OpDelete, CadenceID: l.cadenceOf(r.PeriodID), PeriodID: r.PeriodID})
	return nil
}

// ─── Refuelings ─────────────────────────────────────────────────────────────

// AddRefuelingToCurrentPeriod files a refueling under the open period.
func (l *Lifecycle) AddRefuelingToCurrentPeriod(cadenceID int64, r domain.Refueling) (*domain.Refueling, error) {
	current, err := l.CurrentPeriod(cadenceID)
	if err != nil {
		return nil, err
	}
	r.PeriodID = current.ID
	return l.insertRefueling(r, cadenceID)
}

// AddRefueling files a refueling under an explicit period.
func (l *Lifecycle) AddRefueling(periodID int64, r domain.Refueling) (*domain.Refueling, error) {
	r.PeriodID = periodID
	return l.insertRefueling(r, l.cadenceOf(periodID))
}

func (l *Lifecycle) insertRefueling(r domain.Refueling, cadenceID int64) (*domain.Refueling, error) {
	id, err := l.store.InsertRefueling(r)
	observability.RecordOutcome("refueling", "insert", err)
	if err != nil {
		return nil, err
	}
	r.ID = id
	l.publish(changefeed.Event{Table: changefeed.TableRefuelings, Op: changefeed.OpInsert, CadenceID: cadenceID, PeriodID: r.PeriodID})
	return &r, nil
}

// UpdateRefueling rewrites a refueling.
func (l *Lifecycle) UpdateRefueling(r domain.Refueling) error {
	err := l.store.UpdateRefueling(r)
	observability.RecordOutcome("refueling", "update", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableRefuelings, Op: changefeed.OpUpdate, CadenceID: l.cadenceOf(r.PeriodID), PeriodID: r.PeriodID})
	return nil
}

// DeleteRefueling removes a refueling.
func (l *Lifecycle) DeleteRefueling(id int64) error {
	r, err := l.store.GetRefueling(id)
	if err != nil {
		return err
	}
	err = l.store.DeleteRefueling(id)
	observability.RecordOutcome("refueling", "delete", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableRefuelings, Op: changefeed.OpDelete, CadenceID: l.cadenceOf(r.PeriodID), PeriodID: r.PeriodID})
	return nil
}

// ─── Expenses ───────────────────────────────────────────────────────────────

// AddExpenseToCurrentPeriod files an expense under the open period.
func (l *Lifecycle) AddExpenseToCurrentPeriod(cadenceID int64, e domain.Expense) (*domain.Expense, error) {
	current, err := l.CurrentPeriod(cadenceID)
	if err != nil {
		return nil, err
	}
	if e.Amount < 0 {
		return nil, domain.ErrInvalidInput
	}
	e.PeriodID = current.ID
	return l.insertExpense(e, cadenceID)
}

// AddExpense files an expense under an explicit period.
func (l *Lifecycle) AddExpense(periodID int64, e domain.Expense) (*domain.Expense, error) {
	e.PeriodID = periodID
	return l.insertExpense(e, l.cadenceOf(periodID))
}

func (l *Lifecycle) insertExpense(e domain.Expense, cadenceID int64) (*domain.Expense, error) {
	id, err := l.store.InsertExpense(e)
	observability.RecordOutcome("expense", "insert", err)
	if err != nil {
		return nil, err
	}
	e.ID = id
	l.publish(changefeed.Event{Table: changefeed.TableExpenses, Op: changefeed.OpInsert, CadenceID: cadenceID, PeriodID: e.PeriodID})
	return &e, nil
}

// UpdateExpense rewrites an expense.
func (l *Lifecycle) UpdateExpense(e domain.Expense) error {
	err := l.store.UpdateExpense(e)
	observability.RecordOutcome("expense", "update", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableExpenses, Op: changefeed.OpUpdate, CadenceID: l.cadenceOf(e.PeriodID), PeriodID: e.PeriodID})
	return nil
}

// DeleteExpense removes an expense.
func (l *Lifecycle) DeleteExpense(id int64) error {
	e, err := l.store.GetExpense(id)
	if err != nil {
		return err
	}
	err = l.store.DeleteExpense(id)
	observability.RecordOutcome("expense", "delete", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableExpenses, Op: changefeed.OpDelete, CadenceID: l.cadenceOf(e.PeriodID), PeriodID: e.PeriodID})
	return nil
}

// ─── Trailer Couplings ──────────────────────────────────────────────────────

// AddCouplingToCurrentPeriod files a coupling under the open period. New
// couplings open; hand-back readings arrive through CloseCoupling.
func (l *Lifecycle) AddCouplingToCurrentPeriod(cadenceID int64, c domain.TrailerCoupling) (*domain.TrailerCoupling, error) {
	current, err := l.CurrentPeriod(cadenceID)
	if err != nil {
		return nil, err
	}
	c.PeriodID = current.ID
	c.EndDate, c.EndEngineHours, c.EndFuel, c.EndCountry = nil, nil, nil, nil
	c.TotalEngineHours = 0
	return l.insertCoupling(c, cadenceID)
}

// AddCoupling files a coupling under an explicit period.
func (l *Lifecycle) AddCoupling(periodID int64, c domain.TrailerCoupling) (*domain.TrailerCoupling, error) {
	c.PeriodID = periodID
	return l.insertCoupling(c, l.cadenceOf(periodID))
}

func (l *Lifecycle) insertCoupling(c domain.TrailerCoupling, cadenceID int64) (*domain.TrailerCoupling, error) {
	id, err := l.store.InsertCoupling(c)
	observability.RecordOutcome("coupling", "insert", err)
	if err != nil {
		return nil, err
	}
	c.ID = id
	l.publish(changefeed.Event{Table: changefeed.TableCouplings, Op: changefeed.OpInsert, CadenceID: cadenceID, PeriodID: c.PeriodID})
	return &c, nil
}

// CloseCoupling records the trailer hand-back. All end fields are written
// together; total engine hours are derived from the readings.
func (l *Lifecycle) CloseCoupling(id int64, closing domain.CouplingClosing) (*domain.TrailerCoupling, error) {
	c, err := l.store.GetCoupling(id)
	if err != nil {
		return nil, err
	}
	if !c.Open() {
		return nil, domain.ErrCouplingClosed
	}
	if closing.EndDate < c.StartDate {
		return nil, domain.ErrDateBackwards
	}
	if closing.EndEngineHours < c.StartEngineHours {
		return nil, domain.ErrEngineHoursBackwards
	}

	c.EndDate = &closing.EndDate
	c.EndEngineHours = &closing.EndEngineHours
	c.EndFuel = &closing.EndFuel
	c.EndCountry = &closing.EndCountry
	c.TotalEngineHours = closing.EndEngineHours - c.StartEngineHours

	err = l.store.UpdateCoupling(*c)
	observability.RecordOutcome("coupling", "close", err)
	if err != nil {
		return nil, err
	}
	l.publish(changefeed.Event{Table: changefeed.TableCouplings, Op: changefeed.OpClose, CadenceID: l.cadenceOf(c.PeriodID), PeriodID: c.PeriodID})
	return c, nil
}

// UpdateCoupling rewrites a coupling.
func (l *Lifecycle) UpdateCoupling(c domain.TrailerCoupling) error {
	err := l.store.UpdateCoupling(c)
	observability.RecordOutcome("coupling", "update", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableCouplings, Op: changefeed.OpUpdate, CadenceID: l.cadenceOf(c.PeriodID), PeriodID: c.PeriodID})
	return nil
}

// DeleteCoupling removes a coupling.
func (l *Lifecycle) DeleteCoupling(id int64) error {
	c, err := l.store.GetCoupling(id)
	if err != nil {
		return err
	}
	err = l.store.DeleteCoupling(id)
	observability.RecordOutcome("coupling", "delete", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableCouplings, Op: changefeed.OpDelete, CadenceID: l.cadenceOf(c.PeriodID), PeriodID: c.PeriodID})
	return nil
}
