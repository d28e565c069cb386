package domain

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define the boundary between the lifecycle/aggregation
// core and the storage engine. Infrastructure implements them; the
// application layer depends on them.
//
// Multi-step consistency rules (cadence create, cadence close, period
// rollover) are expressed as single store methods so the implementation can
// run them in one transaction.

// CadenceStore persists cadences and their lifecycle transitions.
type CadenceStore interface {
	// CreateCadence inserts the cadence and its first period (number 1,
	// starting at the cadence start date) atomically.
	CreateCadence(c Cadence) (cadenceID, periodID int64, err error)

	// CloseCadence writes all end fields plus the derived totals in one
	// update, and closes the cadence's open period (if any) in the same
	// transaction.
	CloseCadence(id int64, closing CadenceClosing, totalMileage, totalDays int64) error

	UpdateCadence(c Cadence) error
	DeleteCadence(id int64) error
	GetCadence(id int64) (*Cadence, error)
	ListCadences() ([]Cadence, error)
}

// PeriodStore persists periods and enforces the single-open-period rule.
type PeriodStore interface {
	// FindOpenPeriod returns the cadence's period with no end date, or nil
	// when every period is closed.
	FindOpenPeriod(cadenceID int64) (*Period, error)

	// RolloverPeriod closes the open period at endDate and inserts the
	// successor (number max+1, starting exactly at endDate) in one
	// transaction. Returns the new period.
	RolloverPeriod(cadenceID int64, endDate int64, notes *string) (*Period, error)

	InsertPeriod(p Period) (int64, error)
	UpdatePeriod(p Period) error
	DeletePeriod(id int64) error
	GetPeriod(id int64) (*Period, error)
	ListPeriods(cadenceID int64) ([]Period, error)
}

// RouteStore persists routes.
type RouteStore interface {
	InsertRoute(r Route) (int64, error)
	UpdateRoute(r Route) error
	DeleteRoute(id int64) error
	GetRoute(id int64) (*Route, error)
	ListRoutes(periodID int64) ([]Route, error)
	SumRouteMileage(periodID int64) (int64, error)
}

// RefuelingStore persists refuelings.
type RefuelingStore interface {
	InsertRefueling(r Refueling) (int64, error)
	UpdateRefueling(r Refueling) error
	DeleteRefueling(id int64) error
	GetRefueling(id int64) (*Refueling, error)
	ListRefuelings(periodID int64) ([]Refueling, error)
	SumFuel(periodID int64) (int64, error)
	SumAdBlue(periodID int64) (int64, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	InsertExpense(e Expense) (int64, error)
	UpdateExpense(e Expense) error
	DeleteExpense(id int64) error
	GetExpense(id int64) (*Expense, error)
	ListExpenses(periodID int64) ([]Expense, error)
	SumExpenses(periodID int64) (float64, error)
	SumExpensesByCard(periodID int64, card string) (float64, error)
}

// CouplingStore persists trailer couplings.
type CouplingStore interface {
	InsertCoupling(c TrailerCoupling) (int64, error)
	UpdateCoupling(c TrailerCoupling) error
	DeleteCoupling(id int64) error
	GetCoupling(id int64) (*TrailerCoupling, error)
	ListCouplings(periodID int64) ([]TrailerCoupling, error)
	SumCouplingEngineHours(periodID int64) (int64, error)
}

// Store is the full storage surface the logbook core runs against.
type Store interface {
	CadenceStore
	PeriodStore
	RouteStore
	RefuelingStore
	ExpenseStore
	CouplingStore
}
