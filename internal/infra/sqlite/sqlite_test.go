package sqlite

import (
	"errors"
	"testing"

	"github.com/cadencelog/cadence/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCadence() domain.Cadence {
	return domain.Cadence{
		Number:           "12",
		Driver1:          "A. Weber",
		StartDate:        1_700_000_000_000,
		Truck:            "MAN 26.510",
		StartTrailer:     "TR-481",
		StartOdometer:    100000,
		StartTruckFuel:   400,
		StartTrailerFuel: 50,
		StartEngineHours: 5200,
	}
}

// ─── Cadence + First Period ─────────────────────────────────────────────────

func TestCreateCadence_InsertsFirstPeriod(t *testing.T) {
	db := newTestDB(t)

	cadenceID, periodID, err := db.CreateCadence(testCadence())
	if err != nil {
		t.Fatalf("CreateCadence() error: %v", err)
	}

	p, err := db.GetPeriod(periodID)
	if err != nil {
		t.Fatalf("GetPeriod() error: %v", err)
	}
	if p.CadenceID != cadenceID {
		t.Errorf("period cadence = %d, want %d", p.CadenceID, cadenceID)
	}
	if p.Number != 1 {
		t.Errorf("first period number = %d, want 1", p.Number)
	}
	if p.StartDate != 1_700_000_000_000 {
		t.Errorf("first period start = %d, want cadence start", p.StartDate)
	}
	if !p.Active() {
		t.Error("first period should be active")
	}
}

func TestGetCadence_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetCadence(42)
	if !errors.Is(err, domain.ErrCadenceNotFound) {
		t.Errorf("GetCadence(42) error = %v, want ErrCadenceNotFound", err)
	}
}

func TestCloseCadence_WritesTotalsAndClosesPeriod(t *testing.T) {
	db := newTestDB(t)
	cadenceID, periodID, _ := db.CreateCadence(testCadence())

	closing := domain.CadenceClosing{
		EndDate:        1_700_000_000_000 + 10*domain.MillisPerDay,
		EndTrailer:     "TR-512",
		EndOdometer:    115000,
		EndTruckFuel:   250,
		EndTrailerFuel: 30,
		EndEngineHours: 5460,
	}
	if err := db.CloseCadence(cadenceID, closing, 15000, 10); err != nil {
		t.Fatalf("CloseCadence() error: %v", err)
	}

	c, err := db.GetCadence(cadenceID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Closed() {
		t.Fatal("cadence should be closed")
	}
	if c.TotalMileage != 15000 {
		t.Errorf("TotalMileage = %d, want 15000", c.TotalMileage)
	}
	if c.TotalDays != 10 {
		t.Errorf("TotalDays = %d, want 10", c.TotalDays)
	}

	// Open period is closed in the same transaction, at the cadence end date.
	p, _ := db.GetPeriod(periodID)
	if p.Active() {
		t.Error("open period should be force-closed with the cadence")
	}
	if p.EndDate == nil || *p.EndDate != closing.EndDate {
		t.Errorf("period end = %v, want cadence end date", p.EndDate)
	}
}

func TestCloseCadence_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.CloseCadence(99, domain.CadenceClosing{}, 0, 0)
	if !errors.Is(err, domain.ErrCadenceNotFound) {
		t.Errorf("CloseCadence(99) error = %v, want ErrCadenceNotFound", err)
	}
}

func TestDeleteCadence_CascadesToChildren(t *testing.T) {
	db := newTestDB(t)
	cadenceID, periodID, _ := db.CreateCadence(testCadence())
	db.InsertRoute(domain.Route{PeriodID: periodID, Number: 1, StartDate: 1, StartOdometer: 100000, DepartureCountry: "DE", CargoName: "steel"})
	db.InsertExpense(domain.Expense{PeriodID: periodID, Number: 1, Date: 1, Description: "parking", Amount: 12.5, Currency: "EUR", Country: "DE", Card: "DKV"})

	if err := db.DeleteCadence(cadenceID); err != nil {
		t.Fatalf("DeleteCadence() error: %v", err)
	}
	if _, err := db.GetPeriod(periodID); !errors.Is(err, domain.ErrPeriodNotFound) {
		t.Errorf("period survived cadence delete: %v", err)
	}
	routes, err := db.ListRoutes(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 0 {
		t.Errorf("routes survived cascade: %d", len(routes))
	}
	expenses, _ := db.ListExpenses(periodID)
	if len(expenses) != 0 {
		t.Errorf("expenses survived cascade: %d", len(expenses))
	}
}

// ─── Open Period Invariant ──────────────────────────────────────────────────

func TestFindOpenPeriod(t *testing.T) {
	db := newTestDB(t)
	cadenceID, periodID, _ := db.CreateCadence(testCadence())

	p, err := db.FindOpenPeriod(cadenceID)
	if err != nil {
		t.Fatalf("FindOpenPeriod() error: %v", err)
	}
	if p == nil || p.ID != periodID {
		t.Fatalf("FindOpenPeriod() = %v, want period %d", p, periodID)
	}
}

func TestFindOpenPeriod_NoneIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	cadenceID, periodID, _ := db.CreateCadence(testCadence())

	p, _ := db.GetPeriod(periodID)
	p.EndDate = domain.Ptr[int64](p.StartDate + domain.MillisPerDay)
	if err := db.UpdatePeriod(*p); err != nil {
		t.Fatal(err)
	}

	open, err := db.FindOpenPeriod(cadenceID)
	if err != nil {
		t.Fatalf("FindOpenPeriod() error: %v", err)
	}
	if open != nil {
		t.Errorf("FindOpenPeriod() = %+v, want nil", open)
	}
}

func TestInsertPeriod_SecondOpenPeriodRejected(t *testing.T) {
	db := newTestDB(t)
	cadenceID, _, _ := db.CreateCadence(testCadence())

	// Period 1 is still open; a second open period violates the partial
	// unique index.
	_, err := db.InsertPeriod(domain.Period{CadenceID: cadenceID, Number: 2, StartDate: 5})
	if err == nil {
		t.Fatal("second open period for one cadence should be rejected")
	}
}

// ─── Rollover ───────────────────────────────────────────────────────────────

func TestRolloverPeriod(t *testing.T) {
	db := newTestDB(t)
	cadenceID, firstID, _ := db.CreateCadence(testCadence())

	end := int64(1_700_000_000_000 + 14*domain.MillisPerDay)
	next, err := db.RolloverPeriod(cadenceID, end, domain.Ptr("two weeks done"))
	if err != nil {
		t.Fatalf("RolloverPeriod() error: %v", err)
	}

	if next.Number != 2 {
		t.Errorf("next period number = %d, want 2", next.Number)
	}
	if next.StartDate != end {
		t.Errorf("next period start = %d, want prior end %d", next.StartDate, end)
	}

	closed, _ := db.GetPeriod(firstID)
	if closed.Active() {
		t.Error("prior period should be closed")
	}
	if closed.EndDate == nil || *closed.EndDate != end {
		t.Errorf("prior period end = %v, want %d", closed.EndDate, end)
	}
	if closed.Notes == nil || *closed.Notes != "two weeks done" {
		t.Errorf("prior period notes = %v, want rollover notes", closed.Notes)
	}

	// Exactly one open period remains.
	open, _ := db.FindOpenPeriod(cadenceID)
	if open == nil || open.ID != next.ID {
		t.Errorf("open period = %v, want the new one", open)
	}
}

func TestRolloverPeriod_NilNotesKeepsExisting(t *testing.T) {
	db := newTestDB(t)
	cadenceID, firstID, _ := db.CreateCadence(testCadence())

	p, _ := db.GetPeriod(firstID)
	p.Notes = domain.Ptr("loaded in Hamburg")
	db.UpdatePeriod(*p)

	if _, err := db.RolloverPeriod(cadenceID, 1_700_000_000_001, nil); err != nil {
		t.Fatal(err)
	}
	closed, _ := db.GetPeriod(firstID)
	if closed.Notes == nil || *closed.Notes != "loaded in Hamburg" {
		t.Errorf("notes = %v, want untouched notes", closed.Notes)
	}
}

func TestRolloverPeriod_NoActivePeriod(t *testing.T) {
	db := newTestDB(t)
	cadenceID, firstID, _ := db.CreateCadence(testCadence())

	p, _ := db.GetPeriod(firstID)
	p.EndDate = domain.Ptr[int64](123)
	db.UpdatePeriod(*p)

	_, err := db.RolloverPeriod(cadenceID, 456, nil)
	if !errors.Is(err, domain.ErrNoActivePeriod) {
		t.Errorf("RolloverPeriod() error = %v, want ErrNoActivePeriod", err)
	}
}

func TestRolloverPeriod_UsesMaxNumberNotCount(t *testing.T) {
	db := newTestDB(t)
	cadenceID, _, _ := db.CreateCadence(testCadence())

	// Roll twice, then delete the middle period to leave a numbering gap.
	db.RolloverPeriod(cadenceID, 100, nil)
	db.RolloverPeriod(cadenceID, 200, nil)
	periods, _ := db.ListPeriods(cadenceID)
	if len(periods) != 3 {
		t.Fatalf("period count = %d, want 3", len(periods))
	}
	if err := db.DeletePeriod(periods[1].ID); err != nil {
		t.Fatal(err)
	}

	next, err := db.RolloverPeriod(cadenceID, 300, nil)
	if err != nil {
		t.Fatal(err)
	}
	// count+1 would collide at 3; max+1 gives 4.
	if next.Number != 4 {
		t.Errorf("next number = %d, want 4 (max+1, not count+1)", next.Number)
	}
}

// ─── Aggregate Sums ─────────────────────────────────────────────────────────

func TestSumFuel_NullsCountAsZero(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	db.InsertRefueling(domain.Refueling{PeriodID: periodID, Number: 1, Date: 1, TruckFuel: domain.Ptr[int64](200), Card: "DKV"})
	db.InsertRefueling(domain.Refueling{PeriodID: periodID, Number: 2, Date: 2, TrailerFuel: domain.Ptr[int64](50), Card: "UTA"})

	total, err := db.SumFuel(periodID)
	if err != nil {
		t.Fatalf("SumFuel() error: %v", err)
	}
	if total != 250 {
		t.Errorf("SumFuel() = %d, want 250", total)
	}
}

func TestSumFuel_EmptyPeriod(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	total, err := db.SumFuel(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("SumFuel() on empty period = %d, want 0", total)
	}
}

func TestSumExpensesByCard(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	db.InsertExpense(domain.Expense{PeriodID: periodID, Number: 1, Date: 1, Description: "wash", Amount: 10, Currency: "EUR", Country: "DE", Card: "A"})
	db.InsertExpense(domain.Expense{PeriodID: periodID, Number: 2, Date: 2, Description: "toll", Amount: 5, Currency: "EUR", Country: "DE", Card: "A"})
	db.InsertExpense(domain.Expense{PeriodID: periodID, Number: 3, Date: 3, Description: "food", Amount: 7, Currency: "EUR", Country: "PL", Card: "B"})

	byA, err := db.SumExpensesByCard(periodID, "A")
	if err != nil {
		t.Fatal(err)
	}
	if byA != 15 {
		t.Errorf("SumExpensesByCard(A) = %v, want 15", byA)
	}

	all, _ := db.SumExpenses(periodID)
	if all != 22 {
		t.Errorf("SumExpenses() = %v, want 22", all)
	}

	none, _ := db.SumExpensesByCard(periodID, "missing")
	if none != 0 {
		t.Errorf("SumExpensesByCard(missing) = %v, want 0", none)
	}
}

func TestSumRouteMileage_UsesStoredField(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	// Stored mileage is authoritative even if odometer fields disagree.
	db.InsertRoute(domain.Route{PeriodID: periodID, Number: 1, StartDate: 1, StartOdometer: 100000, DepartureCountry: "DE", CargoName: "steel", Mileage: 750})
	db.InsertRoute(domain.Route{PeriodID: periodID, Number: 2, StartDate: 2, StartOdometer: 100750, DepartureCountry: "DE", CargoName: "paper", Mileage: 0})

	total, err := db.SumRouteMileage(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 750 {
		t.Errorf("SumRouteMileage() = %d, want 750", total)
	}
}

func TestSumCouplingEngineHours(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	db.InsertCoupling(domain.TrailerCoupling{PeriodID: periodID, Number: 1, FromTruck: "T1", Trailer: "TR-1", StartDate: 1, StartEngineHours: 100, StartFuel: 40, StartCountry: "DE", TotalEngineHours: 12})
	db.InsertCoupling(domain.TrailerCoupling{PeriodID: periodID, Number: 2, FromTruck: "T2", Trailer: "TR-2", StartDate: 2, StartEngineHours: 112, StartFuel: 35, StartCountry: "PL"})

	total, err := db.SumCouplingEngineHours(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 12 {
		t.Errorf("SumCouplingEngineHours() = %d, want 12", total)
	}
}

// ─── Child CRUD Round Trips ─────────────────────────────────────────────────

func TestRefuelingCRUD(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	id, err := db.InsertRefueling(domain.Refueling{
		PeriodID: periodID, Number: 1, Date: 77,
		TruckFuel: domain.Ptr[int64](300), Country: domain.Ptr("LT"), Card: "Neste",
	})
	if err != nil {
		t.Fatalf("InsertRefueling() error: %v", err)
	}

	r, err := db.GetRefueling(id)
	if err != nil {
		t.Fatal(err)
	}
	if r.TruckFuel == nil || *r.TruckFuel != 300 {
		t.Errorf("TruckFuel = %v, want 300", r.TruckFuel)
	}
	if r.TrailerFuel != nil {
		t.Errorf("TrailerFuel = %v, want nil", r.TrailerFuel)
	}

	r.AdBlue = domain.Ptr[int64](20)
	if err := db.UpdateRefueling(*r); err != nil {
		t.Fatal(err)
	}
	r2, _ := db.GetRefueling(id)
	if r2.AdBlue == nil || *r2.AdBlue != 20 {
		t.Errorf("AdBlue after update = %v, want 20", r2.AdBlue)
	}

	if err := db.DeleteRefueling(id); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetRefueling(id); !errors.Is(err, domain.ErrRefuelingNotFound) {
		t.Errorf("after delete error = %v, want ErrRefuelingNotFound", err)
	}
}

func TestRouteCRUD_NullableUnloadingFields(t *testing.T) {
	db := newTestDB(t)
	_, periodID, _ := db.CreateCadence(testCadence())

	id, err := db.InsertRoute(domain.Route{
		PeriodID: periodID, Number: 1, StartDate: 10,
		StartOdometer: 100000, DepartureCountry: "DE",
		CargoName: "steel coils", CargoWeight: 24000, CMRNumber: "CMR-7781",
		CargoTemperature: "ambient", CargoMode: "tautliner", Trailer: "TR-481",
		StartEngineHours: 5200,
	})
	if err != nil {
		t.Fatalf("InsertRoute() error: %v", err)
	}

	r, _ := db.GetRoute(id)
	if r.Status() != domain.RouteDraft {
		t.Errorf("fresh route status = %q, want DRAFT", r.Status())
	}

	r.EndDate = domain.Ptr[int64](20)
	r.EndOdometer = domain.Ptr[int64](100750)
	r.ArrivalCountry = domain.Ptr("FR")
	r.EndEngineHours = domain.Ptr[int64](5212)
	r.DeriveTotals()
	if err := db.UpdateRoute(*r); err != nil {
		t.Fatal(err)
	}

	done, _ := db.GetRoute(id)
	if done.Status() != domain.RouteCompleted {
		t.Errorf("status = %q, want COMPLETED", done.Status())
	}
	if done.Mileage != 750 {
		t.Errorf("Mileage = %d, want 750", done.Mileage)
	}
}

func TestListPeriods_Ordering(t *testing.T) {
	db := newTestDB(t)
	cadenceID, _, _ := db.CreateCadence(testCadence())
	db.RolloverPeriod(cadenceID, 100, nil)
	db.RolloverPeriod(cadenceID, 200, nil)

	periods, err := db.ListPeriods(cadenceID)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range periods {
		if p.Number != i+1 {
			t.Errorf("periods[%d].Number = %d, want %d", i, p.Number, i+1)
		}
	}
}
