package logbook

import (
	"testing"

	"github.com/cadencelog/cadence/internal/domain"
)

// seedPeriod opens a cadence and fills its first period with the fixture
// rows used across the aggregate tests.
func seedPeriod(t *testing.T, l *Lifecycle) int64 {
	t.Helper()
	c := startCadence(t, l)
	p, err := l.CurrentPeriod(c.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Two completed routes and one draft.
	routes := []domain.Route{
		{Number: 1, StartDate: 10, EndDate: domain.Ptr[int64](20), StartOdometer: 100000,
			EndOdometer: domain.Ptr[int64](100400), DepartureCountry: "DE",
			ArrivalCountry: domain.Ptr("FR"), CargoName: "steel",
			StartEngineHours: 100, EndEngineHours: domain.Ptr[int64](108)},
		{Number: 2, StartDate: 30, EndDate: domain.Ptr[int64](40), StartOdometer: 100400,
			EndOdometer: domain.Ptr[int64](100750), DepartureCountry: "FR",
			ArrivalCountry: domain.Ptr("ES"), CargoName: "produce",
			StartEngineHours: 108, EndEngineHours: domain.Ptr[int64](115)},
		{Number: 3, StartDate: 50, StartOdometer: 100750, DepartureCountry: "ES",
			CargoName: "pending", StartEngineHours: 115},
	}
	for _, r := range routes {
		if _, err := l.AddRoute(p.ID, r); err != nil {
			t.Fatal(err)
		}
	}

	// Refuelings with absent readings mixed in.
	refuelings := []domain.Refueling{
		{Number: 1, Date: 11, TruckFuel: domain.Ptr[int64](200), Card: "DKV"},
		{Number: 2, Date: 31, TrailerFuel: domain.Ptr[int64](50),
			AdBlue: domain.Ptr[int64](20), Card: "UTA"},
		{Number: 3, Date: 51, Card: "DKV"}, // no quantities at all
	}
	for _, r := range refuelings {
		if _, err := l.AddRefueling(p.ID, r); err != nil {
			t.Fatal(err)
		}
	}

	expenses := []domain.Expense{
		{Number: 1, Date: 12, Description: "parking", Amount: 10, Currency: "EUR", Country: "DE", Card: "A"},
		{Number: 2, Date: 32, Description: "toll", Amount: 5, Currency: "EUR", Country: "FR", Card: "A"},
		{Number: 3, Date: 52, Description: "wash", Amount: 7, Currency: "PLN", Country: "PL", Card: "B"},
	}
	for _, e := range expenses {
		if _, err := l.AddExpense(p.ID, e); err != nil {
			t.Fatal(err)
		}
	}

	// One closed coupling, one still open.
	closed, err := l.AddCoupling(p.ID, domain.TrailerCoupling{
		Number: 1, FromTruck: "MAN", Trailer: "TR-1", StartDate: 10,
		StartEngineHours: 100, StartFuel: 40, StartCountry: "DE",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.CloseCoupling(closed.ID, domain.CouplingClosing{
		EndDate: 40, EndEngineHours: 115, EndFuel: 20, EndCountry: "ES",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddCoupling(p.ID, domain.TrailerCoupling{
		Number: 2, FromTruck: "MAN", Trailer: "TR-2", StartDate: 41,
		StartEngineHours: 115, StartFuel: 20, StartCountry: "ES",
	}); err != nil {
		t.Fatal(err)
	}

	return p.ID
}

func TestExpenseAggregates(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	periodID := seedPeriod(t, l)

	total, err := agg.TotalExpenses(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 22 {
		t.Errorf("TotalExpenses = %v, want 22", total)
	}

	byCard, err := agg.TotalsByCard(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if byCard["A"] != 15 || byCard["B"] != 7 {
		t.Errorf("TotalsByCard = %v, want A:15 B:7", byCard)
	}
	if len(byCard) != 2 {
		t.Errorf("TotalsByCard has %d entries, want 2", len(byCard))
	}

	forCard, err := agg.TotalExpensesByCard(periodID, "A")
	if err != nil {
		t.Fatal(err)
	}
	if forCard != 15 {
		t.Errorf("TotalExpensesByCard(A) = %v, want 15", forCard)
	}
	if missing, _ := agg.TotalExpensesByCard(periodID, "nope"); missing != 0 {
		t.Errorf("TotalExpensesByCard(missing card) = %v, want 0", missing)
	}

	byCurrency, err := agg.TotalsByCurrency(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if byCurrency["EUR"] != 15 || byCurrency["PLN"] != 7 {
		t.Errorf("TotalsByCurrency = %v, want EUR:15 PLN:7", byCurrency)
	}
}

func TestFuelAggregates_AbsentReadingsCountAsZero(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	periodID := seedPeriod(t, l)

	fuel, err := agg.TotalFuel(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if fuel != 250 {
		t.Errorf("TotalFuel = %d, want 250", fuel)
	}

	adBlue, err := agg.TotalAdBlue(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if adBlue != 20 {
		t.Errorf("TotalAdBlue = %d, want 20", adBlue)
	}

	byCard, err := agg.FuelByCard(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if byCard["DKV"] != 200 || byCard["UTA"] != 50 {
		t.Errorf("FuelByCard = %v, want DKV:200 UTA:50", byCard)
	}
}

func TestMileageAndEngineHours_DraftsContributeNothing(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	periodID := seedPeriod(t, l)

	km, err := agg.TotalMileage(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if km != 750 {
		t.Errorf("TotalMileage = %d, want 750 (400+350, draft excluded)", km)
	}

	hours, err := agg.TotalEngineHours(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if hours != 15 {
		t.Errorf("TotalEngineHours = %d, want 15 from the closed coupling", hours)
	}
}

func TestOpenCouplings(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	periodID := seedPeriod(t, l)

	open, err := agg.OpenCouplings(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("OpenCouplings = %d couplings, want 1", len(open))
	}
	if open[0].Trailer != "TR-2" {
		t.Errorf("open coupling trailer = %q, want TR-2", open[0].Trailer)
	}
}

func TestAggregates_EmptyPeriod(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	c := startCadence(t, l)
	p, _ := l.CurrentPeriod(c.ID)

	if total, err := agg.TotalExpenses(p.ID); err != nil || total != 0 {
		t.Errorf("TotalExpenses(empty) = %v, %v; want 0, nil", total, err)
	}
	if fuel, err := agg.TotalFuel(p.ID); err != nil || fuel != 0 {
		t.Errorf("TotalFuel(empty) = %v, %v; want 0, nil", fuel, err)
	}
	if km, err := agg.TotalMileage(p.ID); err != nil || km != 0 {
		t.Errorf("TotalMileage(empty) = %v, %v; want 0, nil", km, err)
	}
	if byCard, err := agg.TotalsByCard(p.ID); err != nil || len(byCard) != 0 {
		t.Errorf("TotalsByCard(empty) = %v, %v; want empty map, nil", byCard, err)
	}
}

func TestSummarize(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	periodID := seedPeriod(t, l)

	s, err := agg.Summarize(periodID)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if s.Routes != 3 || s.Completed != 2 {
		t.Errorf("routes = %d completed = %d, want 3/2", s.Routes, s.Completed)
	}
	if s.Mileage != 750 {
		t.Errorf("Mileage = %d, want 750", s.Mileage)
	}
	if s.Fuel != 250 || s.AdBlue != 20 {
		t.Errorf("Fuel = %d AdBlue = %d, want 250/20", s.Fuel, s.AdBlue)
	}
	if s.Expenses != 22 {
		t.Errorf("Expenses = %v, want 22", s.Expenses)
	}
	if s.Couplings != 2 || s.OpenCouplings != 1 {
		t.Errorf("Couplings = %d open = %d, want 2/1", s.Couplings, s.OpenCouplings)
	}
}

// Aggregates are recomputed from the rows on every call, so re-reading
// without mutating yields identical figures.
func TestAggregates_StableOnReload(t *testing.T) {
	l, agg, _ := newTestEngine(t)
	periodID := seedPeriod(t, l)

	first, err := agg.Summarize(periodID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := agg.Summarize(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Expenses != second.Expenses || first.Fuel != second.Fuel || first.Mileage != second.Mileage {
		t.Errorf("figures changed between identical reads: %+v vs %+v", first, second)
	}

	// Mutations do move the figures.
	if _, err := l.AddExpense(periodID, domain.Expense{
		Number: 4, Date: 60, Description: "meal", Amount: 3, Currency: "EUR", Country: "ES", Card: "B",
	}); err != nil {
		t.Fatal(err)
	}
	third, err := agg.Summarize(periodID)
	if err != nil {
		t.Fatal(err)
	}
	if third.Expenses != 25 {
		t.Errorf("Expenses after new row = %v, want 25", third.Expenses)
	}
}
