package domain

import "testing"

func TestRouteStatus_Draft(t *testing.T) {
	r := Route{
		StartDate:        1000,
		StartOdometer:    100000,
		StartEngineHours: 500,
	}
	if got := r.Status(); got != RouteDraft {
		t.Errorf("Status() = %q, want %q", got, RouteDraft)
	}
}

func TestRouteStatus_PartialUnloading(t *testing.T) {
	// End odometer alone does not complete a route.
	r := Route{
		StartOdometer: 100000,
		EndOdometer:   Ptr[int64](100500),
	}
	if got := r.Status(); got != RouteDraft {
		t.Errorf("Status() = %q, want %q", got, RouteDraft)
	}
}

func TestRouteStatus_Completed(t *testing.T) {
	r := Route{
		StartDate:        1000,
		EndDate:          Ptr[int64](2000),
		StartOdometer:    100000,
		EndOdometer:      Ptr[int64](100750),
		ArrivalCountry:   Ptr("DE"),
		StartEngineHours: 500,
		EndEngineHours:   Ptr[int64](512),
	}
	if got := r.Status(); got != RouteCompleted {
		t.Fatalf("Status() = %q, want %q", got, RouteCompleted)
	}

	r.DeriveTotals()
	if r.Mileage != 750 {
		t.Errorf("Mileage = %d, want 750", r.Mileage)
	}
	if r.TotalEngineHours != 12 {
		t.Errorf("TotalEngineHours = %d, want 12", r.TotalEngineHours)
	}
}

func TestRouteStatus_BackwardsReadings(t *testing.T) {
	r := Route{
		EndDate:          Ptr[int64](2000),
		StartOdometer:    100000,
		EndOdometer:      Ptr[int64](99000), // went backwards
		ArrivalCountry:   Ptr("PL"),
		StartEngineHours: 500,
		EndEngineHours:   Ptr[int64](510),
	}
	if got := r.Status(); got != RouteDraft {
		t.Errorf("Status() = %q, want %q", got, RouteDraft)
	}

	r.DeriveTotals()
	if r.Mileage != 0 {
		t.Errorf("Mileage = %d, want 0 for draft route", r.Mileage)
	}
}

func TestCadenceClosed(t *testing.T) {
	c := Cadence{}
	if c.Closed() {
		t.Error("open cadence reported closed")
	}
	c.EndDate = Ptr[int64](1234)
	if !c.Closed() {
		t.Error("closed cadence reported open")
	}
}

func TestPeriodActive(t *testing.T) {
	p := Period{Number: 1}
	if !p.Active() {
		t.Error("period with nil end date should be active")
	}
	p.EndDate = Ptr[int64](99)
	if p.Active() {
		t.Error("period with end date should not be active")
	}
}

func TestRefuelingFuelTotal(t *testing.T) {
	tests := []struct {
		name    string
		truck   *int64
		trailer *int64
		want    int64
	}{
		{"both set", Ptr[int64](200), Ptr[int64](50), 250},
		{"truck only", Ptr[int64](200), nil, 200},
		{"trailer only", nil, Ptr[int64](50), 50},
		{"both nil", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Refueling{TruckFuel: tt.truck, TrailerFuel: tt.trailer}
			if got := r.FuelTotal(); got != tt.want {
				t.Errorf("FuelTotal() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWholeDays(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		end   int64
		want  int64
	}{
		{"ten days", 0, 10 * MillisPerDay, 10},
		{"partial day truncates", 0, 10*MillisPerDay + MillisPerDay/2, 10},
		{"same instant", 5000, 5000, 0},
		{"end before start", 10000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WholeDays(tt.start, tt.end); got != tt.want {
				t.Errorf("WholeDays(%d, %d) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestCouplingOpen(t *testing.T) {
	c := TrailerCoupling{Number: 1}
	if !c.Open() {
		t.Error("coupling without end date should be open")
	}
	c.EndDate = Ptr[int64](777)
	if c.Open() {
		t.Error("coupling with end date should be closed")
	}
}
