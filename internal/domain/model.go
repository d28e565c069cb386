// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"fmt"
	"time"
)

// All timestamps are Unix milliseconds. The logbook records what the driver
// typed when they typed it; sub-second precision never matters here.

// MillisPerDay is the divisor for whole-day calculations.
const MillisPerDay = 24 * 60 * 60 * 1000

// ─── Cadence ────────────────────────────────────────────────────────────────

// Cadence is one multi-week work assignment, bounded by explicit start and
// close actions. End fields are either all nil (open) or all set (closed).
type Cadence struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`

	Driver1 string  `json:"driver1"`
	Driver2 *string `json:"driver2,omitempty"`

	StartDate int64  `json:"start_date"`
	EndDate   *int64 `json:"end_date,omitempty"`

	Truck        string  `json:"truck"`
	StartTrailer string  `json:"start_trailer"`
	EndTrailer   *string `json:"end_trailer,omitempty"`

	StartOdometer int64  `json:"start_odometer"`
	EndOdometer   *int64 `json:"end_odometer,omitempty"`

	StartTruckFuel   int64  `json:"start_truck_fuel"`
	EndTruckFuel     *int64 `json:"end_truck_fuel,omitempty"`
	StartTrailerFuel int64  `json:"start_trailer_fuel"`
	EndTrailerFuel   *int64 `json:"end_trailer_fuel,omitempty"`

	StartEngineHours int64  `json:"start_engine_hours"`
	EndEngineHours   *int64 `json:"end_engine_hours,omitempty"`

	// Derived on close, zero while open.
	TotalMileage int64 `json:"total_mileage"`
	TotalDays    int64 `json:"total_days"`
}

// Closed reports whether the cadence has been closed.
func (c Cadence) Closed() bool { return c.EndDate != nil }

// CadenceClosing carries the end-of-assignment readings for closing a
// cadence. TotalMileage and TotalDays are computed by the lifecycle engine,
// never by the caller.
type CadenceClosing struct {
	EndDate        int64  `json:"end_date"`
	EndTrailer     string `json:"end_trailer"`
	EndOdometer    int64  `json:"end_odometer"`
	EndTruckFuel   int64  `json:"end_truck_fuel"`
	EndTrailerFuel int64  `json:"end_trailer_fuel"`
	EndEngineHours int64  `json:"end_engine_hours"`
}

// ─── Period ─────────────────────────────────────────────────────────────────

// Period is a time-bounded sub-interval of a cadence. At most one period per
// cadence is active (EndDate == nil) at any time; the storage layer enforces
// this with a partial unique index.
type Period struct {
	ID        int64   `json:"id"`
	CadenceID int64   `json:"cadence_id"`
	Number    int     `json:"number"`
	StartDate int64   `json:"start_date"`
	EndDate   *int64  `json:"end_date,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Active reports whether the period is the currently open one.
func (p Period) Active() bool { return p.EndDate == nil }

// ─── Route ──────────────────────────────────────────────────────────────────

// RouteStatus is the lifecycle state of a route, derived from its fields.
type RouteStatus string

const (
	RouteDraft     RouteStatus = "DRAFT"
	RouteCompleted RouteStatus = "COMPLETED"
)

// Route is one cargo trip within a period. It stays DRAFT until all
// unloading fields are filled in.
type Route struct {
	ID       int64 `json:"id"`
	PeriodID int64 `json:"period_id"`
	Number   int   `json:"number"`

	StartDate int64  `json:"start_date"`
	EndDate   *int64 `json:"end_date,omitempty"`

	StartOdometer int64  `json:"start_odometer"`
	EndOdometer   *int64 `json:"end_odometer,omitempty"`

	DepartureCountry string  `json:"departure_country"`
	ArrivalCountry   *string `json:"arrival_country,omitempty"`

	CargoName        string `json:"cargo_name"`
	CargoWeight      int64  `json:"cargo_weight"`
	CMRNumber        string `json:"cmr_number"`
	CargoTemperature string `json:"cargo_temperature"`
	CargoMode        string `json:"cargo_mode"`

	Trailer string `json:"trailer"`

	StartEngineHours int64  `json:"start_engine_hours"`
	EndEngineHours   *int64 `json:"end_engine_hours,omitempty"`

	// Derived: zero while DRAFT.
	TotalEngineHours int64 `json:"total_engine_hours"`
	Mileage          int64 `json:"mileage"`
}

// Status derives the route's lifecycle state. A route is COMPLETED once all
// unloading fields are present and the end readings exceed the start
// readings; otherwise it is DRAFT.
func (r Route) Status() RouteStatus {
	if r.EndDate == nil || r.EndOdometer == nil || r.ArrivalCountry == nil || r.EndEngineHours == nil {
		return RouteDraft
	}
	if *r.EndOdometer <= r.StartOdometer || *r.EndEngineHours <= r.StartEngineHours {
		return RouteDraft
	}
	return RouteCompleted
}

// DeriveTotals fills in Mileage and TotalEngineHours from the raw readings.
// Both stay zero until the route is completed.
func (r *Route) DeriveTotals() {
	if r.Status() != RouteCompleted {
		r.Mileage = 0
		r.TotalEngineHours = 0
		return
	}
	r.Mileage = *r.EndOdometer - r.StartOdometer
	r.TotalEngineHours = *r.EndEngineHours - r.StartEngineHours
}

// ─── Refueling ──────────────────────────────────────────────────────────────

// Refueling is one fuel purchase. Any of the quantity fields may be absent;
// aggregation treats missing readings as zero.
type Refueling struct {
	ID          int64   `json:"id"`
	PeriodID    int64   `json:"period_id"`
	Number      int     `json:"number"`
	Date        int64   `json:"date"`
	TruckFuel   *int64  `json:"truck_fuel,omitempty"`
	TrailerFuel *int64  `json:"trailer_fuel,omitempty"`
	AdBlue      *int64  `json:"ad_blue,omitempty"`
	Country     *string `json:"country,omitempty"`
	Card        string  `json:"card"`
}

// FuelTotal returns truck + trailer fuel with nil readings counted as zero.
func (r Refueling) FuelTotal() int64 {
	return valueOr(r.TruckFuel, 0) + valueOr(r.TrailerFuel, 0)
}

// ─── Expense ────────────────────────────────────────────────────────────────

// Expense is one cash or card expenditure.
type Expense struct {
	ID          int64   `json:"id"`
	PeriodID    int64   `json:"period_id"`
	Number      int     `json:"number"`
	Date        int64   `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Country     string  `json:"country"`
	Card        string  `json:"card"`
}

// ─── Trailer Coupling ───────────────────────────────────────────────────────

// TrailerCoupling is one trailer hand-off event. Like a period, it is open
// until its end fields are set, and they are set together or not at all.
type TrailerCoupling struct {
	ID       int64 `json:"id"`
	PeriodID int64 `json:"period_id"`
	Number   int   `json:"number"`

	FromTruck string `json:"from_truck"`
	Trailer   string `json:"trailer"`

	StartDate int64  `json:"start_date"`
	EndDate   *int64 `json:"end_date,omitempty"`

	StartEngineHours int64  `json:"start_engine_hours"`
	EndEngineHours   *int64 `json:"end_engine_hours,omitempty"`
	TotalEngineHours int64  `json:"total_engine_hours"`

	StartFuel int64  `json:"start_fuel"`
	EndFuel   *int64 `json:"end_fuel,omitempty"`

	StartCountry string  `json:"start_country"`
	EndCountry   *string `json:"end_country,omitempty"`
}

// Open reports whether the trailer is still attached.
func (t TrailerCoupling) Open() bool { return t.EndDate == nil }

// CouplingClosing carries the hand-back readings for closing a coupling.
type CouplingClosing struct {
	EndDate        int64  `json:"end_date"`
	EndEngineHours int64  `json:"end_engine_hours"`
	EndFuel        int64  `json:"end_fuel"`
	EndCountry     string `json:"end_country"`
}

// ─── Utilities ──────────────────────────────────────────────────────────────

// WholeDays returns the number of complete days between two millisecond
// timestamps, truncated.
func WholeDays(startMillis, endMillis int64) int64 {
	if endMillis < startMillis {
		return 0
	}
	return (endMillis - startMillis) / MillisPerDay
}

// FormatMillis renders a millisecond timestamp for display and reports.
func FormatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

// Ptr returns a pointer to v. Handy for filling optional fields.
func Ptr[T any](v T) *T { return &v }

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// HumanKm formats a mileage figure for CLI output.
func HumanKm(km int64) string {
	return fmt.Sprintf("%d km", km)
}
