package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cadencelog/cadence/internal/domain"
)

// ─── Route Operations ───────────────────────────────────────────────────────

const routeColumns = `id, period_id, route_number, start_date, end_date,
	start_odometer, end_odometer, departure_country, arrival_country,
	cargo_name, cargo_weight, cmr_number, cargo_temperature, cargo_mode,
	trailer, start_engine_hours, end_engine_hours, total_engine_hours, mileage`

func scanRoute(row interface{ Scan(...any) error }) (*domain.Route, error) {
	var r domain.Route
	err := row.Scan(
		&r.ID, &r.PeriodID, &r.Number, &r.StartDate, &r.EndDate,
		&r.StartOdometer, &r.EndOdometer, &r.DepartureCountry, &r.ArrivalCountry,
		&r.CargoName, &r.CargoWeight, &r.CMRNumber, &r.CargoTemperature, &r.CargoMode,
		&r.Trailer, &r.StartEngineHours, &r.EndEngineHours, &r.TotalEngineHours, &r.Mileage,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertRoute stores a route. Derived fields (mileage, total engine hours)
// are persisted as given; deriving them is the lifecycle engine's job.
func (db *DB) InsertRoute(r domain.Route) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO routes (period_id, route_number, start_date, end_date,
			start_odometer, end_odometer, departure_country, arrival_country,
			cargo_name, cargo_weight, cmr_number, cargo_temperature, cargo_mode,
			trailer, start_engine_hours, end_engine_hours, total_engine_hours, mileage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.PeriodID, r.Number, r.StartDate, r.EndDate,
		r.StartOdometer, r.EndOdometer, r.DepartureCountry, r.ArrivalCountry,
		r.CargoName, r.CargoWeight, r.CMRNumber, r.CargoTemperature, r.CargoMode,
		r.Trailer, r.StartEngineHours, r.EndEngineHours, r.TotalEngineHours, r.Mileage)
	if err != nil {
		return 0, fmt.Errorf("insert route: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRoute rewrites a route.
func (db *DB) UpdateRoute(r domain.Route) error {
	res, err := db.db.Exec(`
		UPDATE routes
		SET route_number = ?, start_date = ?, end_date = ?,
			start_odometer = ?, end_odometer = ?,
			departure_country = ?, arrival_country = ?,
			cargo_name = ?, cargo_weight = ?, cmr_number = ?,
			cargo_temperature = ?, cargo_mode = ?, trailer = ?,
			start_engine_hours = ?, end_engine_hours = ?,
			total_engine_hours = ?, mileage = ?
		WHERE id = ?
	`, r.Number, r.StartDate, r.EndDate,
		r.StartOdometer, r.EndOdometer,
		r.DepartureCountry, r.ArrivalCountry,
		r.CargoName, r.CargoWeight, r.CMRNumber,
		r.CargoTemperature, r.CargoMode, r.Trailer,
		r.StartEngineHours, r.EndEngineHours,
		r.TotalEngineHours, r.Mileage, r.ID)
	if err != nil {
		return fmt.Errorf("update route: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRouteNotFound
	}
	return nil
}

// DeleteRoute removes a route.
func (db *DB) DeleteRoute(id int64) error {
	res, err := db.db.Exec(`DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRouteNotFound
	}
	return nil
}

// GetRoute retrieves one route.
func (db *DB) GetRoute(id int64) (*domain.Route, error) {
	r, err := scanRoute(db.db.QueryRow(
		`SELECT `+routeColumns+` FROM routes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return r, nil
}

// ListRoutes returns a period's routes, newest start date first.
func (db *DB) ListRoutes(periodID int64) ([]domain.Route, error) {
	rows, err := db.db.Query(`
		SELECT `+routeColumns+` FROM routes
		WHERE period_id = ? ORDER BY start_date DESC, id DESC
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var result []domain.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// SumRouteMileage sums the stored per-route mileage for a period.
// Routes store their own mileage at creation/edit time; this never
// recomputes it from odometer readings.
func (db *DB) SumRouteMileage(periodID int64) (int64, error) {
	var total int64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(mileage), 0) FROM routes WHERE period_id = ?
	`, periodID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum route mileage: %w", err)
	}
	return total, nil
}
