package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cadencelog/cadence/internal/domain"
)

// ─── Cadence Operations ─────────────────────────────────────────────────────

const cadenceColumns = `id, number, driver1, driver2, start_date, end_date,
	truck, start_trailer, end_trailer, start_odometer, end_odometer,
	start_truck_fuel, end_truck_fuel, start_trailer_fuel, end_trailer_fuel,
	start_engine_hours, end_engine_hours, total_mileage, total_days`

func scanCadence(row interface{ Scan(...any) error }) (*domain.Cadence, error) {
	var c domain.Cadence
	err := row.Scan(
		&c.ID, &c.Number, &c.Driver1, &c.Driver2, &c.StartDate, &c.EndDate,
		&c.Truck, &c.StartTrailer, &c.EndTrailer, &c.StartOdometer, &c.EndOdometer,
		&c.StartTruckFuel, &c.EndTruckFuel, &c.StartTrailerFuel, &c.EndTrailerFuel,
		&c.StartEngineHours, &c.EndEngineHours, &c.TotalMileage, &c.TotalDays,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCadence inserts the cadence and its first period in one transaction.
// The first period is numbered 1 and starts at the cadence start date.
func (db *DB) CreateCadence(c domain.Cadence) (cadenceID, periodID int64, err error) {
	tx, err := db.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin create cadence: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO cadences (number, driver1, driver2, start_date, truck,
			start_trailer, start_odometer, start_truck_fuel,
			start_trailer_fuel, start_engine_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Number, c.Driver1, c.Driver2, c.StartDate, c.Truck,
		c.StartTrailer, c.StartOdometer, c.StartTruckFuel,
		c.StartTrailerFuel, c.StartEngineHours)
	if err != nil {
		return 0, 0, fmt.Errorf("insert cadence: %w", err)
	}
	cadenceID, err = res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	res, err = tx.Exec(`
		INSERT INTO periods (cadence_id, period_number, start_date)
		VALUES (?, 1, ?)
	`, cadenceID, c.StartDate)
	if err != nil {
		return 0, 0, fmt.Errorf("insert first period: %w", err)
	}
	periodID, err = res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit create cadence: %w", err)
	}
	return cadenceID, periodID, nil
}

// CloseCadence writes all end fields plus the derived totals in one update
// and closes the cadence's open period, if any, in the same transaction.
func (db *DB) CloseCadence(id int64, closing domain.CadenceClosing, totalMileage, totalDays int64) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("begin close cadence: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE cadences
		SET end_date = ?, end_trailer = ?, end_odometer = ?,
			end_truck_fuel = ?, end_trailer_fuel = ?, end_engine_hours = ?,
			total_mileage = ?, total_days = ?
		WHERE id = ?
	`, closing.EndDate, closing.EndTrailer, closing.EndOdometer,
		closing.EndTruckFuel, closing.EndTrailerFuel, closing.EndEngineHours,
		totalMileage, totalDays, id)
	if err != nil {
		return fmt.Errorf("close cadence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCadenceNotFound
	}

	// A closed cadence keeps no open period behind.
	if _, err := tx.Exec(`
		UPDATE periods SET end_date = ?
		WHERE cadence_id = ? AND end_date IS NULL
	`, closing.EndDate, id); err != nil {
		return fmt.Errorf("close open period: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit close cadence: %w", err)
	}
	return nil
}

// UpdateCadence rewrites every editable field of the cadence.
func (db *DB) UpdateCadence(c domain.Cadence) error {
	res, err := db.db.Exec(`
		UPDATE cadences
		SET number = ?, driver1 = ?, driver2 = ?, start_date = ?, end_date = ?,
			truck = ?, start_trailer = ?, end_trailer = ?,
			start_odometer = ?, end_odometer = ?,
			start_truck_fuel = ?, end_truck_fuel = ?,
			start_trailer_fuel = ?, end_trailer_fuel = ?,
			start_engine_hours = ?, end_engine_hours = ?,
			total_mileage = ?, total_days = ?
		WHERE id = ?
	`, c.Number, c.Driver1, c.Driver2, c.StartDate, c.EndDate,
		c.Truck, c.StartTrailer, c.EndTrailer,
		c.StartOdometer, c.EndOdometer,
		c.StartTruckFuel, c.EndTruckFuel,
		c.StartTrailerFuel, c.EndTrailerFuel,
		c.StartEngineHours, c.EndEngineHours,
		c.TotalMileage, c.TotalDays, c.ID)
	if err != nil {
		return fmt.Errorf("update cadence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCadenceNotFound
	}
	return nil
}

// DeleteCadence removes the cadence; periods and their child records go
// with it via cascade.
func (db *DB) DeleteCadence(id int64) error {
	res, err := db.db.Exec(`DELETE FROM cadences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cadence: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCadenceNotFound
	}
	return nil
}

// GetCadence retrieves one cadence.
func (db *DB) GetCadence(id int64) (*domain.Cadence, error) {
	c, err := scanCadence(db.db.QueryRow(
		`SELECT `+cadenceColumns+` FROM cadences WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCadenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cadence: %w", err)
	}
	return c, nil
}

// ListCadences returns all cadences, newest start date first.
func (db *DB) ListCadences() ([]domain.Cadence, error) {
	rows, err := db.db.Query(
		`SELECT ` + cadenceColumns + ` FROM cadences ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cadences: %w", err)
	}
	defer rows.Close()

	var result []domain.Cadence
	for rows.Next() {
		c, err := scanCadence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}
