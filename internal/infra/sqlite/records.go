// Refueling, expense, and trailer-coupling persistence.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cadencelog/cadence/internal/domain"
)

// ─── Refueling Operations ───────────────────────────────────────────────────

const refuelingColumns = `id, period_id, refueling_number, date,
	truck_fuel, trailer_fuel, ad_blue, country, card`

func scanRefueling(row interface{ Scan(...any) error }) (*domain.Refueling, error) {
	var r domain.Refueling
	err := row.Scan(&r.ID, &r.PeriodID, &r.Number, &r.Date,
		&r.TruckFuel, &r.TrailerFuel, &r.AdBlue, &r.Country, &r.Card)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertRefueling stores a fuel purchase.
func (db *DB) InsertRefueling(r domain.Refueling) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO refuelings (period_id, refueling_number, date,
			truck_fuel, trailer_fuel, ad_blue, country, card)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.PeriodID, r.Number, r.Date,
		r.TruckFuel, r.TrailerFuel, r.AdBlue, r.Country, r.Card)
	if err != nil {
		return 0, fmt.Errorf("insert refueling: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRefueling rewrites a refueling.
func (db *DB) UpdateRefueling(r domain.Refueling) error {
	res, err := db.db.Exec(`
		UPDATE refuelings
		SET refueling_number = ?, date = ?, truck_fuel = ?, trailer_fuel = ?,
			ad_blue = ?, country = ?, card = ?
		WHERE id = ?
	`, r.Number, r.Date, r.TruckFuel, r.TrailerFuel,
		r.AdBlue, r.Country, r.Card, r.ID)
	if err != nil {
		return fmt.Errorf("update refueling: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRefuelingNotFound
	}
	return nil
}

// DeleteRefueling removes a refueling.
func (db *DB) DeleteRefueling(id int64) error {
	res, err := db.db.Exec(`DELETE FROM refuelings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete refueling: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRefuelingNotFound
	}
	return nil
}

// GetRefueling retrieves one refueling.
func (db *DB) GetRefueling(id int64) (*domain.Refueling, error) {
	r, err := scanRefueling(db.db.QueryRow(
		`SELECT `+refuelingColumns+` FROM refuelings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRefuelingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refueling: %w", err)
	}
	return r, nil
}

// ListRefuelings returns a period's refuelings, newest first.
func (db *DB) ListRefuelings(periodID int64) ([]domain.Refueling, error) {
	rows, err := db.db.Query(`
		SELECT `+refuelingColumns+` FROM refuelings
		WHERE period_id = ? ORDER BY date DESC, id DESC
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list refuelings: %w", err)
	}
	defer rows.Close()

	var result []domain.Refueling
	for rows.Next() {
		r, err := scanRefueling(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// SumFuel sums truck + trailer fuel over a period, counting missing
// readings as zero rather than excluding the record.
func (db *DB) SumFuel(periodID int64) (int64, error) {
	var total int64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(COALESCE(truck_fuel, 0) + COALESCE(trailer_fuel, 0)), 0)
		FROM refuelings WHERE period_id = ?
	`, periodID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum fuel: %w", err)
	}
	return total, nil
}

// SumAdBlue sums AdBlue over a period.
func (db *DB) SumAdBlue(periodID int64) (int64, error) {
	var total int64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(COALESCE(ad_blue, 0)), 0)
		FROM refuelings WHERE period_id = ?
	`, periodID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum adblue: %w", err)
	}
	return total, nil
}

// ─── Expense Operations ─────────────────────────────────────────────────────

const expenseColumns = `id, period_id, expense_number, date, description,
	amount, currency, country, card`

func scanExpense(row interface{ Scan(...any) error }) (*domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(&e.ID, &e.PeriodID, &e.Number, &e.Date, &e.Description,
		&e.Amount, &e.Currency, &e.Country, &e.Card)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertExpense stores an expenditure.
func (db *DB) InsertExpense(e domain.Expense) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO expenses (period_id, expense_number, date, description,
			amount, currency, country, card)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.PeriodID, e.Number, e.Date, e.Description,
		e.Amount, e.Currency, e.Country, e.Card)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return res.LastInsertId()
}

// UpdateExpense rewrites an expense.
func (db *DB) UpdateExpense(e domain.Expense) error {
	res, err := db.db.Exec(`
		UPDATE expenses
		SET expense_number = ?, date = ?, description = ?, amount = ?,
			currency = ?, country = ?, card = ?
		WHERE id = ?
	`, e.Number, e.Date, e.Description, e.Amount,
		e.Currency, e.Country, e.Card, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// DeleteExpense removes an expense.
func (db *DB) DeleteExpense(id int64) error {
	res, err := db.db.Exec(`DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// GetExpense retrieves one expense.
func (db *DB) GetExpense(id int64) (*domain.Expense, error) {
	e, err := scanExpense(db.db.QueryRow(
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns a period's expenses, newest first.
func (db *DB) ListExpenses(periodID int64) ([]domain.Expense, error) {
	rows, err := db.db.Query(`
		SELECT `+expenseColumns+` FROM expenses
		WHERE period_id = ? ORDER BY date DESC, id DESC
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var result []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// SumExpenses sums expense amounts over a period.
func (db *DB) SumExpenses(periodID int64) (float64, error) {
	var total float64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE period_id = ?
	`, periodID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// SumExpensesByCard sums expense amounts for one payment card.
func (db *DB) SumExpensesByCard(periodID int64, card string) (float64, error) {
	var total float64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE period_id = ? AND card = ?
	`, periodID, card).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses by card: %w", err)
	}
	return total, nil
}

// ─── Trailer Coupling Operations ────────────────────────────────────────────

const couplingColumns = `id, period_id, coupling_number, from_truck, trailer,
	start_date, end_date, start_engine_hours, end_engine_hours,
	total_engine_hours, start_fuel, end_fuel, start_country, end_country`

func scanCoupling(row interface{ Scan(...any) error }) (*domain.TrailerCoupling, error) {
	var c domain.TrailerCoupling
	err := row.Scan(&c.ID, &c.PeriodID, &c.Number, &c.FromTruck, &c.Trailer,
		&c.StartDate, &c.EndDate, &c.StartEngineHours, &c.EndEngineHours,
		&c.TotalEngineHours, &c.StartFuel, &c.EndFuel, &c.StartCountry, &c.EndCountry)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCoupling stores a trailer hand-off.
func (db *DB) InsertCoupling(c domain.TrailerCoupling) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO couplings (period_id, coupling_number, from_truck, trailer,
			start_date, end_date, start_engine_hours, end_engine_hours,
			total_engine_hours, start_fuel, end_fuel, start_country, end_country)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.PeriodID, c.Number, c.FromTruck, c.Trailer,
		c.StartDate, c.EndDate, c.StartEngineHours, c.EndEngineHours,
		c.TotalEngineHours, c.StartFuel, c.EndFuel, c.StartCountry, c.EndCountry)
	if err != nil {
		return 0, fmt.Errorf("insert coupling: %w", err)
	}
	return res.LastInsertId()
}

// UpdateCoupling rewrites a coupling.
func (db *DB) UpdateCoupling(c domain.TrailerCoupling) error {
	res, err := db.db.Exec(`
		UPDATE couplings
		SET coupling_number = ?, from_truck = ?, trailer = ?,
			start_date = ?, end_date = ?,
			start_engine_hours = ?, end_engine_hours = ?, total_engine_hours = ?,
			start_fuel = ?, end_fuel = ?, start_country = ?, end_country = ?
		WHERE id = ?
	`, c.Number, c.FromTruck, c.Trailer,
		c.StartDate, c.EndDate,
		c.StartEngineHours, c.EndEngineHours, c.TotalEngineHours,
		c.StartFuel, c.EndFuel, c.StartCountry, c.EndCountry, c.ID)
	if err != nil {
		return fmt.Errorf("update coupling: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCouplingNotFound
	}
	return nil
}

// DeleteCoupling removes a coupling.
func (db *DB) DeleteCoupling(id int64) error {
	res, err := db.db.Exec(`DELETE FROM couplings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete coupling: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCouplingNotFound
	}
	return nil
}

// GetCoupling retrieves one coupling.
func (db *DB) GetCoupling(id int64) (*domain.TrailerCoupling, error) {
	c, err := scanCoupling(db.db.QueryRow(
		`SELECT `+couplingColumns+` FROM couplings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCouplingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get coupling: %w", err)
	}
	return c, nil
}

// ListCouplings returns a period's couplings, newest start first.
func (db *DB) ListCouplings(periodID int64) ([]domain.TrailerCoupling, error) {
	rows, err := db.db.Query(`
		SELECT `+couplingColumns+` FROM couplings
		WHERE period_id = ? ORDER BY start_date DESC, id DESC
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list couplings: %w", err)
	}
	defer rows.Close()

	var result []domain.TrailerCoupling
	for rows.Next() {
		c, err := scanCoupling(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// SumCouplingEngineHours sums the stored total engine hours over a period's
// couplings. Open couplings contribute zero.
func (db *DB) SumCouplingEngineHours(periodID int64) (int64, error) {
	var total int64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(total_engine_hours), 0) FROM couplings WHERE period_id = ?
	`, periodID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum coupling engine hours: %w", err)
	}
	return total, nil
}
