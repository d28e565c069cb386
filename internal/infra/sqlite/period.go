package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cadencelog/cadence/internal/domain"
)

// ─── Period Operations ──────────────────────────────────────────────────────

const periodColumns = `id, cadence_id, period_number, start_date, end_date, notes`

func scanPeriod(row interface{ Scan(...any) error }) (*domain.Period, error) {
	var p domain.Period
	err := row.Scan(&p.ID, &p.CadenceID, &p.Number, &p.StartDate, &p.EndDate, &p.Notes)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOpenPeriod returns the cadence's period with no end date, or nil when
// every period is closed. Zero open periods is a valid state (cadence
// closed, or rollover never happened), not an error.
func (db *DB) FindOpenPeriod(cadenceID int64) (*domain.Period, error) {
	p, err := scanPeriod(db.db.QueryRow(`
		SELECT `+periodColumns+` FROM periods
		WHERE cadence_id = ? AND end_date IS NULL
	`, cadenceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open period: %w", err)
	}
	return p, nil
}

// RolloverPeriod closes the open period at endDate and inserts its successor
// in one transaction. The successor is numbered max(period_number)+1 — not
// count+1, so numbering survives manual deletions — and starts exactly at
// endDate: no gap, no overlap.
func (db *DB) RolloverPeriod(cadenceID int64, endDate int64, notes *string) (*domain.Period, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin rollover: %w", err)
	}
	defer tx.Rollback()

	current, err := scanPeriod(tx.QueryRow(`
		SELECT `+periodColumns+` FROM periods
		WHERE cadence_id = ? AND end_date IS NULL
	`, cadenceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoActivePeriod
	}
	if err != nil {
		return nil, fmt.Errorf("rollover lookup: %w", err)
	}

	if notes == nil {
		notes = current.Notes
	}
	if _, err := tx.Exec(`
		UPDATE periods SET end_date = ?, notes = ? WHERE id = ?
	`, endDate, notes, current.ID); err != nil {
		return nil, fmt.Errorf("close period: %w", err)
	}

	var maxNumber int
	if err := tx.QueryRow(`
		SELECT COALESCE(MAX(period_number), 0) FROM periods WHERE cadence_id = ?
	`, cadenceID).Scan(&maxNumber); err != nil {
		return nil, fmt.Errorf("max period number: %w", err)
	}

	next := domain.Period{
		CadenceID: cadenceID,
		Number:    maxNumber + 1,
		StartDate: endDate,
	}
	res, err := tx.Exec(`
		INSERT INTO periods (cadence_id, period_number, start_date)
		VALUES (?, ?, ?)
	`, next.CadenceID, next.Number, next.StartDate)
	if err != nil {
		return nil, fmt.Errorf("insert next period: %w", err)
	}
	if next.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rollover: %w", err)
	}
	return &next, nil
}

// InsertPeriod inserts a period directly. Back-fill path: the caller is
// responsible for the number and dates making sense.
func (db *DB) InsertPeriod(p domain.Period) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO periods (cadence_id, period_number, start_date, end_date, notes)
		VALUES (?, ?, ?, ?, ?)
	`, p.CadenceID, p.Number, p.StartDate, p.EndDate, p.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert period: %w", err)
	}
	return res.LastInsertId()
}

// UpdatePeriod rewrites a period's editable fields.
func (db *DB) UpdatePeriod(p domain.Period) error {
	res, err := db.db.Exec(`
		UPDATE periods
		SET period_number = ?, start_date = ?, end_date = ?, notes = ?
		WHERE id = ?
	`, p.Number, p.StartDate, p.EndDate, p.Notes, p.ID)
	if err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPeriodNotFound
	}
	return nil
}

// DeletePeriod removes the period and, via cascade, its child records.
func (db *DB) DeletePeriod(id int64) error {
	res, err := db.db.Exec(`DELETE FROM periods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPeriodNotFound
	}
	return nil
}

// GetPeriod retrieves one period.
func (db *DB) GetPeriod(id int64) (*domain.Period, error) {
	p, err := scanPeriod(db.db.QueryRow(
		`SELECT `+periodColumns+` FROM periods WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get period: %w", err)
	}
	return p, nil
}

// ListPeriods returns a cadence's periods in number order.
func (db *DB) ListPeriods(cadenceID int64) ([]domain.Period, error) {
	rows, err := db.db.Query(`
		SELECT `+periodColumns+` FROM periods
		WHERE cadence_id = ? ORDER BY period_number
	`, cadenceID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var result []domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
