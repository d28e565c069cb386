// Package sqlite is the logbook's data access layer: a thin typed wrapper
// over one embedded SQLite database. All mutations run against a single
// local writer; the multi-step lifecycle rules (cadence create, cadence
// close, period rollover) execute inside explicit transactions.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the embedded SQLite handle with typed per-table operations.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer, serialized. The connection pool would otherwise hand
	// ":memory:" connections separate databases.
	sqldb.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	db := &DB{db: sqldb}
	if err := db.migrate(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying database.
func (db *DB) Close() error { return db.db.Close() }

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Work assignments. End fields are set together by CloseCadence,
		// never piecemeal.
		`CREATE TABLE IF NOT EXISTS cadences (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			number             TEXT NOT NULL,
			driver1            TEXT NOT NULL,
			driver2            TEXT,
			start_date         INTEGER NOT NULL,
			end_date           INTEGER,
			truck              TEXT NOT NULL,
			start_trailer      TEXT NOT NULL,
			end_trailer        TEXT,
			start_odometer     INTEGER NOT NULL,
			end_odometer       INTEGER,
			start_truck_fuel   INTEGER NOT NULL,
			end_truck_fuel     INTEGER,
			start_trailer_fuel INTEGER NOT NULL,
			end_trailer_fuel   INTEGER,
			start_engine_hours INTEGER NOT NULL,
			end_engine_hours   INTEGER,
			total_mileage      INTEGER NOT NULL DEFAULT 0,
			total_days         INTEGER NOT NULL DEFAULT 0
		)`,

		// Periods within a cadence
		`CREATE TABLE IF NOT EXISTS periods (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			cadence_id    INTEGER NOT NULL REFERENCES cadences(id) ON DELETE CASCADE,
			period_number INTEGER NOT NULL,
			start_date    INTEGER NOT NULL,
			end_date      INTEGER,
			notes         TEXT,
			UNIQUE(cadence_id, period_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_periods_cadence ON periods(cadence_id)`,
		// At most one open period per cadence, enforced by the engine
		// itself rather than assumed by callers.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_open
			ON periods(cadence_id) WHERE end_date IS NULL`,

		// Cargo trips
		`CREATE TABLE IF NOT EXISTS routes (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			period_id          INTEGER NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
			route_number       INTEGER NOT NULL,
			start_date         INTEGER NOT NULL,
			end_date           INTEGER,
			start_odometer     INTEGER NOT NULL,
			end_odometer       INTEGER,
			departure_country  TEXT NOT NULL,
			arrival_country    TEXT,
			cargo_name         TEXT NOT NULL,
			cargo_weight       INTEGER NOT NULL DEFAULT 0,
			cmr_number         TEXT NOT NULL DEFAULT '',
			cargo_temperature  TEXT NOT NULL DEFAULT '',
			cargo_mode         TEXT NOT NULL DEFAULT '',
			trailer            TEXT NOT NULL DEFAULT '',
			start_engine_hours INTEGER NOT NULL,
			end_engine_hours   INTEGER,
			total_engine_hours INTEGER NOT NULL DEFAULT 0,
			mileage            INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_period ON routes(period_id)`,

		// Fuel purchases
		`CREATE TABLE IF NOT EXISTS refuelings (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			period_id        INTEGER NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
			refueling_number INTEGER NOT NULL,
			date             INTEGER NOT NULL,
			truck_fuel       INTEGER,
			trailer_fuel     INTEGER,
			ad_blue          INTEGER,
			country          TEXT,
			card             TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refuelings_period ON refuelings(period_id)`,

		// Expenditures
		`CREATE TABLE IF NOT EXISTS expenses (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			period_id      INTEGER NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
			expense_number INTEGER NOT NULL,
			date           INTEGER NOT NULL,
			description    TEXT NOT NULL,
			amount         REAL NOT NULL,
			currency       TEXT NOT NULL,
			country        TEXT NOT NULL,
			card           TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_period ON expenses(period_id)`,

		// Trailer hand-offs
		`CREATE TABLE IF NOT EXISTS couplings (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			period_id          INTEGER NOT NULL REFERENCES periods(id) ON DELETE CASCADE,
			coupling_number    INTEGER NOT NULL,
			from_truck         TEXT NOT NULL,
			trailer            TEXT NOT NULL,
			start_date         INTEGER NOT NULL,
			end_date           INTEGER,
			start_engine_hours INTEGER NOT NULL,
			end_engine_hours   INTEGER,
			total_engine_hours INTEGER NOT NULL DEFAULT 0,
			start_fuel         INTEGER NOT NULL,
			end_fuel           INTEGER,
			start_country      TEXT NOT NULL,
			end_country        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_couplings_period ON couplings(period_id)`,
	}
}
