package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sqliteSchema is the full SQLite database schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
    id              INTEGER PRIMARY KEY,
    region_name     TEXT NOT NULL,
    department_name TEXT NOT NULL,
    created_at      DATETIME NOT NULL,
    deleted_at      DATETIME
);

CREATE TABLE IF NOT EXISTS users (
    payroll_number TEXT PRIMARY KEY,
    first_name     TEXT NOT NULL,
    last_name      TEXT NOT NULL,
    role           TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at     DATETIME NOT NULL,
    deleted_at     DATETIME
);

CREATE TABLE IF NOT EXISTS assets (
    id                    INTEGER PRIMARY KEY,
    name                  TEXT NOT NULL,
    model_number          TEXT,
    is_bulk               BOOLEAN NOT NULL,
    serial_number         TEXT UNIQUE,
    individual_status     TEXT CHECK (individual_status IN ('in_use', 'not_in_use', 'retired')),
    current_stock_level   INTEGER CHECK (current_stock_level >= 0),
    minimum_threshold     INTEGER CHECK (minimum_threshold >= 0),
    last_restocked        DATETIME,
    location_id           INTEGER NOT NULL REFERENCES locations(id),
    keeper_payroll_number TEXT REFERENCES users(payroll_number),
    notes                 TEXT,
    created_at            DATETIME NOT NULL,
    updated_at            DATETIME NOT NULL,
    CHECK (
        (NOT is_bulk AND serial_number IS NOT NULL AND individual_status IS NOT NULL
            AND current_stock_level IS NULL AND minimum_threshold IS NULL AND last_restocked IS NULL)
     OR (is_bulk AND serial_number IS NULL AND individual_status IS NULL
            AND current_stock_level IS NOT NULL AND minimum_threshold IS NOT NULL)
    )
);

CREATE TABLE IF NOT EXISTS assignments (
    id                 INTEGER PRIMARY KEY,
    asset_id           INTEGER NOT NULL REFERENCES assets(id),
    assigned_to        TEXT NOT NULL REFERENCES users(payroll_number),
    assigned_by        TEXT NOT NULL REFERENCES users(payroll_number),
    date_issued        DATETIME NOT NULL,
    condition_issued   TEXT NOT NULL,
    quantity_issued    INTEGER NOT NULL CHECK (quantity_issued >= 1),
    quantity_remaining INTEGER NOT NULL CHECK (quantity_remaining >= 0 AND quantity_remaining <= quantity_issued),
    status             TEXT NOT NULL CHECK (status IN ('active', 'partially_returned', 'returned')),
    date_returned      DATETIME,
    condition_returned TEXT,
    notes              TEXT,
    deleted_at         DATETIME,
    deleted_by         TEXT REFERENCES users(payroll_number),
    delete_reason      TEXT
);

CREATE INDEX IF NOT EXISTS idx_assignments_asset_status ON assignments(asset_id, status);
CREATE INDEX IF NOT EXISTS idx_assignments_assigned_to ON assignments(assigned_to);

CREATE TABLE IF NOT EXISTS movements (
    id               INTEGER PRIMARY KEY,
    asset_id         INTEGER NOT NULL REFERENCES assets(id),
    from_location_id INTEGER REFERENCES locations(id),
    to_location_id   INTEGER NOT NULL REFERENCES locations(id),
    moved_by         TEXT NOT NULL REFERENCES users(payroll_number),
    movement_type    TEXT NOT NULL CHECK (movement_type IN ('initial', 'transfer', 'issue', 'return')),
    quantity         INTEGER NOT NULL CHECK (quantity >= 0),
    moved_at         DATETIME NOT NULL,
    notes            TEXT,
    CHECK (from_location_id IS NULL OR from_location_id <> to_location_id)
);

CREATE INDEX IF NOT EXISTS idx_movements_asset ON movements(asset_id, moved_at);

CREATE TABLE IF NOT EXISTS restock_logs (
    id                 INTEGER PRIMARY KEY,
    asset_id           INTEGER NOT NULL REFERENCES assets(id),
    quantity_restocked INTEGER NOT NULL CHECK (quantity_restocked > 0),
    restocked_at       DATETIME NOT NULL,
    restocked_by       TEXT NOT NULL REFERENCES users(payroll_number),
    notes              TEXT
);

CREATE INDEX IF NOT EXISTS idx_restock_logs_asset ON restock_logs(asset_id, restocked_at);
`

// postgresSchema mirrors sqliteSchema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
    id              BIGSERIAL PRIMARY KEY,
    region_name     TEXT NOT NULL,
    department_name TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    deleted_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS users (
    payroll_number TEXT PRIMARY KEY,
    first_name     TEXT NOT NULL,
    last_name      TEXT NOT NULL,
    role           TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at     TIMESTAMPTZ NOT NULL,
    deleted_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS assets (
    id                    BIGSERIAL PRIMARY KEY,
    name                  TEXT NOT NULL,
    model_number          TEXT,
    is_bulk               BOOLEAN NOT NULL,
    serial_number         TEXT UNIQUE,
    individual_status     TEXT CHECK (individual_status IN ('in_use', 'not_in_use', 'retired')),
    current_stock_level   INTEGER CHECK (current_stock_level >= 0),
    minimum_threshold     INTEGER CHECK (minimum_threshold >= 0),
    last_restocked        TIMESTAMPTZ,
    location_id           BIGINT NOT NULL REFERENCES locations(id),
    keeper_payroll_number TEXT REFERENCES users(payroll_number),
    notes                 TEXT,
    created_at            TIMESTAMPTZ NOT NULL,
    updated_at            TIMESTAMPTZ NOT NULL,
    CHECK (
        (NOT is_bulk AND serial_number IS NOT NULL AND individual_status IS NOT NULL
            AND current_stock_level IS NULL AND minimum_threshold IS NULL AND last_restocked IS NULL)
     OR (is_bulk AND serial_number IS NULL AND individual_status IS NULL
            AND current_stock_level IS NOT NULL AND minimum_threshold IS NOT NULL)
    )
);

CREATE TABLE IF NOT EXISTS assignments (
    id                 BIGSERIAL PRIMARY KEY,
    asset_id           BIGINT NOT NULL REFERENCES assets(id),
    assigned_to        TEXT NOT NULL REFERENCES users(payroll_number),
    assigned_by        TEXT NOT NULL REFERENCES users(payroll_number),
    date_issued        TIMESTAMPTZ NOT NULL,
    condition_issued   TEXT NOT NULL,
    quantity_issued    INTEGER NOT NULL CHECK (quantity_issued >= 1),
    quantity_remaining INTEGER NOT NULL CHECK (quantity_remaining >= 0 AND quantity_remaining <= quantity_issued),
    status             TEXT NOT NULL CHECK (status IN ('active', 'partially_returned', 'returned')),
    date_returned      TIMESTAMPTZ,
    condition_returned TEXT,
    notes              TEXT,
    deleted_at         TIMESTAMPTZ,
    deleted_by         TEXT REFERENCES users(payroll_number),
    delete_reason      TEXT
);

CREATE INDEX IF NOT EXISTS idx_assignments_asset_status ON assignments(asset_id, status);
CREATE INDEX IF NOT EXISTS idx_assignments_assigned_to ON assignments(assigned_to);

CREATE TABLE IF NOT EXISTS movements (
    id               BIGSERIAL PRIMARY KEY,
    asset_id         BIGINT NOT NULL REFERENCES assets(id),
    from_location_id BIGINT REFERENCES locations(id),
    to_location_id   BIGINT NOT NULL REFERENCES locations(id),
    moved_by         TEXT NOT NULL REFERENCES users(payroll_number),
    movement_type    TEXT NOT NULL CHECK (movement_type IN ('initial', 'transfer', 'issue', 'return')),
    quantity         INTEGER NOT NULL CHECK (quantity >= 0),
    moved_at         TIMESTAMPTZ NOT NULL,
    notes            TEXT,
    CHECK (from_location_id IS NULL OR from_location_id <> to_location_id)
);

CREATE INDEX IF NOT EXISTS idx_movements_asset ON movements(asset_id, moved_at);

CREATE TABLE IF NOT EXISTS restock_logs (
    id                 BIGSERIAL PRIMARY KEY,
    asset_id           BIGINT NOT NULL REFERENCES assets(id),
    quantity_restocked INTEGER NOT NULL CHECK (quantity_restocked > 0),
    restocked_at       TIMESTAMPTZ NOT NULL,
    restocked_by       TEXT NOT NULL REFERENCES users(payroll_number),
    notes              TEXT
);

CREATE INDEX IF NOT EXISTS idx_restock_logs_asset ON restock_logs(asset_id, restocked_at);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
