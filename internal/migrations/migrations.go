package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const timestampDefault = `(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pharmacies (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            sector TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            delivery BOOLEAN NOT NULL DEFAULT 0,
            lat REAL NOT NULL DEFAULT 0,
            lng REAL NOT NULL DEFAULT 0,
            description TEXT,
            created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `,
            updated_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
        );`,
	`CREATE TABLE IF NOT EXISTS insurance_types (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE
        );`,
	`CREATE TABLE IF NOT EXISTS pharmacy_insurance (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            pharmacy_id TEXT NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
            insurance_id INTEGER NOT NULL REFERENCES insurance_types(id) ON DELETE CASCADE,
            UNIQUE(pharmacy_id, insurance_id)
        );`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            strength TEXT,
            requires_prescription BOOLEAN NOT NULL DEFAULT 0
        );`,
	`CREATE TABLE IF NOT EXISTS pharmacy_stocks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            pharmacy_id TEXT NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
            price_rwf REAL NOT NULL,
            quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
            UNIQUE(pharmacy_id, medicine_id)
        );`,
	`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            phone TEXT,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'pharmacy')),
            pharmacy_id TEXT REFERENCES pharmacies(id) ON DELETE SET NULL,
            created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `,
            updated_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
        );`,
	`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            pharmacy_id TEXT NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
            user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
            customer_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            customer_phone TEXT,
            total_rwf REAL NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'confirmed', 'processing', 'ready', 'delivered', 'cancelled')),
            prescription_status TEXT NOT NULL DEFAULT 'pending'
                CHECK (prescription_status IN ('pending', 'verified', 'rejected')),
            prescription_ref TEXT,
            delivery BOOLEAN NOT NULL DEFAULT 0,
            delivery_address TEXT,
            created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `,
            updated_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
        );`,
	`CREATE TABLE IF NOT EXISTS order_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            price_rwf REAL NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_pharmacy_sector ON pharmacies(sector);`,
	`CREATE INDEX IF NOT EXISTS idx_stock_pharmacy ON pharmacy_stocks(pharmacy_id);`,
	`CREATE INDEX IF NOT EXISTS idx_stock_medicine ON pharmacy_stocks(medicine_id);`,
	`CREATE INDEX IF NOT EXISTS idx_medicine_name ON medicines(name);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_pharmacy ON orders(pharmacy_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);`,
}

// Run creates the database schema required by the catalog, dashboard,
// ordering and identity services.
func Run(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration statement %d", i)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit migration")
	}
	log.Debug().Int("statements", len(schema)).Msg("schema up to date")
	return nil
}
