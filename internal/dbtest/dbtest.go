// Package dbtest opens migrated in-memory stores and inserts fixtures for
// tests of the store-backed services.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"medifinder/m/domain"
	"medifinder/m/internal/database"
	"medifinder/m/internal/migrations"
)

// Open returns an empty, migrated in-memory store closed at test end.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db))
	return db
}

// Pharmacy inserts p and links it to the named insurers, creating them as
// needed.
func Pharmacy(t testing.TB, db *sqlx.DB, p domain.Pharmacy, accepts ...string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO pharmacies (id, name, sector, address, phone, delivery, lat, lng, description)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Sector, p.Address, p.Phone, p.Delivery, p.Lat, p.Lng, p.Description)
	require.NoError(t, err)

	for _, name := range accepts {
		_, err := db.Exec(`INSERT OR IGNORE INTO insurance_types (name) VALUES (?)`, name)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO pharmacy_insurance (pharmacy_id, insurance_id)
                SELECT ?, id FROM insurance_types WHERE name = ?`, p.ID, name)
		require.NoError(t, err)
	}
}

// Medicine inserts a medicine and returns its id. An empty strength is
// stored as NULL.
func Medicine(t testing.TB, db *sqlx.DB, name, strength string, requiresPrescription bool) int64 {
	t.Helper()
	var s *string
	if strength != "" {
		s = &strength
	}
	res, err := db.Exec(`INSERT INTO medicines (name, strength, requires_prescription) VALUES (?, ?, ?)`, name, s, requiresPrescription)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func Stock(t testing.TB, db *sqlx.DB, pharmacyID string, medicineID int64, priceRWF float64, quantity int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO pharmacy_stocks (pharmacy_id, medicine_id, price_rwf, quantity) VALUES (?, ?, ?, ?)`,
		pharmacyID, medicineID, priceRWF, quantity)
	require.NoError(t, err)
}

// User inserts u as-is; Password should already be hashed if the test
// logs in with it.
func User(t testing.TB, db *sqlx.DB, u domain.User) {
	t.Helper()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	_, err := db.Exec(`INSERT INTO users (id, email, name, phone, password, role, pharmacy_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Phone, u.Password, u.Role, u.PharmacyID)
	require.NoError(t, err)
}

// Order inserts o and its items. Zero-valued statuses default to pending
// and CreatedAt, when set, overrides the column default.
func Order(t testing.TB, db *sqlx.DB, o domain.Order, items ...domain.OrderItem) {
	t.Helper()
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if o.PrescriptionStatus == "" {
		o.PrescriptionStatus = domain.PrescriptionPending
	}
	_, err := db.Exec(`INSERT INTO orders (id, pharmacy_id, user_id, customer_name, customer_email, customer_phone, total_rwf,
                status, prescription_status, prescription_ref, delivery, delivery_address)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.PharmacyID, o.UserID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.TotalRWF,
		o.Status, o.PrescriptionStatus, o.PrescriptionRef, o.Delivery, o.DeliveryAddress)
	require.NoError(t, err)
	if o.CreatedAt != "" {
		_, err = db.Exec(`UPDATE orders SET created_at = ?, updated_at = ? WHERE id = ?`, o.CreatedAt, o.CreatedAt, o.ID)
		require.NoError(t, err)
	}

	for _, it := range items {
		_, err := db.Exec(`INSERT INTO order_items (order_id, medicine_id, quantity, price_rwf) VALUES (?, ?, ?, ?)`,
			o.ID, it.MedicineID, it.Quantity, it.PriceRWF)
		require.NoError(t, err)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
