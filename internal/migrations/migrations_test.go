package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medifinder/m/internal/database"
	"medifinder/m/internal/migrations"
)

func TestRunIsIdempotent(t *testing.T) {
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, migrations.Run(ctx, db))
	require.NoError(t, migrations.Run(ctx, db))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{
		"insurance_types", "medicines", "order_items", "orders",
		"pharmacies", "pharmacy_insurance", "pharmacy_stocks", "users",
	}, tables)
}

func TestSchemaConstraints(t *testing.T) {
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migrations.Run(context.Background(), db))

	db.MustExec(`INSERT INTO pharmacies (id, name, sector) VALUES ('ph-1', 'One', 'Kacyiru')`)
	db.MustExec(`INSERT INTO medicines (id, name) VALUES (1, 'Paracetamol')`)
	db.MustExec(`INSERT INTO pharmacy_stocks (pharmacy_id, medicine_id, price_rwf, quantity) VALUES ('ph-1', 1, 500, 3)`)
	db.MustExec(`INSERT INTO users (id, email, name, password, role, pharmacy_id) VALUES ('u-1', 'a@b.rw', 'One', 'x', 'pharmacy', 'ph-1')`)

	t.Run("one stock row per pair", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO pharmacy_stocks (pharmacy_id, medicine_id, price_rwf, quantity) VALUES ('ph-1', 1, 900, 1)`)
		assert.Error(t, err)
	})

	t.Run("quantity non-negative", func(t *testing.T) {
		_, err := db.Exec(`UPDATE pharmacy_stocks SET quantity = -1`)
		assert.Error(t, err)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO users (id, email, name, password, role) VALUES ('u-2', 'c@d.rw', 'Two', 'x', 'admin')`)
		assert.Error(t, err)
	})

	t.Run("order status labels closed", func(t *testing.T) {
		db.MustExec(`INSERT INTO orders (id, pharmacy_id, customer_name, customer_email, total_rwf) VALUES ('o-1', 'ph-1', 'A', 'a@b.rw', 500)`)

		_, err := db.Exec(`UPDATE orders SET status = 'shipped' WHERE id = 'o-1'`)
		assert.True(t, database.IsCheckViolation(err), "got %v", err)
		_, err = db.Exec(`UPDATE orders SET prescription_status = 'maybe' WHERE id = 'o-1'`)
		assert.True(t, database.IsCheckViolation(err), "got %v", err)

		db.MustExec(`UPDATE orders SET status = 'ready', prescription_status = 'rejected' WHERE id = 'o-1'`)
	})

	t.Run("pharmacy delete cascades and nulls user link", func(t *testing.T) {
		db.MustExec(`DELETE FROM pharmacies WHERE id = 'ph-1'`)

		var stocks int
		require.NoError(t, db.Get(&stocks, `SELECT COUNT(*) FROM pharmacy_stocks`))
		assert.Zero(t, stocks)

		var link *string
		require.NoError(t, db.Get(&link, `SELECT pharmacy_id FROM users WHERE id = 'u-1'`))
		assert.Nil(t, link)
	})
}
