package dashboard_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
	"medifinder/m/internal/dashboard"
	"medifinder/m/internal/dbtest"
)

type fixture struct {
	db          *sqlx.DB
	paracetamol int64
	ibuprofen   int64
	amoxicillin int64
}

func setup(t *testing.T) fixture {
	db := dbtest.Open(t)

	dbtest.Pharmacy(t, db, domain.Pharmacy{ID: "ph-a", Name: "Alpha", Sector: "Kacyiru"})
	dbtest.Pharmacy(t, db, domain.Pharmacy{ID: "ph-b", Name: "Beta", Sector: "Remera"})

	f := fixture{
		db:          db,
		paracetamol: dbtest.Medicine(t, db, "Paracetamol", "500mg", false),
		ibuprofen:   dbtest.Medicine(t, db, "Ibuprofen", "", false),
		amoxicillin: dbtest.Medicine(t, db, "Amoxicillin", "250mg", true),
	}
	dbtest.Stock(t, db, "ph-a", f.paracetamol, 800, 12)
	dbtest.Stock(t, db, "ph-a", f.ibuprofen, 1200, 0)
	dbtest.Stock(t, db, "ph-b", f.amoxicillin, 3000, 5)

	dbtest.User(t, db, domain.User{ID: "u-staff", Email: "staff@alpha.rw", Name: "Alpha", Password: "x", Role: domain.RolePharmacy, PharmacyID: dbtest.Ptr("ph-a")})
	dbtest.User(t, db, domain.User{ID: "u-unlinked", Email: "new@pharm.rw", Name: "New", Password: "x", Role: domain.RolePharmacy})

	dbtest.Order(t, db, domain.Order{ID: "o-old", PharmacyID: "ph-a", CustomerName: "Aline", CustomerEmail: "aline@x.rw", TotalRWF: 1600, CreatedAt: "2025-01-01T10:00:00.000Z"},
		domain.OrderItem{MedicineID: f.paracetamol, Quantity: 2, PriceRWF: 800})
	dbtest.Order(t, db, domain.Order{ID: "o-new", PharmacyID: "ph-a", CustomerName: "Eric", CustomerEmail: "eric@x.rw", TotalRWF: 3200, Status: domain.OrderConfirmed,
		Delivery: true, DeliveryAddress: dbtest.Ptr("KG 11 Ave"), CreatedAt: "2025-01-02T10:00:00.000Z"},
		domain.OrderItem{MedicineID: f.paracetamol, Quantity: 1, PriceRWF: 800},
		domain.OrderItem{MedicineID: f.ibuprofen, Quantity: 2, PriceRWF: 1200})
	dbtest.Order(t, db, domain.Order{ID: "o-beta", PharmacyID: "ph-b", CustomerName: "Grace", CustomerEmail: "grace@x.rw", TotalRWF: 3000},
		domain.OrderItem{MedicineID: f.amoxicillin, Quantity: 1, PriceRWF: 3000})

	return f
}

func newService(f fixture) *dashboard.Service {
	return dashboard.NewService(f.db, dashboard.Options{})
}

func TestPharmacyForUser(t *testing.T) {
	f := setup(t)
	svc := newService(f)
	ctx := context.Background()

	id, err := svc.PharmacyForUser(ctx, "u-staff")
	require.NoError(t, err)
	assert.Equal(t, "ph-a", id)

	_, err = svc.PharmacyForUser(ctx, "u-unlinked")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.PharmacyForUser(ctx, "u-missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestListStockOrderedByName(t *testing.T) {
	f := setup(t)

	stock, err := newService(f).ListStock(context.Background(), "ph-a")
	require.NoError(t, err)
	require.Len(t, stock, 2)

	assert.Equal(t, "Ibuprofen", stock[0].Name)
	assert.Nil(t, stock[0].Strength)
	assert.Equal(t, "Paracetamol", stock[1].Name)
	assert.Equal(t, "500mg", *stock[1].Strength)
	assert.Equal(t, domain.MedicineRef(f.paracetamol), stock[1].ID)
}

func TestSetStockOverwritesAndReturnsListing(t *testing.T) {
	f := setup(t)
	svc := newService(f)

	stock, err := svc.SetStock(context.Background(), "ph-a", f.ibuprofen, 40, 1150)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, int64(40), stock[0].Quantity)
	assert.Equal(t, 1150.0, stock[0].PriceRWF)
	assert.Equal(t, int64(12), stock[1].Quantity, "other rows untouched")
}

func TestSetStockIsIdempotent(t *testing.T) {
	f := setup(t)
	svc := newService(f)
	ctx := context.Background()

	first, err := svc.SetStock(ctx, "ph-a", f.paracetamol, 7, 900)
	require.NoError(t, err)
	second, err := svc.SetStock(ctx, "ph-a", f.paracetamol, 7, 900)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("listings differ (-first +second):\n%s", diff)
	}
}

func TestSetStockNeverCreatesRows(t *testing.T) {
	f := setup(t)
	svc := newService(f)

	_, err := svc.SetStock(context.Background(), "ph-a", f.amoxicillin, 3, 100)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM pharmacy_stocks WHERE pharmacy_id = 'ph-a'`))
	assert.Equal(t, 2, n)
}

func TestSetStockNegativeValues(t *testing.T) {
	t.Run("strict rejects before the store", func(t *testing.T) {
		f := setup(t)
		svc := dashboard.NewService(f.db, dashboard.Options{StockValidation: domain.StockStrict})

		_, err := svc.SetStock(context.Background(), "ph-a", f.paracetamol, -1, 800)
		assert.True(t, apperr.Is(err, apperr.Validation))

		_, err = svc.SetStock(context.Background(), "ph-a", f.paracetamol, 1, -5)
		assert.True(t, apperr.Is(err, apperr.Validation))
	})

	t.Run("legacy forwards values and the store keeps quantity non-negative", func(t *testing.T) {
		f := setup(t)
		svc := dashboard.NewService(f.db, dashboard.Options{StockValidation: domain.StockLegacy})

		_, err := svc.SetStock(context.Background(), "ph-a", f.paracetamol, -1, 800)
		assert.True(t, apperr.Is(err, apperr.Validation))

		var qty int64
		require.NoError(t, f.db.Get(&qty, `SELECT quantity FROM pharmacy_stocks WHERE pharmacy_id = 'ph-a' AND medicine_id = ?`, f.paracetamol))
		assert.Equal(t, int64(12), qty)

		stock, err := svc.SetStock(context.Background(), "ph-a", f.paracetamol, 1, -5)
		require.NoError(t, err)
		assert.Equal(t, -5.0, stock[1].PriceRWF)
	})
}

func TestListOrders(t *testing.T) {
	f := setup(t)
	svc := newService(f)

	orders, err := svc.ListOrders(context.Background(), "ph-a", nil)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	newest := orders[0]
	assert.Equal(t, "o-new", newest.ID)
	assert.Equal(t, []string{"Paracetamol 500mg x 1", "Ibuprofen x 2"}, newest.Items)
	require.Len(t, newest.ItemDetails, 2)
	assert.Equal(t, 1200.0, newest.ItemDetails[1].PriceRWF)
	assert.True(t, newest.Delivery)
	assert.Equal(t, "KG 11 Ave", *newest.Address)
	assert.Equal(t, 3200.0, newest.Total)
	assert.Equal(t, "o-old", orders[1].ID)

	confirmed := domain.OrderConfirmed
	filtered, err := svc.ListOrders(context.Background(), "ph-a", &confirmed)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "o-new", filtered[0].ID)

	none, err := newService(f).ListOrders(context.Background(), "ph-missing", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSetOrderStatusAcceptsAnyKnownLabel(t *testing.T) {
	f := setup(t)
	svc := newService(f)

	// delivered straight from pending: transitions are not policed here
	orders, err := svc.SetOrderStatus(context.Background(), "ph-a", "o-old", domain.OrderDelivered)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.OrderDelivered, orders[1].Status)

	_, err = svc.SetOrderStatus(context.Background(), "ph-a", "o-old", domain.OrderStatus("shipped"))
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestSetOrderStatusRejectsForeignOrder(t *testing.T) {
	f := setup(t)
	svc := newService(f)

	for _, st := range domain.OrderStatuses() {
		_, err := svc.SetOrderStatus(context.Background(), "ph-a", "o-beta", st)
		assert.True(t, apperr.Is(err, apperr.NotFound), "status %s", st)
	}

	var status, updated, created string
	require.NoError(t, f.db.QueryRow(`SELECT status, updated_at, created_at FROM orders WHERE id = 'o-beta'`).Scan(&status, &updated, &created))
	assert.Equal(t, "pending", status)
	assert.Equal(t, created, updated)
}

func TestSetPrescriptionStatus(t *testing.T) {
	f := setup(t)
	svc := newService(f)
	ctx := context.Background()

	orders, err := svc.SetPrescriptionStatus(ctx, "ph-a", "o-old", domain.PrescriptionVerified)
	require.NoError(t, err)
	assert.Equal(t, domain.PrescriptionVerified, orders[1].PrescriptionStatus)

	_, err = svc.SetPrescriptionStatus(ctx, "ph-a", "o-beta", domain.PrescriptionRejected)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.SetPrescriptionStatus(ctx, "ph-a", "o-old", domain.PrescriptionStatus("maybe"))
	assert.True(t, apperr.Is(err, apperr.Validation))
}
