// Package dashboard implements the pharmacy-scoped stock and order
// management behind the staff dashboard. Every operation takes the
// pharmacy id resolved from the caller's identity, never one supplied by
// the client.
package dashboard

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
	"medifinder/m/internal/database"
)

type Options struct {
	// StockValidation controls whether SetStock rejects negative values
	// (domain.StockStrict) or forwards them to the store (domain.StockLegacy).
	StockValidation domain.StockValidation
}

type Service struct {
	db   *sqlx.DB
	opts Options
}

func NewService(db *sqlx.DB, opts Options) *Service {
	if opts.StockValidation == "" {
		opts.StockValidation = domain.StockStrict
	}
	return &Service{db: db, opts: opts}
}

var errUnlinked = apperr.New(apperr.NotFound, "Your account is not linked to a pharmacy. Please contact support.")

// PharmacyForUser resolves the pharmacy a staff account manages.
func (s *Service) PharmacyForUser(ctx context.Context, userID string) (string, error) {
	var pharmacyID *string
	err := s.db.GetContext(ctx, &pharmacyID, `SELECT pharmacy_id FROM users WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errUnlinked
	}
	if err != nil {
		return "", s.unexpected(err, "select user pharmacy", "unable to resolve pharmacy")
	}
	if pharmacyID == nil || *pharmacyID == "" {
		return "", errUnlinked
	}
	return *pharmacyID, nil
}

type stockRow struct {
	StockID              int64   `db:"stock_id"`
	MedicineID           int64   `db:"medicine_id"`
	Name                 string  `db:"name"`
	Strength             *string `db:"strength"`
	RequiresPrescription bool    `db:"requires_prescription"`
	PriceRWF             float64 `db:"price_rwf"`
	Quantity             int64   `db:"quantity"`
}

// ListStock returns the pharmacy's stock ordered by medicine name.
func (s *Service) ListStock(ctx context.Context, pharmacyID string) ([]domain.StockView, error) {
	var rows []stockRow
	err := s.db.SelectContext(ctx, &rows, `SELECT ps.id AS stock_id, m.id AS medicine_id, m.name, m.strength, m.requires_prescription, ps.price_rwf, ps.quantity
                FROM pharmacy_stocks ps
                JOIN medicines m ON m.id = ps.medicine_id
                WHERE ps.pharmacy_id = ?
                ORDER BY m.name ASC, m.id ASC`, pharmacyID)
	if err != nil {
		return nil, s.unexpected(err, "select stock", "unable to load stock")
	}

	views := make([]domain.StockView, 0, len(rows))
	for _, r := range rows {
		strength := r.Strength
		if strength != nil && *strength == "" {
			strength = nil
		}
		views = append(views, domain.StockView{
			ID:                   domain.MedicineRef(r.MedicineID),
			StockID:              r.StockID,
			MedicineID:           r.MedicineID,
			Name:                 r.Name,
			Strength:             strength,
			PriceRWF:             r.PriceRWF,
			Quantity:             r.Quantity,
			RequiresPrescription: r.RequiresPrescription,
		})
	}
	return views, nil
}

// SetStock overwrites quantity and price of an existing stock row in one
// statement and returns the refreshed listing. It never creates rows.
func (s *Service) SetStock(ctx context.Context, pharmacyID string, medicineID, quantity int64, priceRWF float64) ([]domain.StockView, error) {
	if s.opts.StockValidation == domain.StockStrict {
		if quantity < 0 {
			return nil, apperr.Validationf("quantity must be zero or more, got %d", quantity)
		}
		if priceRWF < 0 {
			return nil, apperr.Validationf("priceRWF must be zero or more, got %g", priceRWF)
		}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE pharmacy_stocks SET quantity = ?, price_rwf = ?
                WHERE pharmacy_id = ? AND medicine_id = ?`, quantity, priceRWF, pharmacyID, medicineID)
	if database.IsCheckViolation(err) {
		return nil, apperr.Wrap(apperr.Validation, err, "quantity must be zero or more")
	}
	if err != nil {
		return nil, s.unexpected(err, "update stock", "unable to update stock")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, s.unexpected(err, "stock rows affected", "unable to update stock")
	}
	if affected == 0 {
		return nil, apperr.New(apperr.NotFound, "Stock not found")
	}
	return s.ListStock(ctx, pharmacyID)
}

type itemRow struct {
	OrderID          string  `db:"order_id"`
	MedicineID       int64   `db:"medicine_id"`
	MedicineName     string  `db:"medicine_name"`
	MedicineStrength *string `db:"medicine_strength"`
	Quantity         int64   `db:"quantity"`
	PriceRWF         float64 `db:"price_rwf"`
}

const orderColumns = `o.id, o.pharmacy_id, o.user_id, o.customer_name, o.customer_email, o.customer_phone, o.total_rwf,
                o.status, o.prescription_status, o.prescription_ref, o.delivery, o.delivery_address, o.created_at, o.updated_at`

// ListOrders returns the pharmacy's orders, newest first, optionally
// narrowed to one status.
func (s *Service) ListOrders(ctx context.Context, pharmacyID string, status *domain.OrderStatus) ([]domain.OrderView, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.pharmacy_id = ?`
	args := []any{pharmacyID}
	if status != nil {
		query += ` AND o.status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY o.created_at DESC, o.rowid DESC`

	var orders []domain.Order
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, s.unexpected(err, "select orders", "unable to load orders")
	}
	return OrderViews(ctx, s.db, orders)
}

// OrderViews loads the items of orders in one query and builds their views,
// preserving the order of the input.
func OrderViews(ctx context.Context, db sqlx.QueryerContext, orders []domain.Order) ([]domain.OrderView, error) {
	views := make([]domain.OrderView, 0, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	query, args, err := sqlx.In(`SELECT oi.order_id, oi.medicine_id, m.name AS medicine_name, m.strength AS medicine_strength, oi.quantity, oi.price_rwf
                FROM order_items oi
                JOIN medicines m ON m.id = oi.medicine_id
                WHERE oi.order_id IN (?)
                ORDER BY oi.id`, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "prepare order items query"), "unable to load orders")
	}
	var rows []itemRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "select order items"), "unable to load orders")
	}

	itemsBy := make(map[string][]domain.OrderItemView)
	for _, r := range rows {
		strength := r.MedicineStrength
		if strength != nil && *strength == "" {
			strength = nil
		}
		itemsBy[r.OrderID] = append(itemsBy[r.OrderID], domain.OrderItemView{
			MedicineID:       r.MedicineID,
			MedicineName:     r.MedicineName,
			MedicineStrength: strength,
			Quantity:         r.Quantity,
			PriceRWF:         r.PriceRWF,
		})
	}
	for _, o := range orders {
		views = append(views, domain.NewOrderView(o, itemsBy[o.ID]))
	}
	return views, nil
}

// SetOrderStatus stores status on an order owned by pharmacyID and returns
// the pharmacy's refreshed order list. Transition legality is left to the
// dashboard; see domain.OrderStatus.NextStatuses.
func (s *Service) SetOrderStatus(ctx context.Context, pharmacyID, orderID string, status domain.OrderStatus) ([]domain.OrderView, error) {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.updateOwned(ctx, pharmacyID, orderID, "status", string(status)); err != nil {
		return nil, err
	}
	return s.ListOrders(ctx, pharmacyID, nil)
}

// SetPrescriptionStatus records the pharmacy's verdict on an order's
// prescription.
func (s *Service) SetPrescriptionStatus(ctx context.Context, pharmacyID, orderID string, status domain.PrescriptionStatus) ([]domain.OrderView, error) {
	if _, err := domain.ParsePrescriptionStatus(string(status)); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.updateOwned(ctx, pharmacyID, orderID, "prescription_status", string(status)); err != nil {
		return nil, err
	}
	return s.ListOrders(ctx, pharmacyID, nil)
}

// updateOwned sets column on the order only when it belongs to pharmacyID.
// The ownership predicate is part of the UPDATE itself, so a foreign order
// is never touched.
func (s *Service) updateOwned(ctx context.Context, pharmacyID, orderID, column, value string) error {
	var query string
	switch column {
	case "status":
		query = `UPDATE orders SET status = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ? AND pharmacy_id = ?`
	case "prescription_status":
		query = `UPDATE orders SET prescription_status = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ? AND pharmacy_id = ?`
	default:
		return apperr.New(apperr.Unexpected, "unknown order column "+column)
	}

	res, err := s.db.ExecContext(ctx, query, value, orderID, pharmacyID)
	if err != nil {
		return s.unexpected(err, "update order", "unable to update order")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return s.unexpected(err, "order rows affected", "unable to update order")
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "Order not found")
	}
	return nil
}

func (s *Service) unexpected(err error, op, message string) error {
	log.Error().Err(err).Str("op", op).Msg("dashboard store failure")
	return apperr.Wrap(apperr.Unexpected, errors.Wrap(err, op), message)
}
