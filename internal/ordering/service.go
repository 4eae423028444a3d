// Package ordering turns a customer's cart into pharmacy orders.
package ordering

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
	"medifinder/m/internal/dashboard"
)

type Customer struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

type Line struct {
	PharmacyID string
	MedicineID int64
	Quantity   int64
}

// Checkout is one submitted cart. Lines may span several pharmacies.
type Checkout struct {
	Customer        Customer
	Lines           []Line
	Delivery        bool
	DeliveryAddress string
	PrescriptionRef string
}

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

type pricedLine struct {
	MedicineID           int64   `db:"medicine_id"`
	PriceRWF             float64 `db:"price_rwf"`
	RequiresPrescription bool    `db:"requires_prescription"`
	Quantity             int64   `db:"-"`
}

type split struct {
	pharmacyID string
	lines      []pricedLine
}

// Place writes one order per distinct pharmacy in the cart, in the order
// pharmacies first appear. Prices are captured from the current stock rows.
// Either every order is stored or none is. Stock quantities are left alone.
func (s *Service) Place(ctx context.Context, c Checkout) ([]domain.OrderView, error) {
	if err := validate(c); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, s.unexpected(err, "begin checkout", "unable to place order")
	}
	defer tx.Rollback()

	splits, err := s.price(ctx, tx, c.Lines)
	if err != nil {
		return nil, err
	}

	needsPrescription := false
	for _, sp := range splits {
		for _, l := range sp.lines {
			needsPrescription = needsPrescription || l.RequiresPrescription
		}
	}
	ref := strings.TrimSpace(c.PrescriptionRef)
	if needsPrescription && ref == "" {
		return nil, apperr.New(apperr.Validation, "A prescription is required for one or more items")
	}

	ids := make([]string, 0, len(splits))
	for _, sp := range splits {
		id, err := s.insert(ctx, tx, c, sp, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	views, err := s.load(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, s.unexpected(err, "commit checkout", "unable to place order")
	}
	log.Info().Str("customer", c.Customer.Email).Strs("orders", ids).Msg("orders placed")
	return views, nil
}

func validate(c Checkout) error {
	if strings.TrimSpace(c.Customer.Name) == "" || strings.TrimSpace(c.Customer.Email) == "" {
		return apperr.New(apperr.Validation, "Customer name and email are required")
	}
	if len(c.Lines) == 0 {
		return apperr.New(apperr.Validation, "Cart is empty")
	}
	for _, l := range c.Lines {
		if strings.TrimSpace(l.PharmacyID) == "" {
			return apperr.Validationf("item %s has no pharmacy", domain.MedicineRef(l.MedicineID))
		}
		if l.Quantity <= 0 {
			return apperr.Validationf("quantity for %s must be at least 1", domain.MedicineRef(l.MedicineID))
		}
	}
	if c.Delivery && strings.TrimSpace(c.DeliveryAddress) == "" {
		return apperr.New(apperr.Validation, "A delivery address is required for delivery orders")
	}
	return nil
}

// price groups lines by pharmacy, merges repeated medicines and resolves
// each against the pharmacy's stock row.
func (s *Service) price(ctx context.Context, tx *sqlx.Tx, lines []Line) ([]split, error) {
	var splits []split
	index := make(map[string]int)
	for _, l := range lines {
		i, ok := index[l.PharmacyID]
		if !ok {
			i = len(splits)
			index[l.PharmacyID] = i
			splits = append(splits, split{pharmacyID: l.PharmacyID})
		}
		merged := false
		for j := range splits[i].lines {
			if splits[i].lines[j].MedicineID == l.MedicineID {
				splits[i].lines[j].Quantity += l.Quantity
				merged = true
				break
			}
		}
		if !merged {
			splits[i].lines = append(splits[i].lines, pricedLine{MedicineID: l.MedicineID, Quantity: l.Quantity})
		}
	}

	for _, sp := range splits {
		for j := range sp.lines {
			l := &sp.lines[j]
			var row pricedLine
			err := tx.GetContext(ctx, &row, `SELECT ps.medicine_id, ps.price_rwf, m.requires_prescription
                FROM pharmacy_stocks ps
                JOIN medicines m ON m.id = ps.medicine_id
                WHERE ps.pharmacy_id = ? AND ps.medicine_id = ?`, sp.pharmacyID, l.MedicineID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.Validationf("pharmacy %s does not stock %s", sp.pharmacyID, domain.MedicineRef(l.MedicineID))
			}
			if err != nil {
				return nil, s.unexpected(err, "select stock price", "unable to place order")
			}
			l.PriceRWF = row.PriceRWF
			l.RequiresPrescription = row.RequiresPrescription
		}
	}
	return splits, nil
}

func (s *Service) insert(ctx context.Context, tx *sqlx.Tx, c Checkout, sp split, ref string) (string, error) {
	var total float64
	prescription := domain.PrescriptionVerified
	for _, l := range sp.lines {
		total += l.PriceRWF * float64(l.Quantity)
		if l.RequiresPrescription {
			prescription = domain.PrescriptionPending
		}
	}

	id := "order-" + uuid.NewString()
	_, err := tx.ExecContext(ctx, `INSERT INTO orders (id, pharmacy_id, user_id, customer_name, customer_email, customer_phone, total_rwf,
                status, prescription_status, prescription_ref, delivery, delivery_address)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sp.pharmacyID, nullIfEmpty(c.Customer.UserID), strings.TrimSpace(c.Customer.Name), strings.TrimSpace(c.Customer.Email),
		nullIfEmpty(c.Customer.Phone), total, domain.OrderPending, prescription, nullIfEmpty(ref),
		c.Delivery, deliveryAddress(c))
	if err != nil {
		return "", s.unexpected(err, "insert order", "unable to place order")
	}

	for _, l := range sp.lines {
		if _, err := tx.ExecContext(ctx, `INSERT INTO order_items (order_id, medicine_id, quantity, price_rwf) VALUES (?, ?, ?, ?)`,
			id, l.MedicineID, l.Quantity, l.PriceRWF); err != nil {
			return "", s.unexpected(err, "insert order item", "unable to place order")
		}
	}
	return id, nil
}

// load returns views for ids in the given order.
func (s *Service) load(ctx context.Context, q sqlx.QueryerContext, ids []string) ([]domain.OrderView, error) {
	query, args, err := sqlx.In(`SELECT `+orderColumns+` FROM orders WHERE id IN (?)`, ids)
	if err != nil {
		return nil, s.unexpected(err, "prepare order query", "unable to load orders")
	}
	var rows []domain.Order
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, s.unexpected(err, "select placed orders", "unable to load orders")
	}

	byID := make(map[string]domain.Order, len(rows))
	for _, o := range rows {
		byID[o.ID] = o
	}
	ordered := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			ordered = append(ordered, o)
		}
	}
	return dashboard.OrderViews(ctx, q, ordered)
}

const orderColumns = `id, pharmacy_id, user_id, customer_name, customer_email, customer_phone, total_rwf,
                status, prescription_status, prescription_ref, delivery, delivery_address, created_at, updated_at`

// ListForUser returns the orders a user placed, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.OrderView, error) {
	var orders []domain.Order
	err := s.db.SelectContext(ctx, &orders, `SELECT `+orderColumns+` FROM orders WHERE user_id = ?
                ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, s.unexpected(err, "select user orders", "unable to load orders")
	}
	return dashboard.OrderViews(ctx, s.db, orders)
}

func deliveryAddress(c Checkout) *string {
	if !c.Delivery {
		return nil
	}
	return nullIfEmpty(c.DeliveryAddress)
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Service) unexpected(err error, op, message string) error {
	log.Error().Err(err).Str("op", op).Msg("ordering store failure")
	return apperr.Wrap(apperr.Unexpected, errors.Wrap(err, op), message)
}
