// Package catalog answers pharmacy search and detail queries.
//
// The text filter matches any stocked medicine name whatever its quantity;
// callers that want only medicines available now apply InStock to the
// returned stocks.
package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
)

// Filters narrow a search. Empty fields impose no constraint; set fields
// combine with AND and match case-insensitive substrings.
type Filters struct {
	Text      string // medicine name
	Locality  string // sector
	Insurance string // accepted insurer name
}

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

const pharmacyColumns = `p.id, p.name, p.sector, p.address, p.phone, p.delivery, p.lat, p.lng, p.description, p.created_at`

// Search returns every pharmacy matching f, ordered by name.
func (s *Service) Search(ctx context.Context, f Filters) ([]domain.PharmacyView, error) {
	var (
		args    []any
		clauses []string
	)
	if loc := strings.TrimSpace(f.Locality); loc != "" {
		args = append(args, loc)
		clauses = append(clauses, `INSTR(LOWER(p.sector), LOWER(?)) > 0`)
	}
	if ins := strings.TrimSpace(f.Insurance); ins != "" {
		args = append(args, ins)
		clauses = append(clauses, `EXISTS (SELECT 1 FROM pharmacy_insurance pi
                JOIN insurance_types it ON it.id = pi.insurance_id
                WHERE pi.pharmacy_id = p.id AND INSTR(LOWER(it.name), LOWER(?)) > 0)`)
	}
	if q := strings.TrimSpace(f.Text); q != "" {
		args = append(args, q)
		clauses = append(clauses, `EXISTS (SELECT 1 FROM pharmacy_stocks ps
                JOIN medicines m ON m.id = ps.medicine_id
                WHERE ps.pharmacy_id = p.id AND INSTR(LOWER(m.name), LOWER(?)) > 0)`)
	}

	query := `SELECT ` + pharmacyColumns + ` FROM pharmacies p`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY p.name, p.id"

	var pharmacies []domain.Pharmacy
	if err := s.db.SelectContext(ctx, &pharmacies, query, args...); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "select pharmacies"), "unable to search pharmacies")
	}
	return s.expand(ctx, pharmacies)
}

// GetByID returns the pharmacy view for id. The boolean is false when no
// such pharmacy exists.
func (s *Service) GetByID(ctx context.Context, id string) (domain.PharmacyView, bool, error) {
	var p domain.Pharmacy
	err := s.db.GetContext(ctx, &p, `SELECT `+pharmacyColumns+` FROM pharmacies p WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PharmacyView{}, false, nil
	}
	if err != nil {
		return domain.PharmacyView{}, false, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "select pharmacy"), "unable to load pharmacy")
	}
	views, err := s.expand(ctx, []domain.Pharmacy{p})
	if err != nil {
		return domain.PharmacyView{}, false, err
	}
	return views[0], true, nil
}

type acceptRow struct {
	PharmacyID string `db:"pharmacy_id"`
	Name       string `db:"name"`
}

type stockRow struct {
	PharmacyID           string  `db:"pharmacy_id"`
	MedicineID           int64   `db:"medicine_id"`
	Name                 string  `db:"name"`
	Strength             *string `db:"strength"`
	RequiresPrescription bool    `db:"requires_prescription"`
	PriceRWF             float64 `db:"price_rwf"`
	Quantity             int64   `db:"quantity"`
}

// expand loads accepted insurers and stock for all pharmacies in two
// queries and assembles the views.
func (s *Service) expand(ctx context.Context, pharmacies []domain.Pharmacy) ([]domain.PharmacyView, error) {
	views := make([]domain.PharmacyView, 0, len(pharmacies))
	if len(pharmacies) == 0 {
		return views, nil
	}

	ids := make([]string, len(pharmacies))
	for i, p := range pharmacies {
		ids[i] = p.ID
	}

	acceptsQuery, acceptsArgs, err := sqlx.In(`SELECT pi.pharmacy_id, it.name
                FROM pharmacy_insurance pi
                JOIN insurance_types it ON it.id = pi.insurance_id
                WHERE pi.pharmacy_id IN (?)
                ORDER BY it.name`, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "prepare accepts query"), "unable to load pharmacies")
	}
	var accepts []acceptRow
	if err := s.db.SelectContext(ctx, &accepts, s.db.Rebind(acceptsQuery), acceptsArgs...); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "select accepts"), "unable to load pharmacies")
	}

	stocksQuery, stocksArgs, err := sqlx.In(`SELECT ps.pharmacy_id, m.id AS medicine_id, m.name, m.strength, m.requires_prescription, ps.price_rwf, ps.quantity
                FROM pharmacy_stocks ps
                JOIN medicines m ON m.id = ps.medicine_id
                WHERE ps.pharmacy_id IN (?)
                ORDER BY m.name, m.id`, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "prepare stocks query"), "unable to load pharmacies")
	}
	var stocks []stockRow
	if err := s.db.SelectContext(ctx, &stocks, s.db.Rebind(stocksQuery), stocksArgs...); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, errors.Wrap(err, "select stocks"), "unable to load pharmacies")
	}

	acceptsBy := make(map[string][]string)
	for _, a := range accepts {
		acceptsBy[a.PharmacyID] = append(acceptsBy[a.PharmacyID], a.Name)
	}
	stocksBy := make(map[string][]domain.MedicineStockView)
	for _, r := range stocks {
		stocksBy[r.PharmacyID] = append(stocksBy[r.PharmacyID], domain.MedicineStockView{
			ID:                   domain.MedicineRef(r.MedicineID),
			MedicineID:           r.MedicineID,
			Name:                 r.Name,
			Strength:             nonEmpty(r.Strength),
			PriceRWF:             r.PriceRWF,
			Quantity:             r.Quantity,
			RequiresPrescription: r.RequiresPrescription,
		})
	}

	for _, p := range pharmacies {
		views = append(views, newPharmacyView(p, acceptsBy[p.ID], stocksBy[p.ID]))
	}
	return views, nil
}

func newPharmacyView(p domain.Pharmacy, accepts []string, stocks []domain.MedicineStockView) domain.PharmacyView {
	if accepts == nil {
		accepts = []string{}
	}
	if stocks == nil {
		stocks = []domain.MedicineStockView{}
	}
	return domain.PharmacyView{
		ID:          p.ID,
		Name:        p.Name,
		Sector:      p.Sector,
		Address:     p.Address,
		Phone:       p.Phone,
		Delivery:    p.Delivery,
		Lat:         p.Lat,
		Lng:         p.Lng,
		Description: nonEmpty(p.Description),
		Accepts:     accepts,
		Stocks:      stocks,
	}
}

// InStock keeps the stock entries with a positive quantity. It is the
// "available now" filter views apply on top of Search.
func InStock(stocks []domain.MedicineStockView) []domain.MedicineStockView {
	out := make([]domain.MedicineStockView, 0, len(stocks))
	for _, s := range stocks {
		if s.Quantity > 0 {
			out = append(out, s)
		}
	}
	return out
}

// AvailableNow keeps the pharmacies that have at least one in-stock
// medicine whose name contains text, case-insensitively.
func AvailableNow(pharmacies []domain.PharmacyView, text string) []domain.PharmacyView {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]domain.PharmacyView, 0, len(pharmacies))
	for _, p := range pharmacies {
		for _, s := range InStock(p.Stocks) {
			if strings.Contains(strings.ToLower(s.Name), needle) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
