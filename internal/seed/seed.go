package seed

import (
	"context"
	"math/rand/v2"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Report counts what Run wrote.
type Report struct {
	Pharmacies int
	Insurers   int
	Medicines  int
	Stocks     int
}

type medicineKey struct {
	name     string
	strength string
}

// Run replaces the reference data (pharmacies, insurers, medicines and
// stock) with catalog in one transaction. Orders of removed pharmacies go
// with them and staff accounts are unlinked. Each stock row gets a price
// in [500, 5000) RWF and a quantity in [0, 100] drawn from rng.
func Run(ctx context.Context, db *sqlx.DB, catalog Catalog, rng *rand.Rand) (Report, error) {
	var report Report
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return report, errors.Wrap(err, "begin seed")
	}
	defer tx.Rollback()

	for _, table := range []string{"pharmacy_stocks", "pharmacy_insurance", "pharmacies", "medicines", "insurance_types"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return report, errors.Wrapf(err, "clear %s", table)
		}
	}

	insurerIDs := make(map[string]int64)
	for _, name := range catalog.Insurers {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO insurance_types (name) VALUES (?)`, name); err != nil {
			return report, errors.Wrapf(err, "insert insurer %s", name)
		}
		var id int64
		if err := tx.GetContext(ctx, &id, `SELECT id FROM insurance_types WHERE name = ?`, name); err != nil {
			return report, errors.Wrapf(err, "resolve insurer %s", name)
		}
		insurerIDs[name] = id
	}
	report.Insurers = len(insurerIDs)

	medicineIDs := make(map[medicineKey]int64)
	for _, p := range catalog.Pharmacies {
		var description *string
		if p.Description != "" {
			description = &p.Description
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO pharmacies (id, name, sector, address, phone, delivery, lat, lng, description)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Sector, p.Address, p.Phone, p.Delivery, p.Lat, p.Lng, description); err != nil {
			return report, errors.Wrapf(err, "insert pharmacy %s", p.ID)
		}
		report.Pharmacies++

		for _, name := range p.Insurance {
			id, ok := insurerIDs[name]
			if !ok {
				log.Warn().Str("pharmacy", p.ID).Str("insurer", name).Msg("insurer not in catalog, skipping")
				continue
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO pharmacy_insurance (pharmacy_id, insurance_id) VALUES (?, ?)`, p.ID, id); err != nil {
				return report, errors.Wrapf(err, "link %s to %s", p.ID, name)
			}
		}

		for _, label := range p.Stocks {
			name, strength, rx := ParseLabel(label)
			key := medicineKey{name: name}
			if strength != nil {
				key.strength = *strength
			}
			medicineID, ok := medicineIDs[key]
			if !ok {
				res, err := tx.ExecContext(ctx, `INSERT INTO medicines (name, strength, requires_prescription) VALUES (?, ?, ?)`, name, strength, rx)
				if err != nil {
					return report, errors.Wrapf(err, "insert medicine %s", label)
				}
				if medicineID, err = res.LastInsertId(); err != nil {
					return report, errors.Wrap(err, "medicine id")
				}
				medicineIDs[key] = medicineID
			}

			price := float64(rng.IntN(4500) + 500)
			quantity := rng.IntN(101)
			res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO pharmacy_stocks (pharmacy_id, medicine_id, price_rwf, quantity) VALUES (?, ?, ?, ?)`,
				p.ID, medicineID, price, quantity)
			if err != nil {
				return report, errors.Wrapf(err, "insert stock %s/%s", p.ID, label)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				report.Stocks++
			}
		}
	}
	report.Medicines = len(medicineIDs)

	if err := tx.Commit(); err != nil {
		return report, errors.Wrap(err, "commit seed")
	}
	log.Info().
		Int("pharmacies", report.Pharmacies).
		Int("insurers", report.Insurers).
		Int("medicines", report.Medicines).
		Int("stocks", report.Stocks).
		Msg("seeded reference data")
	return report, nil
}
