package seed

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Link struct {
	UserID     string
	PharmacyID string
}

// LinkReport lists the accounts LinkPharmacyUsers linked and the ones it
// could not match.
type LinkReport struct {
	Linked    []Link
	Unmatched []string
}

type staffRow struct {
	ID    string  `db:"id"`
	Email string  `db:"email"`
	Name  string  `db:"name"`
	Phone *string `db:"phone"`
}

type pharmacyRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Phone string `db:"phone"`
}

// LinkPharmacyUsers attaches unlinked pharmacy-role accounts to a
// pharmacy. A pharmacy matches when either name contains the other
// (ignoring case); failing that, when the phones are equal ignoring
// whitespace or one contains the other.
func LinkPharmacyUsers(ctx context.Context, db *sqlx.DB) (LinkReport, error) {
	var report LinkReport
	var users []staffRow
	if err := db.SelectContext(ctx, &users, `SELECT id, email, name, phone FROM users
                WHERE role = 'pharmacy' AND (pharmacy_id IS NULL OR pharmacy_id = '')
                ORDER BY created_at, id`); err != nil {
		return report, errors.Wrap(err, "select unlinked staff")
	}
	if len(users) == 0 {
		return report, nil
	}

	var pharmacies []pharmacyRow
	if err := db.SelectContext(ctx, &pharmacies, `SELECT id, name, phone FROM pharmacies ORDER BY id`); err != nil {
		return report, errors.Wrap(err, "select pharmacies")
	}

	for _, u := range users {
		p, ok := match(u, pharmacies)
		if !ok {
			log.Warn().Str("user", u.ID).Str("email", u.Email).Msg("no pharmacy matches account")
			report.Unmatched = append(report.Unmatched, u.ID)
			continue
		}
		if _, err := db.ExecContext(ctx, `UPDATE users SET pharmacy_id = ? WHERE id = ?`, p.ID, u.ID); err != nil {
			return report, errors.Wrapf(err, "link %s", u.ID)
		}
		log.Info().Str("user", u.ID).Str("pharmacy", p.ID).Msg("linked account to pharmacy")
		report.Linked = append(report.Linked, Link{UserID: u.ID, PharmacyID: p.ID})
	}
	return report, nil
}

func match(u staffRow, pharmacies []pharmacyRow) (pharmacyRow, bool) {
	if name := strings.ToLower(strings.TrimSpace(u.Name)); name != "" {
		for _, p := range pharmacies {
			pname := strings.ToLower(strings.TrimSpace(p.Name))
			if pname == "" {
				continue
			}
			if strings.Contains(pname, name) || strings.Contains(name, pname) {
				return p, true
			}
		}
	}
	if u.Phone == nil || strings.TrimSpace(*u.Phone) == "" {
		return pharmacyRow{}, false
	}
	phone := *u.Phone
	for _, p := range pharmacies {
		if p.Phone == "" {
			continue
		}
		if stripSpace(p.Phone) == stripSpace(phone) || strings.Contains(p.Phone, phone) || strings.Contains(phone, p.Phone) {
			return p, true
		}
	}
	return pharmacyRow{}, false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
