package seed

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoadStockCSV imports rows of pharmacy_id,medicine,price_rwf,quantity
// after a header line. Medicines are created from their label when
// missing; existing stock rows are overwritten. Malformed rows are logged
// and skipped. It returns the number of rows applied.
func LoadStockCSV(ctx context.Context, db *sqlx.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, errors.Wrap(err, "read stock header")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin stock import")
	}
	defer tx.Rollback()

	var ids []string
	if err := tx.SelectContext(ctx, &ids, `SELECT id FROM pharmacies`); err != nil {
		return 0, errors.Wrap(err, "load pharmacy ids")
	}
	pharmacies := make(map[string]bool, len(ids))
	for _, id := range ids {
		pharmacies[id] = true
	}

	upsert, err := tx.PreparexContext(ctx, `INSERT INTO pharmacy_stocks (pharmacy_id, medicine_id, price_rwf, quantity) VALUES (?, ?, ?, ?)
                ON CONFLICT (pharmacy_id, medicine_id) DO UPDATE SET price_rwf = excluded.price_rwf, quantity = excluded.quantity`)
	if err != nil {
		return 0, errors.Wrap(err, "prepare stock upsert")
	}
	defer upsert.Close()

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("unable to read stock row")
			continue
		}
		if len(record) < 4 {
			log.Warn().Int("line", line).Msg("stock row needs 4 columns, skipping")
			continue
		}
		pharmacyID := strings.TrimSpace(record[0])
		label := strings.TrimSpace(record[1])
		price, perr := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		quantity, qerr := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if pharmacyID == "" || label == "" || perr != nil || qerr != nil || price < 0 || quantity < 0 {
			log.Warn().Int("line", line).Strs("record", record).Msg("invalid stock row, skipping")
			continue
		}
		if !pharmacies[pharmacyID] {
			log.Warn().Int("line", line).Str("pharmacy", pharmacyID).Msg("unknown pharmacy, skipping")
			continue
		}

		medicineID, err := ensureMedicine(ctx, tx, label)
		if err != nil {
			return rows, err
		}
		if _, err := upsert.ExecContext(ctx, pharmacyID, medicineID, price, quantity); err != nil {
			log.Warn().Err(err).Int("line", line).Str("pharmacy", pharmacyID).Msg("unable to apply stock row")
			continue
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit stock import")
	}
	log.Info().Int("rows", rows).Msg("imported stock")
	return rows, nil
}

func ensureMedicine(ctx context.Context, tx *sqlx.Tx, label string) (int64, error) {
	name, strength, rx := ParseLabel(label)
	var ids []int64
	if err := tx.SelectContext(ctx, &ids, `SELECT id FROM medicines WHERE name = ? AND strength IS ? ORDER BY id LIMIT 1`, name, strength); err != nil {
		return 0, errors.Wrapf(err, "look up medicine %s", label)
	}
	if len(ids) > 0 {
		return ids[0], nil
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO medicines (name, strength, requires_prescription) VALUES (?, ?, ?)`, name, strength, rx)
	if err != nil {
		return 0, errors.Wrapf(err, "insert medicine %s", label)
	}
	id, err := res.LastInsertId()
	return id, errors.Wrap(err, "medicine id")
}
