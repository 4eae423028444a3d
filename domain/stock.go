package domain

// StockEntry is the price and quantity of one medicine at one pharmacy.
// At most one entry exists per (PharmacyID, MedicineID).
type StockEntry struct {
	ID         int64   `db:"id" json:"id"`
	PharmacyID string  `db:"pharmacy_id" json:"pharmacyId"`
	MedicineID int64   `db:"medicine_id" json:"medicineId"`
	PriceRWF   float64 `db:"price_rwf" json:"priceRWF"`
	Quantity   int64   `db:"quantity" json:"quantity"`
}

// StockValidation selects how dashboard stock edits are checked.
type StockValidation string

const (
	// StockStrict rejects negative quantities and prices.
	StockStrict StockValidation = "strict"
	// StockLegacy forwards values unchecked, as the first API release did.
	StockLegacy StockValidation = "legacy"
)
