package domain

// Pharmacy is a dispensing location. ID is a stable external identifier
// such as "ph-001".
type Pharmacy struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Sector      string  `db:"sector" json:"sector"`
	Address     string  `db:"address" json:"address,omitempty"`
	Phone       string  `db:"phone" json:"phone,omitempty"`
	Delivery    bool    `db:"delivery" json:"delivery"`
	Lat         float64 `db:"lat" json:"lat"`
	Lng         float64 `db:"lng" json:"lng"`
	Description *string `db:"description" json:"description,omitempty"`
	CreatedAt   string  `db:"created_at" json:"createdAt,omitempty"`
}

// InsuranceType is an insurer a pharmacy may accept.
type InsuranceType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
