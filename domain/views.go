package domain

import "fmt"

// MedicineStockView is one stocked medicine inside a PharmacyView.
type MedicineStockView struct {
	ID                   string  `json:"id"`
	MedicineID           int64   `json:"medicineId"`
	Name                 string  `json:"name"`
	Strength             *string `json:"strength,omitempty"`
	PriceRWF             float64 `json:"priceRWF"`
	Quantity             int64   `json:"quantity"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}

// PharmacyView is the denormalized catalog shape served to the client.
type PharmacyView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Sector      string              `json:"sector"`
	Address     string              `json:"address,omitempty"`
	Phone       string              `json:"phone,omitempty"`
	Delivery    bool                `json:"delivery"`
	Lat         float64             `json:"lat"`
	Lng         float64             `json:"lng"`
	Description *string             `json:"description,omitempty"`
	Accepts     []string            `json:"accepts"`
	Stocks      []MedicineStockView `json:"stocks"`
}

// StockView is a dashboard stock row.
type StockView struct {
	ID                   string  `json:"id"`
	StockID              int64   `json:"stockId"`
	MedicineID           int64   `json:"medicineId"`
	Name                 string  `json:"name"`
	Strength             *string `json:"strength,omitempty"`
	PriceRWF             float64 `json:"priceRWF"`
	Quantity             int64   `json:"quantity"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}

type OrderItemView struct {
	MedicineID       int64   `json:"medicineId"`
	MedicineName     string  `json:"medicineName"`
	MedicineStrength *string `json:"medicineStrength,omitempty"`
	Quantity         int64   `json:"quantity"`
	PriceRWF         float64 `json:"priceRWF"`
}

// Summary renders the item as "Name Strength x Qty".
func (i OrderItemView) Summary() string {
	m := Medicine{Name: i.MedicineName, Strength: i.MedicineStrength}
	return fmt.Sprintf("%s x %d", m.Label(), i.Quantity)
}

type OrderView struct {
	ID                 string             `json:"id"`
	PharmacyID         string             `json:"pharmacyId"`
	CustomerName       string             `json:"customerName"`
	CustomerEmail      string             `json:"customerEmail"`
	CustomerPhone      *string            `json:"customerPhone,omitempty"`
	Items              []string           `json:"items"`
	ItemDetails        []OrderItemView    `json:"itemDetails"`
	Total              float64            `json:"total"`
	Status             OrderStatus        `json:"status"`
	PrescriptionStatus PrescriptionStatus `json:"prescriptionStatus"`
	Delivery           bool               `json:"delivery"`
	Address            *string            `json:"address,omitempty"`
	CreatedAt          string             `json:"createdAt"`
	UpdatedAt          string             `json:"updatedAt"`
}

// MedicineRef formats the external medicine identifier used in views.
func MedicineRef(id int64) string {
	return fmt.Sprintf("med-%d", id)
}

// NewOrderView assembles the view for an order and its resolved items.
func NewOrderView(o Order, items []OrderItemView) OrderView {
	summaries := make([]string, 0, len(items))
	for _, it := range items {
		summaries = append(summaries, it.Summary())
	}
	if items == nil {
		items = []OrderItemView{}
	}
	return OrderView{
		ID:                 o.ID,
		PharmacyID:         o.PharmacyID,
		CustomerName:       o.CustomerName,
		CustomerEmail:      o.CustomerEmail,
		CustomerPhone:      o.CustomerPhone,
		Items:              summaries,
		ItemDetails:        items,
		Total:              o.TotalRWF,
		Status:             o.Status,
		PrescriptionStatus: o.PrescriptionStatus,
		Delivery:           o.Delivery,
		Address:            o.DeliveryAddress,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}
