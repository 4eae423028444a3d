package domain

import "fmt"

// OrderStatus is the fulfilment state of an order.
//
// The dashboard walks orders forward along
//
//	pending -> confirmed -> processing -> ready -> delivered
//
// with confirmed reachable only once the prescription is verified and
// cancelled reachable from any non-terminal state. The server stores any
// known label; see NextStatuses for the graph the client follows.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing, OrderReady, OrderDelivered, OrderCancelled,
}

// OrderStatuses returns every known order status in workflow order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range orderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Terminal reports whether no further transition is expected.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// NextStatuses lists the transitions the dashboard offers from s.
func (s OrderStatus) NextStatuses(prescription PrescriptionStatus) []OrderStatus {
	var next []OrderStatus
	switch s {
	case OrderPending:
		if prescription == PrescriptionVerified {
			next = append(next, OrderConfirmed)
		}
	case OrderConfirmed:
		next = append(next, OrderProcessing)
	case OrderProcessing:
		next = append(next, OrderReady)
	case OrderReady:
		next = append(next, OrderDelivered)
	}
	if !s.Terminal() {
		next = append(next, OrderCancelled)
	}
	return next
}

// PrescriptionStatus is the pharmacy's verdict on an order's prescription,
// independent of fulfilment.
type PrescriptionStatus string

const (
	PrescriptionPending  PrescriptionStatus = "pending"
	PrescriptionVerified PrescriptionStatus = "verified"
	PrescriptionRejected PrescriptionStatus = "rejected"
)

func ParsePrescriptionStatus(s string) (PrescriptionStatus, error) {
	switch PrescriptionStatus(s) {
	case PrescriptionPending, PrescriptionVerified, PrescriptionRejected:
		return PrescriptionStatus(s), nil
	}
	return "", fmt.Errorf("unknown prescription status %q", s)
}

type Order struct {
	ID                 string             `db:"id" json:"id"`
	PharmacyID         string             `db:"pharmacy_id" json:"pharmacyId"`
	UserID             *string            `db:"user_id" json:"userId,omitempty"`
	CustomerName       string             `db:"customer_name" json:"customerName"`
	CustomerEmail      string             `db:"customer_email" json:"customerEmail"`
	CustomerPhone      *string            `db:"customer_phone" json:"customerPhone,omitempty"`
	TotalRWF           float64            `db:"total_rwf" json:"totalRWF"`
	Status             OrderStatus        `db:"status" json:"status"`
	PrescriptionStatus PrescriptionStatus `db:"prescription_status" json:"prescriptionStatus"`
	PrescriptionRef    *string            `db:"prescription_ref" json:"prescriptionRef,omitempty"`
	Delivery           bool               `db:"delivery" json:"delivery"`
	DeliveryAddress    *string            `db:"delivery_address" json:"deliveryAddress,omitempty"`
	CreatedAt          string             `db:"created_at" json:"createdAt"`
	UpdatedAt          string             `db:"updated_at" json:"updatedAt"`
}

// OrderItem carries the price captured when the order was placed, so
// totals do not move when stock prices change.
type OrderItem struct {
	ID         int64   `db:"id" json:"id"`
	OrderID    string  `db:"order_id" json:"orderId"`
	MedicineID int64   `db:"medicine_id" json:"medicineId"`
	Quantity   int64   `db:"quantity" json:"quantity"`
	PriceRWF   float64 `db:"price_rwf" json:"priceRWF"`
}
