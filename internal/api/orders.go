package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"medifinder/m/internal/apperr"
	"medifinder/m/internal/ordering"
)

// medicineID decodes either a JSON number or a "med-<id>" string, matching
// the ids on stock views.
type medicineID int64

func (m *medicineID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		id, err := parseMedicineID(raw)
		if err != nil {
			return err
		}
		*m = medicineID(id)
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return apperr.New(apperr.Validation, "medicineId must be a number or a med-<id> reference")
	}
	*m = medicineID(id)
	return nil
}

// orderItemRequest is one cart line. Name is the cart's display label and
// is ignored; names and prices come from the store.
type orderItemRequest struct {
	PharmacyID string     `json:"pharmacyId"`
	MedicineID medicineID `json:"medicineId" validate:"required,gt=0"`
	Quantity   int64      `json:"quantity" validate:"required,gt=0"`
	Name       string     `json:"name"`
}

// placeOrderRequest carries the cart. PharmacyID applies to items that do
// not name their own pharmacy, and PrescriptionFile (the uploaded
// prescription) stands in for PrescriptionRef when that is empty.
type placeOrderRequest struct {
	PharmacyID       string             `json:"pharmacyId"`
	Items            []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	CustomerName     string             `json:"customerName"`
	CustomerPhone    string             `json:"customerPhone"`
	Delivery         bool               `json:"delivery"`
	DeliveryAddress  string             `json:"deliveryAddress" validate:"required_if=Delivery true"`
	PrescriptionRef  string             `json:"prescriptionRef"`
	PrescriptionFile string             `json:"prescriptionFile"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, r, err)
		return
	}

	claims, _ := claimsFrom(r.Context())
	user, found, err := h.svc.Identity.UserByID(r.Context(), claims.UserID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	if !found {
		respondFailure(w, r, apperr.New(apperr.Authentication, "Account no longer exists"))
		return
	}

	customer := ordering.Customer{UserID: user.ID, Name: user.Name, Email: user.Email}
	if user.Phone != nil {
		customer.Phone = *user.Phone
	}
	if req.CustomerName != "" {
		customer.Name = req.CustomerName
	}
	if req.CustomerPhone != "" {
		customer.Phone = req.CustomerPhone
	}

	lines := make([]ordering.Line, 0, len(req.Items))
	for _, it := range req.Items {
		pharmacyID := it.PharmacyID
		if pharmacyID == "" {
			pharmacyID = req.PharmacyID
		}
		lines = append(lines, ordering.Line{PharmacyID: pharmacyID, MedicineID: int64(it.MedicineID), Quantity: it.Quantity})
	}

	ref := req.PrescriptionRef
	if ref == "" {
		ref = req.PrescriptionFile
	}
	orders, err := h.svc.Ordering.Place(r.Context(), ordering.Checkout{
		Customer:        customer,
		Lines:           lines,
		Delivery:        req.Delivery,
		DeliveryAddress: req.DeliveryAddress,
		PrescriptionRef: ref,
	})
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, orders)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	orders, err := h.svc.Ordering.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
