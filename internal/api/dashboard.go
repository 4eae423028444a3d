package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
)

// pharmacyID resolves the caller's pharmacy. Dashboard routes never take
// a pharmacy id from the request.
func (h *Handler) pharmacyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, _ := claimsFrom(r.Context())
	id, err := h.svc.Dashboard.PharmacyForUser(r.Context(), claims.UserID)
	if err != nil {
		respondFailure(w, r, err)
		return "", false
	}
	return id, true
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	pharmacyID, ok := h.pharmacyID(w, r)
	if !ok {
		return
	}
	stock, err := h.svc.Dashboard.ListStock(r.Context(), pharmacyID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

type stockRequest struct {
	Quantity *int64   `json:"quantity" validate:"required"`
	PriceRWF *float64 `json:"priceRWF" validate:"required"`
}

// parseMedicineID accepts both the numeric id and the "med-<id>" form
// used in views.
func parseMedicineID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "med-"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid medicine id %q", raw)
	}
	return id, nil
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	medicineID, err := parseMedicineID(chi.URLParam(r, "medicineId"))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, r, err)
		return
	}
	pharmacyID, ok := h.pharmacyID(w, r)
	if !ok {
		return
	}
	stock, err := h.svc.Dashboard.SetStock(r.Context(), pharmacyID, medicineID, *req.Quantity, *req.PriceRWF)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

func (h *Handler) listPharmacyOrders(w http.ResponseWriter, r *http.Request) {
	var filter *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			respondFailure(w, r, apperr.Validationf("%v", err))
			return
		}
		filter = &status
	}
	pharmacyID, ok := h.pharmacyID(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Dashboard.ListOrders(r.Context(), pharmacyID, filter)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, r, err)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		respondFailure(w, r, apperr.Validationf("%v", err))
		return
	}
	pharmacyID, ok := h.pharmacyID(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Dashboard.SetOrderStatus(r.Context(), pharmacyID, chi.URLParam(r, "orderId"), status)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

type prescriptionStatusRequest struct {
	PrescriptionStatus string `json:"prescriptionStatus" validate:"required"`
}

func (h *Handler) updatePrescriptionStatus(w http.ResponseWriter, r *http.Request) {
	var req prescriptionStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, r, err)
		return
	}
	status, err := domain.ParsePrescriptionStatus(req.PrescriptionStatus)
	if err != nil {
		respondFailure(w, r, apperr.Validationf("%v", err))
		return
	}
	pharmacyID, ok := h.pharmacyID(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Dashboard.SetPrescriptionStatus(r.Context(), pharmacyID, chi.URLParam(r, "orderId"), status)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
