package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medifinder/m/internal/apperr"
	"medifinder/m/internal/catalog"
)

func (h *Handler) searchPharmacies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.svc.Catalog.Search(r.Context(), catalog.Filters{
		Text:      q.Get("q"),
		Locality:  q.Get("loc"),
		Insurance: q.Get("insurance"),
	})
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handler) getPharmacy(w http.ResponseWriter, r *http.Request) {
	view, found, err := h.svc.Catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	if !found {
		respondFailure(w, r, apperr.New(apperr.NotFound, "Pharmacy not found"))
		return
	}
	respondJSON(w, http.StatusOK, view)
}
