package client

import (
	"strings"

	"medifinder/m/domain"
	"medifinder/m/internal/catalog"
)

// FallbackPharmacies is the small dataset shown while the API cannot be
// reached.
func FallbackPharmacies() []domain.PharmacyView {
	return []domain.PharmacyView{
		{
			ID:       "1",
			Name:     "Sample Pharmacy",
			Sector:   "Kacyiru",
			Delivery: true,
			Lat:      -1.9441,
			Lng:      30.0619,
			Accepts:  []string{"RSSB", "Mutuelle"},
			Stocks:   []domain.MedicineStockView{},
		},
	}
}

// FilterPharmacies applies the server's search semantics to an in-memory
// list: case-insensitive substrings, AND-composed, zero stock included.
func FilterPharmacies(pharmacies []domain.PharmacyView, f catalog.Filters) []domain.PharmacyView {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	loc := strings.ToLower(strings.TrimSpace(f.Locality))
	ins := strings.ToLower(strings.TrimSpace(f.Insurance))

	out := make([]domain.PharmacyView, 0, len(pharmacies))
	for _, p := range pharmacies {
		if loc != "" && !strings.Contains(strings.ToLower(p.Sector), loc) {
			continue
		}
		if ins != "" && !anyContains(p.Accepts, ins) {
			continue
		}
		if text != "" {
			names := make([]string, len(p.Stocks))
			for i, s := range p.Stocks {
				names[i] = s.Name
			}
			if !anyContains(names, text) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
