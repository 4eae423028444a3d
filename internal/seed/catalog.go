// Package seed loads reference data: the bundled pharmacy catalogue, bulk
// stock imports and the linking of staff accounts to pharmacies.
package seed

import (
	_ "embed"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var bundledCatalog []byte

type Catalog struct {
	Insurers   []string       `yaml:"insurers"`
	Pharmacies []PharmacySeed `yaml:"pharmacies"`
}

type PharmacySeed struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Sector      string   `yaml:"sector"`
	Address     string   `yaml:"address"`
	Phone       string   `yaml:"phone"`
	Delivery    bool     `yaml:"delivery"`
	Lat         float64  `yaml:"lat"`
	Lng         float64  `yaml:"lng"`
	Description string   `yaml:"description"`
	Insurance   []string `yaml:"insurance"`
	Stocks      []string `yaml:"stocks"`
}

// Bundled returns the catalogue compiled into the binary.
func Bundled() (Catalog, error) {
	return ParseCatalog(bundledCatalog)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, errors.Wrap(err, "parse catalog")
	}
	seen := make(map[string]bool, len(c.Pharmacies))
	for i, p := range c.Pharmacies {
		if p.ID == "" || p.Name == "" || p.Sector == "" {
			return Catalog{}, errors.Errorf("catalog pharmacy %d: id, name and sector are required", i)
		}
		if seen[p.ID] {
			return Catalog{}, errors.Errorf("catalog pharmacy %s listed twice", p.ID)
		}
		seen[p.ID] = true
	}
	return c, nil
}

// PrescriptionOnly lists name fragments of medicines dispensed only on
// prescription.
var PrescriptionOnly = []string{
	"Ceftriaxone", "Basiliximab", "Tacrolimus", "Ranibizumab",
	"Levonorgestrel", "Tramadol", "Clobetasol", "Azithromycin",
	"Ciprofloxacin", "Ornidazole", "Secnidazole", "Clindamycin",
}

// ParseLabel splits "Name (Strength)" into its parts. The prescription flag
// is set when the label contains any PrescriptionOnly fragment, ignoring
// case.
func ParseLabel(label string) (name string, strength *string, requiresPrescription bool) {
	head, tail, found := strings.Cut(label, "(")
	name = strings.TrimSpace(head)
	if found {
		s := strings.TrimSpace(strings.Replace(tail, ")", "", 1))
		if s != "" {
			strength = &s
		}
	}
	lower := strings.ToLower(label)
	for _, frag := range PrescriptionOnly {
		if strings.Contains(lower, strings.ToLower(frag)) {
			requiresPrescription = true
			break
		}
	}
	return name, strength, requiresPrescription
}
