package domain

type Medicine struct {
	ID                   int64   `db:"id" json:"id"`
	Name                 string  `db:"name" json:"name"`
	Strength             *string `db:"strength" json:"strength,omitempty"`
	RequiresPrescription bool    `db:"requires_prescription" json:"requiresPrescription"`
}

// Label renders the medicine as "Name Strength", or just the name.
func (m Medicine) Label() string {
	if m.Strength == nil || *m.Strength == "" {
		return m.Name
	}
	return m.Name + " " + *m.Strength
}
