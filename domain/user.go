package domain

type Role string

const (
	RoleUser     Role = "user"
	RolePharmacy Role = "pharmacy"
)

// User is an account. Password holds the bcrypt hash and is never encoded.
type User struct {
	ID         string  `db:"id" json:"id"`
	Email      string  `db:"email" json:"email"`
	Name       string  `db:"name" json:"name"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	Password   string  `db:"password" json:"-"`
	Role       Role    `db:"role" json:"role"`
	PharmacyID *string `db:"pharmacy_id" json:"pharmacyId,omitempty"`
	CreatedAt  string  `db:"created_at" json:"createdAt,omitempty"`
}
