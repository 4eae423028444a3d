package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medifinder/m/domain"
)

func TestGuard(t *testing.T) {
	customer := &domain.User{ID: "user-1", Role: domain.RoleUser}
	staff := &domain.User{ID: "user-2", Role: domain.RolePharmacy}

	tests := []struct {
		route string
		user  *domain.User
		want  Decision
	}{
		{"/", nil, Decision{Allow: true}},
		{"/pharmacies/ph-a", nil, Decision{Allow: true}},
		{"/login", staff, Decision{Allow: true}},
		{"/cart", nil, Decision{Redirect: "/login?redirect=%2Fcart"}},
		{"/order/ph-a/med-1", nil, Decision{Redirect: "/login?redirect=%2Forder%2Fph-a%2Fmed-1"}},
		{"/checkout?step=2", nil, Decision{Redirect: "/login?redirect=%2Fcheckout"}},
		{"/cart", customer, Decision{Allow: true}},
		{"/prescription", staff, Decision{Redirect: "/"}},
		{"/dashboard", nil, Decision{Redirect: "/pharmacy/login"}},
		{"/dashboard", customer, Decision{Redirect: "/"}},
		{"/dashboard", staff, Decision{Allow: true}},
		{"/cartography", nil, Decision{Allow: true}},
	}
	for _, tc := range tests {
		t.Run(tc.route, func(t *testing.T) {
			assert.Equal(t, tc.want, Guard(tc.route, tc.user))
		})
	}
}
