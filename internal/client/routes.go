package client

import (
	"net/url"
	"strings"

	"medifinder/m/domain"
)

// Decision is the outcome of gating a route. Redirect is set when Allow
// is false.
type Decision struct {
	Allow    bool
	Redirect string
}

var userRoutes = []string{"/cart", "/checkout", "/prescription", "/order/"}

func matches(route, prefix string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(route, prefix)
	}
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

// Guard decides whether user (nil when signed out) may open route.
// Ordering routes need a signed-in customer account; the dashboard needs a
// pharmacy account. Everything else is public.
func Guard(route string, user *domain.User) Decision {
	path := route
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	if matches(path, "/dashboard") {
		switch {
		case user == nil:
			return Decision{Redirect: "/pharmacy/login"}
		case user.Role != domain.RolePharmacy:
			return Decision{Redirect: "/"}
		}
		return Decision{Allow: true}
	}

	for _, prefix := range userRoutes {
		if !matches(path, prefix) {
			continue
		}
		switch {
		case user == nil:
			return Decision{Redirect: "/login?redirect=" + url.QueryEscape(path)}
		case user.Role == domain.RolePharmacy:
			return Decision{Redirect: "/"}
		}
		return Decision{Allow: true}
	}
	return Decision{Allow: true}
}
