// Package nav holds the shell's navigation history and the coordinator that
// applies guard decisions and session-expiry redirects to it.
package nav

import "github.com/alfredjeanlab/ims/internal/guard"

// Screens.
var (
	Login         = guard.Route{Name: "login"}
	Register      = guard.Route{Name: "register"}
	PasswordReset = guard.Route{Name: "password-reset"}

	Dashboard  = guard.Route{Name: "dashboard", Protected: true}
	Products   = guard.Route{Name: "products", Protected: true}
	Categories = guard.Route{Name: "categories", Protected: true}
	Stocks     = guard.Route{Name: "stocks", Protected: true}
	Profile    = guard.Route{Name: "profile", Protected: true}
)

var catalog = []guard.Route{
	Login, Register, PasswordReset,
	Dashboard, Products, Categories, Stocks, Profile,
}

// Predictions is the forecast screen for one product.
func Predictions(productID string) guard.Route {
	return guard.Route{Name: "predictions", Param: productID, Protected: true}
}

// Product is the detail screen for one product.
func Product(id string) guard.Route {
	return guard.Route{Name: "product", Param: id, Protected: true}
}

// Lookup resolves a screen name typed by the user. Screens that take a
// parameter require one.
func Lookup(name, param string) (guard.Route, bool) {
	switch name {
	case "predictions":
		if param == "" {
			return guard.Route{}, false
		}
		return Predictions(param), true
	case "product":
		if param == "" {
			return guard.Route{}, false
		}
		return Product(param), true
	}
	for _, r := range catalog {
		if r.Name == name {
			return r, true
		}
	}
	return guard.Route{}, false
}

// Names lists the screen names accepted by Lookup.
func Names() []string {
	names := make([]string, 0, len(catalog)+2)
	for _, r := range catalog {
		names = append(names, r.Name)
	}
	return append(names, "product", "predictions")
}
