package service

import "github.com/avelane/institut-booking/internal/model"

// Package kinds stored per service in a reservation.  A forfait bundles 4
// sessions of the same service at a bundle price.
const (
	PackageSingle  = "single"
	PackageForfait = "forfait"
)

// OptionPrice is the flat charge for each complementary option added to a
// booking (e.g. LED mask, modelling massage).
const OptionPrice = 50.0

// UnitPrice returns the price of one catalog service under the chosen
// package.  Forfait bookings prefer the forfait promo over the forfait
// price; single bookings prefer the promo over the base price.  A forfait
// request against a service that offers no forfait pricing falls back to
// single pricing.
func UnitPrice(svc model.Service, pkg string) float64 {
	if pkg == PackageForfait {
		if svc.ForfaitPromo != nil {
			return *svc.ForfaitPromo
		}
		if svc.ForfaitPrice != nil {
			return *svc.ForfaitPrice
		}
	}
	if svc.PromoPrice != nil {
		return *svc.PromoPrice
	}
	return svc.Price
}

// ComputeTotal sums the unit price of every selected service plus the flat
// option charge for each complementary option.  Services missing from the
// catalog map are ignored; callers are expected to have validated the
// selection beforehand.
func ComputeTotal(selected []string, packages map[string]string, catalog map[string]model.Service, options []string) float64 {
	total := 0.0
	for _, slug := range selected {
		svc, ok := catalog[slug]
		if !ok {
			continue
		}
		total += UnitPrice(svc, packages[slug])
	}
	total += float64(len(options)) * OptionPrice
	return total
}
