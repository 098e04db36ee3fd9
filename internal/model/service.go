package model

import "time"

// Service is a catalog entry for a bookable treatment.  Each service carries
// a base price with an optional promo price, and optionally a forfait price
// (bundle of 4 sessions) with its own optional promo.  Nil pointers mean the
// corresponding price is not offered.
type Service struct {
	ID              uint64    // services.id
	OrganizationID  uint64    // services.organization_id
	Slug            string    // services.slug (unique per organization)
	Name            string    // services.name
	Price           float64   // services.price
	PromoPrice      *float64  // services.promo_price (nullable)
	ForfaitPrice    *float64  // services.forfait_price (nullable)
	ForfaitPromo    *float64  // services.forfait_promo (nullable)
	DurationMinutes int       // services.duration_minutes
	IsActive        bool      // services.is_active
	CreatedAt       time.Time // services.created_at
	UpdatedAt       time.Time // services.updated_at
}
