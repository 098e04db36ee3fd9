package model

import "time"

// Organization is a tenant institute.  Slugs are unique across the platform
// and one designated "template" organization seeds configuration for new
// tenants; administrative listings always pin it first.
type Organization struct {
	ID        uint64    // organizations.id
	Slug      string    // organizations.slug (unique)
	Name      string    // organizations.name
	City      string    // organizations.city
	IsActive  bool      // organizations.is_active
	CreatedAt time.Time // organizations.created_at
	UpdatedAt time.Time // organizations.updated_at
}
