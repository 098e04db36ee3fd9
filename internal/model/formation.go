package model

import "time"

// Formation is a professional training course sold by an institute, managed
// from the back office alongside organizations and users.
type Formation struct {
	ID             uint64    // formations.id
	OrganizationID uint64    // formations.organization_id
	Slug           string    // formations.slug (unique)
	Title          string    // formations.title
	Description    string    // formations.description
	Price          float64   // formations.price
	DurationHours  int       // formations.duration_hours
	IsActive       bool      // formations.is_active
	CreatedAt      time.Time // formations.created_at
	UpdatedAt      time.Time // formations.updated_at
}
