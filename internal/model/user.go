package model

import "time"

// Roles stored in users.role and carried in the JWT "role" claim.
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleClient = "CLIENT"
)

// User mirrors the 'users' table.  Clients, staff and administrators share
// the table; loyalty counters and birth date are only meaningful for the
// CLIENT role.
//
// The loyalty counters track completed activity: IndividualServices counts
// completed single-session reservations, Forfaits counts fully completed
// 4-session packages.  Both are reset to zero when the matching loyalty
// discount is applied at payment validation.  BirthdayDiscountYear records
// the last calendar year in which the birthday discount was granted so it
// can only be used once per year.
type User struct {
	ID                   uint64     // users.id
	OrganizationID       *uint64    // users.organization_id (nullable for platform admins)
	Email                string     // users.email
	PasswordHash         string     // users.password_hash
	Name                 string     // users.name
	Phone                string     // users.phone
	Role                 string     // users.role
	BirthDate            *time.Time // users.birth_date (nullable)
	IndividualServices   int        // users.individual_services_count
	Forfaits             int        // users.packages_count
	BirthdayDiscountYear int        // users.birthday_discount_year
	IsActive             bool       // users.is_active
	CreatedAt            time.Time  // users.created_at
	UpdatedAt            time.Time  // users.updated_at
}
