package model

import "time"

// Reservation status values.  A reservation moves from pending through
// confirmed to completed; cancelled and no_show are terminal states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Payment status values recorded against a reservation.
const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
	PaymentNoShow  = "no_show"
)

// Reservation records a client's booking of a time slot at an institute.
// Selected services and their package choices are stored as JSON columns so
// that a booking can bundle several treatments under a single slot.
//
// Fields:
//
//	ID             – primary key identifier.
//	ClientID       – user who made the reservation.
//	OrganizationID – institute the slot belongs to.
//	Services       – ordered list of selected service slugs.
//	Packages       – service slug -> package kind ("single" | "forfait").
//	Options        – complementary option slugs, charged at a flat rate.
//	Date           – calendar day in "2006-01-02" form.
//	Time           – half-hour slot label such as "14:30".
//	Notes          – free-text note entered at booking time.
//	TotalPrice     – total computed at submission from the catalog.
//	Status         – reservation lifecycle state.
//	PaymentStatus  – payment lifecycle state.
//	PaymentMethod  – method recorded at validation (nullable).
//	PaymentAmount  – amount actually collected (nullable).
//	PaymentDate    – when the payment was validated (nullable).
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64            // reservations.id
	ClientID       uint64            // reservations.client_id
	OrganizationID uint64            // reservations.organization_id
	Services       []string          // reservations.services (JSON)
	Packages       map[string]string // reservations.packages (JSON)
	Options        []string          // reservations.options (JSON)
	Date           string            // reservations.date
	Time           string            // reservations.time
	Notes          string            // reservations.notes
	TotalPrice     float64           // reservations.total_price
	Status         string            // reservations.status
	PaymentStatus  string            // reservations.payment_status
	PaymentMethod  *string           // reservations.payment_method (nullable)
	PaymentAmount  *float64          // reservations.payment_amount (nullable)
	PaymentDate    *time.Time        // reservations.payment_date (nullable)
	CreatedAt      time.Time         // reservations.created_at
	UpdatedAt      time.Time         // reservations.updated_at
}
