// Package queue defines message payloads exchanged over the message broker
// and the background consumers that drain them.
package queue

// ReservationConfirmedEvent is published when a reservation is successfully
// recorded.  It carries enough information for downstream consumers to log,
// notify or trigger analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID  uint64   `json:"reservation_id"`
	ClientID       uint64   `json:"client_id"`
	ClientEmail    string   `json:"client_email"`
	OrganizationID uint64   `json:"organization_id"`
	Services       []string `json:"services"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	TotalPrice     float64  `json:"total_price"`
	ConfirmedAt    string   `json:"confirmed_at"`
}

// ClientWelcomeEvent is published when an account is created on the fly
// during reservation submission.  The mailer consumer delivers the generated
// password to the client so they can log into the portal later.
type ClientWelcomeEvent struct {
	ClientID  uint64 `json:"client_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	CreatedAt string `json:"created_at"`
}

// CampaignMessageEvent is one email of a campaign send, published per
// recipient so delivery can be retried independently.
type CampaignMessageEvent struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Segment  string `json:"segment,omitempty"`
	QueuedAt string `json:"queued_at"`
}
