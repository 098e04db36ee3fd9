package model

import "time"

// GiftCard mirrors the 'gift_cards' table.  Cards are sold with an initial
// balance and consumed against reservation payments; the amount applied to a
// payment never exceeds min(balance, amount still owed).
type GiftCard struct {
	ID          uint64    // gift_cards.id
	Code        string    // gift_cards.code (unique)
	Balance     float64   // gift_cards.balance
	Beneficiary string    // gift_cards.beneficiary
	CreatedAt   time.Time // gift_cards.created_at
	UpdatedAt   time.Time // gift_cards.updated_at
}
