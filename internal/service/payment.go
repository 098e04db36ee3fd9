package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avelane/institut-booking/internal/model"
)

// Payment validation errors.
var (
	ErrAlreadyPaid     = errors.New("reservation already paid")
	ErrGiftCardUnknown = errors.New("gift card not found")
	ErrEmptyGiftCard   = errors.New("gift card has no balance")
)

// SettlementRecord instructs the persistence layer which writes to perform
// when a payment is confirmed.  The repository applies all of them in a
// single transaction.
type SettlementRecord struct {
	ReservationID    uint64
	ClientID         uint64
	Amount           float64 // amount collected via Method after all deductions
	Method           string
	Status           string // payment status to record
	Note             string
	ResetSoins       bool
	ResetForfaits    bool
	MarkBirthdayYear bool
	BirthdayYear     int
	GiftCardID       uint64  // 0 when no card was used
	GiftCardAmount   float64 // amount to deduct from the card balance
}

// PaymentStore is the persistence surface for payment validation.
type PaymentStore interface {
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ClientProfile(ctx context.Context, clientID uint64) (LoyaltyProfile, error)
	GiftCardByCode(ctx context.Context, code string) (*model.GiftCard, error)
	ApplySettlement(ctx context.Context, rec SettlementRecord) error
}

// PaymentService validates reservation payments from the back office: it
// folds the operator-checked discounts and optional gift card over the
// reservation total, persists the outcome and triggers the counter resets.
type PaymentService struct {
	store PaymentStore
}

func NewPaymentService(store PaymentStore) *PaymentService {
	if store == nil {
		panic("nil store passed to NewPaymentService")
	}
	return &PaymentService{store: store}
}

// ValidateInput is the operator's payment validation request.
type ValidateInput struct {
	ReservationID uint64
	Checked       map[DiscountKind]bool
	Manual        float64
	GiftCardCode  string
	Method        string
}

// Discounts returns the discount list with current eligibility for a
// reservation's client, for rendering the validation modal.
func (s *PaymentService) Discounts(ctx context.Context, reservationID uint64) ([]Discount, error) {
	res, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.ClientProfile(ctx, res.ClientID)
	if err != nil {
		return nil, err
	}
	return AvailableDiscounts(profile, time.Now().UTC()), nil
}

// Validate settles the amount due and persists the payment with its side
// effects.  The fold itself is pure (Settle); this method only gathers the
// inputs and hands the outcome to the store.
func (s *PaymentService) Validate(ctx context.Context, in ValidateInput) (Settlement, error) {
	res, err := s.store.GetReservation(ctx, in.ReservationID)
	if err != nil {
		return Settlement{}, err
	}
	if res.PaymentStatus == model.PaymentPaid {
		return Settlement{}, ErrAlreadyPaid
	}
	profile, err := s.store.ClientProfile(ctx, res.ClientID)
	if err != nil {
		return Settlement{}, err
	}

	var card *model.GiftCard
	giftBalance := 0.0
	if in.GiftCardCode != "" {
		card, err = s.store.GiftCardByCode(ctx, in.GiftCardCode)
		if err != nil {
			if err == sql.ErrNoRows {
				return Settlement{}, ErrGiftCardUnknown
			}
			return Settlement{}, err
		}
		if card.Balance <= 0 {
			return Settlement{}, ErrEmptyGiftCard
		}
		giftBalance = card.Balance
	}

	now := time.Now().UTC()
	settlement, err := Settle(res.TotalPrice, profile, in.Checked, in.Manual, giftBalance, now)
	if err != nil {
		return Settlement{}, err
	}

	rec := SettlementRecord{
		ReservationID:    res.ID,
		ClientID:         res.ClientID,
		Amount:           settlement.Final,
		Method:           in.Method,
		Status:           model.PaymentPaid,
		Note:             settlement.Note,
		ResetSoins:       settlement.ResetSoins,
		ResetForfaits:    settlement.ResetForfaits,
		MarkBirthdayYear: settlement.MarkBirthdayYear,
		BirthdayYear:     now.Year(),
	}
	if card != nil && settlement.GiftCardApplied > 0 {
		rec.GiftCardID = card.ID
		rec.GiftCardAmount = settlement.GiftCardApplied
	}
	if err := s.store.ApplySettlement(ctx, rec); err != nil {
		return Settlement{}, err
	}
	return settlement, nil
}
