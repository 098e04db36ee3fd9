package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/model"
)

type mockPaymentStore struct {
	reservation *model.Reservation
	profile     LoyaltyProfile
	card        *model.GiftCard
	cardErr     error
	applied     []SettlementRecord
	applyErr    error
}

func (m *mockPaymentStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	if m.reservation == nil {
		return nil, sql.ErrNoRows
	}
	return m.reservation, nil
}
func (m *mockPaymentStore) ClientProfile(ctx context.Context, clientID uint64) (LoyaltyProfile, error) {
	return m.profile, nil
}
func (m *mockPaymentStore) GiftCardByCode(ctx context.Context, code string) (*model.GiftCard, error) {
	if m.cardErr != nil {
		return nil, m.cardErr
	}
	return m.card, nil
}
func (m *mockPaymentStore) ApplySettlement(ctx context.Context, rec SettlementRecord) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, rec)
	return nil
}

func paymentFixture() *mockPaymentStore {
	return &mockPaymentStore{
		reservation: &model.Reservation{
			ID:            9,
			ClientID:      7,
			TotalPrice:    120,
			Status:        model.StatusCompleted,
			PaymentStatus: model.PaymentUnpaid,
		},
		profile: LoyaltyProfile{IndividualServices: 5},
	}
}

func TestValidateLoyaltyDiscount(t *testing.T) {
	store := paymentFixture()
	svc := NewPaymentService(store)

	s, err := svc.Validate(context.Background(), ValidateInput{
		ReservationID: 9,
		Checked:       map[DiscountKind]bool{DiscountLoyaltySoins: true},
		Method:        "card",
	})

	assert.NoError(t, err)
	assert.Equal(t, 100.0, s.Final)
	assert.True(t, s.ResetSoins)

	assert.Len(t, store.applied, 1)
	rec := store.applied[0]
	assert.Equal(t, uint64(9), rec.ReservationID)
	assert.Equal(t, uint64(7), rec.ClientID)
	assert.Equal(t, 100.0, rec.Amount)
	assert.Equal(t, "card", rec.Method)
	assert.Equal(t, model.PaymentPaid, rec.Status)
	assert.True(t, rec.ResetSoins)
	assert.Equal(t, uint64(0), rec.GiftCardID)
}

func TestValidateAlreadyPaid(t *testing.T) {
	store := paymentFixture()
	store.reservation.PaymentStatus = model.PaymentPaid
	svc := NewPaymentService(store)

	_, err := svc.Validate(context.Background(), ValidateInput{ReservationID: 9})

	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Empty(t, store.applied)
}

func TestValidateUnknownReservation(t *testing.T) {
	svc := NewPaymentService(&mockPaymentStore{})

	_, err := svc.Validate(context.Background(), ValidateInput{ReservationID: 404})

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestValidateGiftCard(t *testing.T) {
	store := paymentFixture()
	store.card = &model.GiftCard{ID: 3, Code: "GC-ABCD1234", Balance: 30}
	svc := NewPaymentService(store)

	s, err := svc.Validate(context.Background(), ValidateInput{
		ReservationID: 9,
		GiftCardCode:  "GC-ABCD1234",
		Method:        "cash",
	})

	assert.NoError(t, err)
	assert.Equal(t, 90.0, s.Final)
	assert.Equal(t, 30.0, s.GiftCardApplied)

	rec := store.applied[0]
	assert.Equal(t, uint64(3), rec.GiftCardID)
	assert.Equal(t, 30.0, rec.GiftCardAmount)
}

func TestValidateEmptyGiftCard(t *testing.T) {
	store := paymentFixture()
	store.card = &model.GiftCard{ID: 3, Code: "GC-EMPTY000", Balance: 0}
	svc := NewPaymentService(store)

	_, err := svc.Validate(context.Background(), ValidateInput{
		ReservationID: 9,
		GiftCardCode:  "GC-EMPTY000",
	})

	assert.ErrorIs(t, err, ErrEmptyGiftCard)
	assert.Empty(t, store.applied)
}

func TestValidateUnknownGiftCard(t *testing.T) {
	store := paymentFixture()
	store.cardErr = sql.ErrNoRows
	svc := NewPaymentService(store)

	_, err := svc.Validate(context.Background(), ValidateInput{
		ReservationID: 9,
		GiftCardCode:  "GC-NOPE0000",
	})

	assert.ErrorIs(t, err, ErrGiftCardUnknown)
	assert.Empty(t, store.applied)
}

func TestValidateReferralConflict(t *testing.T) {
	store := paymentFixture()
	svc := NewPaymentService(store)

	_, err := svc.Validate(context.Background(), ValidateInput{
		ReservationID: 9,
		Checked: map[DiscountKind]bool{
			DiscountReferralSponsor:  true,
			DiscountReferralReferred: true,
		},
	})

	assert.ErrorIs(t, err, ErrReferralConflict)
	assert.Empty(t, store.applied)
}

func TestValidateBirthdayRecordsYear(t *testing.T) {
	bd := time.Now().UTC().AddDate(-30, 0, 0) // birth month == current month
	store := paymentFixture()
	store.profile = LoyaltyProfile{BirthDate: &bd}
	svc := NewPaymentService(store)

	s, err := svc.Validate(context.Background(), ValidateInput{
		ReservationID: 9,
		Checked:       map[DiscountKind]bool{DiscountBirthday: true},
	})

	assert.NoError(t, err)
	assert.True(t, s.MarkBirthdayYear)

	rec := store.applied[0]
	assert.True(t, rec.MarkBirthdayYear)
	assert.Equal(t, time.Now().UTC().Year(), rec.BirthdayYear)
}

func TestDiscountsListsEligibility(t *testing.T) {
	store := paymentFixture()
	svc := NewPaymentService(store)

	list, err := svc.Discounts(context.Background(), 9)

	assert.NoError(t, err)
	assert.Len(t, list, 5)
	byKind := discountsByKind(list)
	assert.True(t, byKind[DiscountLoyaltySoins].Eligible)
	assert.False(t, byKind[DiscountLoyaltyForfaits].Eligible)
}
