package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func march(year int) time.Time {
	return time.Date(year, time.March, 15, 12, 0, 0, 0, time.UTC)
}

func TestAvailableDiscountsThresholds(t *testing.T) {
	now := march(2025)

	p := LoyaltyProfile{IndividualServices: 4, Forfaits: 1}
	byKind := discountsByKind(AvailableDiscounts(p, now))

	assert.False(t, byKind[DiscountLoyaltySoins].Eligible)
	assert.False(t, byKind[DiscountLoyaltyForfaits].Eligible)

	p = LoyaltyProfile{IndividualServices: 5, Forfaits: 2}
	byKind = discountsByKind(AvailableDiscounts(p, now))

	assert.True(t, byKind[DiscountLoyaltySoins].Eligible)
	assert.Equal(t, LoyaltySoinsAmount, byKind[DiscountLoyaltySoins].Amount)
	assert.True(t, byKind[DiscountLoyaltyForfaits].Eligible)
	assert.Equal(t, LoyaltyForfaitsAmount, byKind[DiscountLoyaltyForfaits].Amount)
}

func TestAvailableDiscountsReferralAlwaysOffered(t *testing.T) {
	byKind := discountsByKind(AvailableDiscounts(LoyaltyProfile{}, march(2025)))

	assert.True(t, byKind[DiscountReferralSponsor].Eligible)
	assert.True(t, byKind[DiscountReferralReferred].Eligible)
}

func TestAvailableDiscountsBirthday(t *testing.T) {
	bd := time.Date(1990, time.March, 2, 0, 0, 0, 0, time.UTC)

	// birth month, never used this year
	p := LoyaltyProfile{BirthDate: &bd}
	byKind := discountsByKind(AvailableDiscounts(p, march(2025)))
	assert.True(t, byKind[DiscountBirthday].Eligible)

	// already used this calendar year
	p.BirthdayDiscountYear = 2025
	byKind = discountsByKind(AvailableDiscounts(p, march(2025)))
	assert.False(t, byKind[DiscountBirthday].Eligible)

	// used a previous year resets the entitlement
	p.BirthdayDiscountYear = 2024
	byKind = discountsByKind(AvailableDiscounts(p, march(2025)))
	assert.True(t, byKind[DiscountBirthday].Eligible)

	// wrong month
	byKind = discountsByKind(AvailableDiscounts(LoyaltyProfile{BirthDate: &bd}, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, byKind[DiscountBirthday].Eligible)

	// no birth date on file
	byKind = discountsByKind(AvailableDiscounts(LoyaltyProfile{}, march(2025)))
	assert.False(t, byKind[DiscountBirthday].Eligible)
}

func discountsByKind(list []Discount) map[DiscountKind]Discount {
	out := make(map[DiscountKind]Discount, len(list))
	for _, d := range list {
		out[d.Kind] = d
	}
	return out
}

func TestSettleLoyaltySoins(t *testing.T) {
	p := LoyaltyProfile{IndividualServices: 5}

	s, err := Settle(120, p, map[DiscountKind]bool{DiscountLoyaltySoins: true}, 0, 0, march(2025))

	assert.NoError(t, err)
	assert.Equal(t, 100.0, s.Final)
	assert.True(t, s.ResetSoins)
	assert.False(t, s.ResetForfaits)
	assert.Contains(t, s.Note, "loyalty-soins -20.00")
}

func TestSettleSkipsIneligibleChecked(t *testing.T) {
	// The UI renders ineligible entries locked, but the server re-checks.
	p := LoyaltyProfile{IndividualServices: 3}

	s, err := Settle(120, p, map[DiscountKind]bool{DiscountLoyaltySoins: true}, 0, 0, march(2025))

	assert.NoError(t, err)
	assert.Equal(t, 120.0, s.Final)
	assert.False(t, s.ResetSoins)
	assert.Empty(t, s.Applied)
}

func TestSettleReferralConflict(t *testing.T) {
	checked := map[DiscountKind]bool{
		DiscountReferralSponsor:  true,
		DiscountReferralReferred: true,
	}

	_, err := Settle(100, LoyaltyProfile{}, checked, 0, 0, march(2025))

	assert.ErrorIs(t, err, ErrReferralConflict)
}

func TestSettleManualAndFloor(t *testing.T) {
	s, err := Settle(30, LoyaltyProfile{}, nil, 50, 0, march(2025))

	assert.NoError(t, err)
	assert.Equal(t, 0.0, s.Final)
	assert.Contains(t, s.Note, "manual -50.00")
}

func TestSettleGiftCardCappedAtOwed(t *testing.T) {
	s, err := Settle(80, LoyaltyProfile{}, nil, 0, 200, march(2025))

	assert.NoError(t, err)
	assert.Equal(t, 0.0, s.Final)
	assert.Equal(t, 80.0, s.GiftCardApplied)
	assert.Contains(t, s.Note, "gift-card -80.00")
}

func TestSettleGiftCardCappedAtBalance(t *testing.T) {
	s, err := Settle(80, LoyaltyProfile{}, nil, 0, 30, march(2025))

	assert.NoError(t, err)
	assert.Equal(t, 50.0, s.Final)
	assert.Equal(t, 30.0, s.GiftCardApplied)
}

func TestSettleGiftCardAppliesAfterDiscounts(t *testing.T) {
	p := LoyaltyProfile{IndividualServices: 5}

	s, err := Settle(100, p, map[DiscountKind]bool{DiscountLoyaltySoins: true}, 0, 90, march(2025))

	assert.NoError(t, err)
	// 100 - 20 loyalty leaves 80 owed; the 90 balance only covers that 80.
	assert.Equal(t, 0.0, s.Final)
	assert.Equal(t, 80.0, s.GiftCardApplied)
}

func TestSettleBirthdayMarksYear(t *testing.T) {
	bd := time.Date(1990, time.March, 2, 0, 0, 0, 0, time.UTC)
	p := LoyaltyProfile{BirthDate: &bd}

	s, err := Settle(60, p, map[DiscountKind]bool{DiscountBirthday: true}, 0, 0, march(2025))

	assert.NoError(t, err)
	assert.Equal(t, 50.0, s.Final)
	assert.True(t, s.MarkBirthdayYear)
}

func TestSettleStacksEverything(t *testing.T) {
	bd := time.Date(1990, time.March, 2, 0, 0, 0, 0, time.UTC)
	p := LoyaltyProfile{IndividualServices: 6, Forfaits: 2, BirthDate: &bd}
	checked := map[DiscountKind]bool{
		DiscountLoyaltySoins:    true,
		DiscountLoyaltyForfaits: true,
		DiscountReferralSponsor: true,
		DiscountBirthday:        true,
	}

	s, err := Settle(200, p, checked, 5, 0, march(2025))

	assert.NoError(t, err)
	// 200 - 20 - 40 - 15 - 10 - 5 = 110
	assert.Equal(t, 110.0, s.Final)
	assert.Len(t, s.Applied, 5)
	assert.True(t, s.ResetSoins)
	assert.True(t, s.ResetForfaits)
	assert.True(t, s.MarkBirthdayYear)
}
