package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DiscountKind tags one entry of the discount list shown in the payment
// validation modal.  Each kind carries a fixed amount except manual, whose
// amount is operator-entered.
type DiscountKind string

const (
	DiscountLoyaltySoins     DiscountKind = "loyalty-soins"
	DiscountLoyaltyForfaits  DiscountKind = "loyalty-forfaits"
	DiscountReferralSponsor  DiscountKind = "referral-sponsor"
	DiscountReferralReferred DiscountKind = "referral-referred"
	DiscountBirthday         DiscountKind = "birthday"
	DiscountManual           DiscountKind = "manual"
)

// Fixed discount amounts and the loyalty thresholds gating them.
const (
	LoyaltySoinsAmount     = 20.0
	LoyaltyForfaitsAmount  = 40.0
	ReferralSponsorAmount  = 15.0
	ReferralReferredAmount = 10.0
	BirthdayAmount         = 10.0

	LoyaltySoinsThreshold    = 5 // completed individual services
	LoyaltyForfaitsThreshold = 2 // completed forfaits
)

// ErrReferralConflict is returned when both referral discounts are checked
// in the same validation; they are mutually exclusive per transaction.
var ErrReferralConflict = errors.New("referral discounts are mutually exclusive")

// LoyaltyProfile is the client state the discount rules are evaluated
// against.  It is derived from the stored loyalty counters and birth date.
type LoyaltyProfile struct {
	IndividualServices   int        // completed single-session reservations
	Forfaits             int        // completed 4-session forfaits
	BirthDate            *time.Time // nil when the client never gave one
	BirthdayDiscountYear int        // last year the birthday discount was used
}

// Discount is one entry of the declarative discount list: a kind, its
// amount, and whether the client is currently eligible for it.  Ineligible
// entries render as locked controls in the back office.
type Discount struct {
	Kind     DiscountKind `json:"kind"`
	Amount   float64      `json:"amount"`
	Eligible bool         `json:"eligible"`
}

// AvailableDiscounts builds the discount list for a client at a point in
// time.  Loyalty entries require their counter thresholds; the birthday
// entry requires the current month to be the birth month and the discount
// not to have been used this calendar year.  Referral entries are always
// offered since sponsorship is asserted by the operator.
func AvailableDiscounts(p LoyaltyProfile, now time.Time) []Discount {
	birthdayOK := p.BirthDate != nil &&
		p.BirthDate.Month() == now.Month() &&
		p.BirthdayDiscountYear != now.Year()
	return []Discount{
		{Kind: DiscountLoyaltySoins, Amount: LoyaltySoinsAmount, Eligible: p.IndividualServices >= LoyaltySoinsThreshold},
		{Kind: DiscountLoyaltyForfaits, Amount: LoyaltyForfaitsAmount, Eligible: p.Forfaits >= LoyaltyForfaitsThreshold},
		{Kind: DiscountReferralSponsor, Amount: ReferralSponsorAmount, Eligible: true},
		{Kind: DiscountReferralReferred, Amount: ReferralReferredAmount, Eligible: true},
		{Kind: DiscountBirthday, Amount: BirthdayAmount, Eligible: birthdayOK},
	}
}

// Settlement is the outcome of folding the checked discounts and gift card
// over a reservation total.  The flags instruct the persistence layer which
// side effects to run when the payment is confirmed.
type Settlement struct {
	Final            float64    // amount due after all deductions, floored at 0
	Applied          []Discount // discounts actually deducted, in fold order
	GiftCardApplied  float64    // amount consumed from the gift card
	ResetSoins       bool       // reset individual_services_count to zero
	ResetForfaits    bool       // reset packages_count to zero
	MarkBirthdayYear bool       // record the birthday discount as used this year
	Note             string     // free-text audit of what was deducted
}

// Settle folds the checked discounts over the reservation total.  Checked
// entries that the profile is not eligible for are skipped (the UI renders
// them locked, but the server re-checks).  The gift card contribution is
// capped at min(balance, amount owed before the card) and the final amount
// never goes below zero.
func Settle(total float64, p LoyaltyProfile, checked map[DiscountKind]bool, manual float64, giftBalance float64, now time.Time) (Settlement, error) {
	if checked[DiscountReferralSponsor] && checked[DiscountReferralReferred] {
		return Settlement{}, ErrReferralConflict
	}

	s := Settlement{Final: total}
	var notes []string

	for _, d := range AvailableDiscounts(p, now) {
		if !checked[d.Kind] || !d.Eligible {
			continue
		}
		s.Final -= d.Amount
		s.Applied = append(s.Applied, d)
		notes = append(notes, fmt.Sprintf("%s -%.2f", d.Kind, d.Amount))
		switch d.Kind {
		case DiscountLoyaltySoins:
			s.ResetSoins = true
		case DiscountLoyaltyForfaits:
			s.ResetForfaits = true
		case DiscountBirthday:
			s.MarkBirthdayYear = true
		}
	}

	if manual > 0 {
		s.Final -= manual
		s.Applied = append(s.Applied, Discount{Kind: DiscountManual, Amount: manual, Eligible: true})
		notes = append(notes, fmt.Sprintf("%s -%.2f", DiscountManual, manual))
	}

	if s.Final < 0 {
		s.Final = 0
	}

	if giftBalance > 0 && s.Final > 0 {
		applied := giftBalance
		if applied > s.Final {
			applied = s.Final
		}
		s.GiftCardApplied = applied
		s.Final -= applied
		notes = append(notes, fmt.Sprintf("gift-card -%.2f", applied))
	}

	if s.Final < 0 {
		s.Final = 0
	}
	s.Note = strings.Join(notes, "; ")
	return s, nil
}
