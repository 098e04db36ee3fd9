package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/service"
)

// PaymentRepo implements the persistence surface of payment validation.
// It spans reservations, users and gift cards because a settlement touches
// all three in one transaction.
type PaymentRepo struct {
	db    *sql.DB
	cards *GiftCardRepo
}

func NewPaymentRepo(db *sql.DB, cards *GiftCardRepo) *PaymentRepo {
	return &PaymentRepo{db: db, cards: cards}
}

// GetReservation loads the reservation under validation.
func (r *PaymentRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return NewReservationRepo(r.db).GetByID(ctx, id)
}

// ClientProfile assembles the loyalty profile the discount rules run
// against.
func (r *PaymentRepo) ClientProfile(ctx context.Context, clientID uint64) (service.LoyaltyProfile, error) {
	var p service.LoyaltyProfile
	var birth sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT individual_services_count, packages_count, birth_date, birthday_discount_year
		 FROM users WHERE id = ?`, clientID).
		Scan(&p.IndividualServices, &p.Forfaits, &birth, &p.BirthdayDiscountYear)
	if err != nil {
		return service.LoyaltyProfile{}, err
	}
	if birth.Valid {
		t := birth.Time.UTC()
		p.BirthDate = &t
	}
	return p, nil
}

// GiftCardByCode resolves a card code for settlement.
func (r *PaymentRepo) GiftCardByCode(ctx context.Context, code string) (*model.GiftCard, error) {
	return r.cards.GetByCode(ctx, code)
}

// ApplySettlement persists a confirmed payment and its side effects in one
// transaction: the payment columns on the reservation, the loyalty counter
// resets, the birthday-discount year mark, the gift card debit and the
// audit note appended to the reservation notes.
func (r *PaymentRepo) ApplySettlement(ctx context.Context, rec service.SettlementRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations
		 SET payment_status = ?, payment_method = ?, payment_amount = ?, payment_date = UTC_TIMESTAMP(),
		     notes = TRIM(BOTH '\n' FROM CONCAT(notes, '\n', ?))
		 WHERE id = ?`,
		rec.Status, rec.Method, rec.Amount, rec.Note, rec.ReservationID); err != nil {
		return err
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if rec.ResetSoins {
		sets = append(sets, "individual_services_count = 0")
	}
	if rec.ResetForfaits {
		sets = append(sets, "packages_count = 0", "forfait_sessions_count = 0")
	}
	if rec.MarkBirthdayYear {
		sets = append(sets, "birthday_discount_year = ?")
		args = append(args, rec.BirthdayYear)
	}
	if len(sets) > 0 {
		args = append(args, rec.ClientID)
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return err
		}
	}

	if rec.GiftCardID != 0 && rec.GiftCardAmount > 0 {
		if err := r.cards.DebitTx(ctx, tx, rec.GiftCardID, rec.GiftCardAmount); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
