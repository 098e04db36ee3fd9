package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
)

// ErrInsufficientBalance is returned when a gift card debit exceeds the
// remaining balance.  The settlement math caps debits beforehand, so seeing
// this error means concurrent spending of the same card.
var ErrInsufficientBalance = errors.New("insufficient gift card balance")

// GiftCardRepo provides access to gift cards.
type GiftCardRepo struct{ DB *sql.DB }

func NewGiftCardRepo(db *sql.DB) *GiftCardRepo { return &GiftCardRepo{DB: db} }

// Create inserts a gift card with a generated code when none is supplied.
func (r *GiftCardRepo) Create(ctx context.Context, g *model.GiftCard) error {
	if g.Code == "" {
		code, err := generateCardCode()
		if err != nil {
			return err
		}
		g.Code = code
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO gift_cards (code, balance, beneficiary) VALUES (?,?,?)`,
		g.Code, g.Balance, g.Beneficiary)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByCode loads a card by its code; sql.ErrNoRows when absent.
func (r *GiftCardRepo) GetByCode(ctx context.Context, code string) (*model.GiftCard, error) {
	var g model.GiftCard
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, code, balance, beneficiary, created_at, updated_at FROM gift_cards WHERE code=?`,
		strings.ToUpper(strings.TrimSpace(code))).
		Scan(&g.ID, &g.Code, &g.Balance, &g.Beneficiary, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListAll returns every card for the back office.
func (r *GiftCardRepo) ListAll(ctx context.Context) ([]model.GiftCard, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, code, balance, beneficiary, created_at, updated_at FROM gift_cards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.GiftCard, 0)
	for rows.Next() {
		var g model.GiftCard
		if err := rows.Scan(&g.ID, &g.Code, &g.Balance, &g.Beneficiary, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DebitTx deducts an amount from a card inside an existing transaction.
// The WHERE balance >= ? guard keeps the balance from going negative under
// concurrent settlements.
func (r *GiftCardRepo) DebitTx(ctx context.Context, tx *sql.Tx, cardID uint64, amount float64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE gift_cards SET balance = balance - ? WHERE id = ? AND balance >= ?`,
		amount, cardID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// generateCardCode produces codes like "GC-4F7A9C2B".
func generateCardCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "GC-" + strings.ToUpper(hex.EncodeToString(b)), nil
}
