package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Selected
// services, package choices and options are stored as JSON columns.  All
// timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need to open their own
// transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// BookedTimes returns the time labels of all non-cancelled reservations of
// an organization on a calendar day.  The availability grid is derived from
// this list by exact label match.
func (r *ReservationRepo) BookedTimes(ctx context.Context, orgID uint64, date string) ([]string, error) {
	const q = `SELECT time FROM reservations
	           WHERE organization_id = ? AND date = ? AND status <> ?`
	rows, err := r.db.QueryContext(ctx, q, orgID, date, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	times := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// Create inserts a reservation after re-checking the slot inside a
// transaction.  The SELECT ... FOR UPDATE serializes concurrent submissions
// for the same slot; the unique key on (organization_id, date, time) backs
// it up, so a duplicate-key error is also mapped to ErrSlotTaken.  The
// availability pre-check the client ran is a UX hint only; this is the
// correctness boundary.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	services, err := json.Marshal(res.Services)
	if err != nil {
		return err
	}
	packages, err := json.Marshal(res.Packages)
	if err != nil {
		return err
	}
	options, err := json.Marshal(res.Options)
	if err != nil {
		return err
	}

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

	const checkQ = `SELECT id FROM reservations
	                WHERE organization_id = ? AND date = ? AND time = ? AND status <> ?
	                FOR UPDATE`
	var existing uint64
	err = tx.QueryRowContext(ctx, checkQ, res.OrganizationID, res.Date, res.Time, model.StatusCancelled).Scan(&existing)
	if err == nil {
		return ErrSlotTaken
	}
	if err != sql.ErrNoRows {
		return err
	}

	const insQ = `INSERT INTO reservations
	              (client_id, organization_id, services, packages, options, date, time, notes, total_price, status, payment_status)
	              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insQ,
		res.ClientID, res.OrganizationID, services, packages, options,
		res.Date, res.Time, res.Notes, res.TotalPrice, res.Status, res.PaymentStatus)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	// Query back timestamps populated by column defaults.
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads a single reservation.  sql.ErrNoRows is returned when it
// does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, client_id, organization_id, services, packages, options,
	                  date, time, notes, total_price, status, payment_status,
	                  payment_method, payment_amount, payment_date, created_at, updated_at
	           FROM reservations WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// ListByClient returns all reservations of a client, newest first.
func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, client_id, organization_id, services, packages, options,
	                  date, time, notes, total_price, status, payment_status,
	                  payment_method, payment_amount, payment_date, created_at, updated_at
	           FROM reservations WHERE client_id = ?
	           ORDER BY date DESC, time DESC`
	return r.list(ctx, q, clientID)
}

// ListByOrg returns all reservations of an organization, newest first.
func (r *ReservationRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, client_id, organization_id, services, packages, options,
	                  date, time, notes, total_price, status, payment_status,
	                  payment_method, payment_amount, payment_date, created_at, updated_at
	           FROM reservations WHERE organization_id = ?
	           ORDER BY date DESC, time DESC`
	return r.list(ctx, q, orgID)
}

// ExportRow is a reservation joined with its client for the back-office
// spreadsheet export.
type ExportRow struct {
	ID            uint64
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	Services      []string
	Date          string
	Time          string
	TotalPrice    float64
	Status        string
	PaymentStatus string
}

// ListForExport returns reservations of an organization between two dates
// (inclusive), joined with client contact details, ordered by date and time.
func (r *ReservationRepo) ListForExport(ctx context.Context, orgID uint64, from, to string) ([]ExportRow, error) {
	const q = `SELECT r.id, u.name, u.email, u.phone, r.services, r.date, r.time,
	                  r.total_price, r.status, r.payment_status
	           FROM reservations r
	           JOIN users u ON u.id = r.client_id
	           WHERE r.organization_id = ? AND r.date BETWEEN ? AND ?
	           ORDER BY r.date, r.time`
	rows, err := r.db.QueryContext(ctx, q, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ExportRow, 0)
	for rows.Next() {
		var row ExportRow
		var services []byte
		if err := rows.Scan(&row.ID, &row.ClientName, &row.ClientEmail, &row.ClientPhone,
			&services, &row.Date, &row.Time, &row.TotalPrice, &row.Status, &row.PaymentStatus); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(services, &row.Services); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a reservation's lifecycle state.  Transitioning
// into completed also advances the client's loyalty counters: each
// single-package service counts one individual service, each forfait
// session advances the forfait cycle, and every full cycle of 4 sessions
// counts one completed forfait.  Everything runs in one transaction.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
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

	const q = `SELECT client_id, packages, status FROM reservations WHERE id = ? FOR UPDATE`
	var clientID uint64
	var packagesRaw []byte
	var current string
	if err := tx.QueryRowContext(ctx, q, id).Scan(&clientID, &packagesRaw, &current); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id); err != nil {
		return err
	}

	if status == model.StatusCompleted && current != model.StatusCompleted {
		var packages map[string]string
		if err := json.Unmarshal(packagesRaw, &packages); err != nil {
			return err
		}
		singles, forfaits := 0, 0
		for _, pkg := range packages {
			if pkg == "forfait" {
				forfaits++
			} else {
				singles++
			}
		}
		if singles > 0 || forfaits > 0 {
			var sessions int
			if err := tx.QueryRowContext(ctx,
				`SELECT forfait_sessions_count FROM users WHERE id = ? FOR UPDATE`, clientID).Scan(&sessions); err != nil {
				return err
			}
			// A forfait is complete every 4th session.
			completed := (sessions+forfaits)/4 - sessions/4
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET individual_services_count = individual_services_count + ?,
				                  forfait_sessions_count = forfait_sessions_count + ?,
				                  packages_count = packages_count + ?
				 WHERE id = ?`,
				singles, forfaits, completed, clientID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) scanOne(row *sql.Row) (*model.Reservation, error) {
	return scanReservation(row.Scan)
}

// scanReservation maps one row into a model.Reservation, decoding the JSON
// columns and NULLable payment fields.
func scanReservation(scan func(dest ...any) error) (*model.Reservation, error) {
	var res model.Reservation
	var services, packages, options []byte
	var method sql.NullString
	var amount sql.NullFloat64
	var paidAt sql.NullTime
	err := scan(&res.ID, &res.ClientID, &res.OrganizationID, &services, &packages, &options,
		&res.Date, &res.Time, &res.Notes, &res.TotalPrice, &res.Status, &res.PaymentStatus,
		&method, &amount, &paidAt, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(services, &res.Services); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(packages, &res.Packages); err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &res.Options); err != nil {
			return nil, err
		}
	}
	if method.Valid {
		m := method.String
		res.PaymentMethod = &m
	}
	if amount.Valid {
		a := amount.Float64
		res.PaymentAmount = &a
	}
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		res.PaymentDate = &t
	}
	return &res, nil
}
