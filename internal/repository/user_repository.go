package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/service"
	"github.com/avelane/institut-booking/internal/utils"
)

// UserRepo mirrors the 'users' table.  Clients, staff and administrators
// share the table; loyalty columns only move for CLIENT rows.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, organization_id, email, password_hash, name, phone, role,
	birth_date, individual_services_count, packages_count, birthday_discount_year,
	is_active, created_at, updated_at`

// Create inserts a user and returns its ID.  Emails are normalized to lower
// case; a duplicate email maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var birth any
	if u.BirthDate != nil {
		birth = u.BirthDate.Format("2006-01-02")
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (organization_id, email, password_hash, name, phone, role, birth_date)
		 VALUES (?,?,?,?,?,?,?)`,
		u.OrganizationID, email, hash, u.Name, u.Phone, u.Role, birth)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	u.Email = email
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email)
	return scanUser(row.Scan)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id)
	return scanUser(row.Scan)
}

// ListAll returns every user, for back-office shaping and pagination.  The
// back office filters, sorts and paginates in memory, so the query is
// deliberately unconditional.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update rewrites the mutable profile fields of a user.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	var birth any
	if u.BirthDate != nil {
		birth = u.BirthDate.Format("2006-01-02")
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET organization_id=?, name=?, phone=?, role=?, birth_date=?, is_active=? WHERE id=?`,
		u.OrganizationID, u.Name, u.Phone, u.Role, birth, u.IsActive, u.ID)
	return err
}

// Deactivate soft-deletes a user by clearing its active flag; reservations
// and loyalty history stay intact.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET is_active=0 WHERE id=?`, id)
	return err
}

// SegmentRecipients resolves a campaign segment to concrete addressees
// among an organization's active clients.
func (r *UserRepo) SegmentRecipients(ctx context.Context, orgID uint64, seg service.Segment) ([]service.Recipient, error) {
	q, args := segmentQuery(orgID, seg, false)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]service.Recipient, 0)
	for rows.Next() {
		var rec service.Recipient
		if err := rows.Scan(&rec.Email, &rec.Name); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SegmentCounts returns the size of every campaign segment for the
// dashboard.
func (r *UserRepo) SegmentCounts(ctx context.Context, orgID uint64) (map[service.Segment]int, error) {
	out := make(map[service.Segment]int, 4)
	for _, seg := range []service.Segment{service.SegmentNew, service.SegmentLoyal, service.SegmentInactive, service.SegmentBirthday} {
		q, args := segmentQuery(orgID, seg, true)
		var n int
		if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
			return nil, err
		}
		out[seg] = n
	}
	return out, nil
}

// segmentQuery builds the SQL for one segment.  Segments are defined over
// active clients of the organization:
//
//	new      – account created within the last 30 days
//	loyal    – loyalty counters past either discount threshold
//	inactive – no completed reservation within the last 90 days
//	birthday – birth month equal to the current month
func segmentQuery(orgID uint64, seg service.Segment, count bool) (string, []any) {
	sel := "SELECT email, name"
	if count {
		sel = "SELECT COUNT(*)"
	}
	base := sel + ` FROM users u WHERE u.organization_id = ? AND u.role = 'CLIENT' AND u.is_active = 1`
	args := []any{orgID}
	switch seg {
	case service.SegmentNew:
		return base + ` AND u.created_at >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL 30 DAY)`, args
	case service.SegmentLoyal:
		return base + ` AND (u.individual_services_count >= ? OR u.packages_count >= ?)`,
			append(args, service.LoyaltySoinsThreshold, service.LoyaltyForfaitsThreshold)
	case service.SegmentInactive:
		return base + ` AND NOT EXISTS (
			SELECT 1 FROM reservations res
			WHERE res.client_id = u.id AND res.status = 'completed'
			  AND res.date >= DATE_FORMAT(DATE_SUB(UTC_TIMESTAMP(), INTERVAL 90 DAY), '%Y-%m-%d'))`, args
	case service.SegmentBirthday:
		return base + ` AND u.birth_date IS NOT NULL AND MONTH(u.birth_date) = MONTH(UTC_TIMESTAMP())`, args
	}
	// Unknown segments are filtered by the service layer; match nothing.
	return base + ` AND 1 = 0`, args
}

// scanUser maps one row into a model.User, handling NULLable columns.
func scanUser(scan func(dest ...any) error) (model.User, error) {
	var u model.User
	var orgID sql.NullInt64
	var birth sql.NullTime
	err := scan(&u.ID, &orgID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role,
		&birth, &u.IndividualServices, &u.Forfaits, &u.BirthdayDiscountYear,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if orgID.Valid {
		id := uint64(orgID.Int64)
		u.OrganizationID = &id
	}
	if birth.Valid {
		t := birth.Time.UTC()
		u.BirthDate = &t
	}
	return u, nil
}
