package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
)

// ServiceRepo provides access to the treatment catalog.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceColumns = `id, organization_id, slug, name, price, promo_price,
	forfait_price, forfait_promo, duration_minutes, is_active, created_at, updated_at`

// ActiveBySlugs resolves a selection of slugs against the active catalog of
// an organization.  Slugs that do not resolve are simply absent from the
// returned map; the caller decides whether that is an error.
func (r *ServiceRepo) ActiveBySlugs(ctx context.Context, orgID uint64, slugs []string) (map[string]model.Service, error) {
	out := make(map[string]model.Service, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(slugs)), ",")
	args := make([]any, 0, len(slugs)+1)
	args = append(args, orgID)
	for _, s := range slugs {
		args = append(args, s)
	}
	q := `SELECT ` + serviceColumns + ` FROM services
	      WHERE organization_id = ? AND is_active = 1 AND slug IN (` + placeholders + `)`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		svc, err := scanService(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[svc.Slug] = svc
	}
	return out, rows.Err()
}

// ListByOrg returns the catalog of an organization; set activeOnly for the
// public listing.
func (r *ServiceRepo) ListByOrg(ctx context.Context, orgID uint64, activeOnly bool) ([]model.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services WHERE organization_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// Create inserts a catalog entry; a slug collision maps to ErrSlugExists.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO services (organization_id, slug, name, price, promo_price, forfait_price, forfait_promo, duration_minutes)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.OrganizationID, strings.TrimSpace(s.Slug), s.Name, s.Price, s.PromoPrice, s.ForfaitPrice, s.ForfaitPromo, s.DurationMinutes)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID loads one catalog entry; sql.ErrNoRows when absent.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=?`, id)
	return scanService(row.Scan)
}

// Update rewrites the mutable fields of a catalog entry.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE services SET name=?, price=?, promo_price=?, forfait_price=?, forfait_promo=?, duration_minutes=?, is_active=? WHERE id=?`,
		s.Name, s.Price, s.PromoPrice, s.ForfaitPrice, s.ForfaitPromo, s.DurationMinutes, s.IsActive, s.ID)
	return err
}

// Delete removes a catalog entry.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM services WHERE id=?`, id)
	return err
}

func scanService(scan func(dest ...any) error) (model.Service, error) {
	var s model.Service
	var promo, forfait, forfaitPromo sql.NullFloat64
	err := scan(&s.ID, &s.OrganizationID, &s.Slug, &s.Name, &s.Price, &promo,
		&forfait, &forfaitPromo, &s.DurationMinutes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Service{}, err
	}
	if promo.Valid {
		v := promo.Float64
		s.PromoPrice = &v
	}
	if forfait.Valid {
		v := forfait.Float64
		s.ForfaitPrice = &v
	}
	if forfaitPromo.Valid {
		v := forfaitPromo.Float64
		s.ForfaitPromo = &v
	}
	return s, nil
}
