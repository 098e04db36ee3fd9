package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
)

// OrganizationRepo provides CRUD for tenant institutes.
type OrganizationRepo struct{ DB *sql.DB }

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{DB: db} }

// Create inserts an organization; a slug collision maps to ErrSlugExists.
func (r *OrganizationRepo) Create(ctx context.Context, o *model.Organization) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO organizations (slug, name, city) VALUES (?,?,?)`,
		strings.TrimSpace(o.Slug), o.Name, o.City)
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
	o.ID = uint64(id)
	return nil
}

// GetByID loads one organization; sql.ErrNoRows when absent.
func (r *OrganizationRepo) GetByID(ctx context.Context, id uint64) (model.Organization, error) {
	var o model.Organization
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, slug, name, city, is_active, created_at, updated_at FROM organizations WHERE id=?`,
		id).Scan(&o.ID, &o.Slug, &o.Name, &o.City, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetBySlug loads one organization by its unique slug.
func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (model.Organization, error) {
	var o model.Organization
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, slug, name, city, is_active, created_at, updated_at FROM organizations WHERE slug=?`,
		slug).Scan(&o.ID, &o.Slug, &o.Name, &o.City, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// ListAll returns every organization.  The back office fetches all rows up
// front and shapes them in memory, template tenant pinned first.
func (r *OrganizationRepo) ListAll(ctx context.Context) ([]model.Organization, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, slug, name, city, is_active, created_at, updated_at FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Organization, 0)
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Slug, &o.Name, &o.City, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of an organization, slug included.  A
// slug collision with another tenant maps to ErrSlugExists.
func (r *OrganizationRepo) Update(ctx context.Context, o *model.Organization) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE organizations SET slug=?, name=?, city=?, is_active=? WHERE id=?`,
		strings.TrimSpace(o.Slug), o.Name, o.City, o.IsActive, o.ID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrSlugExists
	}
	return err
}

// Delete removes an organization.  When reservations still reference it the
// foreign key fires and the error maps to ErrConflict.
func (r *OrganizationRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM organizations WHERE id=?`, id)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1451") {
		return ErrConflict
	}
	return err
}
