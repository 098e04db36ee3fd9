package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
)

// FormationRepo provides CRUD for training courses.
type FormationRepo struct{ DB *sql.DB }

func NewFormationRepo(db *sql.DB) *FormationRepo { return &FormationRepo{DB: db} }

const formationColumns = `id, organization_id, slug, title, description, price, duration_hours, is_active, created_at, updated_at`

// Create inserts a formation; a slug collision maps to ErrSlugExists.
func (r *FormationRepo) Create(ctx context.Context, f *model.Formation) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO formations (organization_id, slug, title, description, price, duration_hours)
		 VALUES (?,?,?,?,?,?)`,
		f.OrganizationID, strings.TrimSpace(f.Slug), f.Title, f.Description, f.Price, f.DurationHours)
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
	f.ID = uint64(id)
	return nil
}

// GetByID loads one formation; sql.ErrNoRows when absent.
func (r *FormationRepo) GetByID(ctx context.Context, id uint64) (model.Formation, error) {
	var f model.Formation
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+formationColumns+` FROM formations WHERE id=?`, id).
		Scan(&f.ID, &f.OrganizationID, &f.Slug, &f.Title, &f.Description, &f.Price,
			&f.DurationHours, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// ListByOrg returns all formations of an organization.
func (r *FormationRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.Formation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+formationColumns+` FROM formations WHERE organization_id=? ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Formation, 0)
	for rows.Next() {
		var f model.Formation
		if err := rows.Scan(&f.ID, &f.OrganizationID, &f.Slug, &f.Title, &f.Description, &f.Price,
			&f.DurationHours, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a formation.
func (r *FormationRepo) Update(ctx context.Context, f *model.Formation) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE formations SET title=?, description=?, price=?, duration_hours=?, is_active=? WHERE id=?`,
		f.Title, f.Description, f.Price, f.DurationHours, f.IsActive, f.ID)
	return err
}

// Delete removes a formation.
func (r *FormationRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM formations WHERE id=?`, id)
	return err
}
