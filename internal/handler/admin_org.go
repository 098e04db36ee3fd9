package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/repository"
	"github.com/avelane/institut-booking/internal/service"
)

// AdminOrgHandler manages institutes from the back office.  Listings load
// everything and shape in memory, which keeps search, sort and the template
// pinning in one tested place.
type AdminOrgHandler struct {
	Orgs *repository.OrganizationRepo
}

func NewAdminOrgHandler(orgs *repository.OrganizationRepo) *AdminOrgHandler {
	if orgs == nil {
		panic("nil repository passed to NewAdminOrgHandler")
	}
	return &AdminOrgHandler{Orgs: orgs}
}

type orgView struct {
	ID        uint64    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func orgToView(o model.Organization) orgView {
	return orgView{ID: o.ID, Slug: o.Slug, Name: o.Name, City: o.City, IsActive: o.IsActive, CreatedAt: o.CreatedAt}
}

// sortFromQuery reads ?sort=key and ?dir=desc into a SortOrder.
func sortFromQuery(c echo.Context) service.SortOrder {
	return service.SortOrder{
		Key:  strings.TrimSpace(c.QueryParam("sort")),
		Desc: strings.EqualFold(c.QueryParam("dir"), "desc"),
	}
}

// List returns every institute, searched and sorted, template first.
// GET /v1/admin/organizations
func (h *AdminOrgHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orgs, err := h.Orgs.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	shaped := service.ShapeOrganizations(orgs, c.QueryParam("search"), sortFromQuery(c))
	out := make([]orgView, 0, len(shaped))
	for _, o := range shaped {
		out = append(out, orgToView(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"organizations": out})
}

type orgReq struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	City     string `json:"city"`
	IsActive *bool  `json:"is_active"`
}

// Create registers a new institute.
// POST /v1/admin/organizations
func (h *AdminOrgHandler) Create(c echo.Context) error {
	var req orgReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Name = strings.TrimSpace(req.Name)
	if req.Slug == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and name required"})
	}

	o := model.Organization{Slug: req.Slug, Name: req.Name, City: strings.TrimSpace(req.City), IsActive: true}
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Orgs.Create(ctx, &o); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create organization failed"})
	}
	return c.JSON(http.StatusCreated, orgToView(o))
}

// Get loads one institute by id.
// GET /v1/admin/organizations/:id
func (h *AdminOrgHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, orgToView(o))
}

// Update rewrites an institute.  The template tenant's slug is immutable so
// the back office can always find it.
// PUT /v1/admin/organizations/:id
func (h *AdminOrgHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req orgReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Name = strings.TrimSpace(req.Name)
	if req.Slug == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.Slug == service.TemplateOrgSlug && req.Slug != service.TemplateOrgSlug {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "template slug cannot change"})
	}

	o.Slug = req.Slug
	o.Name = req.Name
	o.City = strings.TrimSpace(req.City)
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}
	if err := h.Orgs.Update(ctx, &o); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update organization failed"})
	}
	return c.JSON(http.StatusOK, orgToView(o))
}

// Delete removes an institute.  Tenants with reservations or users are
// protected by foreign keys and come back as a conflict.
// DELETE /v1/admin/organizations/:id
func (h *AdminOrgHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.Slug == service.TemplateOrgSlug {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "template organization cannot be deleted"})
	}
	if err := h.Orgs.Delete(ctx, id); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "organization still has data"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete organization failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
