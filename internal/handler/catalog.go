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
)

// CatalogHandler serves the public service catalog and its back-office CRUD.
type CatalogHandler struct {
	Orgs     *repository.OrganizationRepo
	Services *repository.ServiceRepo
}

func NewCatalogHandler(orgs *repository.OrganizationRepo, services *repository.ServiceRepo) *CatalogHandler {
	if orgs == nil || services == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Orgs: orgs, Services: services}
}

type serviceView struct {
	ID              uint64   `json:"id"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	PromoPrice      *float64 `json:"promo_price,omitempty"`
	ForfaitPrice    *float64 `json:"forfait_price,omitempty"`
	ForfaitPromo    *float64 `json:"forfait_promo,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
	IsActive        bool     `json:"is_active"`
}

func serviceToView(s model.Service) serviceView {
	return serviceView{
		ID:              s.ID,
		Slug:            s.Slug,
		Name:            s.Name,
		Price:           s.Price,
		PromoPrice:      s.PromoPrice,
		ForfaitPrice:    s.ForfaitPrice,
		ForfaitPromo:    s.ForfaitPromo,
		DurationMinutes: s.DurationMinutes,
		IsActive:        s.IsActive,
	}
}

// PublicCatalog lists the active services of an institute.
// GET /v1/organizations/:slug/services
func (h *CatalogHandler) PublicCatalog(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	org, err := h.Orgs.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	list, err := h.Services.ListByOrg(ctx, org.ID, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]serviceView, 0, len(list))
	for _, s := range list {
		out = append(out, serviceToView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"organization": org.Slug, "services": out})
}

// ----- back office -----

type serviceReq struct {
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	PromoPrice      *float64 `json:"promo_price"`
	ForfaitPrice    *float64 `json:"forfait_price"`
	ForfaitPromo    *float64 `json:"forfait_promo"`
	DurationMinutes int      `json:"duration_minutes"`
	IsActive        *bool    `json:"is_active"`
}

func (req *serviceReq) validate() string {
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Name = strings.TrimSpace(req.Name)
	if req.Slug == "" || req.Name == "" {
		return "slug and name required"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// ListServices lists every service of the caller's institute, active or not.
// GET /v1/admin/organizations/:org_id/services
func (h *CatalogHandler) ListServices(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Services.ListByOrg(ctx, orgID, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]serviceView, 0, len(list))
	for _, s := range list {
		out = append(out, serviceToView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

// CreateService adds a catalog entry.
// POST /v1/admin/organizations/:org_id/services
func (h *CatalogHandler) CreateService(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	s := model.Service{
		OrganizationID:  orgID,
		Slug:            req.Slug,
		Name:            req.Name,
		Price:           req.Price,
		PromoPrice:      req.PromoPrice,
		ForfaitPrice:    req.ForfaitPrice,
		ForfaitPromo:    req.ForfaitPromo,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Create(ctx, &s); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create service failed"})
	}
	return c.JSON(http.StatusCreated, serviceToView(s))
}

// UpdateService rewrites a catalog entry.
// PUT /v1/admin/organizations/:org_id/services/:id
func (h *CatalogHandler) UpdateService(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if s.OrganizationID != orgID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	s.Slug = req.Slug
	s.Name = req.Name
	s.Price = req.Price
	s.PromoPrice = req.PromoPrice
	s.ForfaitPrice = req.ForfaitPrice
	s.ForfaitPromo = req.ForfaitPromo
	s.DurationMinutes = req.DurationMinutes
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	if err := h.Services.Update(ctx, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update service failed"})
	}
	return c.JSON(http.StatusOK, serviceToView(s))
}

// DeleteService removes a catalog entry.
// DELETE /v1/admin/organizations/:org_id/services/:id
func (h *CatalogHandler) DeleteService(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if s.OrganizationID != orgID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err := h.Services.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete service failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
