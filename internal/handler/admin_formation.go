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

// AdminFormationHandler manages training courses from the back office.
type AdminFormationHandler struct {
	Formations *repository.FormationRepo
}

func NewAdminFormationHandler(formations *repository.FormationRepo) *AdminFormationHandler {
	if formations == nil {
		panic("nil repository passed to NewAdminFormationHandler")
	}
	return &AdminFormationHandler{Formations: formations}
}

type formationView struct {
	ID            uint64    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	DurationHours int       `json:"duration_hours"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func formationToView(f model.Formation) formationView {
	return formationView{
		ID:            f.ID,
		Slug:          f.Slug,
		Title:         f.Title,
		Description:   f.Description,
		Price:         f.Price,
		DurationHours: f.DurationHours,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
	}
}

// List returns an institute's formations, searched and sorted.
// GET /v1/admin/organizations/:org_id/formations
func (h *AdminFormationHandler) List(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Formations.ListByOrg(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	shaped := service.ShapeFormations(list, c.QueryParam("search"), sortFromQuery(c))
	out := make([]formationView, 0, len(shaped))
	for _, f := range shaped {
		out = append(out, formationToView(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"formations": out})
}

type formationReq struct {
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	DurationHours int     `json:"duration_hours"`
	IsActive      *bool   `json:"is_active"`
}

func (req *formationReq) validate() string {
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Title = strings.TrimSpace(req.Title)
	if req.Slug == "" || req.Title == "" {
		return "slug and title required"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// Create adds a formation.
// POST /v1/admin/organizations/:org_id/formations
func (h *AdminFormationHandler) Create(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req formationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	f := model.Formation{
		OrganizationID: orgID,
		Slug:           req.Slug,
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		DurationHours:  req.DurationHours,
		IsActive:       true,
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Formations.Create(ctx, &f); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create formation failed"})
	}
	return c.JSON(http.StatusCreated, formationToView(f))
}

// Update rewrites a formation.
// PUT /v1/admin/organizations/:org_id/formations/:id
func (h *AdminFormationHandler) Update(c echo.Context) error {
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
	var req formationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Formations.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "formation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if f.OrganizationID != orgID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "formation not found"})
	}

	f.Slug = req.Slug
	f.Title = req.Title
	f.Description = req.Description
	f.Price = req.Price
	f.DurationHours = req.DurationHours
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	if err := h.Formations.Update(ctx, &f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update formation failed"})
	}
	return c.JSON(http.StatusOK, formationToView(f))
}

// Delete removes a formation.
// DELETE /v1/admin/organizations/:org_id/formations/:id
func (h *AdminFormationHandler) Delete(c echo.Context) error {
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

	f, err := h.Formations.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "formation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if f.OrganizationID != orgID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "formation not found"})
	}
	if err := h.Formations.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete formation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
