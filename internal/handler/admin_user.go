package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/config"
	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/repository"
	"github.com/avelane/institut-booking/internal/service"
	"github.com/avelane/institut-booking/internal/utils"
)

// impersonationTTLMin bounds impersonation tokens to a short session.
const impersonationTTLMin = 15

// AdminUserHandler manages accounts from the back office: the paged
// listing, CRUD and impersonation.
type AdminUserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAdminUserHandler(cfg config.Config, users *repository.UserRepo) *AdminUserHandler {
	if users == nil {
		panic("nil repository passed to NewAdminUserHandler")
	}
	return &AdminUserHandler{Cfg: cfg, Users: users}
}

// List returns users searched, sorted and cut into fixed 50-row pages.
// GET /v1/admin/users?search=&sort=&dir=&page=
func (h *AdminUserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	// Staff only see their own tenant; platform admins see everyone.
	if orgClaim, scoped := currentOrgID(c); scoped {
		filtered := users[:0]
		for _, u := range users {
			if u.OrganizationID != nil && *u.OrganizationID == orgClaim {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	shaped := service.ShapeUsers(users, c.QueryParam("search"), sortFromQuery(c))
	page, _ := strconv.Atoi(c.QueryParam("page"))
	rows, totalPages := service.PageUsers(shaped, page)
	if page < 1 {
		page = 1
	}

	out := make([]profileView, 0, len(rows))
	for _, u := range rows {
		out = append(out, userView(u))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"users":       out,
		"page":        page,
		"total_pages": totalPages,
		"page_size":   service.UsersPageSize,
		"total":       len(shaped),
	})
}

type adminUserReq struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	Role           string  `json:"role"`
	BirthDate      string  `json:"birth_date"`
	OrganizationID *uint64 `json:"organization_id"`
	IsActive       *bool   `json:"is_active"`
}

func parseRole(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case model.RoleAdmin:
		return model.RoleAdmin, true
	case model.RoleStaff:
		return model.RoleStaff, true
	case model.RoleClient, "":
		return model.RoleClient, true
	}
	return "", false
}

// Create adds an account.  Only platform admins may mint other admins.
// POST /v1/admin/users
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	role, ok := parseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	if role == model.RoleAdmin && currentRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	u := model.User{
		Email:          req.Email,
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Role:           role,
		OrganizationID: req.OrganizationID,
	}
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "birth_date must be YYYY-MM-DD"})
		}
		u.BirthDate = &bd
	}

	password := req.Password
	generated := false
	if password == "" {
		var err error
		password, err = utils.GeneratePassword(12)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate password failed"})
		}
		generated = true
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.Create(ctx, &u, password, h.Cfg.BcryptCost); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	resp := echo.Map{"user": userView(u)}
	if generated {
		// Operator-created accounts hand the one-time password back so it
		// can be passed along to the client.
		resp["generated_password"] = password
	}
	return c.JSON(http.StatusCreated, resp)
}

// Get loads one account.
// GET /v1/admin/users/:id
func (h *AdminUserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, userView(u))
}

// Update rewrites an account's profile fields.
// PUT /v1/admin/users/:id
func (h *AdminUserHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, ok := parseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	if role == model.RoleAdmin && currentRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	u.Name = strings.TrimSpace(req.Name)
	u.Phone = strings.TrimSpace(req.Phone)
	u.Role = role
	u.OrganizationID = req.OrganizationID
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "birth_date must be YYYY-MM-DD"})
		}
		u.BirthDate = &bd
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if err := h.Users.Update(ctx, &u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.JSON(http.StatusOK, userView(u))
}

// Deactivate soft-deletes an account; reservations and loyalty history stay.
// DELETE /v1/admin/users/:id
func (h *AdminUserHandler) Deactivate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if uid, _ := currentUserID(c); uid == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Impersonate issues a short-lived access token for a client account so an
// operator can see the portal exactly as the client does.  Only CLIENT
// accounts can be impersonated; the token carries the client's own identity
// and expires quickly.
// POST /v1/admin/users/:id/impersonate
func (h *AdminUserHandler) Impersonate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Role != model.RoleClient {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only clients can be impersonated"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account disabled"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.OrganizationID, impersonationTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	resp := echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
		"user":   userView(u),
	}
	if h.Cfg.BaseURL != "" {
		resp["redirect_url"] = fmt.Sprintf("%s/portal?token=%s", strings.TrimRight(h.Cfg.BaseURL, "/"), access.Token)
	}
	return c.JSON(http.StatusOK, resp)
}
