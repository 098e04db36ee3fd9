package handler // handler defines http handlers

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/model"
)

// currentUserID extracts the authenticated user id set by the JWT
// middleware.  JWT numeric claims decode as float64, so the helper accepts
// every representation the middleware may have stored.
func currentUserID(c echo.Context) (uint64, bool) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, true
	case int:
		return uint64(t), true
	case int64:
		return uint64(t), true
	case float64:
		return uint64(t), true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// currentOrgID returns the organization claim when present.  Admin accounts
// without an organization operate across all of them.
func currentOrgID(c echo.Context) (uint64, bool) {
	switch t := c.Get("org_id").(type) {
	case uint64:
		return t, true
	case int64:
		return uint64(t), true
	case float64:
		return uint64(t), true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func currentRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// orgInScope reports whether the caller may act on the given organization.
// Admins without an organization claim operate platform-wide; everyone else
// is confined to their own tenant.
func orgInScope(c echo.Context, orgID uint64) bool {
	claim, ok := currentOrgID(c)
	if !ok {
		return currentRole(c) == model.RoleAdmin
	}
	return claim == orgID
}

// pathID parses a numeric :param from the route.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// profileView is the public shape of a user account.  Loyalty counters ride
// along so the client app can show progress toward the next discount.
type profileView struct {
	ID                 uint64    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	Role               string    `json:"role"`
	OrganizationID     *uint64   `json:"organization_id,omitempty"`
	BirthDate          string    `json:"birth_date,omitempty"`
	IndividualServices int       `json:"individual_services_count"`
	Forfaits           int       `json:"packages_count"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

func userView(u model.User) profileView {
	v := profileView{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Phone:              u.Phone,
		Role:               u.Role,
		OrganizationID:     u.OrganizationID,
		IndividualServices: u.IndividualServices,
		Forfaits:           u.Forfaits,
		IsActive:           u.IsActive,
		CreatedAt:          u.CreatedAt,
	}
	if u.BirthDate != nil {
		v.BirthDate = u.BirthDate.Format("2006-01-02")
	}
	return v
}
