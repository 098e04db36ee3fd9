package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/model"
)

func testContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	assert.NoError(t, Health(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCurrentUserID(t *testing.T) {
	c := testContext()

	_, ok := currentUserID(c)
	assert.False(t, ok)

	// JWT claims decode numbers as float64
	c.Set("user_id", float64(42))
	uid, ok := currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), uid)

	c.Set("user_id", "17")
	uid, ok = currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(17), uid)
}

func TestOrgInScope(t *testing.T) {
	// staff bound to org 3
	c := testContext()
	c.Set("role", model.RoleStaff)
	c.Set("org_id", float64(3))
	assert.True(t, orgInScope(c, 3))
	assert.False(t, orgInScope(c, 4))

	// platform admin without an org claim crosses tenants
	c = testContext()
	c.Set("role", model.RoleAdmin)
	assert.True(t, orgInScope(c, 3))
	assert.True(t, orgInScope(c, 99))

	// staff without an org claim is confined
	c = testContext()
	c.Set("role", model.RoleStaff)
	assert.False(t, orgInScope(c, 3))
}

func TestUserView(t *testing.T) {
	bd := time.Date(1990, time.March, 2, 0, 0, 0, 0, time.UTC)
	org := uint64(2)
	u := model.User{
		ID:                 7,
		Email:              "client@example.com",
		Name:               "Alice",
		Role:               model.RoleClient,
		OrganizationID:     &org,
		BirthDate:          &bd,
		IndividualServices: 3,
		Forfaits:           1,
		IsActive:           true,
	}

	v := userView(u)

	assert.Equal(t, "1990-03-02", v.BirthDate)
	assert.Equal(t, 3, v.IndividualServices)
	assert.Equal(t, &org, v.OrganizationID)

	u.BirthDate = nil
	assert.Empty(t, userView(u).BirthDate)
}
