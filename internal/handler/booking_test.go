package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/service"
	"github.com/avelane/institut-booking/internal/utils"
)

type mockBookingUsers struct {
	getByIDFn    func(ctx context.Context, id uint64) (model.User, error)
	getByEmailFn func(ctx context.Context, email string) (model.User, error)
	createFn     func(ctx context.Context, u *model.User, password string, cost int) (uint64, error)
	created      int
}

func (m *mockBookingUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return model.User{}, sql.ErrNoRows
}

func (m *mockBookingUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return model.User{}, sql.ErrNoRows
}

func (m *mockBookingUsers) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	m.created++
	if m.createFn != nil {
		return m.createFn(ctx, u, password, cost)
	}
	u.ID = 7
	return 7, nil
}

type mockBookingOrgs struct {
	getBySlugFn func(ctx context.Context, slug string) (model.Organization, error)
}

func (m *mockBookingOrgs) GetBySlug(ctx context.Context, slug string) (model.Organization, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return model.Organization{}, sql.ErrNoRows
}

type stubReservationStore struct {
	created int
}

func (s *stubReservationStore) BookedTimes(ctx context.Context, orgID uint64, date string) ([]string, error) {
	return nil, nil
}

func (s *stubReservationStore) Create(ctx context.Context, res *model.Reservation) error {
	s.created++
	res.ID = 42
	return nil
}

type stubCatalogStore struct{}

func (stubCatalogStore) ActiveBySlugs(ctx context.Context, orgID uint64, slugs []string) (map[string]model.Service, error) {
	out := make(map[string]model.Service, len(slugs))
	for _, slug := range slugs {
		out[slug] = model.Service{Slug: slug, Price: 89}
	}
	return out, nil
}

func submitRequest(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	assert.NoError(t, h.Submit(e.NewContext(req, rec)))
	return rec
}

func glowOrg(ctx context.Context, slug string) (model.Organization, error) {
	if slug == "glow" {
		return model.Organization{ID: 3, Slug: "glow", Name: "Glow", IsActive: true}, nil
	}
	return model.Organization{}, sql.ErrNoRows
}

func TestSubmitExistingEmailWithoutPassword(t *testing.T) {
	users := &mockBookingUsers{
		getByEmailFn: func(_ context.Context, email string) (model.User, error) {
			return model.User{ID: 9, Email: email, Role: model.RoleClient}, nil
		},
	}
	store := &stubReservationStore{}
	h := &BookingHandler{
		Booking: service.NewBookingService(store, stubCatalogStore{}, nil),
		Users:   users,
		Orgs:    &mockBookingOrgs{getBySlugFn: glowOrg},
	}

	rec := submitRequest(t, h, `{"organization":"glow","services":["hydro-cleaning"],
		"date":"2025-03-10","time":"10:00","email":"client@example.com"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already exists")
	assert.Zero(t, users.created)
	assert.Zero(t, store.created)
}

func TestSubmitWrongPassword(t *testing.T) {
	hash, err := utils.HashPassword("right-password", 4)
	assert.NoError(t, err)
	users := &mockBookingUsers{
		getByEmailFn: func(_ context.Context, email string) (model.User, error) {
			return model.User{ID: 9, Email: email, PasswordHash: hash, Role: model.RoleClient}, nil
		},
	}
	h := &BookingHandler{
		Booking: service.NewBookingService(&stubReservationStore{}, stubCatalogStore{}, nil),
		Users:   users,
		Orgs:    &mockBookingOrgs{getBySlugFn: glowOrg},
	}

	rec := submitRequest(t, h, `{"organization":"glow","services":["hydro-cleaning"],
		"date":"2025-03-10","time":"10:00","email":"client@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitNewEmailCreatesAccount(t *testing.T) {
	var mailedPassword string
	users := &mockBookingUsers{
		createFn: func(_ context.Context, u *model.User, password string, _ int) (uint64, error) {
			u.ID = 11
			mailedPassword = password
			return 11, nil
		},
	}
	store := &stubReservationStore{}
	h := &BookingHandler{
		Booking: service.NewBookingService(store, stubCatalogStore{}, nil),
		Users:   users,
		Orgs:    &mockBookingOrgs{getBySlugFn: glowOrg},
	}

	rec := submitRequest(t, h, `{"organization":"glow","services":["hydro-cleaning"],
		"date":"2025-03-10","time":"10:00","email":"new@example.com","name":"New Client"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, users.created)
	assert.Equal(t, 1, store.created)
	assert.Contains(t, rec.Body.String(), `"account_created":true`)
	// The generated password travels only through the welcome queue.
	assert.NotEmpty(t, mailedPassword)
	assert.NotContains(t, rec.Body.String(), mailedPassword)
}
