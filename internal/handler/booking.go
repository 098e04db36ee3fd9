package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/config"
	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/queue"
	"github.com/avelane/institut-booking/internal/repository"
	"github.com/avelane/institut-booking/internal/service"
	"github.com/avelane/institut-booking/internal/utils"
)

// bookingUserStore is the slice of the user repository the public booking
// flow needs to resolve or create the client account.
type bookingUserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error)
}

type bookingOrgStore interface {
	GetBySlug(ctx context.Context, slug string) (model.Organization, error)
}

// BookingHandler serves the public reservation flow: availability lookup,
// submission and the client's own reservation views.
type BookingHandler struct {
	Cfg          config.Config
	Booking      *service.BookingService
	Users        bookingUserStore
	Orgs         bookingOrgStore
	Reservations *repository.ReservationRepo
	Publisher    *queue.Publisher
}

func NewBookingHandler(cfg config.Config, booking *service.BookingService, users bookingUserStore, orgs bookingOrgStore, reservations *repository.ReservationRepo, pub *queue.Publisher) *BookingHandler {
	if booking == nil || users == nil || orgs == nil || reservations == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Cfg: cfg, Booking: booking, Users: users, Orgs: orgs, Reservations: reservations, Publisher: pub}
}

// Availability returns the slot grid with per-slot status for one date.
// GET /v1/organizations/:slug/availability?date=YYYY-MM-DD
func (h *BookingHandler) Availability(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	org, err := h.Orgs.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	slots, err := h.Booking.Availability(ctx, org.ID, date)
	if err != nil {
		if err == service.ErrInvalidDate {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		// Never guess: when the store cannot answer, no slot is offered.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slots": slots})
}

// ----- submission -----

type submitReq struct {
	Organization string            `json:"organization"` // tenant slug
	Services     []string          `json:"services"`
	Packages     map[string]string `json:"packages"`
	Options      []string          `json:"options"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Notes        string            `json:"notes"`

	// Identification, used when no bearer token accompanies the request.
	// With email+password the account is logged in; with email alone a new
	// client account is created and its generated password mailed out.
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
}

type submitResp struct {
	Reservation    reservationView `json:"reservation"`
	AccountCreated bool            `json:"account_created"`
}

// Submit records a reservation.  The caller is resolved in order: bearer
// token, then email+password credentials, then on-the-fly account creation.
// POST /v1/reservations
func (h *BookingHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	org, err := h.Orgs.GetBySlug(ctx, strings.TrimSpace(req.Organization))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	client, created, err := h.resolveClient(ctx, c, org.ID, &req)
	if err != nil {
		switch err {
		case errBadCredentials:
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		case errNoIdentity:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "authenticate or provide an email"})
		case errEmailTaken:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists, log in"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "identify client failed"})
		}
	}

	res, err := h.Booking.Submit(ctx, service.SubmitInput{
		OrganizationID: org.ID,
		ClientID:       client.ID,
		ClientEmail:    client.Email,
		Services:       req.Services,
		Packages:       req.Packages,
		Options:        req.Options,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
	})
	if err != nil {
		switch err {
		case service.ErrNoServices, service.ErrInvalidDate, service.ErrInvalidSlot:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case service.ErrUnknownService:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown service in selection"})
		case repository.ErrSlotTaken:
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot no longer available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
		}
	}

	return c.JSON(http.StatusCreated, submitResp{Reservation: reservationToView(*res), AccountCreated: created})
}

var (
	errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized)
	errNoIdentity     = echo.NewHTTPError(http.StatusBadRequest)
	errEmailTaken     = echo.NewHTTPError(http.StatusConflict)
)

// resolveClient identifies the booking client.  The bool reports whether a
// new account was created.
func (h *BookingHandler) resolveClient(ctx context.Context, c echo.Context, orgID uint64, req *submitReq) (model.User, bool, error) {
	// Bearer token first.  The route is public, so the token is parsed here
	// instead of relying on the JWT middleware.
	if uid, ok := bearerUserID(c, h.Cfg.JWTSecret); ok {
		u, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			return model.User{}, false, err
		}
		return u, false, nil
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return model.User{}, false, errNoIdentity
	}

	// Credentials path.
	if req.Password != "" {
		u, err := h.Users.GetByEmail(ctx, email)
		if err != nil {
			if err == sql.ErrNoRows {
				return model.User{}, false, errBadCredentials
			}
			return model.User{}, false, err
		}
		if !utils.VerifyPassword(u.PasswordHash, req.Password) {
			return model.User{}, false, errBadCredentials
		}
		return u, false, nil
	}

	// Without a password the email must be new; booking against an existing
	// account requires authenticating first.
	if _, err := h.Users.GetByEmail(ctx, email); err == nil {
		return model.User{}, false, errEmailTaken
	} else if err != sql.ErrNoRows {
		return model.User{}, false, err
	}

	// New account.  The generated password travels only through the welcome
	// queue; it is never part of the HTTP response.
	password, err := utils.GeneratePassword(12)
	if err != nil {
		return model.User{}, false, err
	}
	u := model.User{
		Email:          email,
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Role:           model.RoleClient,
		OrganizationID: &orgID,
	}
	if req.BirthDate != "" {
		if bd, err := time.Parse("2006-01-02", req.BirthDate); err == nil {
			u.BirthDate = &bd
		}
	}
	if _, err := h.Users.Create(ctx, &u, password, h.Cfg.BcryptCost); err != nil {
		return model.User{}, false, err
	}

	if h.Publisher != nil {
		ev := queue.ClientWelcomeEvent{
			ClientID:  u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Password:  password,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.Publisher.ClientWelcome(ctx, ev); err != nil {
			log.Printf("booking: publish welcome for %s failed: %v", u.Email, err)
		}
	}
	return u, true, nil
}

// bearerUserID parses an optional Authorization header the same way the JWT
// middleware does, without rejecting the request when it is absent.
func bearerUserID(c echo.Context, secret string) (uint64, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, false
	}
	tok, err := jwt.Parse(strings.TrimPrefix(authHeader, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	if sub, ok := claims["sub"].(float64); ok {
		return uint64(sub), true
	}
	return 0, false
}

// ----- client views -----

type reservationView struct {
	ID             uint64            `json:"id"`
	OrganizationID uint64            `json:"organization_id"`
	ClientID       uint64            `json:"client_id"`
	Services       []string          `json:"services"`
	Packages       map[string]string `json:"packages"`
	Options        []string          `json:"options"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	Notes          string            `json:"notes,omitempty"`
	TotalPrice     float64           `json:"total_price"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"payment_status"`
	PaymentMethod  *string           `json:"payment_method,omitempty"`
	PaymentAmount  *float64          `json:"payment_amount,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func reservationToView(r model.Reservation) reservationView {
	return reservationView{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		ClientID:       r.ClientID,
		Services:       r.Services,
		Packages:       r.Packages,
		Options:        r.Options,
		Date:           r.Date,
		Time:           r.Time,
		Notes:          r.Notes,
		TotalPrice:     r.TotalPrice,
		Status:         r.Status,
		PaymentStatus:  r.PaymentStatus,
		PaymentMethod:  r.PaymentMethod,
		PaymentAmount:  r.PaymentAmount,
		CreatedAt:      r.CreatedAt,
	}
}

// MyReservations lists the authenticated client's reservations.
// GET /v1/me/reservations
func (h *BookingHandler) MyReservations(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByClient(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, reservationToView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// GetReservation returns one reservation.  Clients only see their own;
// staff and admins see any within their scope.
// GET /v1/reservations/:id
func (h *BookingHandler) GetReservation(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if currentRole(c) == model.RoleClient && res.ClientID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, reservationToView(*res))
}

// MyLoyalty exposes the client's loyalty counters together with the
// discount list as it would appear at the next payment.
// GET /v1/me/loyalty
func (h *BookingHandler) MyLoyalty(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	profile := service.LoyaltyProfile{
		IndividualServices:   u.IndividualServices,
		Forfaits:             u.Forfaits,
		BirthDate:            u.BirthDate,
		BirthdayDiscountYear: u.BirthdayDiscountYear,
	}
	return c.JSON(http.StatusOK, echo.Map{
		"individual_services_count": u.IndividualServices,
		"packages_count":            u.Forfaits,
		"discounts":                 service.AvailableDiscounts(profile, time.Now().UTC()),
	})
}
