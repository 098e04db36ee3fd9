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

// PaymentHandler covers the back-office payment validation flow and the
// reservation lifecycle transitions.
type PaymentHandler struct {
	Payments     *service.PaymentService
	Reservations *repository.ReservationRepo
}

func NewPaymentHandler(payments *service.PaymentService, reservations *repository.ReservationRepo) *PaymentHandler {
	if payments == nil || reservations == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments, Reservations: reservations}
}

// Discounts returns the discount list with eligibility for the validation
// modal of one reservation.
// GET /v1/admin/reservations/:id/discounts
func (h *PaymentHandler) Discounts(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	discounts, err := h.Payments.Discounts(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"discounts": discounts})
}

type validateReq struct {
	Discounts    []string `json:"discounts"` // checked discount kinds
	Manual       float64  `json:"manual_amount"`
	GiftCardCode string   `json:"gift_card_code"`
	Method       string   `json:"method"` // cash | card | transfer
}

// Validate settles a reservation's payment: folds the checked discounts and
// optional gift card over the total and records the outcome.
// POST /v1/admin/reservations/:id/validate-payment
func (h *PaymentHandler) Validate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Manual < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "manual_amount must not be negative"})
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = "cash"
	}

	checked := make(map[service.DiscountKind]bool, len(req.Discounts))
	for _, d := range req.Discounts {
		checked[service.DiscountKind(strings.TrimSpace(d))] = true
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	settlement, err := h.Payments.Validate(ctx, service.ValidateInput{
		ReservationID: id,
		Checked:       checked,
		Manual:        req.Manual,
		GiftCardCode:  strings.TrimSpace(req.GiftCardCode),
		Method:        method,
	})
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case service.ErrAlreadyPaid:
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already paid"})
		case service.ErrReferralConflict:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "referral discounts are mutually exclusive"})
		case service.ErrGiftCardUnknown:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "gift card not found"})
		case service.ErrEmptyGiftCard:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "gift card has no balance"})
		case repository.ErrInsufficientBalance:
			return c.JSON(http.StatusConflict, echo.Map{"error": "gift card balance changed, retry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate payment failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"final_amount":      settlement.Final,
		"applied":           settlement.Applied,
		"gift_card_applied": settlement.GiftCardApplied,
		"note":              settlement.Note,
	})
}

var validStatuses = map[string]bool{
	model.StatusPending:   true,
	model.StatusConfirmed: true,
	model.StatusCompleted: true,
	model.StatusCancelled: true,
	model.StatusNoShow:    true,
}

// UpdateStatus moves a reservation through its lifecycle.  Completing a
// reservation advances the client's loyalty counters inside the repository
// transaction.
// PATCH /v1/admin/reservations/:id/status
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !validStatuses[status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Reservations.UpdateStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// ListReservations returns an institute's reservations for the back office.
// GET /v1/admin/organizations/:org_id/reservations
func (h *PaymentHandler) ListReservations(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByOrg(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, reservationToView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
