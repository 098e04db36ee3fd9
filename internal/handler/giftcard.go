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

// GiftCardHandler serves gift card management and the public balance check.
type GiftCardHandler struct {
	Cards *repository.GiftCardRepo
}

func NewGiftCardHandler(cards *repository.GiftCardRepo) *GiftCardHandler {
	if cards == nil {
		panic("nil repository passed to NewGiftCardHandler")
	}
	return &GiftCardHandler{Cards: cards}
}

type giftCardView struct {
	ID          uint64    `json:"id"`
	Code        string    `json:"code"`
	Balance     float64   `json:"balance"`
	Beneficiary string    `json:"beneficiary"`
	CreatedAt   time.Time `json:"created_at"`
}

func giftCardToView(g model.GiftCard) giftCardView {
	return giftCardView{ID: g.ID, Code: g.Code, Balance: g.Balance, Beneficiary: g.Beneficiary, CreatedAt: g.CreatedAt}
}

// Verify checks a card code and returns its remaining balance.  The public
// endpoint never reveals the beneficiary.
// POST /v1/giftcards/verify
func (h *GiftCardHandler) Verify(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	card, err := h.Cards.GetByCode(ctx, req.Code)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "gift card not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"code": card.Code, "balance": card.Balance})
}

// List returns every gift card for the back office.
// GET /v1/admin/giftcards
func (h *GiftCardHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cards, err := h.Cards.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]giftCardView, 0, len(cards))
	for _, g := range cards {
		out = append(out, giftCardToView(g))
	}
	return c.JSON(http.StatusOK, echo.Map{"gift_cards": out})
}

// Create sells a new gift card.  The code is generated server-side.
// POST /v1/admin/giftcards
func (h *GiftCardHandler) Create(c echo.Context) error {
	var req struct {
		Balance     float64 `json:"balance"`
		Beneficiary string  `json:"beneficiary"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Balance <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "balance must be positive"})
	}

	g := model.GiftCard{Balance: req.Balance, Beneficiary: strings.TrimSpace(req.Beneficiary)}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cards.Create(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create gift card failed"})
	}
	return c.JSON(http.StatusCreated, giftCardToView(g))
}
