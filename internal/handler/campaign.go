package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/service"
)

// CampaignHandler serves the email campaign screen: segment counts and the
// actual send.
type CampaignHandler struct {
	Campaigns *service.CampaignService
}

func NewCampaignHandler(campaigns *service.CampaignService) *CampaignHandler {
	if campaigns == nil {
		panic("nil service passed to NewCampaignHandler")
	}
	return &CampaignHandler{Campaigns: campaigns}
}

// Segments returns the current size of every client segment.
// GET /v1/admin/organizations/:org_id/campaigns/segments
func (h *CampaignHandler) Segments(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Campaigns.Counts(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"segments": counts})
}

type campaignReq struct {
	Recipients []service.Recipient `json:"recipients"`
	Segment    string              `json:"segment"`
	Subject    string              `json:"subject"`
	Content    string              `json:"content"`
	Template   string              `json:"template"`
}

// Send queues one message per recipient of the campaign and reports how
// many were accepted by the broker.
// POST /v1/admin/organizations/:org_id/campaigns
func (h *CampaignHandler) Send(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req campaignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Subject) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subject required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	queued, err := h.Campaigns.Send(ctx, service.SendInput{
		OrganizationID: orgID,
		Recipients:     req.Recipients,
		Segment:        service.Segment(strings.ToLower(strings.TrimSpace(req.Segment))),
		Subject:        req.Subject,
		Content:        req.Content,
		Template:       req.Template,
	})
	if err != nil {
		switch err {
		case service.ErrUnknownSegment:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown segment"})
		case service.ErrNoRecipients:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no recipients"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send campaign failed"})
		}
	}
	return c.JSON(http.StatusAccepted, echo.Map{"queued": queued})
}
