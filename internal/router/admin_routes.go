package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/handler"
	"github.com/avelane/institut-booking/internal/middleware"
	"github.com/avelane/institut-booking/internal/model"
)

// AdminHandlers groups the back-office handler set for registration.
type AdminHandlers struct {
	Orgs       *handler.AdminOrgHandler
	Users      *handler.AdminUserHandler
	Formations *handler.AdminFormationHandler
	Catalog    *handler.CatalogHandler
	GiftCards  *handler.GiftCardHandler
	Payments   *handler.PaymentHandler
	Campaigns  *handler.CampaignHandler
	Export     *handler.ExportHandler
	Uploads    *handler.UploadHandler
}

// RegisterAdmin registers the back office under /v1/admin.  Every route
// requires a valid token with the ADMIN or STAFF role; organization scoping
// is enforced per handler since admins cross tenants and staff do not.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
	)

	// organizations
	g.GET("/organizations", h.Orgs.List)
	g.POST("/organizations", h.Orgs.Create)
	g.GET("/organizations/:id", h.Orgs.Get)
	g.PUT("/organizations/:id", h.Orgs.Update)
	g.DELETE("/organizations/:id", h.Orgs.Delete)

	// users
	g.GET("/users", h.Users.List)
	g.POST("/users", h.Users.Create)
	g.GET("/users/:id", h.Users.Get)
	g.PUT("/users/:id", h.Users.Update)
	g.DELETE("/users/:id", h.Users.Deactivate)
	g.POST("/users/:id/impersonate", h.Users.Impersonate)

	// catalog
	g.GET("/organizations/:org_id/services", h.Catalog.ListServices)
	g.POST("/organizations/:org_id/services", h.Catalog.CreateService)
	g.PUT("/organizations/:org_id/services/:id", h.Catalog.UpdateService)
	g.DELETE("/organizations/:org_id/services/:id", h.Catalog.DeleteService)

	// formations
	g.GET("/organizations/:org_id/formations", h.Formations.List)
	g.POST("/organizations/:org_id/formations", h.Formations.Create)
	g.PUT("/organizations/:org_id/formations/:id", h.Formations.Update)
	g.DELETE("/organizations/:org_id/formations/:id", h.Formations.Delete)

	// gift cards
	g.GET("/giftcards", h.GiftCards.List)
	g.POST("/giftcards", h.GiftCards.Create)

	// reservations and payments
	g.GET("/organizations/:org_id/reservations", h.Payments.ListReservations)
	g.GET("/organizations/:org_id/reservations/export", h.Export.Export)
	g.GET("/reservations/:id/discounts", h.Payments.Discounts)
	g.POST("/reservations/:id/validate-payment", h.Payments.Validate)
	g.PATCH("/reservations/:id/status", h.Payments.UpdateStatus)

	// campaigns
	g.GET("/organizations/:org_id/campaigns/segments", h.Campaigns.Segments)
	g.POST("/organizations/:org_id/campaigns", h.Campaigns.Send)

	// uploads
	g.POST("/uploads", h.Uploads.Upload)
}
