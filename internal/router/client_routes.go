package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/handler"
	"github.com/avelane/institut-booking/internal/middleware"
	"github.com/avelane/institut-booking/internal/model"
)

// RegisterClient registers the authenticated client portal: the client's
// reservations and loyalty profile.  Staff and admins may also read
// individual reservations through the same detail route.
func RegisterClient(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient, model.RoleStaff, model.RoleAdmin),
	)
	g.GET("/me/reservations", b.MyReservations)
	g.GET("/me/loyalty", b.MyLoyalty)
	g.GET("/reservations/:id", b.GetReservation)
}
