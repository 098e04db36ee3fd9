// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/avelane/institut-booking/internal/config"
	"github.com/avelane/institut-booking/internal/handler"
	"github.com/avelane/institut-booking/internal/middleware"
)

// RegisterRoutes registers unauthenticated infrastructure routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register, login,
// refresh and logout live under /v1/auth without middleware; /v1/me requires
// a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the guest-facing booking surface: catalog,
// availability, submission and gift card verification.  Read endpoints sit
// behind the Redis response cache; the whole surface is rate limited.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, cat *handler.CatalogHandler, gc *handler.GiftCardHandler, rdb *redis.Client) {
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g := e.Group("/v1", rl)
	g.GET("/organizations/:slug/services", cat.PublicCatalog, cache)
	g.GET("/organizations/:slug/availability", b.Availability)
	g.POST("/reservations", b.Submit)
	g.POST("/giftcards/verify", gc.Verify)
}
