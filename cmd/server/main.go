package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avelane/institut-booking/internal/config"
	"github.com/avelane/institut-booking/internal/database"
	"github.com/avelane/institut-booking/internal/handler"
	"github.com/avelane/institut-booking/internal/queue"
	"github.com/avelane/institut-booking/internal/repository"
	"github.com/avelane/institut-booking/internal/router"
	"github.com/avelane/institut-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; caching and rate limiting degrade

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	orgs := repository.NewOrganizationRepo(db)
	services := repository.NewServiceRepo(db)
	formations := repository.NewFormationRepo(db)
	reservations := repository.NewReservationRepo(db)
	cards := repository.NewGiftCardRepo(db)
	payments := repository.NewPaymentRepo(db, cards)

	// broker + services
	publisher := queue.NewPublisher()
	booking := service.NewBookingService(reservations, services, publisher)
	payment := service.NewPaymentService(payments)
	campaigns := service.NewCampaignService(users, publisher)

	// handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	bookingH := handler.NewBookingHandler(cfg, booking, users, orgs, reservations, publisher)
	catalogH := handler.NewCatalogHandler(orgs, services)
	giftCardH := handler.NewGiftCardHandler(cards)
	admin := router.AdminHandlers{
		Orgs:       handler.NewAdminOrgHandler(orgs),
		Users:      handler.NewAdminUserHandler(cfg, users),
		Formations: handler.NewAdminFormationHandler(formations),
		Catalog:    catalogH,
		GiftCards:  giftCardH,
		Payments:   handler.NewPaymentHandler(payment, reservations),
		Campaigns:  handler.NewCampaignHandler(campaigns),
		Export:     handler.NewExportHandler(reservations),
		Uploads:    handler.NewUploadHandler(cfg),
	}

	e := echo.New()
	e.HideBanner = true
	e.Static("/uploads", cfg.UploadDir)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, bookingH, catalogH, giftCardH, rdb)
	router.RegisterClient(e, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, admin, cfg.JWTSecret)

	// Drain the welcome and campaign mail queues in the background; the
	// consumer reconnects on its own when the broker drops.
	go func() {
		if err := queue.StartMailConsumer(); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
