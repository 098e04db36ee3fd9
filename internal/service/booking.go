package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/queue"
)

// Validation errors surfaced by Submit.  Handlers translate them into 400
// responses; slot conflicts come back from the store as its own sentinel.
var (
	ErrNoServices     = errors.New("no services selected")
	ErrUnknownService = errors.New("unknown service")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidSlot    = errors.New("invalid time slot")
)

// ReservationStore is the persistence surface the booking service needs.
// The repository implementation guards the (date, time) slot inside a
// transaction and returns its slot-taken sentinel on conflict.
type ReservationStore interface {
	BookedTimes(ctx context.Context, orgID uint64, date string) ([]string, error)
	Create(ctx context.Context, res *model.Reservation) error
}

// CatalogStore resolves selected service slugs against the organization's
// active catalog.
type CatalogStore interface {
	ActiveBySlugs(ctx context.Context, orgID uint64, slugs []string) (map[string]model.Service, error)
}

// EventPublisher pushes domain events to the message broker.  A nil
// publisher disables eventing, which keeps the service testable.
type EventPublisher interface {
	ReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// BookingService orchestrates availability lookups and reservation
// submission.  The total price is always recomputed server-side from the
// catalog; client-supplied totals are ignored.
type BookingService struct {
	reservations ReservationStore
	catalog      CatalogStore
	publisher    EventPublisher
}

// NewBookingService wires the booking service.  publisher may be nil.
func NewBookingService(reservations ReservationStore, catalog CatalogStore, publisher EventPublisher) *BookingService {
	if reservations == nil || catalog == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{reservations: reservations, catalog: catalog, publisher: publisher}
}

// Availability returns the per-slot status of the grid for a date.  A DB
// failure propagates as an error: slots are never reported available on
// guesswork.
func (s *BookingService) Availability(ctx context.Context, orgID uint64, date string) ([]SlotStatus, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, ErrInvalidDate
	}
	booked, err := s.reservations.BookedTimes(ctx, orgID, date)
	if err != nil {
		return nil, err
	}
	return Availability(booked), nil
}

// SubmitInput carries a reservation request after authentication resolved
// the client.  Packages defaults missing entries to single sessions.
type SubmitInput struct {
	OrganizationID uint64
	ClientID       uint64
	ClientEmail    string
	Services       []string
	Packages       map[string]string
	Options        []string
	Date           string
	Time           string
	Notes          string
}

// Submit validates the request, prices it against the catalog and persists
// the reservation.  The slot re-check happens inside the store's
// transaction, so two concurrent submissions for the same slot cannot both
// succeed.  On success a confirmation event is published best-effort.
func (s *BookingService) Submit(ctx context.Context, in SubmitInput) (*model.Reservation, error) {
	if len(in.Services) == 0 {
		return nil, ErrNoServices
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, ErrInvalidDate
	}
	if !ValidSlot(in.Time) {
		return nil, ErrInvalidSlot
	}

	catalog, err := s.catalog.ActiveBySlugs(ctx, in.OrganizationID, in.Services)
	if err != nil {
		return nil, err
	}
	packages := make(map[string]string, len(in.Services))
	for _, slug := range in.Services {
		if _, ok := catalog[slug]; !ok {
			return nil, ErrUnknownService
		}
		pkg := in.Packages[slug]
		if pkg != PackageForfait {
			pkg = PackageSingle
		}
		packages[slug] = pkg
	}

	res := &model.Reservation{
		ClientID:       in.ClientID,
		OrganizationID: in.OrganizationID,
		Services:       in.Services,
		Packages:       packages,
		Options:        in.Options,
		Date:           in.Date,
		Time:           in.Time,
		Notes:          in.Notes,
		TotalPrice:     ComputeTotal(in.Services, packages, catalog, in.Options),
		Status:         model.StatusPending,
		PaymentStatus:  model.PaymentUnpaid,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		ev := queue.ReservationConfirmedEvent{
			ReservationID:  res.ID,
			ClientID:       res.ClientID,
			ClientEmail:    in.ClientEmail,
			OrganizationID: res.OrganizationID,
			Services:       res.Services,
			Date:           res.Date,
			Time:           res.Time,
			TotalPrice:     res.TotalPrice,
			ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.ReservationConfirmed(ctx, ev); err != nil {
			log.Printf("booking: publish confirmation failed: %v", err)
		}
	}
	return res, nil
}
