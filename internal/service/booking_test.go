package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/model"
	"github.com/avelane/institut-booking/internal/queue"
)

// --- mocks ---

type mockReservationStore struct {
	bookedFn func(ctx context.Context, orgID uint64, date string) ([]string, error)
	createFn func(ctx context.Context, res *model.Reservation) error
}

func (m *mockReservationStore) BookedTimes(ctx context.Context, orgID uint64, date string) ([]string, error) {
	return m.bookedFn(ctx, orgID, date)
}
func (m *mockReservationStore) Create(ctx context.Context, res *model.Reservation) error {
	return m.createFn(ctx, res)
}

type mockCatalogStore struct {
	catalog map[string]model.Service
	err     error
}

func (m *mockCatalogStore) ActiveBySlugs(ctx context.Context, orgID uint64, slugs []string) (map[string]model.Service, error) {
	return m.catalog, m.err
}

type mockConfirmPublisher struct {
	events []queue.ReservationConfirmedEvent
	err    error
}

func (m *mockConfirmPublisher) ReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

func bookingFixture(createErr error) (*BookingService, *mockReservationStore, *mockConfirmPublisher) {
	store := &mockReservationStore{
		bookedFn: func(ctx context.Context, orgID uint64, date string) ([]string, error) {
			return []string{"10:00"}, nil
		},
		createFn: func(ctx context.Context, res *model.Reservation) error {
			if createErr != nil {
				return createErr
			}
			res.ID = 42
			return nil
		},
	}
	catalog := &mockCatalogStore{catalog: map[string]model.Service{
		"hydro-cleaning": {Slug: "hydro-cleaning", Price: 89},
	}}
	pub := &mockConfirmPublisher{}
	return NewBookingService(store, catalog, pub), store, pub
}

// --- availability ---

func TestAvailabilityMarksBooked(t *testing.T) {
	svc, _, _ := bookingFixture(nil)

	slots, err := svc.Availability(context.Background(), 1, "2025-03-10")

	assert.NoError(t, err)
	for _, s := range slots {
		if s.Time == "10:00" {
			assert.False(t, s.Available)
		} else {
			assert.True(t, s.Available, s.Time)
		}
	}
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	svc, _, _ := bookingFixture(nil)

	_, err := svc.Availability(context.Background(), 1, "10/03/2025")

	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAvailabilityPropagatesStoreError(t *testing.T) {
	svc, store, _ := bookingFixture(nil)
	store.bookedFn = func(ctx context.Context, orgID uint64, date string) ([]string, error) {
		return nil, errors.New("db down")
	}

	slots, err := svc.Availability(context.Background(), 1, "2025-03-10")

	// No slot may be reported free when the store cannot answer.
	assert.Error(t, err)
	assert.Nil(t, slots)
}

// --- submission ---

func submitFixture() SubmitInput {
	return SubmitInput{
		OrganizationID: 1,
		ClientID:       7,
		ClientEmail:    "client@example.com",
		Services:       []string{"hydro-cleaning"},
		Date:           "2025-03-10",
		Time:           "10:00",
	}
}

func TestSubmitSuccess(t *testing.T) {
	svc, _, pub := bookingFixture(nil)

	res, err := svc.Submit(context.Background(), submitFixture())

	assert.NoError(t, err)
	assert.Equal(t, uint64(42), res.ID)
	assert.Equal(t, 89.0, res.TotalPrice)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, model.PaymentUnpaid, res.PaymentStatus)
	assert.Equal(t, PackageSingle, res.Packages["hydro-cleaning"])

	assert.Len(t, pub.events, 1)
	assert.Equal(t, uint64(42), pub.events[0].ReservationID)
	assert.Equal(t, "client@example.com", pub.events[0].ClientEmail)
}

func TestSubmitRecomputesTotal(t *testing.T) {
	svc, store, _ := bookingFixture(nil)
	var got *model.Reservation
	store.createFn = func(ctx context.Context, res *model.Reservation) error {
		got = res
		return nil
	}

	in := submitFixture()
	in.Options = []string{"led-mask"}
	_, err := svc.Submit(context.Background(), in)

	assert.NoError(t, err)
	assert.Equal(t, 89.0+OptionPrice, got.TotalPrice)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := bookingFixture(nil)

	in := submitFixture()
	in.Services = nil
	_, err := svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoServices)

	in = submitFixture()
	in.Date = "not-a-date"
	_, err = svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidDate)

	in = submitFixture()
	in.Time = "10:15"
	_, err = svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	in = submitFixture()
	in.Services = []string{"ghost-service"}
	_, err = svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestSubmitSlotConflictPropagates(t *testing.T) {
	conflict := errors.New("slot taken")
	svc, _, pub := bookingFixture(conflict)

	_, err := svc.Submit(context.Background(), submitFixture())

	assert.ErrorIs(t, err, conflict)
	assert.Empty(t, pub.events) // no event for a failed booking
}

func TestSubmitPublishFailureDoesNotFailBooking(t *testing.T) {
	svc, _, pub := bookingFixture(nil)
	pub.err = errors.New("broker down")

	res, err := svc.Submit(context.Background(), submitFixture())

	assert.NoError(t, err)
	assert.Equal(t, uint64(42), res.ID)
}

func TestSubmitNilPublisher(t *testing.T) {
	store := &mockReservationStore{
		bookedFn: func(ctx context.Context, orgID uint64, date string) ([]string, error) { return nil, nil },
		createFn: func(ctx context.Context, res *model.Reservation) error { res.ID = 1; return nil },
	}
	catalog := &mockCatalogStore{catalog: map[string]model.Service{
		"hydro-cleaning": {Slug: "hydro-cleaning", Price: 89},
	}}
	svc := NewBookingService(store, catalog, nil)

	_, err := svc.Submit(context.Background(), submitFixture())

	assert.NoError(t, err)
}

func TestSubmitForfaitPackageKept(t *testing.T) {
	store := &mockReservationStore{
		bookedFn: func(ctx context.Context, orgID uint64, date string) ([]string, error) { return nil, nil },
		createFn: func(ctx context.Context, res *model.Reservation) error { return nil },
	}
	catalog := &mockCatalogStore{catalog: map[string]model.Service{
		"microneedling": {Slug: "microneedling", Price: 120, ForfaitPrice: fptr(400)},
	}}
	svc := NewBookingService(store, catalog, nil)

	in := submitFixture()
	in.Services = []string{"microneedling"}
	in.Packages = map[string]string{"microneedling": PackageForfait}
	res, err := svc.Submit(context.Background(), in)

	assert.NoError(t, err)
	assert.Equal(t, PackageForfait, res.Packages["microneedling"])
	assert.Equal(t, 400.0, res.TotalPrice)
}
