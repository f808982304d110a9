// Package service implements the booking lifecycle and invoicing
// rules. Handlers stay thin; everything with a domain decision in it
// lives here, behind interfaces for the external collaborators
// (storage, email, PDF rendering, event publishing).
package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/navlight/booking-service/internal/errs"
	"github.com/navlight/booking-service/internal/model"
	"github.com/navlight/booking-service/internal/monitoring"
	"github.com/navlight/booking-service/internal/repository"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

// Notifier delivers booking emails. Confirmation and pickup messages
// are best-effort; invoice delivery errors are surfaced to the caller.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b model.Booking) error
	PickupRecorded(ctx context.Context, b model.Booking) error
	InvoiceIssued(ctx context.Context, b model.Booking, inv model.Invoice) error
}

// Renderer turns an invoice into a printable document. Implementations
// must be safe for concurrent use.
type Renderer interface {
	RenderInvoice(b model.Booking, inv model.Invoice) ([]byte, error)
}

// Publisher emits booking lifecycle events. May be nil when event
// publishing is not configured.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Billing carries the configured charge rates and payment details.
type Billing struct {
	UnitCharge             decimal.Decimal
	MissingPunchUnitCharge decimal.Decimal
	BankAccountName        string
	BankAccountNumber      string
}

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	notifier  Notifier
	renderer  Renderer
	publisher Publisher
	billing   Billing

	locks kitLocks
	now   func() time.Time
	newID func() int64
}

type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides booking id assignment, for tests.
func WithIDGenerator(newID func() int64) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(repo repository.Repository, notifier Notifier, renderer Renderer, publisher Publisher, billing Billing, log *zap.Logger, ops ...Option) *Service {
	s := &Service{
		log:       log,
		repo:      repo,
		notifier:  notifier,
		renderer:  renderer,
		publisher: publisher,
		billing:   billing,
		locks:     kitLocks{locks: make(map[string]*sync.Mutex)},
		now:       time.Now,
		newID:     func() int64 { return time.Now().UnixMilli() },
	}
	for _, op := range ops {
		op(s)
	}
	return s
}

// Create validates, stores and confirms a new booking.
func (s *Service) Create(ctx context.Context, req model.CreateBookingRequest) (model.Booking, error) {
	if err := model.ValidateDateOrder(req.PickupDate, req.EventDate, req.ReturnDate); err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		ID:                  s.newID(),
		NavlightSet:         req.NavlightSet,
		PickupDate:          req.PickupDate,
		EventDate:           req.EventDate,
		ReturnDate:          req.ReturnDate,
		Name:                req.Name,
		Email:               req.Email,
		EventName:           req.EventName,
		Comment:             req.Comment,
		Status:              model.StatusBooked,
		ReturnedLostPunches: []string{},
	}

	unlock := s.locks.lock(b.NavlightSet)
	defer unlock()

	conflict, err := s.repo.HasDateConflict(ctx, b.NavlightSet, b.PickupDate, b.ReturnDate, 0)
	if err != nil {
		return model.Booking{}, err
	}
	if conflict {
		monitoring.BookingConflicts.Inc()
		return model.Booking{}, errs.ErrConflict
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return model.Booking{}, err
	}
	monitoring.BookingsCreated.Inc()

	s.dispatch("confirmation", func() error {
		return s.notifier.BookingConfirmed(context.Background(), b)
	})
	s.publish("booking.created", b)
	return b, nil
}

// List returns all bookings ordered by pickup date.
func (s *Service) List(ctx context.Context) ([]model.Booking, error) {
	return s.repo.List(ctx)
}

// Update merges a partial JSON patch onto an existing booking,
// re-validates the result, re-checks overlap and persists it. Moving
// into pickedup triggers the pickup notification.
func (s *Service) Update(ctx context.Context, id int64, patch []byte) (model.Booking, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	merged, err := model.MergeBooking(existing, patch)
	if err != nil {
		return model.Booking{}, err
	}
	if err := merged.ValidateCore(); err != nil {
		return model.Booking{}, err
	}

	unlock := s.locks.lock(merged.NavlightSet)
	defer unlock()

	conflict, err := s.repo.HasDateConflict(ctx, merged.NavlightSet, merged.PickupDate, merged.ReturnDate, id)
	if err != nil {
		return model.Booking{}, err
	}
	if conflict {
		monitoring.BookingConflicts.Inc()
		return model.Booking{}, errs.ErrConflict
	}
	if err := s.repo.Update(ctx, merged); err != nil {
		return model.Booking{}, err
	}

	if existing.Status != model.StatusPickedUp && merged.Status == model.StatusPickedUp {
		s.dispatch("pickup", func() error {
			return s.notifier.PickupRecorded(context.Background(), merged)
		})
		s.publish("booking.pickedup", merged)
	}
	return merged, nil
}

// Delete removes a booking unconditionally, whatever its status.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// dispatch runs a notification attempt after the state change has
// committed. Failures are logged and counted, never propagated.
func (s *Service) dispatch(kind string, send func() error) {
	go func() {
		if err := send(); err != nil {
			s.log.Error("send "+kind+" email", zap.Error(err))
			monitoring.Notifications.WithLabelValues(kind, "error").Inc()
			return
		}
		monitoring.Notifications.WithLabelValues(kind, "ok").Inc()
	}()
}

func (s *Service) publish(event string, payload any) {
	if s.publisher == nil {
		return
	}
	go func() {
		if err := s.publisher.Publish(context.Background(), event, payload); err != nil {
			s.log.Error("publish "+event, zap.Error(err))
		}
	}()
}

// kitLocks serializes check-then-write per navlight set so two
// concurrent requests cannot both pass the overlap check. The database
// exclusion constraint backs this up across processes.
type kitLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *kitLocks) lock(set string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[set]
	if !ok {
		l = &sync.Mutex{}
		k.locks[set] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}
