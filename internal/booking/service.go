package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/models"
	"github.com/tikitihq/tikiti/internal/monitoring"
)

// DefaultHoldWindow is how long a pending booking keeps its soft hold.
const DefaultHoldWindow = 15 * time.Minute

// Actor is the verified caller identity handed in by the auth middleware.
// A nil *Actor means a guest.
type Actor struct {
	ID      uuid.UUID
	Email   string
	IsAdmin bool
}

type Config struct {
	// HoldWindow overrides DefaultHoldWindow when positive.
	HoldWindow time.Duration
	// Now overrides the clock, used by tests to control expiry.
	Now func() time.Time
}

// Service owns the booking lifecycle: creation of soft holds, cancellation,
// settlement through payment reconciliation and admin force-confirm. All
// inventory mutation goes through the ledger inside a single transaction.
type Service struct {
	db         *gorm.DB
	holdWindow time.Duration
	now        func() time.Time
}

func NewService(db *gorm.DB, cfg Config) *Service {
	s := &Service{db: db, holdWindow: cfg.HoldWindow, now: cfg.Now}
	if s.holdWindow <= 0 {
		s.holdWindow = DefaultHoldWindow
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateInput struct {
	EventID    uuid.UUID
	TicketID   uuid.UUID
	Quantity   int
	GuestName  *string
	GuestEmail *string
	GuestPhone *string
}

// Create places a pending booking with a timed soft hold. Availability is
// checked but not reserved; sold counters are untouched until settlement.
func (s *Service) Create(ctx context.Context, actor *Actor, in CreateInput) (*models.Booking, error) {
	if in.Quantity <= 0 {
		return nil, ErrValidation
	}
	if actor == nil && (in.GuestEmail == nil || *in.GuestEmail == "" || in.GuestName == nil || *in.GuestName == "") {
		return nil, ErrValidation
	}

	db := s.db.WithContext(ctx)

	var ticket models.Ticket
	if err := db.Where("id = ?", in.TicketID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ticket.EventID != in.EventID {
		return nil, ErrValidation
	}

	var event models.Event
	if err := db.Where("id = ?", in.EventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	available, err := CheckAvailability(db, ticket.ID, in.Quantity)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrSoldOut
	}

	booking := models.Booking{
		ID:          uuid.New(),
		EventID:     event.ID,
		TicketID:    ticket.ID,
		Quantity:    in.Quantity,
		TotalAmount: ticket.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Currency:    ticket.Currency,
		Status:      models.BookingPending,
		GuestEmail:  in.GuestEmail,
		GuestName:   in.GuestName,
		GuestPhone:  in.GuestPhone,
		ExpiresAt:   s.now().Add(s.holdWindow),
	}
	if actor != nil {
		id := actor.ID
		booking.UserID = &id
	}

	if err := db.Create(&booking).Error; err != nil {
		return nil, err
	}
	monitoring.BookingCreated()

	return s.Get(ctx, booking.ID)
}

// Get returns one booking with its event and ticket summaries preloaded.
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("Event").Preload("Ticket").
		Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ListForUser returns the caller's bookings, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Event").Preload("Ticket").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListAll returns every booking with user summaries, for the admin screen.
func (s *Service) ListAll(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Event").Preload("Ticket").Preload("User").
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel transitions a booking to cancelled. Pending bookings can be
// cancelled by their owner (or anyone, for guest bookings) and by admins;
// confirmed bookings only by admins, and without restocking inventory.
// Cancelling an already-cancelled booking is a no-op success.
//
// The status check and the update run under the same row lock that payment
// reconciliation takes, so a cancel racing a settlement serializes behind it
// and re-reads the settled status instead of overwriting it.
func (s *Service) Cancel(ctx context.Context, actor *Actor, bookingID uuid.UUID) (*models.Booking, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}

		if booking.UserID != nil && *booking.UserID != actor.ID && !actor.IsAdmin {
			return ErrForbidden
		}

		switch booking.Status {
		case models.BookingCancelled:
			return nil
		case models.BookingPending:
			// fall through
		case models.BookingConfirmed:
			if !actor.IsAdmin {
				return ErrForbidden
			}
		default:
			return ErrInvalidState
		}

		changed = true
		return tx.Model(&models.Booking{}).
			Where("id = ?", bookingID).
			Update("status", models.BookingCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	if changed {
		monitoring.BookingStatusChanged(string(models.BookingCancelled))
	}

	return s.Get(ctx, bookingID)
}
