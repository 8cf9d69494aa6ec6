package booking

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tikitihq/tikiti/internal/models"
	"github.com/tikitihq/tikiti/internal/monitoring"
)

type PaymentInput struct {
	BookingID        uuid.UUID
	Amount           decimal.Decimal
	Currency         string
	PaymentMethod    string
	PaymentReference *string
	TransactionID    *string
}

// RecordPayment is the reconciliation unit: it records the claimed payment,
// confirms the booking and commits the inventory sale as one transaction.
// The booking row is locked for the whole unit so concurrent settlements of
// the same booking serialize; the loser finds the booking no longer pending
// and is rejected with ErrInvalidState.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	if in.PaymentMethod == "" || in.Currency == "" {
		return nil, ErrValidation
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, in.BookingID)
		if err != nil {
			return err
		}
		if err := s.guardSettlement(booking); err != nil {
			return err
		}
		if !in.Amount.Equal(booking.TotalAmount) || in.Currency != booking.Currency {
			return ErrValidation
		}

		payment = models.Payment{
			ID:               uuid.New(),
			BookingID:        booking.ID,
			Amount:           in.Amount,
			Currency:         in.Currency,
			PaymentMethod:    in.PaymentMethod,
			PaymentReference: in.PaymentReference,
			TransactionID:    in.TransactionID,
			Status:           "success",
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return s.confirmLocked(tx, booking)
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			// Money has notionally moved outside the system; this needs
			// manual reconciliation, so make sure it is visible in the logs.
			log.Printf("payment rejected for booking %s: %v", in.BookingID, err)
			monitoring.CapacityRejected()
		}
		return nil, err
	}

	monitoring.PaymentRecorded()
	monitoring.BookingStatusChanged(string(models.BookingConfirmed))
	return &payment, nil
}

// Confirm is the admin force-confirm path. It runs the same atomic unit as
// RecordPayment minus the payment row, so the inventory invariant still has
// a single enforcement point.
func (s *Service) Confirm(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := s.guardSettlement(booking); err != nil {
			return err
		}
		return s.confirmLocked(tx, booking)
	})
	if err != nil {
		return nil, err
	}

	monitoring.BookingStatusChanged(string(models.BookingConfirmed))
	return s.Get(ctx, bookingID)
}

// lockBooking acquires the booking row for update for the duration of the
// surrounding transaction.
func lockBooking(tx *gorm.DB, bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// guardSettlement rejects settlement of bookings that are no longer pending
// or whose hold window has lapsed. Lapsed holds are left for the sweeper.
func (s *Service) guardSettlement(booking *models.Booking) error {
	if booking.Status != models.BookingPending {
		return ErrInvalidState
	}
	if s.now().After(booking.ExpiresAt) {
		return ErrBookingExpired
	}
	return nil
}

func (s *Service) confirmLocked(tx *gorm.DB, booking *models.Booking) error {
	err := tx.Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Update("status", models.BookingConfirmed).Error
	if err != nil {
		return err
	}
	return CommitSale(tx, booking.TicketID, booking.EventID, booking.Quantity)
}
