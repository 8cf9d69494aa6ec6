package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingExpired
}

// Booking is a timed soft hold against one ticket type. A pending booking
// does not decrement inventory; counters move only when the booking is
// confirmed through payment reconciliation or an admin force-confirm.
type Booking struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	User        *User           `json:"-"`
	EventID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Event       *Event          `json:"events,omitempty"`
	TicketID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Ticket      *Ticket         `json:"tickets,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency    string          `gorm:"not null" json:"currency"`
	Status      BookingStatus   `gorm:"not null;default:'pending';index" json:"status"`
	GuestEmail  *string         `json:"guest_email"`
	GuestName   *string         `json:"guest_name"`
	GuestPhone  *string         `json:"guest_phone"`
	ExpiresAt   time.Time       `gorm:"not null;index" json:"expires_at"`
	CheckedInAt *time.Time      `json:"checked_in_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (booking *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return
}
