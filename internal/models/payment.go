package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment records a claimed successful payment for exactly one booking. The
// unique index on BookingID is what keeps a booking from settling twice.
type Payment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BookingID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	Booking          *Booking        `json:"-"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string          `gorm:"not null" json:"currency"`
	PaymentMethod    string          `gorm:"not null" json:"payment_method"`
	PaymentReference *string         `json:"payment_reference"`
	TransactionID    *string         `json:"transaction_id"`
	Status           string          `gorm:"not null;default:'success'" json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}
