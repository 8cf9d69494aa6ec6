package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ticket is one sellable ticket type of an event. QuantityAvailable is the
// remaining unsold pool and QuantitySold the cumulative committed sales; both
// columns are mutated only by the inventory ledger, never by handlers.
// Capacity for the type is QuantityAvailable + QuantitySold.
type Ticket struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	EventID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"event_id"`
	Event             *Event          `json:"-"`
	Type              string          `gorm:"not null;default:'regular'" json:"type"`
	Name              string          `gorm:"not null" json:"name"`
	Description       *string         `json:"description"`
	Price             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Currency          string          `gorm:"not null;default:'KSH'" json:"currency"`
	QuantityAvailable int             `gorm:"not null" json:"quantity_available"`
	QuantitySold      int             `gorm:"not null;default:0" json:"quantity_sold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
