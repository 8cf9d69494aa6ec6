package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description *string         `json:"description"`
	ImageURL    *string         `json:"image_url"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Location    string          `gorm:"not null" json:"location"`
	Category    string          `gorm:"not null" json:"category"`
	MaxCapacity int             `gorm:"not null" json:"max_capacity"`
	TicketsSold int             `gorm:"not null;default:0" json:"tickets_sold"`
	Status      string          `gorm:"not null;default:'active'" json:"status"`
	Currency    string          `gorm:"not null;default:'KSH'" json:"currency"`
	CreatedBy   *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Tickets     []Ticket        `gorm:"constraint:OnDelete:CASCADE" json:"tickets,omitempty"`
	Revenue     decimal.Decimal `gorm:"-" json:"revenue"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
