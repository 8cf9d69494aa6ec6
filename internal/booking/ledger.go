package booking

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/models"
)

// CheckAvailability reports whether qty units of the ticket type are still
// sellable. The answer is advisory: pending bookings do not reserve stock, so
// two callers can both see availability and race at CommitSale. CommitSale is
// the only place the ceiling is enforced.
func CheckAvailability(db *gorm.DB, ticketID uuid.UUID, qty int) (bool, error) {
	var ticket models.Ticket
	if err := db.Select("quantity_available").Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	return ticket.QuantityAvailable >= qty, nil
}

// CommitSale moves qty units from the available pool to the sold count and
// bumps the parent event's aggregate. It is the single mutating entry point
// for inventory counters and must run inside the caller's transaction.
//
// The ceiling is enforced by the guarded conditional update: when another
// settlement has already drained the pool, zero rows match and the caller
// gets ErrCapacityExceeded.
func CommitSale(tx *gorm.DB, ticketID, eventID uuid.UUID, qty int) error {
	result := tx.Model(&models.Ticket{}).
		Where("id = ? AND quantity_available >= ?", ticketID, qty).
		Updates(map[string]interface{}{
			"quantity_sold":      gorm.Expr("quantity_sold + ?", qty),
			"quantity_available": gorm.Expr("quantity_available - ?", qty),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCapacityExceeded
	}

	return tx.Model(&models.Event{}).
		Where("id = ?", eventID).
		Update("tickets_sold", gorm.Expr("tickets_sold + ?", qty)).Error
}
