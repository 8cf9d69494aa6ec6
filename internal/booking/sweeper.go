package booking

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/models"
	"github.com/tikitihq/tikiti/internal/monitoring"
)

// DefaultSweepInterval is how often the background sweeper wakes up.
const DefaultSweepInterval = time.Minute

// Sweeper expires overdue pending bookings. Holds are soft, so expiry is a
// pure status cleanup; no inventory is returned. The status guard in the
// update makes the sweep idempotent, and it is safe to trigger it from the
// background loop and the admin endpoint at the same time.
type Sweeper struct {
	db       *gorm.DB
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(db *gorm.DB, interval time.Duration, now func() time.Time) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Sweeper{db: db, interval: interval, now: now}
}

// Sweep expires every pending booking whose hold window lapsed before now
// and returns how many rows changed.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND expires_at < ?", models.BookingPending, now).
		Update("status", models.BookingExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		monitoring.BookingsExpired(result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// Run loops Sweep on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("expiry sweeper started, interval %s", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("expiry sweeper stopped")
			return
		case <-ticker.C:
			count, err := s.Sweep(ctx, s.now())
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("expired %d overdue bookings", count)
			}
		}
	}
}
