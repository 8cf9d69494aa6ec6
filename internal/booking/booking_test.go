package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tikitihq/tikiti/internal/models"
)

func TestBookingStatusIsTerminal(t *testing.T) {
	assert.False(t, models.BookingPending.IsTerminal())
	assert.True(t, models.BookingConfirmed.IsTerminal())
	assert.True(t, models.BookingCancelled.IsTerminal())
	assert.True(t, models.BookingExpired.IsTerminal())
}

func TestGuardSettlement(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(nil, Config{Now: func() time.Time { return now }})

	tests := []struct {
		name    string
		booking models.Booking
		wantErr error
	}{
		{
			name:    "pending and unexpired",
			booking: models.Booking{Status: models.BookingPending, ExpiresAt: now.Add(time.Minute)},
			wantErr: nil,
		},
		{
			name:    "pending but past hold window",
			booking: models.Booking{Status: models.BookingPending, ExpiresAt: now.Add(-time.Minute)},
			wantErr: ErrBookingExpired,
		},
		{
			name:    "already confirmed",
			booking: models.Booking{Status: models.BookingConfirmed, ExpiresAt: now.Add(time.Minute)},
			wantErr: ErrInvalidState,
		},
		{
			name:    "cancelled",
			booking: models.Booking{Status: models.BookingCancelled, ExpiresAt: now.Add(time.Minute)},
			wantErr: ErrInvalidState,
		},
		{
			name:    "expired by the sweeper",
			booking: models.Booking{Status: models.BookingExpired, ExpiresAt: now.Add(-time.Hour)},
			wantErr: ErrInvalidState,
		},
		{
			name:    "exactly at the deadline still settles",
			booking: models.Booking{Status: models.BookingPending, ExpiresAt: now},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.guardSettlement(&tt.booking)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(nil, Config{})
	assert.Equal(t, DefaultHoldWindow, svc.holdWindow)
	assert.NotNil(t, svc.now)
}
