package booking_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/booking"
	"github.com/tikitihq/tikiti/internal/models"
)

// testDB connects to the database named by TEST_DATABASE_DSN and resets the
// schema. Tests that need a real database skip when the variable is unset.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database-backed test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}, &models.Ticket{}, &models.Booking{}, &models.Payment{}))
	require.NoError(t, db.Exec("TRUNCATE payments, bookings, tickets, events, users CASCADE").Error)

	return db
}

func seedTicket(t *testing.T, db *gorm.DB, available, sold int, price int64) models.Ticket {
	t.Helper()

	event := models.Event{
		Title:       "Sauti Sol Live",
		Date:        time.Now().Add(30 * 24 * time.Hour),
		Location:    "Nairobi",
		Category:    "concert",
		MaxCapacity: available + sold,
		TicketsSold: sold,
		Status:      "active",
		Currency:    "KSH",
	}
	require.NoError(t, db.Create(&event).Error)

	ticket := models.Ticket{
		EventID:           event.ID,
		Name:              "Regular",
		Price:             decimal.NewFromInt(price),
		Currency:          "KSH",
		QuantityAvailable: available,
		QuantitySold:      sold,
	}
	require.NoError(t, db.Create(&ticket).Error)

	return ticket
}

func reloadTicket(t *testing.T, db *gorm.DB, id interface{}) models.Ticket {
	t.Helper()
	var ticket models.Ticket
	require.NoError(t, db.Where("id = ?", id).First(&ticket).Error)
	return ticket
}

func countPayments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	return count
}

func TestCreateAndRecordPayment(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)

	guestName := "Wanjiku"
	guestEmail := "wanjiku@example.com"
	created, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID:    ticket.EventID,
		TicketID:   ticket.ID,
		Quantity:   3,
		GuestName:  &guestName,
		GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, created.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(created.TotalAmount), "total should be quantity x price")
	assert.WithinDuration(t, time.Now().Add(booking.DefaultHoldWindow), created.ExpiresAt, time.Minute)

	// Creation left the counters alone: a hold is soft.
	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 0, reloaded.QuantitySold)
	assert.Equal(t, 10, reloaded.QuantityAvailable)

	payment, err := svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID:     created.ID,
		Amount:        decimal.NewFromInt(300),
		Currency:      "KSH",
		PaymentMethod: "mpesa",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", payment.Status)

	confirmed, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	reloaded = reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 3, reloaded.QuantitySold)
	assert.Equal(t, 7, reloaded.QuantityAvailable)

	var event models.Event
	require.NoError(t, db.Where("id = ?", ticket.EventID).First(&event).Error)
	assert.Equal(t, 3, event.TicketsSold)
}

func TestCreateValidation(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 5, 0, 100)
	guestName := "Achieng"
	guestEmail := "achieng@example.com"

	_, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 0,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	assert.ErrorIs(t, err, booking.ErrValidation)

	// Guests must leave contact details.
	_, err = svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, booking.ErrValidation)

	// More than the remaining pool is an immediate sold-out.
	_, err = svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 6,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	assert.ErrorIs(t, err, booking.ErrSoldOut)
}

// Two pending holds can over-subscribe the last unit; settlement must let
// exactly one through.
func TestConcurrentSettlementOfLastUnit(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 1, 9, 100)
	guestName := "Njeri"
	guestEmail := "njeri@example.com"

	var holds [2]*models.Booking
	for i := range holds {
		created, err := svc.Create(ctx, nil, booking.CreateInput{
			EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 1,
			GuestName: &guestName, GuestEmail: &guestEmail,
		})
		require.NoError(t, err, "soft holds may over-subscribe")
		holds[i] = created
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range holds {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordPayment(ctx, booking.PaymentInput{
				BookingID:     holds[i].ID,
				Amount:        decimal.NewFromInt(100),
				Currency:      "KSH",
				PaymentMethod: "card",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, capacity int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, booking.ErrCapacityExceeded):
			capacity++
		default:
			t.Fatalf("unexpected settlement error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, capacity)

	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 10, reloaded.QuantitySold)
	assert.Equal(t, 0, reloaded.QuantityAvailable)
	assert.Equal(t, int64(1), countPayments(t, db))
}

// The losing side of a capacity race must leave no trace: no payment row, no
// counter movement, booking still pending.
func TestReconciliationRollsBackOnCapacityFailure(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 1, 0, 100)
	guestName := "Otieno"
	guestEmail := "otieno@example.com"

	hold, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 1,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	// Drain the pool behind the hold's back.
	require.NoError(t, db.Model(&models.Ticket{}).Where("id = ?", ticket.ID).
		Updates(map[string]interface{}{"quantity_available": 0, "quantity_sold": 1}).Error)

	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID:     hold.ID,
		Amount:        decimal.NewFromInt(100),
		Currency:      "KSH",
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, booking.ErrCapacityExceeded)

	assert.Equal(t, int64(0), countPayments(t, db))
	after, err := svc.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, after.Status)

	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 1, reloaded.QuantitySold)
	assert.Equal(t, 0, reloaded.QuantityAvailable)
}

func TestConcurrentSettlementOfSameBooking(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)
	guestName := "Kamau"
	guestEmail := "kamau@example.com"

	hold, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 2,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordPayment(ctx, booking.PaymentInput{
				BookingID:     hold.ID,
				Amount:        decimal.NewFromInt(200),
				Currency:      "KSH",
				PaymentMethod: "mpesa",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, booking.ErrInvalidState):
			rejected++
		default:
			t.Fatalf("unexpected settlement error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one settlement wins the row lock")
	assert.Equal(t, 1, rejected, "the loser observes the booking already confirmed")

	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 2, reloaded.QuantitySold, "inventory committed exactly once")
	assert.Equal(t, int64(1), countPayments(t, db))
}

func TestConcurrentCancelAndSettlement(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)
	guestName := "Njeri"
	guestEmail := "njeri@example.com"

	hold, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 2,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	caller := &booking.Actor{ID: uuid.New(), Email: "njeri@example.com"}

	var cancelErr, settleErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = svc.Cancel(ctx, caller, hold.ID)
	}()
	go func() {
		defer wg.Done()
		_, settleErr = svc.RecordPayment(ctx, booking.PaymentInput{
			BookingID:     hold.ID,
			Amount:        decimal.NewFromInt(200),
			Currency:      "KSH",
			PaymentMethod: "mpesa",
		})
	}()
	wg.Wait()

	final, err := svc.Get(ctx, hold.ID)
	require.NoError(t, err)
	reloaded := reloadTicket(t, db, ticket.ID)

	switch final.Status {
	case models.BookingConfirmed:
		require.NoError(t, settleErr)
		assert.ErrorIs(t, cancelErr, booking.ErrForbidden, "non-admin cancel loses to a committed settlement")
		assert.Equal(t, int64(1), countPayments(t, db))
		assert.Equal(t, 2, reloaded.QuantitySold)
	case models.BookingCancelled:
		require.NoError(t, cancelErr)
		assert.ErrorIs(t, settleErr, booking.ErrInvalidState, "settlement observes the cancelled booking")
		assert.Equal(t, int64(0), countPayments(t, db), "a cancelled booking never carries a payment")
		assert.Equal(t, 0, reloaded.QuantitySold, "a cancelled booking never commits inventory")
	default:
		t.Fatalf("booking ended in unexpected status %q", final.Status)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)
	guestName := "Zawadi"
	guestEmail := "zawadi@example.com"

	hold, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 3,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(250), Currency: "KSH", PaymentMethod: "mpesa",
	})
	assert.ErrorIs(t, err, booking.ErrValidation, "amount must match the booking total")

	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(300), Currency: "USD", PaymentMethod: "mpesa",
	})
	assert.ErrorIs(t, err, booking.ErrValidation, "currency must match the booking")

	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(300), Currency: "KSH", PaymentMethod: "",
	})
	assert.ErrorIs(t, err, booking.ErrValidation)

	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(300), Currency: "KSH", PaymentMethod: "mpesa",
	})
	assert.NoError(t, err)
}

func TestRecordPaymentUnknownBooking(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})

	_, err := svc.RecordPayment(context.Background(), booking.PaymentInput{
		BookingID:     uuid.New(),
		Amount:        decimal.NewFromInt(100),
		Currency:      "KSH",
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestSweepExpiresOverdueHolds(t *testing.T) {
	db := testDB(t)

	// Backdate the clock so the hold is created already lapsed.
	past := time.Now().Add(-time.Hour)
	svc := booking.NewService(db, booking.Config{Now: func() time.Time { return past }})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)
	guestName := "Baraka"
	guestEmail := "baraka@example.com"

	hold, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 1,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	// A lapsed pending booking that no one swept yet is rejected at settlement.
	live := booking.NewService(db, booking.Config{})
	_, err = live.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(100), Currency: "KSH", PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, booking.ErrBookingExpired)

	sweeper := booking.NewSweeper(db, 0, nil)
	now := time.Now()

	count, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	swept, err := live.Get(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingExpired, swept.Status)

	// Sweeping again with the same clock is a no-op.
	count, err = sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Once expired, settlement is rejected as a state error.
	_, err = live.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(100), Currency: "KSH", PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, booking.ErrInvalidState)

	// Expiry never touches inventory; holds are soft.
	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 0, reloaded.QuantitySold)
	assert.Equal(t, 10, reloaded.QuantityAvailable)
}

func TestCancelLifecycle(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)

	owner := models.User{Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	stranger := models.User{Email: "stranger@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&stranger).Error)

	actor := &booking.Actor{ID: owner.ID, Email: owner.Email}
	hold, err := svc.Create(ctx, actor, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, &booking.Actor{ID: stranger.ID}, hold.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)

	cancelled, err := svc.Cancel(ctx, actor, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	// Cancelling again is a no-op success.
	again, err := svc.Cancel(ctx, actor, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, again.Status)

	// A cancelled booking cannot be settled.
	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(100), Currency: "KSH", PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, booking.ErrInvalidState)
}

func TestCancelConfirmedRequiresAdmin(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)

	owner := models.User{Email: "owner2@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)

	actor := &booking.Actor{ID: owner.ID, Email: owner.Email}
	hold, err := svc.Create(ctx, actor, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, booking.PaymentInput{
		BookingID: hold.ID, Amount: decimal.NewFromInt(100), Currency: "KSH", PaymentMethod: "card",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, actor, hold.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden, "owners cannot cancel a confirmed booking")

	admin := &booking.Actor{ID: owner.ID, IsAdmin: true}
	cancelled, err := svc.Cancel(ctx, admin, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	// Admin cancellation of a confirmed booking does not restock.
	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 1, reloaded.QuantitySold)
	assert.Equal(t, 9, reloaded.QuantityAvailable)
}

func TestAdminForceConfirmCommitsInventory(t *testing.T) {
	db := testDB(t)
	svc := booking.NewService(db, booking.Config{})
	ctx := context.Background()

	ticket := seedTicket(t, db, 10, 0, 100)
	guestName := "Amani"
	guestEmail := "amani@example.com"

	hold, err := svc.Create(ctx, nil, booking.CreateInput{
		EventID: ticket.EventID, TicketID: ticket.ID, Quantity: 4,
		GuestName: &guestName, GuestEmail: &guestEmail,
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	reloaded := reloadTicket(t, db, ticket.ID)
	assert.Equal(t, 4, reloaded.QuantitySold)
	assert.Equal(t, 6, reloaded.QuantityAvailable)
	assert.Equal(t, int64(0), countPayments(t, db), "force-confirm records no payment")

	_, err = svc.Confirm(ctx, hold.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidState)
}
