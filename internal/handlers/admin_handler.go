package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/booking"
	"github.com/tikitihq/tikiti/internal/helpers"
	"github.com/tikitihq/tikiti/internal/models"
)

type AdminHandler struct {
	svc     *booking.Service
	sweeper *booking.Sweeper
}

func NewAdminHandler(svc *booking.Service, sweeper *booking.Sweeper) *AdminHandler {
	return &AdminHandler{svc: svc, sweeper: sweeper}
}

type adminBookingResponse struct {
	models.Booking
	UserSummary *models.UserSummary `json:"user,omitempty"`
}

func (h *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		respondBookingError(c, err)
		return
	}

	responses := make([]adminBookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp := adminBookingResponse{Booking: b}
		if b.User != nil {
			summary := b.User.Summary()
			resp.UserSummary = &summary
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, responses)
}

// Sweep lets an operator trigger the expiry sweep outside the background
// schedule. The sweep is idempotent, so redundant triggers are harmless.
func (h *AdminHandler) Sweep(c *gin.Context) {
	count, err := h.sweeper.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to sweep expired bookings.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"expired": count})
}

type topEventRow struct {
	ID      uuid.UUID       `json:"id"`
	Title   string          `json:"title"`
	Revenue decimal.Decimal `json:"revenue"`
	Tickets int64           `json:"tickets"`
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var totalEvents, upcomingEvents, bookingsToday int64
	var ticketsSold int64
	var totalRevenue decimal.Decimal

	if err := gormDB.Model(&models.Event{}).Count(&totalEvents).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}
	if err := gormDB.Model(&models.Event{}).Where("date >= ?", time.Now()).Count(&upcomingEvents).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}
	if err := gormDB.Model(&models.Event{}).
		Select("COALESCE(SUM(tickets_sold), 0)").Scan(&ticketsSold).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}
	if err := gormDB.Model(&models.Payment{}).Where("status = ?", "success").
		Select("COALESCE(SUM(amount), 0)").Scan(&totalRevenue).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}
	if err := gormDB.Model(&models.Booking{}).
		Where("created_at >= ?", time.Now().Truncate(24*time.Hour)).
		Count(&bookingsToday).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}

	var topEvents []topEventRow
	err := gormDB.Table("events").
		Select(`events.id, events.title,
			COALESCE(SUM(payments.amount), 0) AS revenue,
			COALESCE(SUM(bookings.quantity), 0) AS tickets`).
		Joins("LEFT JOIN bookings ON bookings.event_id = events.id AND bookings.status IN ?",
			[]models.BookingStatus{models.BookingConfirmed, models.BookingPending}).
		Joins("LEFT JOIN payments ON payments.booking_id = bookings.id AND payments.status = ?", "success").
		Group("events.id, events.title").
		Order("revenue DESC").
		Limit(5).
		Scan(&topEvents).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalEvents":    totalEvents,
		"upcomingEvents": upcomingEvents,
		"ticketsSold":    ticketsSold,
		"totalRevenue":   totalRevenue,
		"bookingsToday":  bookingsToday,
		"topEvents":      topEvents,
	})
}
