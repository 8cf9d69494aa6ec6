package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tikitihq/tikiti/internal/booking"
	"github.com/tikitihq/tikiti/internal/helpers"
)

type PaymentHandler struct {
	svc *booking.Service
}

func NewPaymentHandler(svc *booking.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type PaymentRequest struct {
	BookingID        uuid.UUID       `json:"booking_id" binding:"required"`
	// Amount carries no "required" tag so a zero amount, valid for free
	// tickets, still binds; the service checks it against the booking total.
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" binding:"required"`
	PaymentMethod    string          `json:"payment_method" binding:"required"`
	PaymentReference *string         `json:"payment_reference"`
	TransactionID    *string         `json:"transaction_id"`
}

// Create records a claimed payment outcome and runs the reconciliation unit.
// There is no gateway integration behind this; the caller is trusted to have
// collected the money and retries idempotently keyed by booking ID.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required payment fields.")
		return
	}

	payment, err := h.svc.RecordPayment(c.Request.Context(), booking.PaymentInput{
		BookingID:        req.BookingID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		TransactionID:    req.TransactionID,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	invalidateEvents(c)

	c.JSON(http.StatusCreated, payment)
}
