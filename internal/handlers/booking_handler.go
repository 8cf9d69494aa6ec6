package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tikitihq/tikiti/internal/booking"
	"github.com/tikitihq/tikiti/internal/helpers"
)

type BookingHandler struct {
	svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type CreateBookingRequest struct {
	EventID    uuid.UUID `json:"event_id" binding:"required"`
	TicketID   uuid.UUID `json:"ticket_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
	GuestName  *string   `json:"guest_name"`
	GuestEmail *string   `json:"guest_email"`
	GuestPhone *string   `json:"guest_phone"`
}

// currentActor builds the caller identity from the auth middleware's context
// values. Returns nil for guests.
func currentActor(c *gin.Context) *booking.Actor {
	userID, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return nil
	}
	return &booking.Actor{
		ID:      id,
		Email:   c.GetString("email"),
		IsAdmin: c.GetBool("is_admin"),
	}
}

// respondBookingError maps the booking package's sentinel errors onto HTTP
// statuses; anything unrecognized is an internal error.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
	case errors.Is(err, booking.ErrNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Resource not found.")
	case errors.Is(err, booking.ErrSoldOut):
		helpers.RespondWithError(c, http.StatusConflict, "Not enough tickets available.")
	case errors.Is(err, booking.ErrCapacityExceeded):
		helpers.RespondWithError(c, http.StatusConflict, "Ticket capacity exceeded.")
	case errors.Is(err, booking.ErrInvalidState):
		helpers.RespondWithError(c, http.StatusConflict, "Booking is not in a valid state for this operation.")
	case errors.Is(err, booking.ErrBookingExpired):
		helpers.RespondWithError(c, http.StatusConflict, "Booking hold has expired.")
	case errors.Is(err, booking.ErrForbidden):
		helpers.RespondWithError(c, http.StatusForbidden, "Not allowed to act on this booking.")
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Internal server error.")
	}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required booking fields.")
		return
	}

	created, err := h.svc.Create(c.Request.Context(), currentActor(c), booking.CreateInput{
		EventID:    req.EventID,
		TicketID:   req.TicketID,
		Quantity:   req.Quantity,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) Get(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	found, err := h.svc.Get(c.Request.Context(), bookingID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Authentication required.")
		return
	}

	bookings, err := h.svc.ListForUser(c.Request.Context(), actor.ID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	cancelled, err := h.svc.Cancel(c.Request.Context(), currentActor(c), bookingID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

// Confirm is the admin force-confirm route; it settles the booking without a
// payment record, through the same atomic unit as payment reconciliation.
func (h *BookingHandler) Confirm(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	confirmed, err := h.svc.Confirm(c.Request.Context(), bookingID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	invalidateEvents(c)

	c.JSON(http.StatusOK, confirmed)
}
