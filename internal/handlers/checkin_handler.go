package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/helpers"
	"github.com/tikitihq/tikiti/internal/models"
)

func generateQRCodeData(booking *models.Booking) string {
	secretKey := os.Getenv("JWT_SECRET")
	signature := generateSignature(booking.ID, booking.TicketID, booking.EventID, secretKey)
	return fmt.Sprintf("booking:%s;ticket:%s;event:%s;signature:%s",
		booking.ID.String(),
		booking.TicketID.String(),
		booking.EventID.String(),
		signature,
	)
}

func generateSignature(bookingID, ticketID, eventID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%s:%s", bookingID.String(), ticketID.String(), eventID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func extractBookingIDFromQRData(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 4 || !strings.HasPrefix(parts[0], "booking:") || !strings.HasPrefix(parts[3], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "booking:"))
}

func validateQRCodeSignature(booking *models.Booking, qrData string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 4 || !strings.HasPrefix(parts[3], "signature:") {
		return false
	}

	secretKey := os.Getenv("JWT_SECRET")
	signature := strings.TrimPrefix(parts[3], "signature:")
	expectedSignature := generateSignature(booking.ID, booking.TicketID, booking.EventID, secretKey)
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}

// GenerateBookingQR renders the check-in QR for a confirmed booking. Only the
// booking's owner or an admin may fetch it.
func GenerateBookingQR(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var booking models.Booking
	if err := gormDB.Where("id = ?", bookingID).First(&booking).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
		return
	}

	callerID, _ := userID.(uuid.UUID)
	isOwner := booking.UserID != nil && *booking.UserID == callerID
	if !isOwner && !c.GetBool("is_admin") {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to generate a QR code for this booking.")
		return
	}

	if booking.Status != models.BookingConfirmed {
		helpers.RespondWithError(c, http.StatusConflict, "Booking is not confirmed.")
		return
	}
	if booking.CheckedInAt != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "Booking already checked in.")
		return
	}

	qrImage, err := qrcode.Encode(generateQRCodeData(&booking), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

// CheckIn validates a scanned QR and marks the booking as checked in, once.
func CheckIn(c *gin.Context) {
	var validationRequest struct {
		QRData string `json:"qr_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&validationRequest); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	bookingID, err := extractBookingIDFromQRData(validationRequest.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var booking models.Booking
	if err := gormDB.Preload("Event").Preload("Ticket").Where("id = ?", bookingID).First(&booking).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Booking not found.")
		return
	}

	if !validateQRCodeSignature(&booking, validationRequest.QRData) {
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature.")
		return
	}

	if booking.Status != models.BookingConfirmed {
		helpers.RespondWithError(c, http.StatusConflict, "Booking is not confirmed.")
		return
	}
	// Guarded update so two scanners racing on the same QR admit only one.
	result := gormDB.Model(&models.Booking{}).
		Where("id = ? AND checked_in_at IS NULL", booking.ID).
		Update("checked_in_at", time.Now())
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to check in booking.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusForbidden, "Booking already checked in.")
		return
	}

	response := gin.H{
		"message":  "Booking checked in successfully.",
		"quantity": booking.Quantity,
	}
	if booking.Event != nil {
		response["event_title"] = booking.Event.Title
	}
	if booking.Ticket != nil {
		response["ticket_name"] = booking.Ticket.Name
	}

	c.JSON(http.StatusOK, response)
}
