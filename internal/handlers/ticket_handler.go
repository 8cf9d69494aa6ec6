package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/helpers"
	"github.com/tikitihq/tikiti/internal/models"
)

type TicketRequest struct {
	EventID           uuid.UUID       `json:"event_id" binding:"required"`
	Type              string          `json:"type"`
	Name              string          `json:"name" binding:"required"`
	Description       *string         `json:"description"`
	// No binding tag on Price: "required" rejects the zero value, and a
	// zero price is a valid free ticket. Negativity is checked explicitly.
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	QuantityAvailable int             `json:"quantity_available" binding:"required,min=1"`
}

func CreateTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required ticket fields.")
		return
	}
	if req.Price.IsNegative() {
		helpers.RespondWithError(c, http.StatusBadRequest, "Ticket price cannot be negative.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ?", req.EventID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	ticket := models.Ticket{
		ID:                uuid.New(),
		EventID:           req.EventID,
		Type:              req.Type,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		Currency:          req.Currency,
		QuantityAvailable: req.QuantityAvailable,
	}
	if ticket.Type == "" {
		ticket.Type = "regular"
	}
	if ticket.Currency == "" {
		ticket.Currency = event.Currency
	}

	if err := gormDB.Create(&ticket).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket.")
		return
	}

	invalidateEvents(c)

	c.JSON(http.StatusCreated, ticket)
}

func GetTicket(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticket models.Ticket
	if err := gormDB.Where("id = ?", c.Param("id")).First(&ticket).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket.")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func UpdateTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required ticket fields.")
		return
	}
	if req.Price.IsNegative() {
		helpers.RespondWithError(c, http.StatusBadRequest, "Ticket price cannot be negative.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticket models.Ticket
	if err := gormDB.Where("id = ?", c.Param("id")).First(&ticket).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}

	ticket.Name = req.Name
	ticket.Description = req.Description
	ticket.Price = req.Price
	if req.Type != "" {
		ticket.Type = req.Type
	}
	if req.Currency != "" {
		ticket.Currency = req.Currency
	}
	ticket.QuantityAvailable = req.QuantityAvailable

	if err := gormDB.Save(&ticket).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update ticket.")
		return
	}

	invalidateEvents(c)

	c.JSON(http.StatusOK, ticket)
}

func DeleteTicket(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	if err := gormDB.Where("id = ?", c.Param("id")).Delete(&models.Ticket{}).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete ticket.")
		return
	}

	invalidateEvents(c)

	c.Status(http.StatusNoContent)
}
