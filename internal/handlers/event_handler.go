package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/helpers"
	"github.com/tikitihq/tikiti/internal/middleware"
	"github.com/tikitihq/tikiti/internal/models"
)

type EventRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Date        string  `json:"date" binding:"required"`
	Location    string  `json:"location" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	MaxCapacity int     `json:"max_capacity" binding:"required,min=1"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
}

type eventRevenueRow struct {
	EventID uuid.UUID
	Revenue decimal.Decimal
}

func loadEventRevenues(gormDB *gorm.DB, eventIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []eventRevenueRow
	query := gormDB.Table("payments").
		Select("bookings.event_id AS event_id, COALESCE(SUM(payments.amount), 0) AS revenue").
		Joins("INNER JOIN bookings ON bookings.id = payments.booking_id").
		Where("payments.status = ?", "success").
		Group("bookings.event_id")
	if len(eventIDs) > 0 {
		query = query.Where("bookings.event_id IN ?", eventIDs)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	revenues := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		revenues[row.EventID] = row.Revenue
	}
	return revenues, nil
}

func ListEvents(c *gin.Context) {
	eventsCache := middleware.GetEventsCache(c)
	if eventsCache != nil {
		if payload, ok := eventsCache.GetList(c.Request.Context()); ok {
			c.Data(http.StatusOK, "application/json", payload)
			return
		}
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var events []models.Event
	if err := gormDB.Preload("Tickets", func(db *gorm.DB) *gorm.DB {
		return db.Order("tickets.price ASC")
	}).Order("date ASC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load events.")
		return
	}

	revenues, err := loadEventRevenues(gormDB, nil)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load event revenue.")
		return
	}
	for i := range events {
		events[i].Revenue = revenues[events[i].ID]
	}

	if eventsCache != nil {
		if payload, err := json.Marshal(events); err == nil {
			eventsCache.SetList(c.Request.Context(), payload)
		}
	}

	c.JSON(http.StatusOK, events)
}

func GetEvent(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Preload("Tickets").Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	revenues, err := loadEventRevenues(gormDB, []uuid.UUID{event.ID})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load event revenue.")
		return
	}
	event.Revenue = revenues[event.ID]

	c.JSON(http.StatusOK, event)
}

func CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required fields.")
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date format.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	creatorID := userID.(uuid.UUID)

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	event := models.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Date:        date,
		Location:    req.Location,
		Category:    req.Category,
		MaxCapacity: req.MaxCapacity,
		Status:      req.Status,
		Currency:    req.Currency,
		CreatedBy:   &creatorID,
	}
	if event.Status == "" {
		event.Status = "active"
	}
	if event.Currency == "" {
		event.Currency = "KSH"
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	invalidateEvents(c)

	c.JSON(http.StatusCreated, event)
}

func UpdateEvent(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Where("id = ?", eventID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Missing required fields.")
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date format.")
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.ImageURL = req.ImageURL
	event.Date = date
	event.Location = req.Location
	event.Category = req.Category
	event.MaxCapacity = req.MaxCapacity
	if req.Status != "" {
		event.Status = req.Status
	}
	if req.Currency != "" {
		event.Currency = req.Currency
	}

	if err := gormDB.Save(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	invalidateEvents(c)

	c.JSON(http.StatusOK, event)
}

func DeleteEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	if err := gormDB.Select("Tickets").Delete(&models.Event{ID: eventID}).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	invalidateEvents(c)

	c.Status(http.StatusNoContent)
}

func invalidateEvents(c *gin.Context) {
	if eventsCache := middleware.GetEventsCache(c); eventsCache != nil {
		eventsCache.Invalidate(c.Request.Context())
	}
}
