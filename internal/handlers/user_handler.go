package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tikitihq/tikiti/internal/helpers"
	"github.com/tikitihq/tikiti/internal/models"
)

type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

type AddPointsRequest struct {
	Points int `json:"points"`
}

func canAccessUser(c *gin.Context, targetID string) bool {
	userID, exists := c.Get("user_id")
	if !exists {
		return false
	}
	if c.GetBool("is_admin") {
		return true
	}
	id, ok := userID.(uuid.UUID)
	return ok && id.String() == targetID
}

func GetUser(c *gin.Context) {
	if !canAccessUser(c, c.Param("id")) {
		helpers.RespondWithError(c, http.StatusForbidden, "Not authorized to view this profile.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var user models.User
	if err := gormDB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	c.JSON(http.StatusOK, user)
}

func UpdateUser(c *gin.Context) {
	if !canAccessUser(c, c.Param("id")) {
		helpers.RespondWithError(c, http.StatusForbidden, "Not authorized to update this profile.")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var user models.User
	if err := gormDB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	user.FullName = req.FullName
	user.Phone = req.Phone

	if err := gormDB.Save(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile.")
		return
	}

	c.JSON(http.StatusOK, user)
}

// AddPoints is an admin action awarding loyalty points to a user.
func AddPoints(c *gin.Context) {
	var req AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	result := gormDB.Model(&models.User{}).
		Where("id = ?", c.Param("id")).
		Update("points", gorm.Expr("points + ?", req.Points))
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update points.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	var user models.User
	if err := gormDB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to load user.")
		return
	}

	c.JSON(http.StatusOK, user)
}
