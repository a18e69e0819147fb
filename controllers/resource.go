// controllers/resource.go
package controllers

import (
	"errors"
	"net/http"

	"beautycrm-backend/config"
	"beautycrm-backend/models"
	"beautycrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateResourceInput struct {
	Name string `json:"name" binding:"required"`
}

type UpdateResourceInput struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

// CreateResource creates a new resource (chair, room, washing station)
func CreateResource(c *gin.Context) {
	var input CreateResourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	resource := models.Resource{
		Name:     input.Name,
		IsActive: true,
	}

	if err := config.DB.Create(&resource).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create resource")
		return
	}

	c.JSON(http.StatusCreated, resource)
}

// GetResources retrieves all resources
func GetResources(c *gin.Context) {
	var resources []models.Resource
	if err := config.DB.Order("name").Find(&resources).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve resources")
		return
	}

	c.JSON(http.StatusOK, resources)
}

// UpdateResource updates an existing resource
func UpdateResource(c *gin.Context) {
	resourceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid resource ID format")
		return
	}

	var input UpdateResourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var resource models.Resource
	if err := config.DB.First(&resource, "id = ?", resourceUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Resource not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		resource.Name = *input.Name
	}
	if input.IsActive != nil {
		resource.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&resource).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update resource")
		return
	}

	c.JSON(http.StatusOK, resource)
}

// DeleteResource removes a resource; bookings keep running without it
func DeleteResource(c *gin.Context) {
	resourceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid resource ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&models.Booking{}).
		Where("resource_id = ?", resourceUUID).
		Update("resource_id", nil).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to detach resource")
		return
	}

	result := tx.Delete(&models.Resource{}, "id = ?", resourceUUID)
	if result.Error != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete resource")
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusNotFound, "Resource not found")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Resource deleted successfully"})
}
