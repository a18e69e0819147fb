// controllers/master.go
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

// CreateMasterInput defines the expected JSON structure for creating a master
type CreateMasterInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// UpdateMasterInput defines the expected JSON structure for updating a master
type UpdateMasterInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
}

// UpdateSkillsInput replaces the master's qualification set
type UpdateSkillsInput struct {
	ServiceIDs []uuid.UUID `json:"serviceIds" binding:"required"`
}

// CreateMaster creates a new master
func CreateMaster(c *gin.Context) {
	var input CreateMasterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	master := models.Master{
		Name:     input.Name,
		Phone:    input.Phone,
		IsActive: true,
	}

	if err := config.DB.Create(&master).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create master")
		return
	}

	c.JSON(http.StatusCreated, master)
}

// GetMasters retrieves all masters with their skills
func GetMasters(c *gin.Context) {
	var masters []models.Master
	if err := config.DB.Preload("Skills").Order("name").Find(&masters).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve masters")
		return
	}

	c.JSON(http.StatusOK, masters)
}

// GetMaster retrieves a specific master by ID
func GetMaster(c *gin.Context) {
	masterUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid master ID format")
		return
	}

	var master models.Master
	if err := config.DB.Preload("Skills").First(&master, "id = ?", masterUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Master not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, master)
}

// UpdateMaster updates an existing master
func UpdateMaster(c *gin.Context) {
	masterUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid master ID format")
		return
	}

	var input UpdateMasterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var master models.Master
	if err := config.DB.First(&master, "id = ?", masterUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Master not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		master.Name = *input.Name
	}
	if input.Phone != nil {
		master.Phone = *input.Phone
	}
	if input.IsActive != nil {
		master.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&master).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update master")
		return
	}

	c.JSON(http.StatusOK, master)
}

// UpdateMasterSkills replaces the master's qualification set
func UpdateMasterSkills(c *gin.Context) {
	masterUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid master ID format")
		return
	}

	var input UpdateSkillsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var master models.Master
	if err := config.DB.First(&master, "id = ?", masterUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Master not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var skills []models.Service
	if len(input.ServiceIDs) > 0 {
		if err := config.DB.Find(&skills, "id IN ?", input.ServiceIDs).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if len(skills) != len(input.ServiceIDs) {
			utils.RespondWithError(c, http.StatusBadRequest, "Unknown service in skill list")
			return
		}
	}

	if err := config.DB.Model(&master).Association("Skills").Replace(skills); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update skills")
		return
	}

	master.Skills = skills
	c.JSON(http.StatusOK, master)
}

// DeleteMaster deactivates a master; their bookings stay on the calendar
func DeleteMaster(c *gin.Context) {
	masterUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid master ID format")
		return
	}

	result := config.DB.Model(&models.Master{}).
		Where("id = ?", masterUUID).
		Update("is_active", false)

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete master")
		return
	}

	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Master not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Master deactivated successfully"})
}
