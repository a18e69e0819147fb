// controllers/deal.go
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

// CreateDealInput defines the expected JSON structure for creating a deal
type CreateDealInput struct {
	ClientID uuid.UUID `json:"clientId" binding:"required"`
	Title    string    `json:"title" binding:"required"`
	Status   string    `json:"status" binding:"omitempty,oneof=new in_progress closed"`
	Notes    string    `json:"notes"`
}

// UpdateDealInput defines the expected JSON structure for updating a deal
type UpdateDealInput struct {
	Title  *string `json:"title"`
	Status *string `json:"status" binding:"omitempty,oneof=new in_progress closed"`
	Notes  *string `json:"notes"`
}

// AddDealLineInput defines the expected JSON structure for adding a line item
type AddDealLineInput struct {
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"omitempty,min=0.5"`
	UnitPrice *float64  `json:"unitPrice" binding:"omitempty,min=0"`
}

// CreateDeal creates a new deal for a client
func CreateDeal(c *gin.Context) {
	var input CreateDealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.First(&client, "id = ?", input.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	status := input.Status
	if status == "" {
		status = models.DealStatusNew
	}

	deal := models.Deal{
		ClientID: input.ClientID,
		OwnerID:  actorID(c),
		Title:    input.Title,
		Status:   status,
		Notes:    input.Notes,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&deal).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create deal")
		return
	}

	if err := models.RecalcClientDealStatus(tx, input.ClientID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client status")
		return
	}

	tx.Commit()

	c.JSON(http.StatusCreated, deal)
}

// GetDeals retrieves all deals
func GetDeals(c *gin.Context) {
	query := config.DB.Preload("Client").Order("created_at DESC")

	if clientStr := c.Query("client"); clientStr != "" {
		clientID, err := uuid.Parse(clientStr)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		query = query.Where("client_id = ?", clientID)
	}

	var deals []models.Deal
	if err := query.Find(&deals).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve deals")
		return
	}

	c.JSON(http.StatusOK, deals)
}

// GetDeal retrieves a specific deal with its lines and booking
func GetDeal(c *gin.Context) {
	dealUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid deal ID format")
		return
	}

	var deal models.Deal
	if err := config.DB.
		Preload("Client").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Lines.Service").
		Preload("Booking").
		First(&deal, "id = ?", dealUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Deal not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, deal)
}

// UpdateDeal updates an existing deal
func UpdateDeal(c *gin.Context) {
	dealUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid deal ID format")
		return
	}

	var input UpdateDealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var deal models.Deal
	if err := config.DB.First(&deal, "id = ?", dealUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Deal not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Title != nil {
		deal.Title = *input.Title
	}
	if input.Status != nil {
		deal.Status = *input.Status
	}
	if input.Notes != nil {
		deal.Notes = *input.Notes
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(&deal).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update deal")
		return
	}

	if err := models.RecalcClientDealStatus(tx, deal.ClientID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client status")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, deal)
}

// DeleteDeal deletes a deal; its lines and booking go with it
func DeleteDeal(c *gin.Context) {
	dealUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid deal ID format")
		return
	}

	var deal models.Deal
	if err := config.DB.First(&deal, "id = ?", dealUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Deal not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := deleteDealCascade(tx, deal.ID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete deal")
		return
	}

	if err := models.RecalcClientDealStatus(tx, deal.ClientID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client status")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted successfully"})
}

// deleteDealCascade removes the deal's booking and lines, then the deal.
// Deleting a booking never deletes its deal; the cascade runs one way only.
func deleteDealCascade(tx *gorm.DB, dealID uuid.UUID) error {
	if err := tx.Where("deal_id = ?", dealID).Delete(&models.Booking{}).Error; err != nil {
		return err
	}
	if err := tx.Where("deal_id = ?", dealID).Delete(&models.DealLine{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Deal{}, "id = ?", dealID).Error
}

// AddDealLine adds a line item to a deal and refreshes the cached total
func AddDealLine(c *gin.Context) {
	dealUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid deal ID format")
		return
	}

	var input AddDealLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var deal models.Deal
	if err := config.DB.First(&deal, "id = ?", dealUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Deal not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var service models.Service
	if err := config.DB.First(&service, "id = ?", input.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Service not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	unitPrice := service.BasePrice
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	}

	line := models.DealLine{
		DealID:    deal.ID,
		ServiceID: service.ID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&line).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to add line")
		return
	}

	if err := models.RecalcDealTotal(tx, deal.ID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update deal total")
		return
	}

	tx.Commit()

	line.Service = service
	c.JSON(http.StatusCreated, line)
}

// DeleteDealLine removes a line item and refreshes the cached total
func DeleteDealLine(c *gin.Context) {
	lineUUID, err := uuid.Parse(c.Param("lineId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid line ID format")
		return
	}

	var line models.DealLine
	if err := config.DB.First(&line, "id = ?", lineUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Line not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Delete(&line).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete line")
		return
	}

	if err := models.RecalcDealTotal(tx, line.DealID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update deal total")
		return
	}

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Line deleted successfully"})
}
