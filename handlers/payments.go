package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
)

type CreatePaymentRequest struct {
	ChallanID     uint    `json:"challan_id" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	TransactionID *string `json:"transaction_id"`
}

// CreatePayment opens a pending payment against a challan
func CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID, _ := currentUserID(c)
	payment, err := engine.CreatePayment(req.ChallanID, userID, req.PaymentMethod, req.TransactionID)
	if err != nil {
		domainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"payment_id": payment.ID,
		"payment":    payment,
	})
}

// ConfirmPayment completes a pending payment and marks the challan paid
func ConfirmPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	payment, err := engine.ConfirmPayment(uint(id))
	if err != nil {
		domainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": payment,
	})
}

// ListPayments returns payments, optionally filtered by challan_id or status
func ListPayments(c *gin.Context) {
	query := database.DB.Model(&models.Payment{}).Order("created_at DESC")

	if challanID := c.Query("challan_id"); challanID != "" {
		query = query.Where("challan_id = ?", challanID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var payments []models.Payment
	if err := query.Limit(200).Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"count":    len(payments),
	})
}
