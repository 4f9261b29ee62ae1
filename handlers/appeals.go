package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
)

type CreateAppealRequest struct {
	ChallanID uint   `json:"challan_id" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// CreateAppeal files a dispute against a challan
func CreateAppeal(c *gin.Context) {
	var req CreateAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	appeal, err := engine.CreateAppeal(req.ChallanID, userID, req.Reason)
	if err != nil {
		domainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"appeal_id": appeal.ID,
	})
}

// ListAppeals returns appeals, optionally filtered by status
func ListAppeals(c *gin.Context) {
	query := database.DB.Model(&models.Appeal{}).Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var appeals []models.Appeal
	if err := query.Limit(200).Find(&appeals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch appeals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appeals": appeals,
		"count":   len(appeals),
	})
}

type ReviewAppealRequest struct {
	Approved      *bool   `json:"approved" binding:"required"`
	ReviewerNotes *string `json:"reviewer_notes"`
}

// ReviewAppeal resolves a pending appeal (admin only)
func ReviewAppeal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appeal id"})
		return
	}

	var req ReviewAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	appeal, err := engine.ReviewAppeal(uint(id), *req.Approved, req.ReviewerNotes)
	if err != nil {
		domainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"appeal":  appeal,
	})
}
