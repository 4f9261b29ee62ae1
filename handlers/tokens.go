package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
	"github.com/echallan/backend/notify"
)

var notifyHub *notify.Hub

// SetNotifyHub injects the notification hub for stats reporting
func SetNotifyHub(h *notify.Hub) {
	notifyHub = h
}

type RegisterTokenRequest struct {
	FCMToken string `json:"fcm_token" binding:"required"`
}

// RegisterFCMToken stores a device push registration. Re-registering the
// same token is a no-op.
func RegisterFCMToken(c *gin.Context) {
	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var count int64
	database.DB.Model(&models.DeviceToken{}).
		Where("fcm_token = ?", req.FCMToken).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "registered": false})
		return
	}

	token := models.DeviceToken{FCMToken: req.FCMToken}
	if userID, ok := currentUserID(c); ok {
		token.UserID = &userID
	}

	if err := database.DB.Create(&token).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "registered": true})
}
