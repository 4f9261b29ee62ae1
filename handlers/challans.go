package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/lifecycle"
	"github.com/echallan/backend/models"
	"github.com/echallan/backend/storage"
)

var engine *lifecycle.Engine
var evidenceStore storage.EvidenceStore

// SetLifecycle injects the challan lifecycle engine
func SetLifecycle(e *lifecycle.Engine) {
	engine = e
}

// SetEvidenceStore injects the evidence object store (may stay nil)
func SetEvidenceStore(s storage.EvidenceStore) {
	evidenceStore = s
}

type IssueChallanRequest struct {
	Vehicle       string  `json:"vehicle" binding:"required"`
	CameraID      uint    `json:"camera_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	ViolationType string  `json:"violation_type"`
	UserID        *uint   `json:"user_id"`
	Description   *string `json:"description"`
}

// IssueChallan creates a challan and fans out notifications
func IssueChallan(c *gin.Context) {
	var req IssueChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	challan, report, err := engine.IssueChallan(c.Request.Context(), lifecycle.IssueRequest{
		Vehicle:       req.Vehicle,
		CameraID:      req.CameraID,
		Amount:        req.Amount,
		ViolationType: req.ViolationType,
		UserID:        req.UserID,
		Description:   req.Description,
	})
	if err != nil {
		domainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"challan_id":    challan.ID,
		"notifications": report,
	})
}

// ListChallans returns challans with optional filters: vehicle, status,
// camera_id, limit
func ListChallans(c *gin.Context) {
	query := database.DB.Model(&models.Challan{}).Order("issued_at DESC")

	if vehicle := c.Query("vehicle"); vehicle != "" {
		query = query.Where("vehicle = ?", vehicle)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if cameraID := c.Query("camera_id"); cameraID != "" {
		query = query.Where("camera_id = ?", cameraID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	var challans []models.Challan
	if err := query.Limit(limit).Find(&challans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challans": challans,
		"count":    len(challans),
	})
}

// GetChallan returns one challan joined with its camera, payments and appeal
func GetChallan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challan id"})
		return
	}

	var challan models.Challan
	result := database.DB.
		Preload("Camera").
		Preload("Payments").
		Preload("Appeal").
		First(&challan, uint(id))
	if result.Error != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Challan not found"})
		return
	}

	c.JSON(http.StatusOK, challan)
}

// MyChallans lists challans owned by the authenticated user
func MyChallans(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	var challans []models.Challan
	if err := database.DB.
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&challans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challans": challans,
		"count":    len(challans),
	})
}

// UploadEvidence attaches an evidence image to a challan. Requires the
// object store; without it the capability is reported unavailable.
func UploadEvidence(c *gin.Context) {
	if evidenceStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Evidence storage not configured"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challan id"})
		return
	}

	var challan models.Challan
	if dbErr := database.DB.First(&challan, uint(id)).Error; dbErr != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Challan not found"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("challans/%d/%d_%s", challan.ID, time.Now().UnixMilli(), header.Filename)
	if err := evidenceStore.Put(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store evidence"})
		return
	}

	url, err := evidenceStore.PresignGet(c.Request.Context(), key, 7*24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign evidence URL"})
		return
	}

	challan.ImageURL = &url
	if err := database.DB.Model(&challan).Update("image_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update challan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"image_url": url,
	})
}
