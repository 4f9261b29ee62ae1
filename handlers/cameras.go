package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
)

// ListCameras returns all enforcement cameras
func ListCameras(c *gin.Context) {
	query := database.DB.Model(&models.Camera{}).Order("id")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var cameras []models.Camera
	if err := query.Find(&cameras).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cameras"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cameras": cameras,
		"count":   len(cameras),
	})
}

// GetCamera returns one camera
func GetCamera(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid camera id"})
		return
	}

	var camera models.Camera
	if dbErr := database.DB.First(&camera, uint(id)).Error; dbErr != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Camera not found"})
		return
	}

	c.JSON(http.StatusOK, camera)
}

type CreateCameraRequest struct {
	Lat        float64 `json:"lat" binding:"required"`
	Lng        float64 `json:"lng" binding:"required"`
	Address    string  `json:"address" binding:"required"`
	SpeedLimit int     `json:"speed_limit"`
}

// CreateCamera registers a new enforcement camera (admin only)
func CreateCamera(c *gin.Context) {
	var req CreateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	camera := models.Camera{
		Lat:         req.Lat,
		Lng:         req.Lng,
		Address:     req.Address,
		LightStatus: models.LightRed,
		Status:      models.CameraActive,
		SpeedLimit:  req.SpeedLimit,
		HealthScore: 100,
	}
	if camera.SpeedLimit <= 0 {
		camera.SpeedLimit = 60
	}

	if err := database.DB.Create(&camera).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create camera"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":     true,
		"camera": camera,
	})
}

// CamerasHealth lists the fleet's health: score, status and time since the
// last maintenance visit
func CamerasHealth(c *gin.Context) {
	var cameras []models.Camera
	if err := database.DB.Order("health_score").Find(&cameras).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cameras"})
		return
	}

	type cameraHealth struct {
		ID              uint                `json:"id"`
		Address         string              `json:"address"`
		Status          models.CameraStatus `json:"status"`
		HealthScore     int                 `json:"health_score"`
		LastMaintenance *time.Time          `json:"last_maintenance,omitempty"`
	}

	report := make([]cameraHealth, 0, len(cameras))
	unhealthy := 0
	for _, cam := range cameras {
		if cam.HealthScore < 50 || cam.Status == models.CameraInactive {
			unhealthy++
		}
		report = append(report, cameraHealth{
			ID:              cam.ID,
			Address:         cam.Address,
			Status:          cam.Status,
			HealthScore:     cam.HealthScore,
			LastMaintenance: cam.LastMaintenance,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"cameras":   report,
		"unhealthy": unhealthy,
	})
}

type HealthReportRequest struct {
	HealthScore *int                `json:"health_score" binding:"required"`
	Status      models.CameraStatus `json:"status"`
}

// ReportCameraHealth records a health check result for a camera. A score
// of zero or a reported failure marks the camera inactive.
func ReportCameraHealth(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid camera id"})
		return
	}

	var req HealthReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if *req.HealthScore < 0 || *req.HealthScore > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Health score must be 0-100"})
		return
	}

	var camera models.Camera
	if dbErr := database.DB.First(&camera, uint(id)).Error; dbErr != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Camera not found"})
		return
	}

	camera.HealthScore = *req.HealthScore
	if req.Status != "" {
		camera.Status = req.Status
	} else if camera.HealthScore == 0 {
		camera.Status = models.CameraInactive
	}

	if err := database.DB.Save(&camera).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update camera"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"camera": camera,
	})
}

// RecordMaintenance stamps a maintenance visit and restores the camera to
// full health (admin only)
func RecordMaintenance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid camera id"})
		return
	}

	var camera models.Camera
	if dbErr := database.DB.First(&camera, uint(id)).Error; dbErr != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Camera not found"})
		return
	}

	now := time.Now()
	camera.LastMaintenance = &now
	camera.HealthScore = 100
	camera.Status = models.CameraActive

	if err := database.DB.Save(&camera).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update camera"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"camera": camera,
	})
}

type LightStatusRequest struct {
	LightStatus models.LightPhase `json:"light_status" binding:"required"`
}

// SetLightStatus updates the signal phase a camera currently observes
func SetLightStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid camera id"})
		return
	}

	var req LightStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	switch req.LightStatus {
	case models.LightRed, models.LightYellow, models.LightGreen:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid light status"})
		return
	}

	var camera models.Camera
	if dbErr := database.DB.First(&camera, uint(id)).Error; dbErr != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Camera not found"})
		return
	}

	if err := database.DB.Model(&camera).Update("light_status", req.LightStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update camera"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
