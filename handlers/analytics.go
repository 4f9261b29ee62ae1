package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/database"
	"github.com/echallan/backend/models"
)

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type typeCount struct {
	ViolationType string `json:"violation_type"`
	Count         int64  `json:"count"`
}

// ViolationStats aggregates challans by status and violation type
func ViolationStats(c *gin.Context) {
	var byStatus []statusCount
	if err := database.DB.Model(&models.Challan{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate challans"})
		return
	}

	var byType []typeCount
	if err := database.DB.Model(&models.Challan{}).
		Select("violation_type, count(*) as count").
		Group("violation_type").
		Scan(&byType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate challans"})
		return
	}

	var totalFined, totalCollected float64
	database.DB.Model(&models.Challan{}).
		Select("coalesce(sum(amount), 0)").Scan(&totalFined)
	database.DB.Model(&models.Challan{}).
		Where("status = ?", models.ChallanPaid).
		Select("coalesce(sum(amount), 0)").Scan(&totalCollected)

	c.JSON(http.StatusOK, gin.H{
		"by_status":       byStatus,
		"by_type":         byType,
		"total_fined":     totalFined,
		"total_collected": totalCollected,
	})
}

// CameraAnalytics returns per-camera violation stats
func CameraAnalytics(c *gin.Context) {
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

	var byStatus []statusCount
	database.DB.Model(&models.Challan{}).
		Where("camera_id = ?", camera.ID).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus)

	var recent []models.Challan
	database.DB.Where("camera_id = ?", camera.ID).
		Order("issued_at DESC").
		Limit(10).
		Find(&recent)

	c.JSON(http.StatusOK, gin.H{
		"camera":          camera,
		"by_status":       byStatus,
		"recent_challans": recent,
	})
}

// Dashboard returns the operator overview: entity counts, revenue and the
// last 24h of activity
func Dashboard(c *gin.Context) {
	var cameraCount, activeCameras, challanCount, userCount, pendingAppeals int64
	database.DB.Model(&models.Camera{}).Count(&cameraCount)
	database.DB.Model(&models.Camera{}).Where("status = ?", models.CameraActive).Count(&activeCameras)
	database.DB.Model(&models.Challan{}).Count(&challanCount)
	database.DB.Model(&models.User{}).Count(&userCount)
	database.DB.Model(&models.Appeal{}).Where("status = ?", models.AppealPending).Count(&pendingAppeals)

	var revenue float64
	database.DB.Model(&models.Challan{}).
		Where("status = ?", models.ChallanPaid).
		Select("coalesce(sum(amount), 0)").Scan(&revenue)

	since := time.Now().Add(-24 * time.Hour)
	var recentChallans int64
	database.DB.Model(&models.Challan{}).Where("issued_at >= ?", since).Count(&recentChallans)

	c.JSON(http.StatusOK, gin.H{
		"cameras":             cameraCount,
		"active_cameras":      activeCameras,
		"challans":            challanCount,
		"users":               userCount,
		"pending_appeals":     pendingAppeals,
		"revenue":             revenue,
		"challans_last_24h":   recentChallans,
		"generated_at":        time.Now(),
	})
}

// Search matches vehicle plates and camera addresses by substring
func Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Query parameter q is required"})
		return
	}

	var challans []models.Challan
	if err := database.DB.
		Where("vehicle ILIKE ?", "%"+q+"%").
		Order("issued_at DESC").
		Limit(100).
		Find(&challans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	var cameras []models.Camera
	if err := database.DB.
		Where("address ILIKE ?", "%"+q+"%").
		Limit(50).
		Find(&cameras).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challans": challans,
		"cameras":  cameras,
	})
}

// VehicleLookup summarizes a single vehicle's record
func VehicleLookup(c *gin.Context) {
	plate := c.Param("vehicle")

	var challans []models.Challan
	if err := database.DB.
		Where("vehicle = ?", plate).
		Order("issued_at DESC").
		Find(&challans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}

	var outstanding float64
	for _, ch := range challans {
		if ch.Status == models.ChallanUnpaid || ch.Status == models.ChallanAppealed {
			outstanding += ch.Amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle":     plate,
		"challans":    challans,
		"count":       len(challans),
		"outstanding": outstanding,
	})
}

// ExportChallansCSV streams the challan register as CSV (admin only)
func ExportChallansCSV(c *gin.Context) {
	var challans []models.Challan
	if err := database.DB.Order("issued_at").Find(&challans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challans"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="challans.csv"`)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"id", "vehicle", "camera_id", "amount", "violation_type", "status", "issued_at", "paid_at"})
	for _, ch := range challans {
		paidAt := ""
		if ch.PaidAt != nil {
			paidAt = ch.PaidAt.Format(time.RFC3339)
		}
		w.Write([]string{
			strconv.FormatUint(uint64(ch.ID), 10),
			ch.Vehicle,
			strconv.FormatUint(uint64(ch.CameraID), 10),
			fmt.Sprintf("%.2f", ch.Amount),
			ch.ViolationType,
			string(ch.Status),
			ch.IssuedAt.Format(time.RFC3339),
			paidAt,
		})
	}
	w.Flush()
}
