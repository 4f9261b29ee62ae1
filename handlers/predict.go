package handlers

import (
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/classifier"
	"github.com/echallan/backend/natsserver"
)

var (
	clf        *classifier.Service
	natsServer *natsserver.EmbeddedNATS
	startedAt  = time.Now()
)

// SetClassifier injects the evidence classifier
func SetClassifier(s *classifier.Service) {
	clf = s
}

// SetNATSServer injects the embedded NATS server for stats reporting
func SetNATSServer(s *natsserver.EmbeddedNATS) {
	natsServer = s
}

const maxImageBytes = 8 * 1024 * 1024

// Predict classifies an uploaded evidence image
func Predict(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Image too large"})
		return
	}

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return
	}

	label, err := clf.Classify(c.Request.Context(), image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Inference failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediction": label})
}

// SystemInfo reports runtime and subsystem health
func SystemInfo(c *gin.Context) {
	info := gin.H{
		"uptime_seconds": int(time.Since(startedAt).Seconds()),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	}

	model := gin.H{"ready": clf != nil && clf.Ready()}
	if clf != nil {
		if err := clf.InitError(); err != nil {
			model["error"] = err.Error()
		}
		model["labels"] = len(clf.Labels())
	}
	info["model"] = model

	if natsServer != nil {
		info["nats"] = natsServer.GetStats()
	}
	if hub := notifyHub; hub != nil {
		info["notifications"] = hub.GetStats()
	}

	c.JSON(http.StatusOK, info)
}
