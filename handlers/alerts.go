package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/echallan/backend/services"
)

var (
	alertHub *services.AlertHub
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins for now
		},
	}
)

// SetAlertHub sets the alert hub for the handlers
func SetAlertHub(hub *services.AlertHub) {
	alertHub = hub
}

// HandleAlertWebSocket upgrades the connection and streams live alerts
func HandleAlertWebSocket(c *gin.Context) {
	if alertHub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Alert hub not initialized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed: %v", err)
		return
	}

	userID := "anonymous"
	if id, ok := currentUserID(c); ok {
		userID = strconv.FormatUint(uint64(id), 10)
	}

	client := services.NewAlertClient(alertHub, conn, userID, c.ClientIP())

	alertHub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// GetAlertHubStats returns alert hub statistics
func GetAlertHubStats(c *gin.Context) {
	if alertHub == nil {
		c.JSON(http.StatusOK, gin.H{
			"enabled": false,
		})
		return
	}

	stats := alertHub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"enabled":   true,
		"clients":   stats.Clients,
		"broadcast": stats.Broadcast,
		"dropped":   stats.Dropped,
	})
}
