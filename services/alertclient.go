package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024 // alerts only carry small control messages

	// Send buffer size
	sendBufferSize = 64
)

// AlertClient is one WebSocket consumer of the alert stream.
type AlertClient struct {
	hub        *AlertHub
	conn       *websocket.Conn
	send       chan []byte
	userID     string
	remoteAddr string
}

// NewAlertClient creates a client for a newly upgraded connection.
func NewAlertClient(hub *AlertHub, conn *websocket.Conn, userID, remoteAddr string) *AlertClient {
	return &AlertClient{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		userID:     userID,
		remoteAddr: remoteAddr,
	}
}

// ReadPump drains control messages from the WebSocket connection. Clients
// only ever send pings; anything else is logged and ignored.
func (c *AlertClient) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket error: %v", err)
			}
			break
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("⚠️ Invalid message from %s: %v", c.remoteAddr, err)
			continue
		}

		switch msg.Type {
		case "ping":
			c.sendPong()
		default:
			log.Printf("⚠️ Unknown message type: %s", msg.Type)
		}
	}
}

// WritePump pumps alerts from the hub to the WebSocket connection.
func (c *AlertClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *AlertClient) sendPong() {
	msgBytes, _ := json.Marshal(map[string]string{"type": "pong"})
	select {
	case c.send <- msgBytes:
	default:
	}
}
