// Package services provides the live alert delivery edge: push notifications
// published on NATS are fanned out to connected WebSocket clients.
package services

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/echallan/backend/notify"
)

// AlertEnvelope is what WebSocket clients receive.
type AlertEnvelope struct {
	Type  string          `json:"type"` // always "alert"
	Token string          `json:"token"`
	Data  json.RawMessage `json:"data"`
}

// AlertHub bridges the push alert subjects to WebSocket clients.
type AlertHub struct {
	natsConn *nats.Conn
	sub      *nats.Subscription

	clients   map[*AlertClient]bool
	clientsMu sync.RWMutex

	register   chan *AlertClient
	unregister chan *AlertClient

	broadcast uint64
	dropped   uint64
}

// NewAlertHub creates a hub and subscribes to the push alert subjects.
func NewAlertHub(natsConn *nats.Conn) (*AlertHub, error) {
	h := &AlertHub{
		natsConn:   natsConn,
		clients:    make(map[*AlertClient]bool),
		register:   make(chan *AlertClient),
		unregister: make(chan *AlertClient),
	}

	sub, err := natsConn.Subscribe(notify.PushSubjectPrefix+".>", func(msg *nats.Msg) {
		h.broadcastAlert(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	h.sub = sub
	return h, nil
}

// Register adds a client to the hub.
func (h *AlertHub) Register(client *AlertClient) {
	h.register <- client
}

// Run starts the hub's main loop.
func (h *AlertHub) Run() {
	log.Println("📺 Alert hub started")

	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			log.Printf("📺 Alert client connected: %s", client.remoteAddr)

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()
			log.Printf("📺 Alert client disconnected: %s", client.remoteAddr)
		}
	}
}

// broadcastAlert wraps one NATS push message and sends it to every connected
// client. The device token is the subject suffix.
func (h *AlertHub) broadcastAlert(subject string, data []byte) {
	token := strings.TrimPrefix(subject, notify.PushSubjectPrefix+".")

	envelope, err := json.Marshal(AlertEnvelope{
		Type:  "alert",
		Token: token,
		Data:  data,
	})
	if err != nil {
		log.Printf("⚠️ Failed to encode alert envelope: %v", err)
		return
	}

	h.clientsMu.RLock()
	for client := range h.clients {
		select {
		case client.send <- envelope:
			atomic.AddUint64(&h.broadcast, 1)
		default:
			// Client buffer full, drop the alert for this client
			atomic.AddUint64(&h.dropped, 1)
		}
	}
	h.clientsMu.RUnlock()
}

// HubStats holds alert hub statistics.
type HubStats struct {
	Clients   int    `json:"clients"`
	Broadcast uint64 `json:"broadcast"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns hub statistics.
func (h *AlertHub) Stats() HubStats {
	h.clientsMu.RLock()
	clientCount := len(h.clients)
	h.clientsMu.RUnlock()

	return HubStats{
		Clients:   clientCount,
		Broadcast: atomic.LoadUint64(&h.broadcast),
		Dropped:   atomic.LoadUint64(&h.dropped),
	}
}

// Close drops the NATS subscription.
func (h *AlertHub) Close() {
	if h.sub != nil {
		h.sub.Unsubscribe()
	}
}
