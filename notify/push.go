package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// PushSubjectPrefix is where push notifications are published; the alert hub
// bridges these subjects to connected websocket clients.
const PushSubjectPrefix = "alerts.push"

// PushMessage is the wire format published for push clients.
type PushMessage struct {
	Token   string            `json:"token"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
}

// NATSPush publishes push notifications to the embedded NATS server.
type NATSPush struct {
	conn *nats.Conn
}

// NewNATSPush creates a push transport over an existing NATS connection.
func NewNATSPush(conn *nats.Conn) *NATSPush {
	return &NATSPush{conn: conn}
}

// Send publishes the message on alerts.push.<token>.
func (p *NATSPush) Send(_ context.Context, msg Message) error {
	payload, err := json.Marshal(PushMessage{
		Token: msg.Recipient,
		Title: msg.Subject,
		Body:  msg.Body,
		Data:  msg.Data,
	})
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", PushSubjectPrefix, msg.Recipient)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish push message: %w", err)
	}
	return nil
}
