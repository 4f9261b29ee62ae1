// Package notify delivers best-effort notifications over push, email and SMS.
// A failed delivery is logged and counted, never surfaced as an error to the
// operation that triggered it.
package notify

import (
	"context"
	"log"
	"sync/atomic"
)

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Message is one notification addressed to one recipient.
type Message struct {
	Channel   Channel
	Recipient string // FCM token, email address or phone number
	Subject   string
	Body      string
	Data      map[string]string // extra payload for push clients
}

// Notifier sends a message and reports delivery as a boolean.
type Notifier interface {
	Notify(ctx context.Context, msg Message) bool
}

// Transport sends on a single channel.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Outcome records one delivery attempt.
type Outcome struct {
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Delivered bool    `json:"delivered"`
}

// Report aggregates the side-channel outcomes of a primary operation,
// keeping them distinct from the operation's own result.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Record appends an outcome.
func (r *Report) Record(msg Message, delivered bool) {
	r.Outcomes = append(r.Outcomes, Outcome{
		Channel:   msg.Channel,
		Recipient: msg.Recipient,
		Delivered: delivered,
	})
}

// Delivered counts successful attempts.
func (r *Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Delivered {
			n++
		}
	}
	return n
}

// Failed counts unsuccessful attempts.
func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Delivered()
}

// Hub routes messages to the transport registered for their channel.
type Hub struct {
	transports map[Channel]Transport

	delivered uint64
	failed    uint64
}

// NewHub creates an empty hub; register transports before use.
func NewHub() *Hub {
	return &Hub{transports: make(map[Channel]Transport)}
}

// Register binds a transport to a channel. A nil transport leaves the
// channel unconfigured.
func (h *Hub) Register(channel Channel, t Transport) {
	if t == nil {
		return
	}
	h.transports[channel] = t
}

// Notify sends the message on its channel. Failures (including an
// unconfigured channel) are logged and swallowed.
func (h *Hub) Notify(ctx context.Context, msg Message) bool {
	t, ok := h.transports[msg.Channel]
	if !ok {
		atomic.AddUint64(&h.failed, 1)
		log.Printf("⚠️ No %s transport configured, dropping notification to %s", msg.Channel, msg.Recipient)
		return false
	}
	if err := t.Send(ctx, msg); err != nil {
		atomic.AddUint64(&h.failed, 1)
		log.Printf("⚠️ %s notification to %s failed: %v", msg.Channel, msg.Recipient, err)
		return false
	}
	atomic.AddUint64(&h.delivered, 1)
	return true
}

// Stats holds hub delivery counters.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
}

// GetStats returns current delivery counters.
func (h *Hub) GetStats() Stats {
	return Stats{
		Delivered: atomic.LoadUint64(&h.delivered),
		Failed:    atomic.LoadUint64(&h.failed),
	}
}
