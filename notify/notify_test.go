package notify

import (
	"context"
	"errors"
	"testing"
)

type fakeTransport struct {
	sent []Message
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func TestHubRoutesByChannel(t *testing.T) {
	push := &fakeTransport{}
	email := &fakeTransport{}
	hub := NewHub()
	hub.Register(ChannelPush, push)
	hub.Register(ChannelEmail, email)

	ok := hub.Notify(context.Background(), Message{Channel: ChannelPush, Recipient: "tok-1", Body: "hi"})
	if !ok {
		t.Fatal("push delivery reported failed")
	}
	hub.Notify(context.Background(), Message{Channel: ChannelEmail, Recipient: "a@b.com", Body: "hi"})

	if len(push.sent) != 1 || len(email.sent) != 1 {
		t.Errorf("push got %d, email got %d, want 1 each", len(push.sent), len(email.sent))
	}
	if push.sent[0].Recipient != "tok-1" {
		t.Errorf("push recipient = %q", push.sent[0].Recipient)
	}
}

func TestHubUnconfiguredChannel(t *testing.T) {
	hub := NewHub()
	if hub.Notify(context.Background(), Message{Channel: ChannelSMS, Recipient: "0300"}) {
		t.Error("unconfigured channel reported delivered")
	}
	stats := hub.GetStats()
	if stats.Failed != 1 || stats.Delivered != 0 {
		t.Errorf("stats = %+v, want failed=1 delivered=0", stats)
	}
}

func TestHubTransportError(t *testing.T) {
	hub := NewHub()
	hub.Register(ChannelSMS, &fakeTransport{err: errors.New("twilio down")})

	if hub.Notify(context.Background(), Message{Channel: ChannelSMS, Recipient: "0300"}) {
		t.Error("failed transport reported delivered")
	}
	stats := hub.GetStats()
	if stats.Failed != 1 {
		t.Errorf("failed counter = %d, want 1", stats.Failed)
	}
}

func TestHubRegisterNil(t *testing.T) {
	hub := NewHub()
	hub.Register(ChannelPush, nil)
	if hub.Notify(context.Background(), Message{Channel: ChannelPush, Recipient: "tok"}) {
		t.Error("nil transport should leave the channel unconfigured")
	}
}

func TestReportCounts(t *testing.T) {
	var r Report
	r.Record(Message{Channel: ChannelPush, Recipient: "a"}, true)
	r.Record(Message{Channel: ChannelPush, Recipient: "b"}, false)
	r.Record(Message{Channel: ChannelEmail, Recipient: "c"}, true)

	if r.Delivered() != 2 || r.Failed() != 1 {
		t.Errorf("delivered/failed = %d/%d, want 2/1", r.Delivered(), r.Failed())
	}
	if len(r.Outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3", len(r.Outcomes))
	}
}
