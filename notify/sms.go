package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// TwilioSMS sends SMS through the Twilio Messages REST API.
type TwilioSMS struct {
	accountSID string
	authToken  string
	from       string
	apiBase    string
	client     *http.Client
}

// NewTwilioSMS builds an SMS transport from TWILIO_* environment variables.
// Returns nil when no account SID is configured.
func NewTwilioSMS() *TwilioSMS {
	sid := os.Getenv("TWILIO_SID")
	if sid == "" {
		return nil
	}
	return &TwilioSMS{
		accountSID: sid,
		authToken:  os.Getenv("TWILIO_TOKEN"),
		from:       os.Getenv("TWILIO_FROM"),
		apiBase:    "https://api.twilio.com",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message to the Twilio Messages endpoint.
func (t *TwilioSMS) Send(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("no recipient number provided")
	}

	form := url.Values{}
	form.Set("From", t.from)
	form.Set("To", msg.Recipient)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.apiBase, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}
	return nil
}
