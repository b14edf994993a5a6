package otp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
)

// Sender delivers an OTP message to a 10-digit Indian mobile number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender writes messages to the log instead of sending them; used in
// development. The message text, code included, is logged at debug level only.
type LogSender struct {
	Logger *zap.SugaredLogger
}

func (s LogSender) Send(_ context.Context, phone, message string) error {
	s.Logger.Infow("otp delivered to log", "phone", MaskPhone(phone), "len", len(message))
	s.Logger.Debugw("otp message", "phone", MaskPhone(phone), "message", message)
	return nil
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	From       string
	Client     *http.Client
	// BaseURL overrides the API host in tests.
	BaseURL string
}

// NewTwilioFromEnv returns a sender when TWILIO_ACCOUNT_SID is set, else nil.
func NewTwilioFromEnv() *TwilioSender {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	if sid == "" {
		return nil
	}
	return &TwilioSender{
		AccountSID: sid,
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		From:       os.Getenv("TWILIO_SMS_FROM"),
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TwilioSender) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("From", t.From)
	form.Set("To", "+91"+phone)
	form.Set("Body", message)

	base := t.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	endpoint := base + "/2010-04-01/Accounts/" + t.AccountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("twilio send failed: status %d: %s", res.StatusCode, body)
	}
	return nil
}

// MaskPhone keeps the last four digits for logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "******" + phone[len(phone)-4:]
}
