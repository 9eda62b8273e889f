package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/jinsharnam/internal/utils"
)

// SMSSender delivers one-time codes to a phone number.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// Fast2SMSSender sends codes through the Fast2SMS bulk API.
type Fast2SMSSender struct {
	apiKey      string
	endpoint    string
	countryCode string
	ttl         time.Duration
	client      *http.Client
}

// NewFast2SMSSender constructs a Fast2SMSSender.
func NewFast2SMSSender(apiKey, endpoint, countryCode string, ttl, timeout time.Duration) *Fast2SMSSender {
	return &Fast2SMSSender{
		apiKey:      apiKey,
		endpoint:    endpoint,
		countryCode: countryCode,
		ttl:         ttl,
		client:      &http.Client{Timeout: timeout},
	}
}

type fast2smsRequest struct {
	Route    string `json:"route"`
	SenderID string `json:"sender_id"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Flash    int    `json:"flash"`
	Numbers  string `json:"numbers"`
}

type fast2smsResponse struct {
	Return  bool `json:"return"`
	Message any  `json:"message"`
}

// SendOTP implements SMSSender.
func (s *Fast2SMSSender) SendOTP(ctx context.Context, phone, code string) error {
	payload := fast2smsRequest{
		Route:    "v3",
		SenderID: "TXTIND",
		Message:  fmt.Sprintf("Your Jinsharnam verification code is %s. It expires in %d minutes.", code, int(s.ttl.Minutes())),
		Language: "english",
		Numbers:  utils.NationalNumber(phone, s.countryCode),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fast2sms request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read fast2sms response: %w", err)
	}

	var result fast2smsResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode fast2sms response (status %d): %w", resp.StatusCode, err)
	}
	if !result.Return {
		return fmt.Errorf("fast2sms rejected message (status %d): %v", resp.StatusCode, result.Message)
	}

	return nil
}

// LogSMSSender writes codes to the log instead of sending them.
// Used when no SMS provider is configured.
type LogSMSSender struct{}

// SendOTP implements SMSSender.
func (LogSMSSender) SendOTP(ctx context.Context, phone, code string) error {
	slog.WarnContext(ctx, "sms provider not configured, otp logged", "phone", phone, "otp", code)
	return nil
}
