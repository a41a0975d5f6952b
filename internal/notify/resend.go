package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultResendEndpoint = "https://api.resend.com/emails"

// maxErrorBody caps how much of a provider error response is kept.
const maxErrorBody = 4 << 10

type ResendSettings struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type resendMailer struct {
	cfg    ResendSettings
	client *http.Client
}

func NewResendMailer(cfg ResendSettings) (Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("resend: api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultResendEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &resendMailer{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	to := uniqueAddresses(msg.To)
	if len(to) == 0 {
		return errNoRecipients
	}

	body, err := json.Marshal(resendPayload{From: msg.From, To: to, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("resend: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("resend: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if len(text) == 0 {
			return fmt.Errorf("resend: HTTP %d", resp.StatusCode)
		}
		return errors.New(string(text))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
