package mailer

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

	"github.com/arlomercer/beatvault-backend/pkg/config"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

const resendEndpoint = "https://api.resend.com/emails"

// Email is one outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Sender is the surface services depend on.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Client delivers transactional email through the Resend API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	from       string
	logger     *logger.Logger
}

// NewClient validates the configuration and returns the wrapper.
func NewClient(ctx context.Context, cfg config.ResendConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("resend api key is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("resend from address is required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     cfg.APIKey,
		from:       cfg.FromEmail,
		logger:     logg,
	}

	if logg != nil {
		logg.Info(ctx, "resend client initialized")
	}
	return c, nil
}

// Send delivers a single message. Callers decide whether a failure is fatal.
func (c *Client) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.To) == "" {
		return errors.New("recipient is required")
	}

	body := map[string]any{
		"from":    c.from,
		"to":      []string{email.To},
		"subject": email.Subject,
		"html":    email.HTML,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("resend status %d: %s", resp.StatusCode, raw)
	}
	return nil
}
