package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/pkg/config"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

var (
	errClientIDRequired = errors.New("paypal client id is required")
	errSecretRequired   = errors.New("paypal client secret is required")
	errLoggerRequired   = errors.New("paypal logger is required")
)

// Client exposes the PayPal order primitives with centralized auth, logging,
// and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	logger     *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// CreateOrderResult carries the provider-assigned order id.
type CreateOrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CaptureOrderResult carries the capture outcome and the payer identity.
type CaptureOrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// NewClient initializes the PayPal wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	secret := strings.TrimSpace(cfg.ClientSecret)
	if secret == "" {
		return nil, errSecretRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		clientID:   clientID,
		secret:     secret,
		logger:     logg,
	}

	logg.Info(ctx, "paypal client initialized")
	return c, nil
}

// CreateOrder opens a CAPTURE-intent order for the given USD amount.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal) (*CreateOrderResult, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]string{
					"currency_code": "USD",
					"value":         amount.StringFixed(2),
				},
			},
		},
	}

	var result CreateOrderResult
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", body, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create paypal order")
	}
	if result.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paypal order id missing from response")
	}
	return &result, nil
}

// CaptureOrder finalizes payment for a previously approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureOrderResult, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var result CaptureOrderResult
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{}, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture paypal order")
	}
	return &result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal %s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw, 256))
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// token returns a cached OAuth access token, refreshing when within a minute
// of expiry. Acquisition is retried because the token endpoint is the one
// call every checkout depends on.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(time.Minute).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, ttl, err := c.fetchToken(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		c.accessToken = token
		c.tokenExpiry = time.Now().Add(ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("paypal oauth token: %w", err)
	}
	return c.accessToken, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", 0, fmt.Errorf("build token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.secret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, truncate(raw, 256))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", 0, errors.New("token missing from response")
	}
	ttl := time.Duration(parsed.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return parsed.AccessToken, ttl, nil
}

func truncate(raw []byte, limit int) string {
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
