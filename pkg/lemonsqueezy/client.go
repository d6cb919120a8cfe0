package lemonsqueezy

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

	"github.com/shopspring/decimal"

	"github.com/arlomercer/beatvault-backend/pkg/config"
	pkgerrors "github.com/arlomercer/beatvault-backend/pkg/errors"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("lemon squeezy api key is required")
	errLoggerRequired = errors.New("lemon squeezy logger is required")
)

// Client wraps the hosted-checkout surface of the Lemon Squeezy API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	storeID    string
	variantID  string
	logger     *logger.Logger
}

// CheckoutData is the custom payload threaded through the provider and echoed
// back in the order_created webhook.
type CheckoutData struct {
	BeatID        string   `json:"beatId"`
	LicenseID     string   `json:"licenseId"`
	AddonIDs      []string `json:"addonIds"`
	DownloadToken string   `json:"downloadToken"`
}

// NewClient initializes the Lemon Squeezy wrapper.
func NewClient(ctx context.Context, cfg config.LemonSqueezyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     apiKey,
		storeID:    cfg.StoreID,
		variantID:  cfg.VariantID,
		logger:     logg,
	}

	logg.Info(ctx, "lemon squeezy client initialized")
	return c, nil
}

// CreateCheckout opens a hosted checkout session priced at the given amount
// and returns its URL.
func (c *Client) CreateCheckout(ctx context.Context, amount decimal.Decimal, data CheckoutData) (string, error) {
	body := map[string]any{
		"data": map[string]any{
			"type": "checkouts",
			"attributes": map[string]any{
				"store_id":      c.storeID,
				"variant_id":    c.variantID,
				"custom_price":  amount.Mul(decimal.NewFromInt(100)).IntPart(),
				"checkout_data": data,
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build checkout request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read checkout response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("checkout endpoint status %d", resp.StatusCode))
	}

	var parsed struct {
		Data struct {
			Attributes struct {
				URL string `json:"url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout response")
	}
	if parsed.Data.Attributes.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout url missing from response")
	}
	return parsed.Data.Attributes.URL, nil
}
