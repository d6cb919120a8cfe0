package r2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arlomercer/beatvault-backend/pkg/config"
	"github.com/arlomercer/beatvault-backend/pkg/logger"
)

// Client talks to an S3-compatible bucket (Cloudflare R2) over plain HTTP with
// SigV4 request signing. Only the object operations the storefront needs are
// implemented.
type Client struct {
	httpClient    *http.Client
	host          string
	bucket        string
	accessKeyID   string
	secret        string
	publicBaseURL string
	logger        *logger.Logger
}

// Deleter is the surface catalog deletion depends on.
type Deleter interface {
	DeleteObject(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

// Presigner mints short-lived upload/download URLs.
type Presigner interface {
	PresignPutObject(key string, contentType string, expires time.Duration) (string, error)
	PublicURL(key string) string
}

// NewClient validates credentials and returns the wrapper.
func NewClient(ctx context.Context, cfg config.R2Config, logg *logger.Logger) (*Client, error) {
	if cfg.AccountID == "" {
		return nil, errors.New("r2 account id is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("r2 credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("r2 bucket is required")
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		host:          fmt.Sprintf("%s.r2.cloudflarestorage.com", cfg.AccountID),
		bucket:        cfg.Bucket,
		accessKeyID:   cfg.AccessKeyID,
		secret:        cfg.SecretAccessKey,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logg,
	}

	if logg != nil {
		logg.Info(ctx, "r2 client initialized")
	}
	return c, nil
}

// DeleteObject removes a single object. A 404 from the bucket is treated as
// success so repeated deletions stay idempotent.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("object key is required")
	}

	now := time.Now()
	path := "/" + c.bucket + "/" + key
	amzDate := now.UTC().Format("20060102T150405Z")

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, "https://"+c.host+path, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	sig := signature(c.secret, signInput{
		method:      http.MethodDelete,
		host:        c.host,
		path:        path,
		query:       url.Values{},
		payloadHash: emptyBodyHash,
		now:         now,
	})

	credential := c.accessKeyID + "/" + credentialScope(now.UTC().Format("20060102"))
	req.Header.Set("Host", c.host)
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", emptyBodyHash)
	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s, SignedHeaders=host, Signature=%s", algorithm, credential, sig))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("delete object %q: status %d: %s", key, resp.StatusCode, raw)
}

// PresignPutObject returns a URL granting a single upload of the given
// content type.
func (c *Client) PresignPutObject(key string, contentType string, expires time.Duration) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("object key is required")
	}
	if expires <= 0 {
		return "", errors.New("expiry must be positive")
	}
	return c.presign(http.MethodPut, key, expires), nil
}

func (c *Client) presign(method, key string, expires time.Duration) string {
	now := time.Now()
	amzDate := now.UTC().Format("20060102T150405Z")
	path := "/" + c.bucket + "/" + key

	query := url.Values{}
	query.Set("X-Amz-Algorithm", algorithm)
	query.Set("X-Amz-Credential", c.accessKeyID+"/"+credentialScope(now.UTC().Format("20060102")))
	query.Set("X-Amz-Date", amzDate)
	query.Set("X-Amz-Expires", strconv.Itoa(int(expires.Seconds())))
	query.Set("X-Amz-SignedHeaders", "host")

	sig := signature(c.secret, signInput{
		method:      method,
		host:        c.host,
		path:        path,
		query:       query,
		payloadHash: unsignedPayload,
		now:         now,
	})
	query.Set("X-Amz-Signature", sig)

	return "https://" + c.host + escapePath(path) + "?" + query.Encode()
}

// PublicURL maps an object key to its public serving URL.
func (c *Client) PublicURL(key string) string {
	return c.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL extracts the object key from a public asset URL. Returns false
// when the URL does not belong to the configured bucket.
func (c *Client) KeyFromURL(raw string) (string, bool) {
	if c.publicBaseURL == "" || !strings.HasPrefix(raw, c.publicBaseURL) {
		return "", false
	}
	key := strings.TrimLeft(strings.TrimPrefix(raw, c.publicBaseURL), "/")
	if key == "" {
		return "", false
	}
	return key, true
}
