package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	"golang.org/x/time/rate"
)

const maxResponseSizeBytes = 4 << 20

type Config struct {
	CatalogURL        string        `envconfig:"CATALOG_URL" split_words:"true" default:"http://localhost:2040"`
	CartURL           string        `envconfig:"CART_URL" split_words:"true" default:"http://localhost:2070"`
	Token             string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout           time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
	RequestsPerSecond float64       `envconfig:"REQUESTS_PER_SECOND" split_words:"true" default:"5"`
	Burst             int           `envconfig:"BURST" split_words:"true" default:"5"`
	ProductCacheTTL   time.Duration `envconfig:"PRODUCT_CACHE_TTL" split_words:"true" default:"30s"`
}

func (c Config) Validate() error {
	for name, raw := range map[string]string{"catalog url": c.CatalogURL, "cart url": c.CartURL} {
		if _, err := url.ParseRequestURI(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%w: invalid marketplace %s: %v", contractx.ErrValidation, name, err)
		}
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("%w: marketplace token is required", contractx.ErrValidation)
	}
	if c.RequestsPerSecond < 0 || c.Burst < 0 {
		return fmt.Errorf("%w: marketplace rate limits must be >= 0", contractx.ErrValidation)
	}
	return nil
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter replaces the limiter built from Config. nil disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client talks to the catalog service and the cart/order service. It
// implements CatalogClient, OrderClient and CartClient.
type Client struct {
	catalogURL string
	cartURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time

	cacheTTL  time.Duration
	mu        sync.Mutex
	cached    []contractx.Product
	cachedAt  time.Time
	hasCached bool
}

var (
	_ contractx.CatalogClient = (*Client)(nil)
	_ contractx.OrderClient   = (*Client)(nil)
	_ contractx.CartClient    = (*Client)(nil)
)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		catalogURL: strings.TrimRight(strings.TrimSpace(cfg.CatalogURL), "/"),
		cartURL:    strings.TrimRight(strings.TrimSpace(cfg.CartURL), "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
		cacheTTL:   cfg.ProductCacheTTL,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// envelope is the wrapper every marketplace endpoint responds with.
type envelope struct {
	StatusCode      flexString      `json:"status_code"`
	ResponseMessage string          `json:"response_message"`
	ResponseBody    json.RawMessage `json:"response_body"`
}

type httpResult struct {
	status int
	env    envelope
	raw    []byte
}

// do sends one request and decodes the envelope. Non-2xx statuses are
// returned in the result, not as errors, so callers can map them.
func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*httpResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", c.now().Sub(started)).
		Msg("marketplace request")

	res := &httpResult{status: resp.StatusCode, raw: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &res.env); err != nil && isSuccess(resp.StatusCode) {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return res, nil
}

// get fetches endpoint and decodes response_body into out.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	res, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if !isSuccess(res.status) {
		return fmt.Errorf("http status=%d body=%s", res.status, truncate(res.raw, 256))
	}
	if len(res.env.ResponseBody) == 0 || bytes.Equal(bytes.TrimSpace(res.env.ResponseBody), []byte("null")) {
		return errors.New("response_body is missing")
	}
	if err := json.Unmarshal(res.env.ResponseBody, out); err != nil {
		return fmt.Errorf("decode response_body: %w", err)
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
