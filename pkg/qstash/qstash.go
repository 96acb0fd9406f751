package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

const maxResponseSizeBytes = 64 << 10

type Config struct {
	URL         string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token       string        `split_words:"true" required:"true"`
	Destination string        `split_words:"true" required:"true"`
	Retries     int           `split_words:"true" default:"3"`
	Timeout     time.Duration `split_words:"true" default:"10s"`
}

// Client publishes cart events to a QStash destination.
type Client struct {
	baseURL     string
	token       string
	destination string
	retries     int
	httpClient  *http.Client
	now         func() time.Time
}

var _ contractx.EventPublisher = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("qstash token is required")
	}

	destination := strings.TrimSpace(cfg.Destination)
	if _, err := url.ParseRequestURI(destination); err != nil {
		return nil, fmt.Errorf("invalid qstash destination: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		destination: destination,
		retries:     max(cfg.Retries, 0),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type cartEventMessage struct {
	SessionID   string                `json:"session_id"`
	Events      []contractx.CartEvent `json:"events"`
	PublishedAt time.Time             `json:"published_at"`
}

type publishResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Publish sends one message carrying every event of a turn. An empty batch is
// a no-op.
func (c *Client) Publish(ctx context.Context, sessionID string, events []contractx.CartEvent) error {
	if len(events) == 0 {
		return nil
	}

	body, err := json.Marshal(cartEventMessage{
		SessionID:   sessionID,
		Events:      events,
		PublishedAt: c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal cart events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/publish/"+c.destination, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build qstash request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Retries", strconv.Itoa(c.retries))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute qstash request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read qstash response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("qstash http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed publishResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode qstash response: %w", err)
	}
	if parsed.Error != "" {
		return errors.New(parsed.Error)
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("message_id", parsed.MessageID).
		Int("events", len(events)).
		Msg("cart events published")
	return nil
}
