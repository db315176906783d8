// Package replicate calls the Replicate predictions API.
package replicate

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

	"github.com/pixelgate/server/internal/port/outbound"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Prediction statuses.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// ErrPredictionFailed is returned when the prediction ends in failed or canceled.
var ErrPredictionFailed = errors.New("prediction failed")

// Config holds Replicate client configuration.
type Config struct {
	BaseURL  string
	APIToken string
	// Model is "owner/name" or "owner/name:version".
	Model        string
	Timeout      time.Duration
	PollInterval time.Duration
	Breaker      *BreakerConfig
}

// BreakerConfig enables a circuit breaker in front of the API.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// Client implements outbound.GenerationProviderPort.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	owner        string
	name         string
	version      string
	timeout      time.Duration
	pollInterval time.Duration
	breaker      *gobreaker.CircuitBreaker[json.RawMessage]
	logger       *zap.Logger
}

// NewClient creates a Replicate client. httpClient may be shared with other callers.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	ref, version, _ := strings.Cut(cfg.Model, ":")
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid model %q: want owner/name[:version]", cfg.Model)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	c := &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.APIToken,
		owner:        owner,
		name:         name,
		version:      version,
		timeout:      cfg.Timeout,
		pollInterval: pollInterval,
		logger:       logger.Named("replicate"),
	}

	if cfg.Breaker != nil {
		threshold := cfg.Breaker.FailureThreshold
		if threshold == 0 {
			threshold = 5
		}
		c.breaker = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
			Name:        "replicate",
			MaxRequests: 1,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "replicate"
}

// Model returns the configured model reference.
func (c *Client) Model() string {
	return c.owner + "/" + c.name
}

// Run creates a prediction for prompt and waits for its output.
func (c *Client) Run(ctx context.Context, prompt json.RawMessage) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.breaker == nil {
		return c.run(ctx, prompt)
	}
	return c.breaker.Execute(func() (json.RawMessage, error) {
		return c.run(ctx, prompt)
	})
}

type predictionRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

func (p *prediction) terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

func (c *Client) run(ctx context.Context, prompt json.RawMessage) (json.RawMessage, error) {
	pred, err := c.create(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for !pred.terminal() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for prediction %s: %w", pred.ID, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		pred, err = c.get(ctx, pred)
		if err != nil {
			return nil, err
		}
	}

	if pred.Status != StatusSucceeded {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrPredictionFailed, pred.ID, pred.Status, predictionError(pred.Error))
	}

	if len(pred.Output) == 0 {
		return json.RawMessage("null"), nil
	}
	return pred.Output, nil
}

func (c *Client) create(ctx context.Context, prompt json.RawMessage) (*prediction, error) {
	body := predictionRequest{Input: map[string]any{"prompt": prompt}}
	url := c.baseURL + "/v1/predictions"
	if c.version != "" {
		body.Version = c.version
	} else {
		url = fmt.Sprintf("%s/v1/models/%s/%s/predictions", c.baseURL, c.owner, c.name)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, pred *prediction) (*prediction, error) {
	url := pred.URLs.Get
	if url == "" {
		url = c.baseURL + "/v1/predictions/" + pred.ID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*prediction, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(respBody, 512))
	}

	var pred prediction
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &pred, nil
}

// predictionError renders the provider's error field, which may be a string or an object.
func predictionError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "no error detail"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ outbound.GenerationProviderPort = (*Client)(nil)
