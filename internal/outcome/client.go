package outcome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/reelspin/internal/reel"
)

// StatusSuccess is the status value of a response that carries data.
const StatusSuccess = "success"

// DefaultPath is the outcome endpoint path.
const DefaultPath = "/api/get-reels-slot"

// Config holds configuration for the outcome client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	// Defaults to http://localhost:8000 if empty.
	BaseURL string

	// Path is the outcome endpoint. Defaults to DefaultPath.
	Path string

	// Token is sent as a bearer token when set.
	Token string

	// RefreshToken is asked for a new token after the endpoint rejects the
	// current one. A different token is installed and the fetch retried once.
	// Optional.
	RefreshToken func() (string, error)

	// MaxRetries is the number of extra attempts for retryable errors.
	// Zero means a single attempt.
	MaxRetries int

	// BaseRetryDelay is the delay before the first retry. Defaults to 200ms.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff. Defaults to 1s.
	MaxRetryDelay time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	// Defaults to a client with a 10s timeout.
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header. Optional.
	UserAgent string

	// Logger receives request diagnostics. Optional.
	Logger *zap.Logger
}

// Response is the wire form of an outcome answer.
type Response struct {
	Status  string     `json:"status"`
	Data    [][]string `json:"data,omitempty"`
	SpinID  string     `json:"spin_id,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Client fetches outcomes over HTTP.
type Client struct {
	config Config
	http   *http.Client
	log    *zap.Logger
	mu     sync.RWMutex
}

// NewClient creates a new outcome client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 200 * time.Millisecond
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: cfg,
		http:   httpClient,
		log:    logger.Named("outcome"),
	}
}

// SetToken updates the bearer token (thread-safe).
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Token = token
}

// Token returns the current bearer token (thread-safe).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Token
}

// URL returns the full endpoint URL.
func (c *Client) URL() string {
	base := c.config.BaseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimPrefix(c.config.Path, "/"))
}

// RequestOutcome starts Fetch in a goroutine and returns its result channel.
func (c *Client) RequestOutcome(ctx context.Context) <-chan Result {
	return FetchFunc(c.Fetch).RequestOutcome(ctx)
}

// Fetch requests one outcome, retrying retryable HTTP errors. An auth
// failure is retried once when RefreshToken yields a different token.
func (c *Client) Fetch(ctx context.Context) (reel.Outcome, error) {
	o, err := c.fetch(ctx)
	var authErr *AuthError
	if err == nil || c.config.RefreshToken == nil || !errors.As(err, &authErr) {
		return o, err
	}

	token, rerr := c.config.RefreshToken()
	if rerr != nil {
		c.log.Warn("token refresh failed", zap.Error(rerr))
		return nil, err
	}
	if token == "" || token == c.Token() {
		return nil, err
	}
	c.SetToken(token)
	c.log.Info("endpoint token refreshed, retrying")
	return c.fetch(ctx)
}

func (c *Client) fetch(ctx context.Context) (reel.Outcome, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.doRequest(ctx)
		if err != nil {
			lastErr = err
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.IsRetryable() {
				c.log.Debug("retryable outcome error", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			return nil, err
		}

		if resp.Status != StatusSuccess {
			return nil, &StatusError{Status: resp.Status, Message: resp.Message}
		}
		c.log.Debug("outcome received", zap.String("spin_id", resp.SpinID))
		return reel.OutcomeFromStrings(resp.Data), nil
	}

	return nil, fmt.Errorf("outcome: max retries exceeded: %w", lastErr)
}

// doRequest sends a single GET and decodes the envelope.
func (c *Client) doRequest(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("outcome: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("outcome: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("outcome: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("outcome: invalid response JSON: %w", err)
	}
	return &out, nil
}

// retryDelay calculates the backoff delay for a given attempt number.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.config.BaseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}
