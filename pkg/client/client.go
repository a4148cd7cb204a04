// Package client is the authenticated JSON dispatcher for the email provider's REST API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/mail-connector/pkg/cache"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the provider's API root.
const DefaultBaseURL = "https://api.transactional-mail.example/v1"

// CredentialTestPath is requested by TestCredentials.
const CredentialTestPath = "/domains"

// Prometheus metrics for provider requests.
var (
	mailRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_requests_total",
		Help: "Total provider API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	mailRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mail_request_duration_seconds",
		Help:    "Provider API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	mailErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_errors_total",
		Help: "Total provider API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
// It only labels metrics and logs; no failure is retried.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures.
	ErrorClassNetwork ErrorClass = "network"
)

// Client sends authenticated JSON requests to the provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	cache      *cache.Manager
	cacheable  map[string]bool
	account    string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the provider API, without trailing slash
	BaseURL string

	// APIKey is sent as "Authorization: Bearer <APIKey>"
	APIKey string

	// UserAgent header value
	UserAgent string

	// Timeout per HTTP request (0 = no timeout)
	Timeout time.Duration

	// Redis enables the GET response cache when set together with CacheTTL
	Redis *redis.Client

	// CacheTTL for cached GET responses
	CacheTTL time.Duration

	// CacheablePaths lists the exact paths whose GET responses may be cached
	CacheablePaths []string
}

// DefaultConfig returns a configuration with caching disabled.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		APIKey:         apiKey,
		UserAgent:      "mail-connector/1.0",
		Timeout:        30 * time.Second,
		CacheablePaths: []string{"/domains", "/webhooks"},
	}
}

// New creates a new provider client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("cache ttl must be >= 0 (got %s)", cfg.CacheTTL)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		config:    cfg,
		cacheable: make(map[string]bool, len(cfg.CacheablePaths)),
		account:   cache.Fingerprint(cfg.APIKey),
		logger:    log.With().Str("component", "mail-client").Logger(),
	}

	if cfg.Redis != nil && cfg.CacheTTL > 0 {
		c.cache = cache.NewManager(cfg.Redis)
		for _, p := range cfg.CacheablePaths {
			c.cacheable[p] = true
		}
	}

	return c, nil
}

// Request sends one authenticated JSON request and decodes the JSON object
// returned by the provider. Nil or empty bodies and empty queries are not sent.
// Any non-2xx status or transport failure is returned as *APIError.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (map[string]any, error) {
	return c.do(ctx, method, path, body, query, true)
}

// TestCredentials validates the API key with an uncached GET /domains.
func (c *Client) TestCredentials(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, CredentialTestPath, nil, nil, false); err != nil {
		return fmt.Errorf("credential test: %w", err)
	}
	c.logger.Info().Str("account", c.account).Msg("Credentials accepted")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, useCache bool) (map[string]any, error) {
	endpoint := endpointLabel(path)

	var cacheKey cache.CacheKey
	cacheable := useCache && method == http.MethodGet && c.cache != nil && c.cacheable[path]
	if cacheable {
		cacheKey = cache.CacheKey{Endpoint: path, QueryParams: query, Account: c.account}
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			if obj, decodeErr := decodeObject(entry.Data); decodeErr == nil {
				c.logger.Debug().Str("endpoint", endpoint).Msg("Served from cache")
				return obj, nil
			}
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	hasBody := !isEmptyBody(body)
	if hasBody {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing provider request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	mailRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	if err != nil {
		mailErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		mailRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &APIError{
			Method:     method,
			Path:       path,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		mailErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	mailRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := classifyStatus(resp.StatusCode)
		mailErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Provider request error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			ErrorClass: errClass,
			Message:    providerMessage(data, resp.Status),
			Body:       string(data),
		}
	}

	obj, err := decodeObject(data)
	if err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    "decode response",
			Err:        err,
		}
	}

	if cacheable {
		if err := c.cache.Set(ctx, cacheKey, cache.NewEntry(data, resp.StatusCode, c.config.CacheTTL)); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
		}
	}

	return obj, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// classifyStatus categorizes a non-2xx status for observability.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// endpointLabel keeps metric cardinality bounded: "/emails/abc" becomes "/emails/{id}".
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "/"
	}
	if len(segments) == 1 {
		return "/" + segments[0]
	}
	return "/" + segments[0] + "/{id}"
}

func isEmptyBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return true
	case map[string]any:
		return len(b) == 0
	case []byte:
		return len(b) == 0
	}
	return false
}

// decodeObject decodes a JSON object keeping numbers as json.Number.
// An empty body decodes to an empty object.
func decodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

// providerMessage extracts the provider's error text, falling back to the HTTP status.
func providerMessage(data []byte, status string) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		switch e := payload.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	return status
}
