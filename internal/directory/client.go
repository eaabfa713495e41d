package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/congrego/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the directory API.
	DefaultBaseURL = "https://api.vk.com/method"

	// DefaultAPIVersion is the directory API version sent with every call.
	DefaultAPIVersion = "5.131"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 3

	// MaxBatchSize is the directory service's own per-call identifier limit.
	MaxBatchSize = 500
)

// Client is a directory API client.
type Client struct {
	baseURL    string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAPIVersion sets a custom API version.
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new directory API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ResolveGroups resolves up to MaxBatchSize identifier references (numeric
// ids or screen names) in a single groups.getById call. Identifiers absent
// from the response were not found or are inaccessible; classifying them is
// the caller's concern.
func (c *Client) ResolveGroups(ctx context.Context, refs []string) ([]models.ResolvedGroup, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	if len(refs) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds directory limit of %d", len(refs), MaxBatchSize)
	}

	params := url.Values{}
	params.Set("group_ids", strings.Join(refs, ","))
	params.Set("fields", "members_count")

	var envelope apiResponse
	if err := c.call(ctx, "groups.getById", params, &envelope); err != nil {
		return nil, err
	}

	groups := make([]models.ResolvedGroup, 0, len(envelope.Response))
	for _, g := range envelope.Response {
		groups = append(groups, models.ResolvedGroup{
			ExternalID:  g.ID,
			Name:        g.Name,
			ScreenName:  g.ScreenName,
			MemberCount: g.MemberCount,
			Closed:      g.IsClosed > 0,
		})
	}
	return groups, nil
}

// call performs one directory API request.
func (c *Client) call(ctx context.Context, method string, params url.Values, result *apiResponse) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.apiKey)
	params.Set("v", c.apiVersion)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Msg("Directory API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Code: errCodeTooManyRequests, Message: "HTTP 429", RetryAfter: time.Second}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			Code:    resp.StatusCode,
			Message: string(body),
			Method:  method,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Error != nil {
		return apiErrorFor(method, result.Error)
	}

	return nil
}

// apiErrorFor maps the wire error envelope onto the client's typed errors
func apiErrorFor(method string, werr *wireError) error {
	switch werr.Code {
	case errCodeTooManyRequests, errCodeRateLimit:
		return &RateLimitError{Code: werr.Code, Message: werr.Message, RetryAfter: time.Second}
	case errCodeAuthFailed:
		return &AuthError{Message: werr.Message}
	default:
		return &APIError{Code: werr.Code, Message: werr.Message, Method: method}
	}
}
