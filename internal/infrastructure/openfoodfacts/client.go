package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mealsignal/backend/internal/domain"
)

const (
	maxAttempts     = 3
	maxResponseSize = 5 << 20
	defaultPageSize = 10
)

// Config holds configuration for the Open Food Facts client
type Config struct {
	BaseURL           string
	UserAgent         string
	PageSize          int
	Timeout           time.Duration
	RequestsPerMinute int
}

// searchResponse is the subset of the search endpoint's body we read
type searchResponse struct {
	Count    int                            `json:"count"`
	Products []domain.ExternalProductRecord `json:"products"`
}

// Client handles communication with the Open Food Facts search API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	pageSize    int
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new Open Food Facts client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "MealSignal/1.0"
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		userAgent:   userAgent,
		pageSize:    pageSize,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), max(1, perMinute/6)),
		logger:      logger.Named("off"),
		backoff:     exponentialBackoff,
	}
}

// SetDebug toggles per-request debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns 500ms, 1s, 2s for attempts 1, 2, 3
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes of the body
func readLimitedBody(body io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, limit))
}

func (c *Client) debugLog(msg string, fields ...zap.Field) {
	if c.debug {
		c.logger.Debug(msg, fields...)
	}
}

// retryable reports whether a response status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// SearchProducts searches Open Food Facts for products matching query
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.ExternalProductRecord, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(c.pageSize))
	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())

	c.debugLog("searching products", zap.String("query", query))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		products, err, retry := c.search(ctx, reqURL)
		if err == nil {
			c.debugLog("search complete", zap.String("query", query), zap.Int("products", len(products)))
			return products, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("product search attempt failed",
			zap.Int("attempt", attempt),
			zap.String("query", query),
			zap.Error(err))
	}

	return nil, lastErr
}

// search performs one request; the bool reports whether the failure is transient
func (c *Client) search(ctx context.Context, reqURL string) ([]domain.ExternalProductRecord, error, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err), false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFoodDBFailure, ctx.Err()), false
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFoodDBFailure, err), true
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrFoodDBFailure, err), true
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound, false
		}
		statusErr := fmt.Errorf("%w: status %d", domain.ErrFoodDBFailure, resp.StatusCode)
		return nil, statusErr, retryable(resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrFoodDBFailure, err), false
	}
	if parsed.Products == nil {
		parsed.Products = []domain.ExternalProductRecord{}
	}
	return parsed.Products, nil, false
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrFoodDBFailure, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// IsNotFound reports whether err means the search endpoint had no such resource
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound)
}
