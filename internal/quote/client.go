// Package quote fetches product pages and extracts the current title,
// price and currency.
//
// Rate limiting is handled via a token bucket limiter shared by every
// request the client makes.
package quote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/pricewatch/internal/models"
)

var (
	ErrBlocked  = errors.New("request blocked by the shop")
	ErrNotFound = errors.New("product page not found")
	ErrNoPrice  = errors.New("no price on the product page")
)

const maxBodyBytes = 5 << 20

// Fetcher produces a quote for a product reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (models.Quote, error)
}

// Client is the HTTP quote source.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a rate-limited client. requestsPerMinute <= 0 disables
// rate limiting.
func NewClient(timeout time.Duration, userAgent string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// Fetch downloads ref and extracts a quote from it.
func (c *Client) Fetch(ctx context.Context, ref string) (models.Quote, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Quote{}, fmt.Errorf("invalid product url %q", ref)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return models.Quote{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Quote{}, fmt.Errorf("http request %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Quote{}, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return models.Quote{}, fmt.Errorf("%s returned %d: %w", u.Host, resp.StatusCode, ErrBlocked)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return models.Quote{}, fmt.Errorf("%s returned %d: %w", u.Host, resp.StatusCode, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return models.Quote{}, fmt.Errorf("%s returned %d: %s", u.Host, resp.StatusCode, truncate(body, 200))
	}

	q, err := Extract(body)
	if err != nil {
		return models.Quote{}, err
	}

	c.logger.Debug("Quote fetched",
		"host", u.Host, "price", q.Price, "currency", q.Currency,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return q, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
