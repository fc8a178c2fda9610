package directory

import (
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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/career-transitions/internal/types"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is how many times a throttled or failed request is retried.
	DefaultMaxRetries = 3
	// DefaultBaseBackoff is the first retry delay; each retry doubles it.
	DefaultBaseBackoff = time.Second
	// DefaultRPS is the request rate allowed toward the provider.
	DefaultRPS = 2.0

	maxRetryAfter = 30 * time.Second
	maxBodyBytes  = 4 << 20
)

// ClientConfig configures the HTTP directory client.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	RPS         float64
	MaxRetries  int
	BaseBackoff time.Duration
	HTTPClient  *http.Client
	Limiter     *rate.Limiter
}

// Client is the HTTP implementation of Directory.
type Client struct {
	baseURL     string
	apiKey      string
	maxRetries  int
	baseBackoff time.Duration
	http        *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a directory client. Zero config values fall back to defaults.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid directory URL %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:     base.String(),
		apiKey:      cfg.APIKey,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		http:        cfg.HTTPClient,
		limiter:     cfg.Limiter,
		logger:      logger.Named("directory"),
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.baseBackoff <= 0 {
		c.baseBackoff = DefaultBaseBackoff
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.limiter == nil {
		rps := cfg.RPS
		if rps <= 0 {
			rps = DefaultRPS
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c, nil
}

type searchResponse struct {
	Companies []types.CompanyRecord `json:"companies"`
}

// SearchCompany returns the provider's best match for name.
func (c *Client) SearchCompany(ctx context.Context, name string) (*types.CompanyRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var resp searchResponse
	err := c.getJSON(ctx, "/companies/search", url.Values{"q": {name}}, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search company %q: %w", name, err)
	}

	for i := range resp.Companies {
		company := resp.Companies[i]
		if err := company.Validate(); err != nil {
			c.logger.Warn("skipping invalid company record", zap.String("query", name), zap.Error(err))
			continue
		}
		return &company, nil
	}
	return nil, nil
}

// ListEmployees returns one page of a company's employees.
func (c *Client) ListEmployees(ctx context.Context, companyID string, opts ListOptions) (*Page, error) {
	opts = opts.normalized()
	params := url.Values{
		"current":  {strconv.FormatBool(opts.Current)},
		"page":     {strconv.Itoa(opts.Page)},
		"per_page": {strconv.Itoa(opts.PerPage)},
	}

	var page Page
	err := c.getJSON(ctx, "/companies/"+url.PathEscape(companyID)+"/employees", params, &page)
	if errors.Is(err, ErrNotFound) {
		return &Page{Page: opts.Page, TotalPages: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of %s: %w", companyID, err)
	}
	if page.Page == 0 {
		page.Page = opts.Page
	}
	return &page, nil
}

// EnrichPerson returns a person's validated position history. Malformed positions are dropped.
func (c *Client) EnrichPerson(ctx context.Context, personID string) (*types.Person, error) {
	var record types.PersonRecord
	err := c.getJSON(ctx, "/people/"+url.PathEscape(personID), nil, &record)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enrich person %s: %w", personID, err)
	}

	person, rejected := record.ToPerson()
	for _, rejectErr := range rejected {
		c.logger.Debug("dropping malformed record", zap.String("person_id", personID), zap.Error(rejectErr))
	}
	if person == nil {
		return nil, fmt.Errorf("failed to enrich person %s: %w", personID, rejected[0])
	}
	return person, nil
}

// getJSON performs a throttled GET with retries and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := c.doWithRetry(ctx, path, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// doWithRetry retries 429 and 5xx responses and network errors with exponential backoff.
// A Retry-After header on 429 overrides the backoff, capped at 30s.
func (c *Client) doWithRetry(ctx context.Context, path, endpoint string) ([]byte, error) {
	var lastStatus int
	var lastErr error
	var retryAfter time.Duration

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseBackoff << (attempt - 1)
			if retryAfter > 0 {
				delay = retryAfter
			}
			c.logger.Debug("retrying directory request",
				zap.String("path", path), zap.Int("attempt", attempt), zap.Int("status", lastStatus), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastStatus, lastErr, retryAfter = 0, err, 0
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				lastStatus, lastErr, retryAfter = 0, readErr, 0
				continue
			}
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			lastStatus, lastErr = resp.StatusCode, nil
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		case resp.StatusCode >= 500:
			lastStatus, lastErr, retryAfter = resp.StatusCode, nil, 0
		default:
			return nil, &RequestError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
	}

	attempts := c.maxRetries + 1
	if lastStatus == http.StatusTooManyRequests {
		c.logger.Warn("directory rate limit persisted", zap.String("path", path), zap.Int("attempts", attempts))
		return nil, &RateLimitedError{Path: path, Attempts: attempts, RetryAfter: retryAfter}
	}
	return nil, &TransientError{Path: path, StatusCode: lastStatus, Attempts: attempts, Cause: lastErr}
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return min(time.Duration(seconds)*time.Second, maxRetryAfter)
}
