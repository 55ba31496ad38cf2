package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"market_gateway/internal/feature/marketdata/usecase"
	"market_gateway/internal/shared/ratelimiter"
)

// errNoData marks a response where Yahoo reports the symbol as unknown.
var errNoData = errors.New("yahoo: no data")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("yahoo http %d (%s)", e.StatusCode, e.Endpoint)
}

// Client fetches quotes, history and search results from Yahoo Finance.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter ratelimiter.RateLimiterInterface
	log     zerolog.Logger

	mu    sync.Mutex
	crumb string
}

// Client implements the gateway's upstream provider.
var _ usecase.MarketDataProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "yahoo").Logger() }
}

// WithRateLimiter replaces the limiter built from Config.RateLimit.
func WithRateLimiter(rl ratelimiter.RateLimiterInterface) Option {
	return func(c *Client) {
		if rl != nil {
			c.limiter = rl
		}
	}
}

// NewClient creates a client. httpClient may be nil; a cookie jar is attached
// when the given client has none, since the crumb handshake relies on cookies.
func NewClient(cfg Config, httpClient *http.Client, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Jar == nil {
		hc := *httpClient
		hc.Jar, _ = cookiejar.New(nil)
		httpClient = &hc
	}

	c := &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a rate limited GET against the API host and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, withCrumb bool, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	if withCrumb {
		crumb, err := c.ensureCrumb(ctx)
		if err != nil {
			return err
		}
		params.Set("crumb", crumb)
	}

	u := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())
	res, err := c.do(ctx, u)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	c.log.Debug().Str("path", path).Int("status", res.StatusCode).Msg("yahoo request")

	switch {
	case res.StatusCode == http.StatusNotFound:
		return errNoData
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		if withCrumb {
			c.resetCrumb()
		}
		return &StatusError{StatusCode: res.StatusCode, Endpoint: path}
	case res.StatusCode >= 400:
		return &StatusError{StatusCode: res.StatusCode, Endpoint: path}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("yahoo decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	return res, nil
}

// ensureCrumb performs the cookie + crumb handshake once and reuses the result.
func (c *Client) ensureCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb, nil
	}

	// The cookie page answers with an error status but still sets the session cookie.
	if res, err := c.do(ctx, c.cfg.CookieURL); err == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	} else {
		c.log.Debug().Err(err).Msg("cookie request failed")
	}

	res, err := c.do(ctx, c.cfg.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("yahoo read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if res.StatusCode != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", &StatusError{StatusCode: res.StatusCode, Endpoint: "/v1/test/getcrumb"}
	}

	c.crumb = crumb
	c.log.Debug().Msg("obtained yahoo crumb")
	return crumb, nil
}

func (c *Client) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}
