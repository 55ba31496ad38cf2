// Package yahoo is a client for the Yahoo Finance web API.
package yahoo

import "time"

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 60 // requests per minute
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config holds configuration for the Yahoo Finance client.
type Config struct {
	BaseURL   string        // API host, e.g. "https://query2.finance.yahoo.com"
	CookieURL string        // page that sets the session cookie needed for a crumb
	Timeout   time.Duration // HTTP request timeout
	RateLimit int           // requests per minute; 0 disables throttling
	UserAgent string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CookieURL == "" {
		c.CookieURL = DefaultCookieURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}
