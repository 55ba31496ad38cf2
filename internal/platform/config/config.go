// Package config loads service configuration from a TOML file, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the gateway.
type Config struct {
	HTTP  HTTPConfig  `toml:"http"`
	Redis RedisConfig `toml:"redis"`
	Cache CacheConfig `toml:"cache"`
	Yahoo YahooConfig `toml:"yahoo"`
	Log   LogConfig   `toml:"log"`
	Auth  AuthConfig  `toml:"auth"`
	DB    DBConfig    `toml:"db"`
	Warm  WarmConfig  `toml:"warm"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `toml:"port"`
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// RedisConfig holds the cache server location.
type RedisConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Addr returns host:port, or "" when no host is configured.
func (c RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return c.Host + ":" + c.Port
}

// CacheConfig holds cache behaviour.
type CacheConfig struct {
	Timeout string `toml:"timeout"` // per-call Redis timeout, e.g. "500ms"
	Codec   string `toml:"codec"`   // "json" or "msgpack"
}

// GetTimeout parses Timeout, defaulting to 500ms.
func (c CacheConfig) GetTimeout() time.Duration { return parseDuration(c.Timeout, 500*time.Millisecond) }

// YahooConfig holds upstream client configuration.
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	CookieURL string `toml:"cookie_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"` // requests per minute
}

// GetTimeout parses Timeout, defaulting to 10s.
func (c YahooConfig) GetTimeout() time.Duration { return parseDuration(c.Timeout, 10*time.Second) }

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// AuthConfig holds bearer token verification settings. An empty secret disables the check.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// DBConfig selects the tracked symbol store.
type DBConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	DSN    string `toml:"dsn"`
}

// WarmConfig controls the cache warmer.
type WarmConfig struct {
	Schedule string   `toml:"schedule"` // cron expression with seconds field
	Symbols  []string `toml:"symbols"`
	Period   string   `toml:"period"`
}

// NewDefault returns a Config with defaults.
func NewDefault() *Config {
	return &Config{
		HTTP:  HTTPConfig{Port: 8080},
		Redis: RedisConfig{Host: "localhost", Port: "6379"},
		Cache: CacheConfig{Timeout: "500ms", Codec: "json"},
		Yahoo: YahooConfig{
			BaseURL:   "https://query2.finance.yahoo.com",
			CookieURL: "https://fc.yahoo.com",
			Timeout:   "10s",
			RateLimit: 60,
		},
		Log:  LogConfig{Level: "info"},
		DB:   DBConfig{Driver: "sqlite", DSN: "file:market_gateway.db?cache=shared"},
		Warm: WarmConfig{Schedule: "0 */4 * * * *", Period: "1y"},
	}
}

// Load reads .env (if present), then each TOML file in order, then the
// CONFIG_FILE file, then environment overrides. Missing files are skipped.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	cfg := NewDefault()
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		paths = append(paths, f)
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setString(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setString(&cfg.Cache.Timeout, "CACHE_TIMEOUT")
	setString(&cfg.Cache.Codec, "CACHE_CODEC")

	setString(&cfg.Yahoo.BaseURL, "YAHOO_BASE_URL")
	setString(&cfg.Yahoo.CookieURL, "YAHOO_COOKIE_URL")
	setString(&cfg.Yahoo.Timeout, "YAHOO_TIMEOUT")
	setInt(&cfg.Yahoo.RateLimit, "YAHOO_RATE_LIMIT")

	setInt(&cfg.HTTP.Port, "HTTP_PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv("LOG_PRETTY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Pretty = b
		}
	}
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.DB.Driver, "DB_DRIVER")
	setString(&cfg.DB.DSN, "DB_DSN")

	setString(&cfg.Warm.Schedule, "WARM_SCHEDULE")
	setString(&cfg.Warm.Period, "WARM_PERIOD")
	if v := os.Getenv("WARM_SYMBOLS"); v != "" {
		cfg.Warm.Symbols = SplitList(v)
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
