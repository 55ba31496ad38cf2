// Package db opens the gorm connection backing the tracked symbol registry.
package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"market_gateway/internal/platform/config"
)

const (
	// DefaultConnectTimeout bounds how long Open keeps retrying.
	DefaultConnectTimeout = 60 * time.Second
	retryInterval         = 3 * time.Second
)

// Opener opens a gorm connection. It is swapped out in tests.
type Opener func(gorm.Dialector) (*gorm.DB, error)

func defaultOpener(d gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
}

// Dialector picks the gorm driver for cfg.Driver ("sqlite" or "postgres").
func Dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db: empty DSN")
	}
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return sqlite.Open(cfg.DSN), nil
	case "postgres", "postgresql", "pg":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// Open connects using cfg, retrying until DefaultConnectTimeout elapses, and
// runs the given migrations.
func Open(cfg config.DBConfig, log zerolog.Logger, models ...any) (*gorm.DB, error) {
	d, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(d, DefaultConnectTimeout, retryInterval, defaultOpener, log)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("db: migrate: %w", err)
		}
	}
	return db, nil
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(d gorm.Dialector, timeout, interval time.Duration, open Opener, log zerolog.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(d)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db: connect failed after %s: %w", timeout, err)
		}
		log.Warn().Err(err).Str("driver", d.Name()).Msg("db connect failed, retrying")
		time.Sleep(interval)
	}
}
