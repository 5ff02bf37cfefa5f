// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"time"
)

// Backend names reported by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and tunes the cache backend.
type Config struct {
	// RedisURL selects Redis when set.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
}

// New returns a Redis cache when cfg.RedisURL is set and reachable, and a
// memory cache otherwise. The second result names the chosen backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Cache, string) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Minute
	}

	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, RedisOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			logger.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL), "prefix", cfg.Prefix)
			return rc, BackendRedis
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	}

	return NewMemoryCache(cfg.DefaultTTL, time.Minute), BackendMemory
}
