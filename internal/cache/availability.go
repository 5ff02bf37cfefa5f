// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/oparking/internal/store"
)

const (
	lotGenerationKey   = "lots:generation"
	lotSummariesPrefix = "lots:summaries:"

	// generationTTL outlives any summaries entry; an expired generation is
	// replaced by a fresh one, which only costs a miss.
	generationTTL = 24 * time.Hour
)

// AvailabilityCache caches the lot list with spot counts. Any write that
// changes a lot or a spot status must call Invalidate.
//
// Entries are keyed by a generation that Invalidate replaces, so a reader
// that loaded before an invalidation writes its result under the old
// generation where nobody reads it.
type AvailabilityCache struct {
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewAvailabilityCache wraps c. A zero ttl uses the backend default.
func NewAvailabilityCache(c Cache, ttl time.Duration, logger *slog.Logger) *AvailabilityCache {
	return &AvailabilityCache{cache: c, ttl: ttl, logger: logger}
}

// LotSummaries returns cached summaries, calling load on a miss. Cache
// failures are logged and fall through to load.
func (a *AvailabilityCache) LotSummaries(ctx context.Context, load func(context.Context) ([]store.LotSummary, error)) ([]store.LotSummary, error) {
	gen, ok := a.generation(ctx)
	key := lotSummariesPrefix + gen

	if ok {
		data, err := a.cache.Get(ctx, key)
		if err == nil {
			var out []store.LotSummary
			if err := json.Unmarshal(data, &out); err == nil {
				a.hits.Add(1)
				return out, nil
			}
			a.logger.Warn("discarding corrupt availability cache entry", "key", key)
		} else if !errors.Is(err, ErrCacheMiss) {
			a.logger.Warn("availability cache read failed", "error", err)
		}
	}
	a.misses.Add(1)

	sums, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if !ok {
		return sums, nil
	}
	if data, err := json.Marshal(sums); err == nil {
		if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
			a.logger.Warn("availability cache write failed", "error", err)
		} else {
			a.sets.Add(1)
		}
	}
	return sums, nil
}

// Invalidate starts a new generation, orphaning every cached entry.
func (a *AvailabilityCache) Invalidate(ctx context.Context) {
	if err := a.cache.Set(ctx, lotGenerationKey, []byte(uuid.NewString()), generationTTL); err != nil {
		a.logger.Warn("availability cache invalidation failed", "error", err)
	}
}

// Stats returns hit/miss counters for lot summaries.
func (a *AvailabilityCache) Stats() Stats {
	return Stats{Hits: a.hits.Load(), Misses: a.misses.Load(), Sets: a.sets.Load()}
}

// generation returns the current generation, creating one if none exists.
// ok is false when the backend is unusable and caching should be skipped.
func (a *AvailabilityCache) generation(ctx context.Context) (string, bool) {
	data, err := a.cache.Get(ctx, lotGenerationKey)
	if err == nil {
		return string(data), true
	}
	if !errors.Is(err, ErrCacheMiss) {
		a.logger.Warn("availability cache read failed", "error", err)
		return "", false
	}

	gen := uuid.NewString()
	if err := a.cache.Set(ctx, lotGenerationKey, []byte(gen), generationTTL); err != nil {
		a.logger.Warn("availability cache write failed", "error", err)
		return "", false
	}
	return gen, true
}
