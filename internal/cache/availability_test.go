// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/oparking/internal/store"
)

func TestAvailabilityCache_LoadsOnceUntilInvalidated(t *testing.T) {
	mc := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mc.Close() }()
	ac := NewAvailabilityCache(mc, 0, testLogger())
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]store.LotSummary, error) {
		calls++
		return []store.LotSummary{{ID: 1, Name: "Main Lot", TotalSpots: 2, EmptySpots: int64(2 - calls + 1)}}, nil
	}

	first, err := ac.LotSummaries(ctx, load)
	if err != nil {
		t.Fatalf("LotSummaries: %v", err)
	}
	second, err := ac.LotSummaries(ctx, load)
	if err != nil {
		t.Fatalf("LotSummaries: %v", err)
	}
	if calls != 1 {
		t.Errorf("load calls = %d, want 1", calls)
	}
	if second[0].EmptySpots != first[0].EmptySpots {
		t.Errorf("cached EmptySpots = %d, want %d", second[0].EmptySpots, first[0].EmptySpots)
	}

	ac.Invalidate(ctx)
	third, err := ac.LotSummaries(ctx, load)
	if err != nil {
		t.Fatalf("LotSummaries: %v", err)
	}
	if calls != 2 {
		t.Errorf("load calls after Invalidate = %d, want 2", calls)
	}
	if third[0].EmptySpots != 1 {
		t.Errorf("EmptySpots after reload = %d, want 1", third[0].EmptySpots)
	}
}

func TestAvailabilityCache_LoadError(t *testing.T) {
	mc := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mc.Close() }()
	ac := NewAvailabilityCache(mc, 0, testLogger())

	boom := errors.New("db down")
	_, err := ac.LotSummaries(context.Background(), func(context.Context) ([]store.LotSummary, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestAvailabilityCache_ClosedBackendFallsThrough(t *testing.T) {
	mc := NewMemoryCache(time.Hour, 0)
	_ = mc.Close()
	ac := NewAvailabilityCache(mc, 0, testLogger())

	sums, err := ac.LotSummaries(context.Background(), func(context.Context) ([]store.LotSummary, error) {
		return []store.LotSummary{{ID: 9}}, nil
	})
	if err != nil {
		t.Fatalf("LotSummaries: %v", err)
	}
	if len(sums) != 1 || sums[0].ID != 9 {
		t.Errorf("sums = %+v, want one lot with ID 9", sums)
	}
}

func TestAvailabilityCache_LoadRacingInvalidateIsNotServed(t *testing.T) {
	mc := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mc.Close() }()
	ac := NewAvailabilityCache(mc, 0, testLogger())
	ctx := context.Background()

	// The first load sees pre-reservation counts, then a reservation
	// invalidates before the loader writes its result back.
	_, err := ac.LotSummaries(ctx, func(ctx context.Context) ([]store.LotSummary, error) {
		ac.Invalidate(ctx)
		return []store.LotSummary{{ID: 1, EmptySpots: 2}}, nil
	})
	if err != nil {
		t.Fatalf("LotSummaries: %v", err)
	}

	sums, err := ac.LotSummaries(ctx, func(context.Context) ([]store.LotSummary, error) {
		return []store.LotSummary{{ID: 1, EmptySpots: 1}}, nil
	})
	if err != nil {
		t.Fatalf("LotSummaries: %v", err)
	}
	if sums[0].EmptySpots != 1 {
		t.Errorf("EmptySpots = %d, want 1 (stale entry served)", sums[0].EmptySpots)
	}
}

func TestAvailabilityCache_Stats(t *testing.T) {
	mc := NewMemoryCache(time.Hour, 0)
	defer func() { _ = mc.Close() }()
	ac := NewAvailabilityCache(mc, 0, testLogger())
	ctx := context.Background()

	load := func(context.Context) ([]store.LotSummary, error) {
		return []store.LotSummary{{ID: 1}}, nil
	}
	for i := 0; i < 3; i++ {
		if _, err := ac.LotSummaries(ctx, load); err != nil {
			t.Fatalf("LotSummaries: %v", err)
		}
	}

	stats := ac.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("Stats = %+v, want 2 hits, 1 miss, 1 set", stats)
	}
}
