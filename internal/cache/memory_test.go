// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "value1" {
		t.Errorf("Get = %q, want %q", val, "value1")
	}

	if err := c.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "key1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get expired err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_ReturnsCopy(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	in := []byte("abc")
	_ = c.Set(ctx, "k", in, 0)
	in[0] = 'x'

	got, _ := c.Get(ctx, "k")
	got[1] = 'y'

	again, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("cached value mutated: %q", again)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	for _, k := range []string{"lots:1", "lots:2", "other"} {
		_ = c.Set(ctx, k, []byte("v"), 0)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := c.Get(ctx, "other"); !errors.Is(err, ErrCacheMiss) {
		t.Error("Clear should remove everything")
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	ctx := context.Background()
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close err = %v, want ErrCacheClosed", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after Close err = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, "shared", []byte("v"), 0)
				_, _ = c.Get(ctx, "shared")
				_ = c.Delete(ctx, "shared")
			}
		}()
	}
	wg.Wait()
}
