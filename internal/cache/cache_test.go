// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// testCounter returns a counter whose keys are private to one test.
func testCounter(t *testing.T, window time.Duration) *VisitorCounter {
	t.Helper()
	client := testValkeyClient(t)

	vc := NewVisitorCounter(client, window)
	vc.prefix = "test:" + uuid.NewString() + ":"

	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, vc.prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	return vc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestVisitorCounterEmpty(t *testing.T) {
	vc := testCounter(t, time.Minute)

	stats, err := vc.StatsAt(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("StatsAt: %v", err)
	}
	if stats.Total != 0 || stats.Today != 0 || stats.Month != 0 || stats.Online != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestVisitorCounterCountsOncePerDay(t *testing.T) {
	vc := testCounter(t, 5*time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := vc.Track(ctx, "alice", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Track: %v", err)
		}
	}
	if err := vc.Track(ctx, "bob", now); err != nil {
		t.Fatalf("Track: %v", err)
	}

	stats, err := vc.StatsAt(ctx, now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("StatsAt: %v", err)
	}
	if stats.Total != 2 || stats.Today != 2 || stats.Month != 2 {
		t.Errorf("expected 2 unique visitors, got %+v", stats)
	}
	if stats.Online != 2 {
		t.Errorf("Online = %d, want 2", stats.Online)
	}
}

func TestVisitorCounterDayAndMonthRollover(t *testing.T) {
	vc := testCounter(t, 5*time.Minute)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	vc.Track(ctx, "alice", day1)
	vc.Track(ctx, "alice", day2)

	stats, err := vc.StatsAt(ctx, day2)
	if err != nil {
		t.Fatalf("StatsAt: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2 (one visit per day)", stats.Total)
	}
	if stats.Today != 1 || stats.Month != 1 {
		t.Errorf("Today=%d Month=%d, want 1 and 1", stats.Today, stats.Month)
	}
}

func TestVisitorCounterOnlineWindow(t *testing.T) {
	vc := testCounter(t, 5*time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	vc.Track(ctx, "stale", now.Add(-10*time.Minute))
	vc.Track(ctx, "fresh", now.Add(-time.Minute))

	stats, err := vc.StatsAt(ctx, now)
	if err != nil {
		t.Fatalf("StatsAt: %v", err)
	}
	if stats.Online != 1 {
		t.Errorf("Online = %d, want 1", stats.Online)
	}

	// The stale member was trimmed from the set.
	n, err := vc.client.ZCard(ctx, vc.onlineKey()).Result()
	if err != nil {
		t.Fatalf("ZCard: %v", err)
	}
	if n != 1 {
		t.Errorf("online set size = %d, want 1", n)
	}
}

func TestVisitorCounterStatsUsesClock(t *testing.T) {
	vc := testCounter(t, time.Minute)
	fixed := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	vc.now = func() time.Time { return fixed }

	if err := vc.Track(context.Background(), "carol", fixed); err != nil {
		t.Fatalf("Track: %v", err)
	}
	stats, err := vc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Today != 1 || stats.Online != 1 {
		t.Errorf("got %+v, want one visitor today and online", stats)
	}
}

func TestVisitorCounterRejectsEmptyID(t *testing.T) {
	vc := NewVisitorCounter(nil, 0)
	if err := vc.Track(context.Background(), "", time.Now()); err == nil {
		t.Error("expected error for empty visitor id")
	}
	if vc.window != DefaultOnlineWindow {
		t.Errorf("window = %v, want default", vc.window)
	}
}
