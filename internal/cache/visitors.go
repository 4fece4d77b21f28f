// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"schoolportal/internal/models"
)

const (
	// visitorKeyPrefix namespaces every visitor counter key.
	visitorKeyPrefix = "visitors:"

	// DefaultOnlineWindow is how long a visitor counts as online after
	// their last page view.
	DefaultOnlineWindow = 5 * time.Minute

	dayKeyTTL   = 48 * time.Hour
	monthKeyTTL = 62 * 24 * time.Hour
)

// VisitorCounter keeps visit totals and the online set in Valkey. A visitor
// is counted once per calendar day; the online set is refreshed on every
// tracked request.
type VisitorCounter struct {
	client *redis.Client
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewVisitorCounter creates a counter. A zero window uses DefaultOnlineWindow.
func NewVisitorCounter(client *redis.Client, window time.Duration) *VisitorCounter {
	if window <= 0 {
		window = DefaultOnlineWindow
	}
	return &VisitorCounter{
		client: client,
		window: window,
		prefix: visitorKeyPrefix,
		now:    time.Now,
	}
}

func (v *VisitorCounter) totalKey() string          { return v.prefix + "total" }
func (v *VisitorCounter) onlineKey() string         { return v.prefix + "online" }
func (v *VisitorCounter) dayKey(t time.Time) string { return v.prefix + "day:" + t.Format("20060102") }
func (v *VisitorCounter) monthKey(t time.Time) string {
	return v.prefix + "month:" + t.Format("200601")
}
func (v *VisitorCounter) seenKey(t time.Time, visitorID string) string {
	return v.prefix + "seen:" + t.Format("20060102") + ":" + visitorID
}

// Track records a page view by a visitor at the given time.
func (v *VisitorCounter) Track(ctx context.Context, visitorID string, now time.Time) error {
	if visitorID == "" {
		return errors.New("track visitor: empty visitor id")
	}

	first, err := v.client.SetNX(ctx, v.seenKey(now, visitorID), 1, dayKeyTTL).Result()
	if err != nil {
		return fmt.Errorf("mark visitor seen: %w", err)
	}

	pipe := v.client.TxPipeline()
	if first {
		pipe.Incr(ctx, v.totalKey())
		pipe.Incr(ctx, v.dayKey(now))
		pipe.Expire(ctx, v.dayKey(now), dayKeyTTL)
		pipe.Incr(ctx, v.monthKey(now))
		pipe.Expire(ctx, v.monthKey(now), monthKeyTTL)
	}
	pipe.ZAdd(ctx, v.onlineKey(), redis.Z{Score: float64(now.Unix()), Member: visitorID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("track visitor: %w", err)
	}
	return nil
}

// Stats reads the counters as of now.
func (v *VisitorCounter) Stats(ctx context.Context) (models.VisitorStats, error) {
	return v.StatsAt(ctx, v.now())
}

// StatsAt reads the counters as of the given time, dropping online entries
// older than the window.
func (v *VisitorCounter) StatsAt(ctx context.Context, now time.Time) (models.VisitorStats, error) {
	cutoff := now.Add(-v.window).Unix()

	pipe := v.client.Pipeline()
	total := pipe.Get(ctx, v.totalKey())
	day := pipe.Get(ctx, v.dayKey(now))
	month := pipe.Get(ctx, v.monthKey(now))
	pipe.ZRemRangeByScore(ctx, v.onlineKey(), "-inf", "("+strconv.FormatInt(cutoff, 10))
	online := pipe.ZCard(ctx, v.onlineKey())

	// Missing counters come back as redis.Nil, which only means zero.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return models.VisitorStats{}, fmt.Errorf("read visitor stats: %w", err)
	}

	var stats models.VisitorStats
	var err error
	if stats.Total, err = counter(total); err != nil {
		return models.VisitorStats{}, err
	}
	if stats.Today, err = counter(day); err != nil {
		return models.VisitorStats{}, err
	}
	if stats.Month, err = counter(month); err != nil {
		return models.VisitorStats{}, err
	}
	if stats.Online, err = online.Result(); err != nil {
		return models.VisitorStats{}, fmt.Errorf("count online visitors: %w", err)
	}
	return stats, nil
}

func counter(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", cmd.Args()[1], err)
	}
	return n, nil
}
