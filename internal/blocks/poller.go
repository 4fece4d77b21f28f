// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"schoolportal/internal/models"
)

// StatsSource reports visitor statistics. Readings are best effort.
type StatsSource interface {
	Stats(ctx context.Context) (models.VisitorStats, error)
}

// Poller reads a StatsSource on a fixed interval and hands each reading to
// a publish callback. One poller serves one visible stats block; it runs a
// single goroutine between Start and Stop.
type Poller struct {
	src      StatsSource
	interval time.Duration
	publish  func(models.VisitorStats)

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a stopped poller.
func NewPoller(src StatsSource, interval time.Duration, publish func(models.VisitorStats)) *Poller {
	return &Poller{
		src:      src,
		interval: interval,
		publish:  publish,
		done:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. The first reading is taken right
// away. Start is a no-op if the poller was already started or stopped.
// Cancelling ctx stops the poller just like Stop.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return false
	}
	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
	return true
}

// Stop cancels polling and waits for the goroutine to exit. It is safe to
// call more than once and from several goroutines.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		started, cancel := p.started, p.cancel
		p.mu.Unlock()

		if started {
			cancel()
			<-p.done
		}
	})
}

// Done is closed once the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	stats, err := p.src.Stats(ctx)
	if ctx.Err() != nil {
		// Stopped while reading; the result belongs to nobody.
		return
	}
	if err != nil {
		slog.Warn("visitor stats poll failed", "error", err)
		return
	}
	p.publish(stats)
}
