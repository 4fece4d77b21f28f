// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolportal/internal/blocks"
	"schoolportal/internal/models"
)

// BlockFinder looks up a single block. *blocks.Service implements it.
type BlockFinder interface {
	Get(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error)
}

// StatsRowsRenderer renders the visitor counter rows of a stats block.
// *blocks.Renderer implements it.
type StatsRowsRenderer interface {
	RenderStatsRows(stats models.VisitorStats) (template.HTML, error)
}

// Stats streams live visitor counts to the stats blocks on public pages.
type Stats struct {
	blocks   BlockFinder
	rows     StatsRowsRenderer
	source   blocks.StatsSource
	interval time.Duration
}

// NewStats creates the stats stream handler. interval is how often the
// counters are re-read for each open stream.
func NewStats(finder BlockFinder, rows StatsRowsRenderer, source blocks.StatsSource, interval time.Duration) *Stats {
	return &Stats{blocks: finder, rows: rows, source: source, interval: interval}
}

// Stream serves GET /blocks/{id}/stats as server-sent events. Each reading
// is sent as a "stats" event carrying the re-rendered counter rows. The
// poller behind the stream lives exactly as long as the connection.
func (s *Stats) Stream(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	b, err := s.blocks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, blocks.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("load stats block failed", "block_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if b.Type != models.BlockStats || !b.IsVisible {
		http.NotFound(w, r)
		return
	}

	rc := http.NewResponseController(w)
	// The server's write timeout would otherwise cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("clear stream write deadline failed", "error", err)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Warn("stats stream cannot flush", "error", err)
		return
	}

	updates := make(chan models.VisitorStats, 1)
	poller := blocks.NewPoller(s.source, s.interval, func(st models.VisitorStats) {
		offerLatest(updates, st)
	})
	poller.Start(r.Context())
	defer poller.Stop()

	slog.Debug("stats stream opened", "block_id", id)
	for {
		select {
		case <-r.Context().Done():
			slog.Debug("stats stream closed", "block_id", id)
			return
		case st := <-updates:
			html, err := s.rows.RenderStatsRows(st)
			if err != nil {
				slog.Error("render stats rows failed", "error", err)
				continue
			}
			if err := writeEvent(w, "stats", string(html)); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// offerLatest puts v on a one-slot channel, replacing any value the
// reader has not taken yet.
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// writeEvent writes one server-sent event. Multi-line payloads become
// several data lines.
func writeEvent(w io.Writer, event, data string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "event: %s\n", event)
	for line := range strings.SplitSeq(data, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(strings.TrimRight(line, "\r"))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}
