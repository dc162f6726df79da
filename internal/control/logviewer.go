package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/saniflush/camconsole/internal/eventloop"
)

// LogViewer mirrors the device's activity log. The device already caps and
// orders the log, so the blob replaces the region verbatim.
type LogViewer struct {
	sched    eventloop.Scheduler
	source   LogSource
	region   Markup
	interval time.Duration
	logger   *slog.Logger

	timer eventloop.Timer
}

// NewLogViewer creates the viewer. Nothing is polled until Start.
func NewLogViewer(sched eventloop.Scheduler, source LogSource, region Markup, interval time.Duration, logger *slog.Logger) *LogViewer {
	return &LogViewer{
		sched:    sched,
		source:   source,
		region:   region,
		interval: interval,
		logger:   logger,
	}
}

// Start fetches once immediately and then every interval
func (v *LogViewer) Start() {
	v.Stop()
	v.Refresh()
	v.timer = v.sched.Every(v.interval, v.Refresh)
}

// Stop cancels the poll timer
func (v *LogViewer) Stop() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// Refresh fetches the log now. Failures keep the current content.
func (v *LogViewer) Refresh() {
	v.sched.Go(func(ctx context.Context) func() {
		blob, err := v.source.Log(ctx)
		return func() {
			if err != nil {
				v.logger.Warn("Log refresh failed", "error", err)
				return
			}
			v.region.SetHTML(blob)
		}
	})
}
