package control

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/saniflush/camconsole/internal/device"
	"github.com/saniflush/camconsole/internal/eventloop"
	"github.com/saniflush/camconsole/internal/metrics"
)

// BarSlots is the number of bars in the signal indicator
const BarSlots = 8

// WifiErrorText is shown while the telemetry endpoint is unreachable
const WifiErrorText = "WiFi: Error"

// Signal is the classification of an RSSI reading
type Signal struct {
	Bars  int
	Color string
	Label string
}

var signalTiers = []struct {
	min int
	sig Signal
}{
	{-50, Signal{Bars: 8, Color: "#00ff00", Label: "Excellent"}},
	{-60, Signal{Bars: 6, Color: "#80ff00", Label: "Good"}},
	{-70, Signal{Bars: 4, Color: "#ffff00", Label: "Fair"}},
	{-80, Signal{Bars: 2, Color: "#ff8000", Label: "Weak"}},
}

var signalPoor = Signal{Bars: 1, Color: "#ff0000", Label: "Poor"}

// Classify maps an RSSI in dBm onto a signal tier. Tier thresholds are
// inclusive lower bounds, checked strongest first.
func Classify(rssi int) Signal {
	for _, tier := range signalTiers {
		if rssi >= tier.min {
			return tier.sig
		}
	}
	return signalPoor
}

// WifiView is the header's WiFi widget
type WifiView struct {
	Text Markup
	Bars [BarSlots]Bar
}

// WifiWidget polls /api/wifi and renders the signal indicator
type WifiWidget struct {
	sched    eventloop.Scheduler
	source   WifiSource
	view     WifiView
	interval time.Duration
	logger   *slog.Logger

	// Metrics is optional
	Metrics *metrics.Metrics

	timer eventloop.Timer
}

// NewWifiWidget creates the widget. Nothing is polled until Start.
func NewWifiWidget(sched eventloop.Scheduler, source WifiSource, view WifiView, interval time.Duration, logger *slog.Logger) *WifiWidget {
	return &WifiWidget{
		sched:    sched,
		source:   source,
		view:     view,
		interval: interval,
		logger:   logger,
	}
}

// Start polls once immediately and then every interval
func (w *WifiWidget) Start() {
	w.Stop()
	w.Poll()
	w.timer = w.sched.Every(w.interval, w.Poll)
}

// Stop cancels the poll timer
func (w *WifiWidget) Stop() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Poll issues one telemetry request
func (w *WifiWidget) Poll() {
	w.sched.Go(func(ctx context.Context) func() {
		sample, err := w.source.Wifi(ctx)
		return func() {
			if err != nil {
				w.logger.Warn("WiFi poll failed", "error", err)
				w.renderError()
				return
			}
			w.render(sample)
		}
	})
}

func (w *WifiWidget) render(sample device.WifiSample) {
	sig := Classify(sample.RSSI)
	w.Metrics.SetRSSI(sample.RSSI)

	if w.view.Text != nil {
		w.view.Text.SetHTML(fmt.Sprintf("%s<br>%s (%ddBm)", html.EscapeString(sample.SSID), sig.Label, sample.RSSI))
	}
	for i, bar := range w.view.Bars {
		if bar == nil {
			continue
		}
		if i < sig.Bars {
			bar.SetColor(sig.Color)
			bar.SetActive(true)
		} else {
			bar.SetActive(false)
		}
	}
}

func (w *WifiWidget) renderError() {
	if w.view.Text != nil {
		w.view.Text.SetHTML(WifiErrorText)
	}
}
