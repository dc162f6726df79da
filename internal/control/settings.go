package control

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/saniflush/camconsole/internal/device"
	"github.com/saniflush/camconsole/internal/eventloop"
)

// Colours for boolean setting values
const (
	ColorOn  = "#28a745"
	ColorOff = "#dc3545"
)

// SettingsPanel adjusts device settings and mirrors their values. Values are
// only ever shown as the device reports them; there is no optimistic update.
type SettingsPanel struct {
	sched    eventloop.Scheduler
	api      SettingsAPI
	registry Registry
	preview  Refresher
	settle   time.Duration
	logger   *slog.Logger
}

// NewSettingsPanel wires the panel. settle is the delay between a successful
// change and the preview refresh, giving exposure and gain time to converge.
func NewSettingsPanel(sched eventloop.Scheduler, api SettingsAPI, registry Registry, preview Refresher, settle time.Duration, logger *slog.Logger) *SettingsPanel {
	return &SettingsPanel{
		sched:    sched,
		api:      api,
		registry: registry,
		preview:  preview,
		settle:   settle,
		logger:   logger,
	}
}

// Adjust steps a ranged setting
func (s *SettingsPanel) Adjust(name string, dir device.Direction) {
	s.change(name, string(dir), func(ctx context.Context) (string, error) {
		return s.api.Adjust(ctx, name, dir)
	})
}

// Toggle flips a boolean setting. Ranged settings are not rejected here; the
// device decides.
func (s *SettingsPanel) Toggle(name string) {
	s.change(name, device.ActionToggle, func(ctx context.Context) (string, error) {
		return s.api.Toggle(ctx, name)
	})
}

func (s *SettingsPanel) change(name, action string, call func(ctx context.Context) (string, error)) {
	logger := s.logger.With("setting", name, "action", action)
	if setting, ok := device.Lookup(name); ok {
		logger = logger.With("label", setting.Label)
	}

	s.sched.Go(func(ctx context.Context) func() {
		ack, err := call(ctx)
		return func() {
			if err != nil {
				logger.Error("Setting change failed", "error", err)
				return
			}
			logger.Debug("Setting changed", "reply", ack)
			s.RefreshValues()
			if s.preview != nil {
				s.sched.AfterFunc(s.settle, s.preview.Refresh)
			}
		}
	})
}

// RefreshValues fetches the snapshot and updates every registered display
func (s *SettingsPanel) RefreshValues() {
	s.sched.Go(func(ctx context.Context) func() {
		snap, err := s.api.Values(ctx)
		return func() {
			if err != nil {
				s.logger.Error("Loading setting values failed", "error", err)
				return
			}
			s.apply(snap)
		}
	})
}

// apply updates displays in name order so patches reach browsers in a stable
// sequence
func (s *SettingsPanel) apply(snap device.Snapshot) {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := snap[name]
		target, ok := s.registry[name]
		if !ok || target == nil {
			continue
		}
		if on, isBool := v.Bool(); isBool {
			if on {
				target.SetText("ON")
				target.SetColor(ColorOn)
			} else {
				target.SetText("OFF")
				target.SetColor(ColorOff)
			}
			continue
		}
		target.SetText(v.String())
	}
}

// SetColorMode switches the sensor between colour and black & white
func (s *SettingsPanel) SetColorMode(mode device.ColorMode) {
	s.sched.Go(func(ctx context.Context) func() {
		ack, err := s.api.SetColorMode(ctx, mode)
		return func() {
			if err != nil {
				s.logger.Error("Setting colour mode failed", "mode", mode, "error", err)
				return
			}
			s.logger.Info("Colour mode set", "mode", mode, "reply", ack)
		}
	})
}
