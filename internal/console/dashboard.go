package console

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/saniflush/camconsole/internal/config"
	"github.com/saniflush/camconsole/internal/control"
	"github.com/saniflush/camconsole/internal/device"
	"github.com/saniflush/camconsole/internal/display"
	"github.com/saniflush/camconsole/internal/eventloop"
	"github.com/saniflush/camconsole/internal/metrics"
	"github.com/saniflush/camconsole/internal/pages"
)

// Device is the camera API the dashboard drives
type Device interface {
	control.WifiSource
	control.LogSource
	control.SettingsAPI
}

// Action types sent by the browser
const (
	ActionAdjust         = "adjust"
	ActionToggle         = "toggle"
	ActionRefreshPreview = "refresh_preview"
	ActionRefreshValues  = "refresh_values"
	ActionRefreshLog     = "refresh_log"
	ActionRefreshMode    = "refresh_mode"
	ActionFlash          = "flash"
	ActionColorMode      = "color_mode"
)

// ErrUnknownAction is returned by Dispatch for an unrecognised action type
var ErrUnknownAction = errors.New("unknown action")

// Action is one operator request from a browser
type Action struct {
	Type      string `json:"type"`
	Setting   string `json:"setting,omitempty"`
	Direction string `json:"direction,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// Dashboard owns the page controllers and the surface they draw on. Start,
// Stop, Dispatch and the controllers must run on the scheduler's loop; the
// snapshot helpers are safe from any goroutine.
type Dashboard struct {
	Surface  *display.Surface
	Wifi     *control.WifiWidget
	Log      *control.LogViewer
	Preview  *control.PreviewController
	Settings *control.SettingsPanel

	settingIDs map[string]bool
	logger     *slog.Logger
}

// NewDashboard wires every controller to its elements on a fresh surface
func NewDashboard(sched eventloop.Scheduler, dev Device, polling config.PollingConfig, m *metrics.Metrics, logger *slog.Logger) *Dashboard {
	surface := display.NewSurface()

	view := control.WifiView{Text: surface.Element(pages.ElementWifiText)}
	for i := range view.Bars {
		view.Bars[i] = surface.Element(pages.WifiBarID(i))
	}

	registry := control.Registry{}
	settingIDs := map[string]bool{}
	for _, s := range device.Catalog {
		registry[s.Name] = surface.Element(s.Name)
		settingIDs[s.Name] = true
	}

	wifi := control.NewWifiWidget(sched, dev, view, polling.WifiInterval, logger.With("component", "wifi"))
	wifi.Metrics = m

	preview := control.NewPreviewController(sched, surface.Element(pages.ElementPreview), polling.PreviewInterval)

	return &Dashboard{
		Surface:  surface,
		Wifi:     wifi,
		Log:      control.NewLogViewer(sched, dev, surface.Element(pages.ElementLog), polling.LogInterval, logger.With("component", "log")),
		Preview:  preview,
		Settings: control.NewSettingsPanel(sched, dev, registry, preview, polling.SettleDelay, logger.With("component", "settings")),

		settingIDs: settingIDs,
		logger:     logger,
	}
}

// Start begins polling and loads the current settings
func (d *Dashboard) Start() {
	d.Wifi.Start()
	d.Log.Start()
	d.Preview.Refresh()
	d.Settings.RefreshValues()
}

// Stop cancels every timer
func (d *Dashboard) Stop() {
	d.Wifi.Stop()
	d.Log.Stop()
	d.Preview.Stop()
}

// IsSetting reports whether id is a setting value element
func (d *Dashboard) IsSetting(id string) bool { return d.settingIDs[id] }

// SessionSnapshot is the state a freshly loaded page starts from. Setting
// values are blanked: a page only shows values fetched after it loaded.
func (d *Dashboard) SessionSnapshot() []display.Patch {
	return d.blankSettings(d.Surface.Snapshot())
}

func (d *Dashboard) blankSettings(snap []display.Patch) []display.Patch {
	out := make([]display.Patch, 0, len(snap)+len(d.settingIDs))
	for _, p := range snap {
		if !d.settingIDs[p.ID] {
			out = append(out, p)
		}
	}
	for _, s := range device.Catalog {
		text, color := "-", ""
		out = append(out, display.Patch{ID: s.Name, Text: &text, Color: &color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dispatch validates an action and hands it to the owning controller
func (d *Dashboard) Dispatch(a Action) error {
	switch a.Type {
	case ActionAdjust:
		dir := device.Direction(a.Direction)
		if a.Setting == "" || !dir.Valid() {
			return fmt.Errorf("adjust %q: invalid direction %q", a.Setting, a.Direction)
		}
		d.Settings.Adjust(a.Setting, dir)
	case ActionToggle:
		if a.Setting == "" {
			return errors.New("toggle: missing setting")
		}
		d.Settings.Toggle(a.Setting)
	case ActionRefreshPreview:
		d.Preview.Refresh()
	case ActionRefreshValues:
		d.Settings.RefreshValues()
	case ActionRefreshLog:
		d.Log.Refresh()
	case ActionRefreshMode:
		mode, err := control.ParseRefreshMode(a.Mode)
		if err != nil {
			return err
		}
		d.Preview.SetMode(mode)
	case ActionFlash:
		if a.Enabled == nil {
			return errors.New("flash: missing enabled")
		}
		d.Preview.SetFlash(*a.Enabled)
	case ActionColorMode:
		mode := device.ColorMode(a.Mode)
		if mode != device.ModeColor && mode != device.ModeBW {
			return fmt.Errorf("color_mode: invalid mode %q", a.Mode)
		}
		d.Settings.SetColorMode(mode)
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, a.Type)
	}
	return nil
}
