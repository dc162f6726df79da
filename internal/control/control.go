// Package control holds the operator page's controllers: WiFi status, activity
// log, preview refresh and the settings panel. Every exported method must be
// called on the scheduler's loop; device requests run off-loop and their
// results are applied back on it.
package control

import (
	"context"

	"github.com/saniflush/camconsole/internal/device"
)

// Markup is an element whose inner markup is replaced wholesale
type Markup interface {
	SetHTML(html string)
}

// Bar is one signal-strength slot
type Bar interface {
	SetActive(active bool)
	SetColor(color string)
}

// Image is an element with a replaceable source
type Image interface {
	SetSource(src string)
}

// ValueDisplay shows one setting value
type ValueDisplay interface {
	SetText(text string)
	SetColor(color string)
}

// Registry maps setting names to the elements that display them. Settings
// without an entry are not shown.
type Registry map[string]ValueDisplay

// WifiSource provides WiFi telemetry
type WifiSource interface {
	Wifi(ctx context.Context) (device.WifiSample, error)
}

// LogSource provides the activity log blob
type LogSource interface {
	Log(ctx context.Context) (string, error)
}

// SettingsAPI is the part of the device API the settings panel drives
type SettingsAPI interface {
	Values(ctx context.Context) (device.Snapshot, error)
	Adjust(ctx context.Context, name string, dir device.Direction) (string, error)
	Toggle(ctx context.Context, name string) (string, error)
	SetColorMode(ctx context.Context, mode device.ColorMode) (string, error)
}

// Refresher is anything that can refresh the preview on demand
type Refresher interface {
	Refresh()
}
