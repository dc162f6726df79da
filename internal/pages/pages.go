// Package pages renders the operator pages from a typed model.
package pages

import (
	"fmt"
	"html/template"
	"io"

	"github.com/saniflush/camconsole/internal/control"
	"github.com/saniflush/camconsole/internal/device"
)

// Element ids shared by the markup and the console's display surface
const (
	ElementWifiText = "wifiText"
	ElementPreview  = "preview"
	ElementLog      = "log"
)

// WifiBarID returns the id of bar slot i
func WifiBarID(i int) string { return fmt.Sprintf("wifiBar%d", i) }

// Kind selects the page body
type Kind string

const (
	KindHome     Kind = "home"
	KindStream   Kind = "stream"
	KindSettings Kind = "settings"
)

// Link is a navigation entry
type Link struct {
	Href   string
	Label  string
	NewTab bool
}

// Header is the banner shared by every page
type Header struct {
	DeviceID string
	IP       string
	Nav      []Link
}

// DefaultNav is the standard navigation bar
var DefaultNav = []Link{
	{Href: "/", Label: "Home"},
	{Href: "/settings", Label: "Settings"},
	{Href: "/stream", Label: "Stream", NewTab: true},
	{Href: "/capture", Label: "Capture", NewTab: true},
}

// NewHeader builds a header with the standard navigation
func NewHeader(deviceID, ip string) Header {
	return Header{DeviceID: deviceID, IP: ip, Nav: DefaultNav}
}

// SettingGroup is one box of controls on the settings page
type SettingGroup struct {
	Title    string
	Settings []device.Setting
}

// Groups partitions the catalog by group, keeping catalog order
func Groups(catalog []device.Setting) []SettingGroup {
	var groups []SettingGroup
	index := map[string]int{}
	for _, s := range catalog {
		i, ok := index[s.Group]
		if !ok {
			i = len(groups)
			index[s.Group] = i
			groups = append(groups, SettingGroup{Title: s.Group})
		}
		groups[i].Settings = append(groups[i].Settings, s)
	}
	return groups
}

// Endpoint is an entry in the home page API reference
type Endpoint struct {
	Href        string
	Label       string
	Description string
	Linked      bool
}

// Endpoints documents the device API on the home page
var Endpoints = []Endpoint{
	{Href: "/", Label: "GET /", Description: "This API reference page", Linked: true},
	{Href: "/capture", Label: "GET /capture", Description: "Capture image without flash", Linked: true},
	{Href: "/capture?flash=true", Label: "GET /capture?flash=true", Description: "Capture image with flash", Linked: true},
	{Href: "/stream", Label: "GET /stream", Description: "Live video stream (MJPEG)", Linked: true},
	{Href: "/settings", Label: "GET /settings", Description: "Camera settings control panel", Linked: true},
	{Label: "GET /api/settings?setting=brightness&action=+", Description: "Adjust camera settings"},
	{Href: "/set_bw?mode=bw", Label: "GET /set_bw?mode=bw", Description: "Set black & white mode", Linked: true},
	{Href: "/set_bw?mode=color", Label: "GET /set_bw?mode=color", Description: "Set color mode", Linked: true},
	{Href: "/api/values", Label: "GET /api/values", Description: "Get current camera settings (JSON)", Linked: true},
}

// PreviewOptions is the preview state the settings page controls start from
type PreviewOptions struct {
	Mode  control.RefreshMode
	Flash bool
}

// Auto reports whether timed refresh is on
func (o PreviewOptions) Auto() bool { return o.Mode == control.RefreshAuto }

// DefaultPreview matches a freshly started preview controller
var DefaultPreview = PreviewOptions{Mode: control.RefreshManual, Flash: true}

// Page is everything needed to render one page
type Page struct {
	Title  string
	Header Header
	Kind   Kind

	// Settings page only
	Groups  []SettingGroup
	Preview PreviewOptions
	// Home page only
	Endpoints []Endpoint
}

// Home builds the home page model
func Home(h Header) Page {
	return Page{Title: "Sani Flush Cam", Header: h, Kind: KindHome, Endpoints: Endpoints}
}

// Stream builds the stream page model
func Stream(h Header) Page {
	return Page{Title: "Sani Flush Cam - Stream", Header: h, Kind: KindStream}
}

// Settings builds the settings page model
func Settings(h Header) Page {
	return Page{
		Title:   "Sani Flush Cam - Settings",
		Header:  h,
		Kind:    KindSettings,
		Groups:  Groups(device.Catalog),
		Preview: DefaultPreview,
	}
}

// Renderer executes the page templates
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"bars":      barSlots,
		"isBool":    func(s device.Setting) bool { return s.Kind == device.KindBool },
		"barID":     WifiBarID,
		"wifiText":  func() string { return ElementWifiText },
		"previewID": func() string { return ElementPreview },
		"logID":     func() string { return ElementLog },
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page as HTML
func (r *Renderer) Render(w io.Writer, p Page) error {
	switch p.Kind {
	case KindHome, KindStream, KindSettings:
	default:
		return fmt.Errorf("unknown page kind %q", p.Kind)
	}
	return r.tmpl.ExecuteTemplate(w, "layout", p)
}

type barSlot struct {
	Index  int
	Height int
}

// barSlots lists the signal bars, each 2px taller than the last
func barSlots() []barSlot {
	slots := make([]barSlot, control.BarSlots)
	for i := range slots {
		slots[i] = barSlot{Index: i, Height: 3 + 2*i}
	}
	return slots
}
