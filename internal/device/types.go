package device

import (
	"fmt"
	"strconv"
	"time"
)

// WifiSample is one /api/wifi reading
type WifiSample struct {
	SSID string `json:"ssid"`
	RSSI int    `json:"rssi"`
}

// Direction is the action for a ranged setting
type Direction string

const (
	Up   Direction = "+"
	Down Direction = "-"
)

// Valid reports whether d is "+" or "-"
func (d Direction) Valid() bool { return d == Up || d == Down }

// ActionToggle is the action for a boolean setting
const ActionToggle = "toggle"

// ColorMode is the /set_bw mode
type ColorMode string

const (
	ModeColor ColorMode = "color"
	ModeBW    ColorMode = "bw"
)

// LinkStatus represents the reachability of the device API
type LinkStatus struct {
	Connected bool      `json:"connected"`
	LastError string    `json:"last_error,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

// StatusError is returned when the device answers with a non-2xx status
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Code, e.Body)
}

// CapturePath builds the snapshot URL path with a cache-busting token and the
// optional flash flag.
func CapturePath(token int64, flash bool) string {
	p := "/capture?t=" + strconv.FormatInt(token, 10)
	if flash {
		p += "&flash=true"
	}
	return p
}
