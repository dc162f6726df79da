package simulator

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"

	"github.com/saniflush/camconsole/internal/device"
)

// Ranged settings are clamped to this window
const (
	minLevel = -2
	maxLevel = 8
)

// RSSI random walk bounds
const (
	minRSSI = -90
	maxRSSI = -40
)

// specialEffectGray is the sensor effect used for black & white mode
const specialEffectGray = 2

// Camera is the simulated sensor state
type Camera struct {
	mu    sync.Mutex
	ints  map[string]int
	bools map[string]bool
	rssi  int
	rng   *rand.Rand
}

// NewCamera returns a camera with the firmware's power-on defaults
func NewCamera(rng *rand.Rand) *Camera {
	return &Camera{
		ints: map[string]int{
			"brightness":     0,
			"contrast":       0,
			"saturation":     0,
			"sharpness":      2,
			"ae_level":       0,
			"gainceiling":    4,
			"wb_mode":        0,
			"denoise":        5,
			"special_effect": 0,
		},
		bools: map[string]bool{
			"aec":      true,
			"agc":      true,
			"awb":      true,
			"awb_gain": true,
			"lenc":     true,
			"wpc":      true,
			"bpc":      true,
			"raw_gma":  true,
		},
		rssi: -58,
		rng:  rng,
	}
}

// Values returns every setting for /api/values
func (c *Camera) Values() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]interface{}, len(c.ints)+len(c.bools))
	for k, v := range c.ints {
		out[k] = v
	}
	for k, v := range c.bools {
		out[k] = v
	}
	return out
}

// Int reads a ranged setting
func (c *Camera) Int(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ints[name]
}

// Bool reads a boolean setting
func (c *Camera) Bool(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bools[name]
}

// Apply executes one /api/settings request and returns the reply text and
// status. Unknown settings and mismatched actions are acknowledged without
// effect, as the firmware does.
func (c *Camera) Apply(setting, action string) (string, int) {
	if setting == "" || action == "" {
		return "Missing parameters", http.StatusBadRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch action {
	case device.ActionToggle:
		if v, ok := c.bools[setting]; ok {
			c.bools[setting] = !v
			state := "disabled"
			if !v {
				state = "enabled"
			}
			return fmt.Sprintf("%s %s", setting, state), http.StatusOK
		}
	case string(device.Up), string(device.Down):
		if v, ok := c.ints[setting]; ok {
			delta := 1
			if action == string(device.Down) {
				delta = -1
			}
			v = min(maxLevel, max(minLevel, v+delta))
			c.ints[setting] = v
			return fmt.Sprintf("%s set to %d", setting, v), http.StatusOK
		}
	}
	return "Setting applied", http.StatusOK
}

// SetColorMode applies /set_bw
func (c *Camera) SetColorMode(mode device.ColorMode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode == device.ModeBW {
		c.ints["special_effect"] = specialEffectGray
	} else {
		c.ints["special_effect"] = 0
	}
}

// Wifi returns the next RSSI reading from a bounded random walk
func (c *Camera) Wifi(ssid string) device.WifiSample {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rssi += c.rng.IntN(7) - 3
	c.rssi = min(maxRSSI, max(minRSSI, c.rssi))
	return device.WifiSample{SSID: ssid, RSSI: c.rssi}
}

// DeviceID derives the 8-hex-digit id the firmware shows in its header
func DeviceID(hostname string) string {
	if hostname == "" {
		hostname = os.Getenv("HOSTNAME")
	}
	if hostname == "" {
		hostname = "docker-cam"
	}
	sum := md5.Sum([]byte(hostname))
	return hex.EncodeToString(sum[:])[:8]
}
