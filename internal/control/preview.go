package control

import (
	"fmt"
	"time"

	"github.com/saniflush/camconsole/internal/device"
	"github.com/saniflush/camconsole/internal/eventloop"
)

// RefreshMode selects manual or timed preview refresh
type RefreshMode string

const (
	RefreshManual RefreshMode = "manual"
	RefreshAuto   RefreshMode = "auto"
)

// ParseRefreshMode validates a mode received from the page
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch RefreshMode(s) {
	case RefreshManual, RefreshAuto:
		return RefreshMode(s), nil
	}
	return "", fmt.Errorf("unknown refresh mode %q", s)
}

// PreviewController points the preview image at a fresh snapshot, either on
// demand or on a timer. At most one timer is active at any time.
type PreviewController struct {
	sched    eventloop.Scheduler
	image    Image
	interval time.Duration
	now      func() time.Time

	flash     bool
	mode      RefreshMode
	timer     eventloop.Timer
	lastToken int64
}

// NewPreviewController starts in manual mode with flash enabled
func NewPreviewController(sched eventloop.Scheduler, image Image, interval time.Duration) *PreviewController {
	return &PreviewController{
		sched:    sched,
		image:    image,
		interval: interval,
		now:      time.Now,
		flash:    true,
		mode:     RefreshManual,
	}
}

// Refresh swaps the image source for a new snapshot URL
func (p *PreviewController) Refresh() {
	token := p.now().UnixMilli()
	if token <= p.lastToken {
		token = p.lastToken + 1
	}
	p.lastToken = token
	p.image.SetSource(device.CapturePath(token, p.flash))
}

// SetMode cancels any running timer, then starts one when mode is auto.
// Switching to manual does not refresh.
func (p *PreviewController) SetMode(mode RefreshMode) {
	p.stop()
	p.mode = mode
	if mode == RefreshAuto {
		p.start()
	}
}

// Mode returns the current refresh mode
func (p *PreviewController) Mode() RefreshMode { return p.mode }

// SetFlash controls whether snapshots request the flash
func (p *PreviewController) SetFlash(enabled bool) { p.flash = enabled }

// Flash reports whether snapshots request the flash
func (p *PreviewController) Flash() bool { return p.flash }

// Stop cancels the timer without changing the mode
func (p *PreviewController) Stop() { p.stop() }

func (p *PreviewController) start() {
	p.timer = p.sched.Every(p.interval, p.Refresh)
}

func (p *PreviewController) stop() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
