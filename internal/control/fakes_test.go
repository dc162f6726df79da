package control

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/saniflush/camconsole/internal/device"
)

var errOffline = errors.New("dial tcp 192.168.4.1:80: connect: no route to host")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDevice records every call in order, sharing the log with fakePreview.
type fakeDevice struct {
	calls *[]string

	wifi     device.WifiSample
	wifiErr  error
	log      string
	logErr   error
	values   device.Snapshot
	valueErr error
	ackErr   error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{calls: &[]string{}}
}

func (f *fakeDevice) record(s string) { *f.calls = append(*f.calls, s) }

func (f *fakeDevice) Wifi(ctx context.Context) (device.WifiSample, error) {
	f.record("wifi")
	return f.wifi, f.wifiErr
}

func (f *fakeDevice) Log(ctx context.Context) (string, error) {
	f.record("log")
	return f.log, f.logErr
}

func (f *fakeDevice) Values(ctx context.Context) (device.Snapshot, error) {
	f.record("values")
	return f.values, f.valueErr
}

func (f *fakeDevice) Adjust(ctx context.Context, name string, dir device.Direction) (string, error) {
	f.record("adjust " + name + " " + string(dir))
	return name + " set", f.ackErr
}

func (f *fakeDevice) Toggle(ctx context.Context, name string) (string, error) {
	f.record("toggle " + name)
	return name + " toggled", f.ackErr
}

func (f *fakeDevice) SetColorMode(ctx context.Context, mode device.ColorMode) (string, error) {
	f.record("set_bw " + string(mode))
	return "Mode set to " + string(mode), f.ackErr
}

type fakePreview struct {
	calls *[]string
}

func (p *fakePreview) Refresh() { *p.calls = append(*p.calls, "preview") }
