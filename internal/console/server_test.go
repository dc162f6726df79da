package console

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saniflush/camconsole/internal/config"
	"github.com/saniflush/camconsole/internal/control"
	"github.com/saniflush/camconsole/internal/display"
	"github.com/saniflush/camconsole/internal/eventloop"
	"github.com/saniflush/camconsole/internal/simulator"
)

type consoleFixture struct {
	console *Server
	http    *httptest.Server
	sim     *simulator.Server

	// offline makes the camera answer 503 to everything
	offline atomic.Bool
}

// newConsoleFixture runs a console on a live event loop against a simulated
// camera.
func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	cfg := config.Default()

	f := &consoleFixture{}
	f.sim = simulator.NewServer(cfg.Simulator, quietLogger())
	simHandler := f.sim.Handler()
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.offline.Load() {
			http.Error(w, "camera offline", http.StatusServiceUnavailable)
			return
		}
		simHandler.ServeHTTP(w, r)
	}))
	t.Cleanup(device.Close)

	cfg.Device.BaseURL = device.URL
	cfg.Device.DeviceID = f.sim.DeviceID()

	loop := eventloop.New(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		loop.Wait()
	})

	srv, err := NewServer(cfg, loop, quietLogger())
	require.NoError(t, err)
	f.console = srv

	f.http = httptest.NewServer(srv.Handler())
	t.Cleanup(f.http.Close)
	return f
}

func (f *consoleFixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Pages(t *testing.T) {
	f := newConsoleFixture(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", "Activity Log"},
		{"/stream", `src="/stream_raw"`},
		{"/settings", "Auto Refresh (3s)"},
	}
	for _, tt := range tests {
		resp, body := f.get(t, tt.path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, tt.path)
		assert.Contains(t, body, tt.want, tt.path)
		assert.Contains(t, body, f.sim.DeviceID(), tt.path)
		assert.Contains(t, body, `id="wifiBar7"`, tt.path)
	}

	resp, _ := f.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ProxiesDevice(t *testing.T) {
	f := newConsoleFixture(t)

	resp, body := f.get(t, "/api/values")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var values map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &values))
	assert.Equal(t, 5.0, values["denoise"])

	resp, body = f.get(t, "/capture?t=1&flash=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)
	assert.Contains(t, f.sim.ActivityLog().HTML(), "Flash activated")

	resp, body = f.get(t, "/api/settings?setting=contrast")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing parameters", body)
}

func TestServer_ProxyUnreachableDevice(t *testing.T) {
	cfg := config.Default()
	cfg.Device.BaseURL = "http://127.0.0.1:1"

	loop := eventloop.New(quietLogger())
	srv, err := NewServer(cfg, loop, quietLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wifi", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_StatusAndHealth(t *testing.T) {
	f := newConsoleFixture(t)

	resp, body := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, body)

	resp, body = f.get(t, "/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status StatusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, control.RefreshManual, status.Preview.Mode)
	assert.True(t, status.Preview.Flash)
	assert.Equal(t, f.sim.DeviceID(), status.Device.DeviceID)
	assert.Equal(t, 0, status.Clients)
}

func TestServer_Metrics(t *testing.T) {
	f := newConsoleFixture(t)

	resp, body := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "camconsole_websocket_clients")
}

type wsMessage struct {
	Type     string          `json:"type"`
	Elements []display.Patch `json:"elements"`
	Element  display.Patch   `json:"element"`
}

func dialWS(t *testing.T, f *consoleFixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForText reads patches until element id shows text
func waitForText(t *testing.T, conn *websocket.Conn, id, text string) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "patch" && msg.Element.ID == id && msg.Element.Text != nil && *msg.Element.Text == text {
			return
		}
	}
}

// waitForTexts reads patches until every element in want has shown its text,
// in any order
func waitForTexts(t *testing.T, conn *websocket.Conn, want map[string]string) {
	t.Helper()
	pending := make(map[string]string, len(want))
	for id, text := range want {
		pending[id] = text
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for len(pending) > 0 {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg), "still waiting for %v", pending)
		if msg.Type != "patch" || msg.Element.Text == nil {
			continue
		}
		if text, ok := pending[msg.Element.ID]; ok && text == *msg.Element.Text {
			delete(pending, msg.Element.ID)
		}
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) map[string]display.Patch {
	t.Helper()
	var msg wsMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "snapshot", msg.Type)
	byID := make(map[string]display.Patch, len(msg.Elements))
	for _, p := range msg.Elements {
		byID[p.ID] = p
	}
	return byID
}

func TestHub_SnapshotThenValuesOnConnect(t *testing.T) {
	f := newConsoleFixture(t)
	conn := dialWS(t, f)

	snap := readSnapshot(t, conn)
	require.Contains(t, snap, "sharpness")
	assert.Equal(t, "-", *snap["sharpness"].Text)

	waitForTexts(t, conn, map[string]string{"sharpness": "2", "aec": "ON"})
}

func TestHub_ReloadDoesNotShowStaleValues(t *testing.T) {
	f := newConsoleFixture(t)

	first := dialWS(t, f)
	readSnapshot(t, first)
	waitForTexts(t, first, map[string]string{"brightness": "0", "aec": "ON"})
	first.Close()

	f.offline.Store(true)

	second := dialWS(t, f)
	snap := readSnapshot(t, second)
	for _, id := range []string{"brightness", "aec"} {
		require.Contains(t, snap, id)
		assert.Equal(t, "-", *snap[id].Text, id)
		assert.Empty(t, *snap[id].Color, id)
	}

	// The fresh fetch fails, so nothing fills the blanks.
	second.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	for {
		var msg wsMessage
		if err := second.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "patch" && (msg.Element.ID == "brightness" || msg.Element.ID == "aec") {
			t.Fatalf("stale value sent after reload: %s=%v", msg.Element.ID, *msg.Element.Text)
		}
	}
}

func TestHub_AdjustRoundTrip(t *testing.T) {
	f := newConsoleFixture(t)
	conn := dialWS(t, f)

	waitForText(t, conn, "brightness", "0")

	require.NoError(t, conn.WriteJSON(Action{Type: ActionAdjust, Setting: "brightness", Direction: "+"}))
	waitForText(t, conn, "brightness", "1")

	require.NoError(t, conn.WriteJSON(Action{Type: ActionToggle, Setting: "awb"}))
	waitForText(t, conn, "awb", "OFF")

	assert.Equal(t, 1, f.sim.Camera().Int("brightness"))
	assert.False(t, f.sim.Camera().Bool("awb"))
}

func TestHub_InvalidActionsKeepSessionOpen(t *testing.T) {
	f := newConsoleFixture(t)
	conn := dialWS(t, f)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(Action{Type: "reboot"}))
	require.NoError(t, conn.WriteJSON(Action{Type: ActionAdjust, Setting: "contrast", Direction: "-"}))

	waitForText(t, conn, "contrast", "-1")
}

func TestServer_SettingsPageReflectsPreviewState(t *testing.T) {
	f := newConsoleFixture(t)
	conn := dialWS(t, f)
	readSnapshot(t, conn)

	off := false
	require.NoError(t, conn.WriteJSON(Action{Type: ActionRefreshMode, Mode: "auto"}))
	require.NoError(t, conn.WriteJSON(Action{Type: ActionFlash, Enabled: &off}))

	require.Eventually(t, func() bool {
		resp, err := http.Get(f.http.URL + "/api/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var status StatusResponse
		return json.NewDecoder(resp.Body).Decode(&status) == nil &&
			status.Preview.Mode == control.RefreshAuto && !status.Preview.Flash
	}, 5*time.Second, 20*time.Millisecond)

	resp, body := f.get(t, "/settings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="auto" checked`)
	assert.NotContains(t, body, `value="manual" checked`)
	assert.NotContains(t, body, `id="useFlash" checked`)
}
