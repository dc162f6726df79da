package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saniflush/camconsole/internal/metrics"
)

func TestClient_Wifi(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wifi", r.URL.Path)
		fmt.Fprint(w, `{"ssid":"Lab","rssi":-57}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	sample, err := c.Wifi(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WifiSample{SSID: "Lab", RSSI: -57}, sample)
	assert.True(t, c.Status().Connected)
}

func TestClient_Values(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"aec":true,"agc":false,"brightness":-2,"gainceiling":4}`)
	}))
	defer srv.Close()

	snap, err := NewClient(srv.URL).Values(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 4)

	b, isBool := snap["aec"].Bool()
	assert.True(t, isBool)
	assert.True(t, b)

	b, isBool = snap["agc"].Bool()
	assert.True(t, isBool)
	assert.False(t, b)

	_, isBool = snap["brightness"].Bool()
	assert.False(t, isBool)
	assert.Equal(t, "-2", snap["brightness"].String())
	assert.Equal(t, "4", snap["gainceiling"].String())
}

func TestClient_AdjustEncodesAction(t *testing.T) {
	var gotSetting, gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings", r.URL.Path)
		gotSetting = r.URL.Query().Get("setting")
		gotAction = r.URL.Query().Get("action")
		fmt.Fprint(w, "brightness set to 1")
	}))
	defer srv.Close()

	ack, err := NewClient(srv.URL).Adjust(context.Background(), "brightness", Up)
	require.NoError(t, err)
	assert.Equal(t, "brightness set to 1", ack)
	assert.Equal(t, "brightness", gotSetting)
	assert.Equal(t, "+", gotAction, "plus must survive query decoding")
}

func TestClient_Toggle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "toggle", r.URL.Query().Get("action"))
		fmt.Fprint(w, "aec disabled")
	}))
	defer srv.Close()

	ack, err := NewClient(srv.URL).Toggle(context.Background(), "aec")
	require.NoError(t, err)
	assert.Equal(t, "aec disabled", ack)
}

func TestClient_LogAndColorMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/log":
			fmt.Fprint(w, "1: boot<br>2: capture")
		case "/set_bw":
			fmt.Fprintf(w, "Mode set to %s", r.URL.Query().Get("mode"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	blob, err := c.Log(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1: boot<br>2: capture", blob)

	ack, err := c.SetColorMode(context.Background(), ModeBW)
	require.NoError(t, err)
	assert.Equal(t, "Mode set to bw", ack)
}

func TestClient_StatusError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Missing parameters", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithMetrics(m))
	_, err := c.Toggle(context.Background(), "")

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.Code)
	assert.Equal(t, "Missing parameters", serr.Body)
	assert.True(t, c.Status().Connected, "a reply means the link is up")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeviceRequests.WithLabelValues("/api/settings", metrics.OutcomeStatus)))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(base)
	_, err := c.Wifi(context.Background())
	require.Error(t, err)

	st := c.Status()
	assert.False(t, st.Connected)
	assert.NotEmpty(t, st.LastError)
}

func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Values(context.Background())
	assert.Error(t, err)
}

func TestValue_JSON(t *testing.T) {
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"a":true,"b":3,"c":"x"}`), &snap))
	assert.Equal(t, "true", snap["a"].String())
	assert.Equal(t, "3", snap["b"].String())
	assert.Equal(t, "x", snap["c"].String())

	out, err := json.Marshal(Snapshot{"a": BoolValue(false), "b": IntValue(-1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":false,"b":-1}`, string(out))

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"nested":1}`), &v))
}

func TestCapturePath(t *testing.T) {
	assert.Equal(t, "/capture?t=42", CapturePath(42, false))
	assert.Equal(t, "/capture?t=42&flash=true", CapturePath(42, true))
}

func TestCatalog(t *testing.T) {
	assert.Len(t, Catalog, 16)

	s, ok := Lookup("raw_gma")
	require.True(t, ok)
	assert.Equal(t, KindBool, s.Kind)
	assert.Equal(t, GroupCorrections, s.Group)

	_, ok = Lookup("special_effect")
	assert.False(t, ok)
}
