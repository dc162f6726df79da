package pages

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saniflush/camconsole/internal/control"
	"github.com/saniflush/camconsole/internal/device"
)

func render(t *testing.T, p Page) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, p))
	return buf.String()
}

func TestRender_HeaderOnEveryPage(t *testing.T) {
	h := NewHeader("a1b2c3d4", "192.168.4.1")

	for _, p := range []Page{Home(h), Stream(h), Settings(h)} {
		t.Run(string(p.Kind), func(t *testing.T) {
			out := render(t, p)
			assert.Contains(t, out, "<title>"+p.Title+"</title>")
			assert.Contains(t, out, "Sani Flush Cam a1b2c3d4 - 192.168.4.1")
			assert.Contains(t, out, `href="/settings"`)
			assert.Contains(t, out, `id="wifiText"`)
			for i := 0; i < 8; i++ {
				assert.Contains(t, out, `id="`+WifiBarID(i)+`"`)
			}
			assert.NotContains(t, out, `id="wifiBar8"`)
			assert.Contains(t, out, `style="height:17px"`)
		})
	}
}

func TestRender_HeaderEscapesDeviceID(t *testing.T) {
	out := render(t, Home(NewHeader("<script>", "")))
	assert.NotContains(t, out, "Sani Flush Cam <script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRender_Home(t *testing.T) {
	out := render(t, Home(NewHeader("cam", "")))
	assert.Contains(t, out, `id="preview"`)
	assert.Contains(t, out, `id="log"`)
	assert.Contains(t, out, "Activity Log (Last 300 entries)")
	assert.Contains(t, out, "GET /api/values")
	assert.Contains(t, out, "refreshLog()")
}

func TestRender_Stream(t *testing.T) {
	out := render(t, Stream(NewHeader("cam", "")))
	assert.Contains(t, out, `src="/stream_raw"`)
	assert.NotContains(t, out, `id="preview"`)
}

func TestRender_SettingsHasEveryCatalogEntry(t *testing.T) {
	out := render(t, Settings(NewHeader("cam", "")))

	for _, s := range device.Catalog {
		assert.Contains(t, out, `id="`+s.Name+`"`, s.Name)
	}
	assert.Contains(t, out, "Exposure &amp; Light")
	assert.Contains(t, out, `value="manual" checked`)
	assert.Contains(t, out, `value="auto" onchange`)
	assert.Contains(t, out, `id="useFlash" checked`)
	assert.Equal(t, 8, strings.Count(out, `class="btn-toggle"`))
	assert.Equal(t, 8, strings.Count(out, `class="btn-inc"`))
}

func TestRender_SettingsReflectsPreviewState(t *testing.T) {
	p := Settings(NewHeader("cam", ""))
	p.Preview = PreviewOptions{Mode: control.RefreshAuto, Flash: false}
	out := render(t, p)

	assert.Contains(t, out, `value="auto" checked`)
	assert.Contains(t, out, `value="manual" onchange`)
	assert.Contains(t, out, `id="useFlash" onchange`)
	assert.NotContains(t, out, `id="useFlash" checked`)
}

func TestRender_UnknownKind(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, Page{Kind: "gallery"}))
}

func TestGroups_KeepCatalogOrder(t *testing.T) {
	groups := Groups(device.Catalog)
	require.Len(t, groups, 4)
	assert.Equal(t, device.GroupExposure, groups[0].Title)
	assert.Equal(t, device.GroupCorrections, groups[3].Title)
	assert.Len(t, groups[0].Settings, 4)
	assert.Len(t, groups[3].Settings, 5)
	assert.Equal(t, "denoise", groups[3].Settings[4].Name)
}
