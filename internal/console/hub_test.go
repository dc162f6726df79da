package console

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saniflush/camconsole/internal/control"
	"github.com/saniflush/camconsole/internal/device"
	"github.com/saniflush/camconsole/internal/display"
	"github.com/saniflush/camconsole/internal/pages"
)

func patchesByID(patches []display.Patch) map[string]display.Patch {
	byID := make(map[string]display.Patch, len(patches))
	for _, p := range patches {
		byID[p.ID] = p
	}
	return byID
}

func TestDashboard_SessionSnapshotBlanksSettings(t *testing.T) {
	dash, _, _ := newTestDashboard()
	dash.Start()

	live := patchesByID(dash.Surface.Snapshot())
	require.Contains(t, live, "brightness")
	assert.Equal(t, "2", *live["brightness"].Text)

	snap := patchesByID(dash.SessionSnapshot())
	for _, s := range device.Catalog {
		require.Contains(t, snap, s.Name)
		assert.Equal(t, "-", *snap[s.Name].Text, s.Name)
		assert.Empty(t, *snap[s.Name].Color, s.Name)
	}
	assert.Equal(t, *live[pages.ElementWifiText].HTML, *snap[pages.ElementWifiText].HTML)
	assert.Equal(t, *live[pages.ElementLog].HTML, *snap[pages.ElementLog].HTML)
}

// overflow writes enough log lines to overrun any subscriber buffer
func overflow(dash *Dashboard) {
	log := dash.Surface.Element(pages.ElementLog)
	for i := 0; i < 1000; i++ {
		log.SetHTML(fmt.Sprintf("line %d", i))
	}
}

func TestHub_ResyncAfterDrop(t *testing.T) {
	dash, _, sched := newTestDashboard()
	dash.Start()
	hub := NewHub(sched, dash, nil, quietLogger())

	sess := &session{sub: dash.Surface.Subscribe(), logger: quietLogger()}
	defer sess.sub.Cancel()

	overflow(dash)
	require.True(t, sess.sub.Dropped())

	msg := hub.resync(sess)
	assert.Equal(t, "snapshot", msg.Type)
	assert.Empty(t, sess.sub.C(), "backlog discarded")

	snap := patchesByID(msg.Elements)
	assert.Equal(t, "line 999", *snap[pages.ElementLog].HTML)
	assert.Equal(t, "-", *snap["brightness"].Text, "values not yet fetched for this page")
}

func TestHub_ResyncKeepsLoadedValues(t *testing.T) {
	dash, _, sched := newTestDashboard()
	hub := NewHub(sched, dash, nil, quietLogger())

	sess := &session{sub: dash.Surface.Subscribe(), logger: quietLogger()}
	defer sess.sub.Cancel()

	dash.Settings.RefreshValues()
	sess.valuesLoaded = true
	overflow(dash)
	require.True(t, sess.sub.Dropped())

	snap := patchesByID(hub.resync(sess).Elements)
	assert.Equal(t, "2", *snap["brightness"].Text)
	assert.Equal(t, "ON", *snap["aec"].Text)
	assert.Equal(t, control.ColorOn, *snap["aec"].Color)
}
