package console

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/saniflush/camconsole/internal/display"
	"github.com/saniflush/camconsole/internal/eventloop"
	"github.com/saniflush/camconsole/internal/metrics"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	maxActionLen = 4096
)

// Messages to the browser
type snapshotMessage struct {
	Type     string          `json:"type"`
	Elements []display.Patch `json:"elements"`
}

type patchMessage struct {
	Type    string        `json:"type"`
	Element display.Patch `json:"element"`
}

// Hub streams the dashboard surface to browsers and feeds their actions back
// onto the event loop
type Hub struct {
	sched    eventloop.Scheduler
	dash     *Dashboard
	metrics  *metrics.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*websocket.Conn
}

// NewHub creates a hub for dash
func NewHub(sched eventloop.Scheduler, dash *Dashboard, m *metrics.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		sched:   sched,
		dash:    dash,
		metrics: m,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*websocket.Conn),
	}
}

// Count returns the number of connected browsers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll disconnects every browser
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.sessions {
		conn.Close()
	}
}

// session is one connected browser
type session struct {
	id     string
	conn   *websocket.Conn
	sub    *display.Subscription
	logger *slog.Logger

	// valuesLoaded is set once a setting value reaches this browser. Owned by
	// the write loop.
	valuesLoaded bool
}

// ServeHTTP upgrades the request and runs the session until the browser leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := uuid.NewString()
	sess := &session{
		id:     id,
		conn:   conn,
		logger: h.logger.With("session", id),
		// Subscribe before the snapshot so nothing falls between the two.
		sub: h.dash.Surface.Subscribe(),
	}
	defer sess.sub.Cancel()

	h.register(id, conn)
	defer h.unregister(id)

	sess.logger.Info("Browser connected", "remote", r.RemoteAddr)

	// Setting values start blank and are filled only by a fresh fetch.
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snapshotMessage{Type: "snapshot", Elements: h.dash.SessionSnapshot()}); err != nil {
		sess.logger.Warn("Snapshot write failed", "error", err)
		conn.Close()
		return
	}
	h.sched.Post(h.dash.Settings.RefreshValues)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(sess)
	}()

	h.readLoop(conn, sess.logger)
	sess.sub.Cancel()
	<-done
	conn.Close()
	sess.logger.Info("Browser disconnected")
}

func (h *Hub) register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	h.sessions[id] = conn
	h.mu.Unlock()
	h.metrics.AddClients(1)
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	h.metrics.AddClients(-1)
}

// readLoop decodes actions and posts them onto the loop
func (h *Hub) readLoop(conn *websocket.Conn, logger *slog.Logger) {
	conn.SetReadLimit(maxActionLen)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read error", "error", err)
			}
			return
		}

		var action Action
		if err := json.Unmarshal(data, &action); err != nil {
			logger.Warn("Malformed action", "error", err)
			continue
		}

		h.sched.Post(func() {
			if err := h.dash.Dispatch(action); err != nil {
				h.metrics.ObserveAction("invalid")
				logger.Warn("Action rejected", "type", action.Type, "error", err)
				return
			}
			h.metrics.ObserveAction(action.Type)
			logger.Debug("Action dispatched", "type", action.Type, "setting", action.Setting)
		})
	}
}

// writeLoop forwards surface patches and keeps the connection alive
func (h *Hub) writeLoop(sess *session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case p, ok := <-sess.sub.C():
			if !ok {
				return
			}

			var msg interface{}
			if sess.sub.Dropped() {
				sess.logger.Warn("Browser fell behind, resending snapshot")
				msg = h.resync(sess)
			} else {
				if h.dash.IsSetting(p.ID) {
					sess.valuesLoaded = true
				}
				msg = patchMessage{Type: "patch", Element: p}
			}

			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteJSON(msg); err != nil {
				sess.logger.Warn("Websocket write error", "error", err)
				sess.conn.Close()
				return
			}

		case <-ticker.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				sess.logger.Warn("Websocket ping error", "error", err)
				sess.conn.Close()
				return
			}
		}
	}
}

// resync replaces the buffered backlog with a full snapshot. Until the
// browser has seen a fetched value its settings stay blank.
func (h *Hub) resync(sess *session) snapshotMessage {
	elements := sess.sub.Resync(h.dash.Surface)
	if !sess.valuesLoaded {
		elements = h.dash.blankSettings(elements)
	}
	return snapshotMessage{Type: "snapshot", Elements: elements}
}
