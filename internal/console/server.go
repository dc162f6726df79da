// Package console serves the operator pages, streams controller output to
// browsers over a websocket and proxies media and API requests to the camera.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saniflush/camconsole/internal/config"
	"github.com/saniflush/camconsole/internal/control"
	"github.com/saniflush/camconsole/internal/device"
	"github.com/saniflush/camconsole/internal/eventloop"
	"github.com/saniflush/camconsole/internal/metrics"
	"github.com/saniflush/camconsole/internal/pages"
)

// Version is stamped at build time
var Version = "dev"

// proxied are the device paths the browser reaches through the console
var proxied = []string{
	"/capture",
	"/stream_raw",
	"/set_bw",
	"/api/values",
	"/api/wifi",
	"/api/log",
	"/api/settings",
}

// Server represents the operator console
type Server struct {
	config   *config.Config
	sched    eventloop.Scheduler
	client   *device.Client
	dash     *Dashboard
	hub      *Hub
	renderer *pages.Renderer
	registry *prometheus.Registry
	proxy    *httputil.ReverseProxy
	mux      *http.ServeMux
	logger   *slog.Logger
	started  time.Time
}

// NewServer wires the device client, controllers and HTTP routes. Controllers
// run on sched; nothing polls until Start.
func NewServer(cfg *config.Config, sched eventloop.Scheduler, logger *slog.Logger) (*Server, error) {
	target, err := url.Parse(cfg.Device.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse device url: %w", err)
	}

	renderer, err := pages.NewRenderer()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	client := device.NewClient(cfg.Device.BaseURL, device.WithMetrics(m))
	dash := NewDashboard(sched, client, cfg.Polling, m, logger)

	s := &Server{
		config:   cfg,
		sched:    sched,
		client:   client,
		dash:     dash,
		hub:      NewHub(sched, dash, m, logger.With("component", "hub")),
		renderer: renderer,
		registry: registry,
		proxy:    newDeviceProxy(target, logger),
		mux:      http.NewServeMux(),
		logger:   logger,
		started:  time.Now(),
	}

	s.setupRoutes()
	return s, nil
}

// Dashboard returns the controllers
func (s *Server) Dashboard() *Dashboard { return s.dash }

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.mux }

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Pages
	s.mux.HandleFunc("GET /{$}", s.handlePage(pages.Home))
	s.mux.HandleFunc("GET /stream", s.handlePage(pages.Stream))
	s.mux.HandleFunc("GET /settings", s.handlePage(pages.Settings))

	// Live updates
	s.mux.Handle("GET /ws", s.hub)

	// Device passthrough
	for _, p := range proxied {
		s.mux.Handle("GET "+p, s.proxy)
	}

	// Status
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Start starts the controllers, then serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.sched.Post(s.dash.Start)
	defer s.sched.Post(s.dash.Stop)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("Console listening", "addr", addr, "device", s.config.Device.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received, closing console")
	case err := <-serverErr:
		return fmt.Errorf("console listen: %w", err)
	}

	// Hijacked websocket connections are not closed by Shutdown.
	s.hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// handlePage renders one of the operator pages
func (s *Server) handlePage(build func(pages.Header) pages.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := build(pages.NewHeader(s.config.Device.DeviceID, s.config.Device.IP))
		if page.Kind == pages.KindSettings {
			err := s.onLoop(r.Context(), func() {
				page.Preview = pages.PreviewOptions{Mode: s.dash.Preview.Mode(), Flash: s.dash.Preview.Flash()}
			})
			if err != nil {
				http.Error(w, "event loop unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, page); err != nil {
			s.logger.Error("Page render failed", "path", r.URL.Path, "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

// StatusResponse is the /api/status body
type StatusResponse struct {
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
	Clients int           `json:"clients"`
	Device  DeviceStatus  `json:"device"`
	Preview PreviewStatus `json:"preview"`
}

// DeviceStatus describes the camera link
type DeviceStatus struct {
	BaseURL  string            `json:"base_url"`
	DeviceID string            `json:"device_id"`
	Link     device.LinkStatus `json:"link"`
}

// PreviewStatus describes the preview controller
type PreviewStatus struct {
	Mode  control.RefreshMode `json:"mode"`
	Flash bool                `json:"flash"`
}

// handleStatus reports console and device link state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var preview PreviewStatus
	err := s.onLoop(r.Context(), func() {
		preview = PreviewStatus{Mode: s.dash.Preview.Mode(), Flash: s.dash.Preview.Flash()}
	})
	if err != nil {
		http.Error(w, "event loop unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Clients: s.hub.Count(),
		Device: DeviceStatus{
			BaseURL:  s.client.BaseURL(),
			DeviceID: s.config.Device.DeviceID,
			Link:     s.client.Status(),
		},
		Preview: preview,
	})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// onLoop runs fn on the event loop and waits for it to finish
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	s.sched.Post(func() {
		fn()
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newDeviceProxy forwards requests unchanged to the camera. Streams are
// flushed as they arrive.
func newDeviceProxy(target *url.URL, logger *slog.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.FlushInterval = -1
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Warn("Device proxy failed", "path", r.URL.Path, "error", err)
		http.Error(w, "camera unreachable", http.StatusBadGateway)
	}
	return proxy
}
