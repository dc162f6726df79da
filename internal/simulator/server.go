// Package simulator emulates the camera firmware's HTTP API for development
// and tests. It serves synthetic frames and keeps settings in memory.
package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/saniflush/camconsole/internal/config"
	"github.com/saniflush/camconsole/internal/device"
)

const streamBoundary = "frame"

// Server represents the simulated device
type Server struct {
	config   config.SimulatorConfig
	camera   *Camera
	log      *ActivityLog
	logger   *slog.Logger
	router   *mux.Router
	deviceID string
	now      func() time.Time
}

// NewServer creates a simulator with power-on state
func NewServer(cfg config.SimulatorConfig, logger *slog.Logger) *Server {
	seed := uint64(time.Now().UnixNano())
	s := &Server{
		config:   cfg,
		camera:   NewCamera(rand.New(rand.NewPCG(seed, seed>>1))),
		log:      NewActivityLog(cfg.LogCapacity),
		logger:   logger,
		router:   mux.NewRouter(),
		deviceID: DeviceID(cfg.Hostname),
		now:      time.Now,
	}

	s.setupRoutes()
	s.log.Add("Camera server starting")
	return s
}

// DeviceID returns the id shown in the page header
func (s *Server) DeviceID() string { return s.deviceID }

// Camera exposes the simulated sensor state
func (s *Server) Camera() *Camera { return s.camera }

// ActivityLog exposes the device log
func (s *Server) ActivityLog() *ActivityLog { return s.log }

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures the firmware API
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/wifi", s.handleWifi).Methods(http.MethodGet)
	s.router.HandleFunc("/api/values", s.handleValues).Methods(http.MethodGet)
	s.router.HandleFunc("/api/settings", s.handleSettings).Methods(http.MethodGet)
	s.router.HandleFunc("/api/log", s.handleLog).Methods(http.MethodGet)
	s.router.HandleFunc("/capture", s.handleCapture).Methods(http.MethodGet)
	s.router.HandleFunc("/stream_raw", s.handleStream).Methods(http.MethodGet)
	s.router.HandleFunc("/set_bw", s.handleSetBW).Methods(http.MethodGet)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("Simulator listening", "addr", addr, "device_id", s.deviceID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received, closing simulator")
	case err := <-serverErr:
		return fmt.Errorf("simulator listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleWifi(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.camera.Wifi(s.config.SSID))
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.camera.Values())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	setting := r.URL.Query().Get("setting")
	action := r.URL.Query().Get("action")

	reply, code := s.camera.Apply(setting, action)
	if code == http.StatusOK {
		s.log.Addf("Setting %s %s: %s", setting, action, reply)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, reply)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.log.HTML())
}

func (s *Server) handleSetBW(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = string(device.ModeColor)
	}
	s.camera.SetColorMode(device.ColorMode(mode))
	s.log.Addf("Mode set to %s", mode)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Mode set to %s", mode)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	s.log.Add("Handling capture endpoint")
	if r.URL.Query().Get("flash") == "true" {
		s.log.Add("Flash activated")
	}

	frame, err := s.frame()
	if err != nil {
		s.logger.Error("Frame encode failed", "error", err)
		http.Error(w, "capture failed", http.StatusInternalServerError)
		return
	}

	s.log.Addf("Snapshot sent (%d bytes)", len(frame))
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.Write(frame)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(streamBoundary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("Cache-Control", "no-cache")
	rc := http.NewResponseController(w)

	s.log.Add("Stream client connected")
	ticker := time.NewTicker(s.config.FrameInterval)
	defer ticker.Stop()

	for {
		frame, err := s.frame()
		if err != nil {
			s.logger.Error("Frame encode failed", "error", err)
			return
		}

		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {strconv.Itoa(len(frame))},
		})
		if err != nil {
			return
		}
		if _, err := part.Write(frame); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}

		select {
		case <-r.Context().Done():
			s.log.Add("Stream client disconnected")
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) frame() ([]byte, error) {
	return RenderFrame(FrameParams{
		DeviceID:   s.deviceID,
		Time:       s.now(),
		Brightness: s.camera.Int("brightness"),
		Contrast:   s.camera.Int("contrast"),
		Grayscale:  s.camera.Int("special_effect") == specialEffectGray,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
