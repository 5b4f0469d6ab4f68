package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/visiona/framebench/metrics"
)

const (
	// liveInterval is the WebSocket push cadence.
	liveInterval = time.Second
	writeWait    = 10 * time.Second
)

// Server serves the latest published playback statistics.
type Server struct {
	log      *slog.Logger
	gauges   *gauges
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	last metrics.LiveStats
}

// NewServer returns a telemetry server with no published stats yet.
func NewServer(log *slog.Logger) *Server {
	return &Server{
		log:    log,
		gauges: newGauges(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed is read-only diagnostics; any origin may watch it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish stores a snapshot for serving and refreshes the Prometheus
// gauges. Called by the driving loop, which owns the collector.
func (s *Server) Publish(ls metrics.LiveStats) {
	s.mu.Lock()
	s.last = ls
	s.mu.Unlock()
	s.gauges.set(ls)
}

func (s *Server) snapshot() metrics.LiveStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Routes returns the HTTP handler: /metrics (Prometheus), /snapshot (JSON)
// and /live (WebSocket push every second).
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		promhttp.HandlerFor(s.gauges.registry, promhttp.HandlerOpts{}).ServeHTTP(w, req)
	})
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/live", s.handleLive)
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.log.Error("telemetry: encoding snapshot", "error", err)
	}
}

// handleLive upgrades to WebSocket and pushes the latest snapshot once per
// second until the client goes away.
func (s *Server) handleLive(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.log.Error("telemetry: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.log.Debug("telemetry: live feed connected", "remote", conn.RemoteAddr())

	// Drain client frames so close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(liveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.log.Debug("telemetry: live feed disconnected", "remote", conn.RemoteAddr())
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s.snapshot()); err != nil {
				s.log.Debug("telemetry: live feed write failed", "error", err)
				return
			}
		}
	}
}
