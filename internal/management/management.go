// Package management provides a lightweight HTTP API for runtime
// inspection of a running morphing host.
//
// Endpoints:
//
//	GET /status   - host uptime, active morphing mode, and its parameters
//	GET /metrics  - Prometheus exposition format (promhttp)
package management

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alpaca-morph/internal/config"
	"alpaca-morph/internal/logger"
	"alpaca-morph/internal/metrics"
)

var log = logger.New("MANAGEMENT", "info")

// SetLevel adjusts the package logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

// Server is the management API server.
type Server struct {
	cfg       *config.Config
	startTime time.Time
	token     string // bearer token for auth; empty = no auth
	metrics   *metrics.Metrics
}

// New creates a management server for cfg, exposing m's counters at
// /metrics (m may be nil, in which case /metrics answers 503).
func New(cfg *config.Config, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		startTime: time.Now(),
		token:     cfg.ManagementToken,
		metrics:   m,
	}
	if s.token != "" {
		log.Infof("new", "bearer token authentication enabled")
	}
	return s
}

// Handler returns the HTTP handler for the management API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	if s.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	} else {
		mux.HandleFunc("/metrics", s.handleMetricsDisabled)
	}
	return s.authMiddleware(mux)
}

// authMiddleware checks for a valid Bearer token if one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(auth[len(prefix):])), []byte(s.token)) != 1 {
			log.Warnf("auth", "unauthorized access attempt from %s to %s", r.RemoteAddr, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Status          string `json:"status"`
		Uptime          string `json:"uptime"`
		ServePort       int    `json:"servePort"`
		Probabilistic   bool   `json:"probabilistic"`
		DistHTMLSize    string `json:"distHtmlSize,omitempty"`
		DistObjSize     string `json:"distObjSize,omitempty"`
		DistObjNum      string `json:"distObjNum,omitempty"`
		ObjNum          int    `json:"objNum,omitempty"`
		ObjSize         int    `json:"objSize,omitempty"`
		MaxObjSize      int    `json:"maxObjSize,omitempty"`
		InliningEnabled bool   `json:"inliningEnabled"`
	}

	resp := response{
		Status:          "running",
		Uptime:          time.Since(s.startTime).Round(time.Second).String(),
		ServePort:       s.cfg.ServePort,
		Probabilistic:   s.cfg.Probabilistic,
		InliningEnabled: s.cfg.InliningEnabled,
	}
	if s.cfg.Probabilistic {
		resp.DistHTMLSize = s.cfg.DistHTMLSize
		resp.DistObjSize = s.cfg.DistObjSize
		resp.DistObjNum = s.cfg.DistObjNum
	} else {
		resp.ObjNum = s.cfg.ObjNum
		resp.ObjSize = s.cfg.ObjSize
		resp.MaxObjSize = s.cfg.MaxObjSize
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetricsDisabled(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "metrics not enabled", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("write_json", "encode error: %v", err)
	}
}

// ListenAndServe starts the management HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.ManagementPort)
	log.Infof("listen_and_serve", "listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
