package components

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/harunnryd/jarvis/internal/config"
	"github.com/harunnryd/jarvis/internal/daemon"
)

// HealthSource reports per-component health; *daemon.Daemon implements it.
type HealthSource interface {
	Health() daemon.HealthStatus
	ComponentHealth() map[string]*daemon.ComponentHealth
}

// HTTPServerComponent serves /healthz and /metrics on server.port.
type HTTPServerComponent struct {
	health       HealthSource
	cfg          *config.ServerConfig
	metrics      http.Handler
	dependencies []string
	server       *http.Server
	listener     net.Listener
	shutdownTTL  time.Duration
	initialized  bool
	started      bool
	mu           sync.RWMutex
}

func NewHTTPServerComponent(health HealthSource, cfg *config.ServerConfig, metrics http.Handler) *HTTPServerComponent {
	return NewHTTPServerComponentWithDependencies(health, cfg, metrics, []string{"Scheduler"})
}

func NewHTTPServerComponentWithDependencies(health HealthSource, cfg *config.ServerConfig, metrics http.Handler, dependencies []string) *HTTPServerComponent {
	deps := make([]string, len(dependencies))
	copy(deps, dependencies)
	return &HTTPServerComponent{health: health, cfg: cfg, metrics: metrics, dependencies: deps}
}

func (h *HTTPServerComponent) Name() string {
	return "HTTPServer"
}

func (h *HTTPServerComponent) Dependencies() []string {
	out := make([]string, len(h.dependencies))
	copy(out, h.dependencies)
	return out
}

func (h *HTTPServerComponent) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	readTimeout, err := config.DurationOrDefault(h.cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return fmt.Errorf("parse server read timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(h.cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	h.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", h.cfg.Port),
		Handler:     h.Handler(),
		ReadTimeout: readTimeout,
	}
	h.shutdownTTL = shutdownTimeout
	h.initialized = true
	return nil
}

// Handler returns the routes without binding a port.
func (h *HTTPServerComponent) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics)
	}
	return mux
}

func (h *HTTPServerComponent) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return fmt.Errorf("HTTPServer not initialized")
	}

	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.server.Addr, err)
	}
	h.listener = ln

	go func() {
		slog.Info("HTTP server listening", "component", h.Name(), "addr", ln.Addr().String())
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "component", h.Name(), "error", err)
		}
	}()

	h.started = true
	return nil
}

func (h *HTTPServerComponent) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, h.shutdownTTL)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	h.started = false
	return nil
}

func (h *HTTPServerComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch {
	case !h.initialized:
		return &daemon.ComponentHealth{Name: h.Name(), Error: fmt.Errorf("not initialized")}, nil
	case !h.started:
		return &daemon.ComponentHealth{Name: h.Name(), Error: fmt.Errorf("not started")}, nil
	}
	return &daemon.ComponentHealth{Name: h.Name(), Healthy: true}, nil
}

type componentStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func (h *HTTPServerComponent) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{Status: string(h.health.Health()), Components: map[string]componentStatus{}}
	code := http.StatusOK
	for name, ch := range h.health.ComponentHealth() {
		st := componentStatus{Healthy: ch.Healthy}
		if ch.Error != nil {
			st.Error = ch.Error.Error()
		}
		if !ch.Healthy && name != h.Name() {
			code = http.StatusServiceUnavailable
		}
		resp.Components[name] = st
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
