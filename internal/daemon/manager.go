package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/harunnryd/jarvis/internal/config"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/gofrs/flock"
	"go.uber.org/multierr"
)

const healthCheckInterval = 30 * time.Second

type Options struct {
	// LockPath guards against two daemons sharing one data directory.
	LockPath string
}

// Daemon owns the component graph. Components come up in dependency order
// and go down in the reverse of that order.
type Daemon struct {
	cfg  *config.Config
	lock *flock.Flock

	mu         sync.RWMutex
	registered []Component
	order      []Component
	ready      []Component
	health     HealthStatus
	startedAt  time.Time
}

func NewDaemon(cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, jarvisErrors.InvalidInput("daemon config is nil")
	}
	if opts.LockPath == "" {
		return nil, jarvisErrors.InvalidInput("daemon lock path is empty")
	}
	return &Daemon{
		cfg:       cfg,
		lock:      flock.New(opts.LockPath),
		health:    StatusStarting,
		startedAt: time.Now(),
	}, nil
}

func (d *Daemon) AddComponent(comp Component) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registered = append(d.registered, comp)
	slog.Debug("Component registered", "component", comp.Name(), "total", len(d.registered))
}

// Start brings every component up and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.validateConfig(); err != nil {
		return err
	}
	shutdownTimeout, err := config.DurationOrDefault(d.cfg.Server.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return jarvisErrors.InvalidInput("server.shutdown_timeout: " + err.Error())
	}

	if err := d.acquireLock(); err != nil {
		return err
	}
	defer d.releaseLock()

	slog.Info("Jarvis daemon starting", "pid", os.Getpid(), "lock", d.lock.Path())

	if err := d.initializeComponents(ctx); err != nil {
		d.stopReady(context.Background())
		return err
	}

	if err := d.startComponents(ctx); err != nil {
		_ = d.shutdown(shutdownTimeout)
		return err
	}

	d.setHealth(StatusRunning)
	slog.Info("Jarvis daemon is running", "components", len(d.order))

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		d.monitorHealth(ctx)
	}()

	<-ctx.Done()
	<-monitorDone

	slog.Info("Shutting down", "reason", context.Cause(ctx))
	d.setHealth(StatusStopping)
	return d.shutdown(shutdownTimeout)
}

func (d *Daemon) Health() HealthStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startedAt)
}

// ComponentHealth polls every registered component.
func (d *Daemon) ComponentHealth() map[string]*ComponentHealth {
	d.mu.RLock()
	comps := append([]Component(nil), d.registered...)
	d.mu.RUnlock()

	out := make(map[string]*ComponentHealth, len(comps))
	for _, comp := range comps {
		h, err := comp.Health(context.Background())
		if h == nil {
			h = &ComponentHealth{Name: comp.Name()}
		}
		if err != nil {
			h.Healthy = false
			h.Error = err
		}
		out[comp.Name()] = h
	}
	return out
}

func (d *Daemon) Component(name string) Component {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookup(name)
}

func (d *Daemon) setHealth(status HealthStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.health = status
}

func (d *Daemon) validateConfig() error {
	if d.cfg.Server.Port < 1 || d.cfg.Server.Port > 65535 {
		return jarvisErrors.InvalidInput(fmt.Sprintf("invalid port: %d (must be 1-65535)", d.cfg.Server.Port))
	}
	if err := os.MkdirAll(filepath.Dir(d.lock.Path()), 0o755); err != nil {
		return jarvisErrors.Wrap(err, "create data directory")
	}
	return nil
}

func (d *Daemon) acquireLock() error {
	locked, err := d.lock.TryLock()
	if err != nil {
		return jarvisErrors.Wrap(err, "lock "+d.lock.Path())
	}
	if !locked {
		return jarvisErrors.InvalidInput("another jarvis daemon holds " + d.lock.Path())
	}
	return nil
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		slog.Warn("Failed to release daemon lock", "path", d.lock.Path(), "error", err)
	}
}

func (d *Daemon) initializeComponents(ctx context.Context) error {
	order, err := d.resolveOrder()
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.order = order
	d.ready = d.ready[:0]
	d.mu.Unlock()

	for _, comp := range order {
		if err := comp.Init(ctx); err != nil {
			slog.Error("Component init failed", "component", comp.Name(), "error", err)
			return jarvisErrors.Wrap(err, "init "+comp.Name())
		}
		d.mu.Lock()
		d.ready = append(d.ready, comp)
		d.mu.Unlock()
		slog.Info("Component initialized", "component", comp.Name())
	}
	return nil
}

func (d *Daemon) startComponents(ctx context.Context) error {
	for _, comp := range d.order {
		if err := comp.Start(ctx); err != nil {
			slog.Error("Component start failed", "component", comp.Name(), "error", err)
			return jarvisErrors.Wrap(err, "start "+comp.Name())
		}
		slog.Info("Component started", "component", comp.Name())
	}
	return nil
}

// shutdown stops the initialized components within timeout.
func (d *Daemon) shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.stopReady(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		slog.Info("Shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Error("Shutdown timed out", "timeout", timeout)
		return jarvisErrors.Transient(fmt.Sprintf("shutdown timed out after %v", timeout))
	}
}

// stopReady stops initialized components, last initialized first.
func (d *Daemon) stopReady(ctx context.Context) error {
	d.mu.RLock()
	ready := append([]Component(nil), d.ready...)
	d.mu.RUnlock()

	var errs error
	for i := len(ready) - 1; i >= 0; i-- {
		comp := ready[i]
		if err := comp.Stop(ctx); err != nil {
			slog.Error("Component stop failed", "component", comp.Name(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("stop %s: %w", comp.Name(), err))
			continue
		}
		slog.Info("Component stopped", "component", comp.Name())
	}
	d.setHealth(StatusStopped)
	return errs
}

func (d *Daemon) stopOrder() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.order))
	for i := len(d.order) - 1; i >= 0; i-- {
		names = append(names, d.order[i].Name())
	}
	return names
}

func (d *Daemon) lookup(name string) Component {
	for _, comp := range d.registered {
		if comp.Name() == name {
			return comp
		}
	}
	return nil
}

func (d *Daemon) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var unhealthy []string
			for name, h := range d.ComponentHealth() {
				if !h.Healthy {
					unhealthy = append(unhealthy, name)
					slog.Warn("Component unhealthy", "component", name, "error", h.Error)
				}
			}
			if len(unhealthy) == 0 {
				slog.Debug("All components healthy")
			}
		}
	}
}

// resolveOrder sorts the registered components so that every component
// follows its dependencies. Ties keep registration order.
func (d *Daemon) resolveOrder() ([]Component, error) {
	d.mu.RLock()
	comps := append([]Component(nil), d.registered...)
	d.mu.RUnlock()

	pending := make(map[string]int, len(comps))
	for _, comp := range comps {
		pending[comp.Name()] = 0
	}
	for _, comp := range comps {
		for _, dep := range comp.Dependencies() {
			if _, ok := pending[dep]; !ok {
				return nil, jarvisErrors.InvalidInput(fmt.Sprintf("component %s depends on %s which is not registered", comp.Name(), dep))
			}
			pending[comp.Name()]++
		}
	}

	order := make([]Component, 0, len(comps))
	placed := make(map[string]bool, len(comps))
	for len(order) < len(comps) {
		progressed := false
		for _, comp := range comps {
			if placed[comp.Name()] || pending[comp.Name()] > 0 {
				continue
			}
			placed[comp.Name()] = true
			order = append(order, comp)
			progressed = true
			for _, other := range comps {
				for _, dep := range other.Dependencies() {
					if dep == comp.Name() {
						pending[other.Name()]--
					}
				}
			}
			break
		}
		if !progressed {
			var stuck []string
			for _, comp := range comps {
				if !placed[comp.Name()] {
					stuck = append(stuck, comp.Name())
				}
			}
			return nil, jarvisErrors.InvalidInput("circular dependency among " + strings.Join(stuck, ", "))
		}
	}
	return order, nil
}
