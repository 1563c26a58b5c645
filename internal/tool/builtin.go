package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/harunnryd/jarvis/internal/journal"
)

// BuiltinOptions carries runtime dependencies needed by built-in tool factories.
type BuiltinOptions struct {
	Journal  *journal.Journal
	Notifier Notifier
}

type BuiltinFactory func(options BuiltinOptions) (Tool, error)

var builtinCatalog = struct {
	mu        sync.RWMutex
	factories map[string]BuiltinFactory
}{
	factories: map[string]BuiltinFactory{},
}

// RegisterBuiltin registers a built-in tool factory under a tool name.
// Intended to be called in init() from built-in tool files.
func RegisterBuiltin(name string, factory BuiltinFactory) {
	normalized := NormalizeToolName(name)
	if normalized == "" {
		panic("tool: built-in name cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("tool: built-in factory cannot be nil (%s)", normalized))
	}

	builtinCatalog.mu.Lock()
	defer builtinCatalog.mu.Unlock()

	if _, exists := builtinCatalog.factories[normalized]; exists {
		panic(fmt.Sprintf("tool: built-in already registered: %s", normalized))
	}
	builtinCatalog.factories[normalized] = factory
}

// BuiltinNames returns all registered built-in names in deterministic order.
func BuiltinNames() []string {
	builtinCatalog.mu.RLock()
	defer builtinCatalog.mu.RUnlock()

	names := make([]string, 0, len(builtinCatalog.factories))
	for name := range builtinCatalog.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstantiateBuiltins constructs all built-in tools using their registered factories.
func InstantiateBuiltins(options BuiltinOptions) ([]Tool, error) {
	if options.Journal == nil {
		return nil, fmt.Errorf("instantiate built-ins: journal is required")
	}
	if options.Notifier == nil {
		options.Notifier = LogNotifier{}
	}

	names := BuiltinNames()

	builtinCatalog.mu.RLock()
	factories := make(map[string]BuiltinFactory, len(builtinCatalog.factories))
	for name, factory := range builtinCatalog.factories {
		factories[name] = factory
	}
	builtinCatalog.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		t, err := factories[name](options)
		if err != nil {
			return nil, fmt.Errorf("instantiate built-in %q: %w", name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// RegisterBuiltins instantiates every built-in into the registry.
func RegisterBuiltins(registry *Registry, options BuiltinOptions) error {
	tools, err := InstantiateBuiltins(options)
	if err != nil {
		return err
	}
	for _, t := range tools {
		registry.Register(t)
	}
	return nil
}

// Notifier shows a short transient message to the person on the other end.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

// LogNotifier writes notifications to the log; used when no front-end is attached.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, message string) {
	slog.InfoContext(ctx, "Notification", "message", message)
}

type notifierKey struct{}

// WithNotifier routes notifications raised while handling ctx to n, so one
// tool instance can serve many chats.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

// Notify sends message to the notifier on ctx, or to fallback.
func Notify(ctx context.Context, fallback Notifier, message string) {
	if n, ok := ctx.Value(notifierKey{}).(Notifier); ok && n != nil {
		n.Notify(ctx, message)
		return
	}
	if fallback != nil {
		fallback.Notify(ctx, message)
	}
}
