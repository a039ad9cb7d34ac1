package courselet

import (
	"log/slog"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/observability"
	"github.com/aretw0/courselet/pkg/ports"
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithMetrics records request durations and registers the metric hooks.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
		e.hooks = append(e.hooks, m.Hooks())
	}
}

// WithDefaultSpec names the flow at the base of every new stack (default "browse").
func WithDefaultSpec(name string) Option {
	return func(e *Engine) {
		e.defaultSpec = name
	}
}

// WithMaxHops bounds chained transitions within one request.
func WithMaxHops(n int) Option {
	return func(e *Engine) {
		e.maxHops = n
	}
}

// WithEntityResolver enables rehydration of entity ids on load and on push.
func WithEntityResolver(r ports.EntityResolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}
