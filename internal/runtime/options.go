package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/courselet/pkg/domain"
)

// DefaultMaxHops bounds chained transitions within one dispatch.
const DefaultMaxHops = 16

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMaxHops overrides DefaultMaxHops. Non-positive values are ignored.
func WithMaxHops(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxHops = n
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// Rehydrator binds entities to the ids carried by a state bag.
type Rehydrator interface {
	Rehydrate(ctx context.Context, state *domain.State) error
}

// WithRehydrator resolves seeded state when a flow is pushed.
func WithRehydrator(r Rehydrator) Option {
	return func(d *Dispatcher) {
		d.rehydrator = r
	}
}
