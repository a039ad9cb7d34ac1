package courselet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/internal/runtime"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/observability"
	"github.com/aretw0/courselet/pkg/ports"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/session"
)

// DefaultSpec is the flow at the base of a new stack unless WithDefaultSpec says otherwise.
const DefaultSpec = "browse"

// Snapshot is a persisted stack decoded for inspection.
type Snapshot = runtime.Snapshot

// SnapshotFrame is one instance of a Snapshot.
type SnapshotFrame = runtime.SnapshotFrame

// Engine is the high-level entry point. It loads the caller's stack, applies
// one request to it and persists the result.
type Engine struct {
	registry   *registry.Registry
	sessions   *session.Manager
	dispatcher *runtime.Dispatcher
	decoder    *runtime.Decoder

	defaultSpec string
	maxHops     int
	resolver    ports.EntityResolver
	hooks       []domain.LifecycleHooks
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// New wires an Engine over a loaded registry.
func New(reg *registry.Registry, sessions *session.Manager, router ports.Router, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:    reg,
		sessions:    sessions,
		defaultSpec: DefaultSpec,
		maxHops:     runtime.DefaultMaxHops,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := reg.Specification(e.defaultSpec); err != nil {
		return nil, fmt.Errorf("default specification: %w", err)
	}

	e.decoder = &runtime.Decoder{Specs: reg, Resolver: e.resolver, Logger: e.logger}
	dispOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithMaxHops(e.maxHops),
		runtime.WithLifecycleHooks(observability.Chain(e.hooks...)),
	}
	if e.resolver != nil {
		dispOpts = append(dispOpts, runtime.WithRehydrator(e.decoder))
	}
	e.dispatcher = runtime.NewDispatcher(reg, router, dispOpts...)
	return e, nil
}

// Registry returns the specifications the engine navigates.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Dispatch applies event to the top of the caller's stack.
func (e *Engine) Dispatch(ctx context.Context, req domain.Request, event string, extra domain.Extra) (domain.Target, error) {
	return e.do(ctx, "dispatch", req, func(st *runtime.Stack) (domain.Target, error) {
		return e.dispatcher.Transition(ctx, st, req, event, extra)
	})
}

// PushFlow enters the named specification on top of the caller's stack.
func (e *Engine) PushFlow(ctx context.Context, req domain.Request, spec string, seed *domain.State) (domain.Target, error) {
	return e.do(ctx, "push", req, func(st *runtime.Stack) (domain.Target, error) {
		return e.dispatcher.Push(ctx, st, req, spec, seed)
	})
}

// PopFlow leaves the top flow. The base flow cannot be popped (domain.ErrEmptyStack).
func (e *Engine) PopFlow(ctx context.Context, req domain.Request) (domain.Target, error) {
	return e.do(ctx, "pop", req, func(st *runtime.Stack) (domain.Target, error) {
		return e.dispatcher.Pop(ctx, st, req)
	})
}

// Render returns the caller's current target. A caller with no stack gets a
// fresh one. When the top node handles events it first receives
// domain.EventSync, so a live student is moved (or popped once the session
// has ended) exactly as on any other request; static nodes never move.
func (e *Engine) Render(ctx context.Context, req domain.Request) (domain.Target, error) {
	return e.do(ctx, "render", req, func(st *runtime.Stack) (domain.Target, error) {
		return e.dispatcher.Sync(ctx, st, req)
	})
}

// Inspect decodes the stored stack of key without resolving entities.
func (e *Engine) Inspect(ctx context.Context, key string) (*Snapshot, error) {
	blob, err := e.sessions.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return runtime.Inspect(blob)
}

// Reset discards the stack of key. The next request starts over.
func (e *Engine) Reset(ctx context.Context, key string) error {
	return e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		return e.sessions.Store().Delete(ctx, key)
	})
}

func (e *Engine) do(ctx context.Context, op string, req domain.Request, fn func(*runtime.Stack) (domain.Target, error)) (target domain.Target, err error) {
	if req.SessionKey == "" {
		return domain.Target{}, fmt.Errorf("%w: session key is required", domain.ErrInvalidInput)
	}
	if e.metrics != nil {
		defer func(start time.Time) { e.metrics.ObserveRequest(op, start, err) }(time.Now())
	}

	err = e.sessions.WithLock(ctx, req.SessionKey, func(ctx context.Context) error {
		st, err := e.load(ctx, req.SessionKey)
		if err != nil {
			return err
		}
		target, err = fn(st)
		if err != nil {
			return err
		}
		blob, err := runtime.Encode(st)
		if err != nil {
			return err
		}
		return e.sessions.Store().Save(ctx, req.SessionKey, blob)
	})
	if err != nil {
		e.logger.Debug("request failed", "op", op, "session", req.SessionKey, "err", err)
		return domain.Target{}, err
	}
	return target, nil
}

// load decodes the stored stack or starts a fresh one on the default flow.
// Callers hold the session lock.
func (e *Engine) load(ctx context.Context, key string) (*runtime.Stack, error) {
	blob, err := e.sessions.Store().Load(ctx, key)
	if errors.Is(err, domain.ErrSessionNotFound) {
		spec, err := e.registry.Specification(e.defaultSpec)
		if err != nil {
			return nil, err
		}
		base, err := runtime.NewInstance(spec, nil)
		if err != nil {
			return nil, err
		}
		return runtime.NewStack(base), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	return e.decoder.Decode(ctx, blob)
}
