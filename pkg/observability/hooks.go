package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/courselet/pkg/domain"
)

// LogHooks logs every lifecycle event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "session", e.SessionKey, "spec", e.Spec, "node", e.Node, "event", e.Event)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "session", e.SessionKey, "spec", e.Spec, "node", e.Node, "event", e.Event)
		},
		OnPush: func(ctx context.Context, e *domain.FlowEvent) {
			logger.DebugContext(ctx, "flow_push", "session", e.SessionKey, "spec", e.Spec, "depth", e.Depth)
		},
		OnPop: func(ctx context.Context, e *domain.FlowEvent) {
			logger.DebugContext(ctx, "flow_pop", "session", e.SessionKey, "spec", e.Spec, "depth", e.Depth)
		},
	}
}

// Chain fans each event out to every set of hooks, in order. Nil callbacks are skipped.
func Chain(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range all {
				if h.OnNodeEnter != nil {
					h.OnNodeEnter(ctx, e)
				}
			}
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range all {
				if h.OnNodeLeave != nil {
					h.OnNodeLeave(ctx, e)
				}
			}
		},
		OnPush: func(ctx context.Context, e *domain.FlowEvent) {
			for _, h := range all {
				if h.OnPush != nil {
					h.OnPush(ctx, e)
				}
			}
		},
		OnPop: func(ctx context.Context, e *domain.FlowEvent) {
			for _, h := range all {
				if h.OnPop != nil {
					h.OnPop(ctx, e)
				}
			}
		},
	}
}
