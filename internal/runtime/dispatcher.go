package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
)

// Specs looks up specifications by name. *registry.Registry satisfies it.
type Specs interface {
	Specification(name string) (*domain.Specification, error)
}

// Dispatcher applies events to a Stack. Hooks never recurse into it; they return
// an Outcome and the dispatcher loops until the stack settles or MaxHops is reached.
type Dispatcher struct {
	specs   Specs
	router  ports.Router
	maxHops int
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	rehydrator Rehydrator
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(specs Specs, router ports.Router, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		specs:   specs,
		router:  router,
		maxHops: DefaultMaxHops,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// step is one pending event. Optional steps settle quietly when nothing handles them.
type step struct {
	event    string
	extra    domain.Extra
	optional bool
}

// Transition dispatches event against the top instance.
func (d *Dispatcher) Transition(ctx context.Context, st *Stack, req domain.Request, event string, extra domain.Extra) (domain.Target, error) {
	return d.run(ctx, st, req, &step{event: event, extra: extra})
}

// Push enters spec on top of the stack and dispatches start when its entry node handles events.
func (d *Dispatcher) Push(ctx context.Context, st *Stack, req domain.Request, spec string, seed *domain.State) (domain.Target, error) {
	next, err := d.push(ctx, st, req, spec, seed)
	if err != nil {
		return domain.Target{}, err
	}
	return d.run(ctx, st, req, next)
}

// Pop leaves the top flow and returns the target of the instance beneath.
func (d *Dispatcher) Pop(ctx context.Context, st *Stack, req domain.Request) (domain.Target, error) {
	if err := d.pop(ctx, st, req); err != nil {
		return domain.Target{}, err
	}
	return d.Render(ctx, st, req)
}

// Sync gives an event-handling top node the chance to move before rendering.
// Nodes without a handler, or handlers that ignore EventSync, are just rendered.
func (d *Dispatcher) Sync(ctx context.Context, st *Stack, req domain.Request) (domain.Target, error) {
	inst, err := st.Current()
	if err != nil {
		return domain.Target{}, err
	}
	if _, ok := inst.Node.Behavior.(domain.EventHandler); !ok {
		return d.Render(ctx, st, req)
	}
	return d.run(ctx, st, req, &step{event: domain.EventSync, optional: true})
}

// Render returns the target of the top instance's current node without moving it.
func (d *Dispatcher) Render(ctx context.Context, st *Stack, req domain.Request) (domain.Target, error) {
	inst, err := st.Current()
	if err != nil {
		return domain.Target{}, err
	}
	var t domain.Target
	if pr, ok := inst.Node.Behavior.(domain.PathResolver); ok {
		t, err = pr.ResolvePath(ctx, &domain.Call{Request: req, Node: inst.Node, State: inst.State})
		if err != nil {
			return domain.Target{}, fmt.Errorf("resolve path of %s.%s: %w", inst.Spec.Name, inst.Node.Name, err)
		}
	} else if inst.Node.Path != "" {
		t = domain.Route(inst.Node.Path, nil)
	}
	return d.finalize(ctx, inst, t)
}

func (d *Dispatcher) run(ctx context.Context, st *Stack, req domain.Request, next *step) (domain.Target, error) {
	for hop := 0; next != nil; hop++ {
		if hop >= d.maxHops {
			return domain.Target{}, fmt.Errorf("%w (%d)", domain.ErrHopLimit, d.maxHops)
		}
		if err := ctx.Err(); err != nil {
			return domain.Target{}, err
		}

		inst, err := st.Current()
		if err != nil {
			return domain.Target{}, err
		}
		call := &domain.Call{Request: req, Node: inst.Node, State: inst.State, Event: next.event, Extra: next.extra}
		d.logger.Debug("dispatch", "spec", inst.Spec.Name, "node", inst.Node.Name, "event", next.event, "hop", hop)

		out, err := d.decide(ctx, inst, call, next.optional)
		if err != nil {
			return domain.Target{}, err
		}
		if out == nil {
			break
		}

		var target *domain.Target
		next, target, err = d.apply(ctx, st, req, inst, call.Event, *out)
		if err != nil {
			return domain.Target{}, err
		}
		if target != nil {
			top, err := st.Current()
			if err != nil {
				return domain.Target{}, err
			}
			return d.finalize(ctx, top, *target)
		}
	}
	return d.Render(ctx, st, req)
}

// decide asks the node's handler first, then the edge named by the event.
// A nil Outcome means an optional step found nothing to do.
func (d *Dispatcher) decide(ctx context.Context, inst *Instance, call *domain.Call, optional bool) (*domain.Outcome, error) {
	if h, ok := inst.Node.Behavior.(domain.EventHandler); ok {
		out, err := h.HandleEvent(ctx, call)
		if err != nil {
			return nil, fmt.Errorf("%s.%s on %q: %w", inst.Spec.Name, inst.Node.Name, call.Event, err)
		}
		if out.Handled() {
			return &out, nil
		}
	}

	edge, ok := inst.Node.Edge(call.Event)
	if !ok {
		if optional {
			return nil, nil
		}
		return nil, &domain.UnknownEventError{Spec: inst.Spec.Name, Node: inst.Node.Name, Event: call.Event}
	}

	var out domain.Outcome
	if r, ok := edge.Behavior.(domain.EdgeResolver); ok {
		var err error
		out, err = r.ResolveEdge(ctx, call, edge)
		if err != nil {
			return nil, fmt.Errorf("edge %s.%s.%s: %w", inst.Spec.Name, inst.Node.Name, edge.Name, err)
		}
	}
	if out.Node == nil && !out.Pop && out.Push == nil {
		to, err := edge.Target()
		if err != nil {
			return nil, err
		}
		out.Node = to
	}
	return &out, nil
}

// apply executes an outcome in order: move, pop, push, then redirect or follow.
func (d *Dispatcher) apply(ctx context.Context, st *Stack, req domain.Request, inst *Instance, event string, out domain.Outcome) (*step, *domain.Target, error) {
	if out.Node != nil {
		if out.Node.Spec() != inst.Spec {
			return nil, nil, fmt.Errorf("node %s does not belong to specification %s", out.Node.Name, inst.Spec.Name)
		}
		d.moveTo(ctx, req, inst, out.Node, event)
	}
	if out.Pop {
		if err := d.pop(ctx, st, req); err != nil {
			return nil, nil, err
		}
	}
	var next *step
	if out.Push != nil {
		var err error
		next, err = d.push(ctx, st, req, out.Push.Spec, out.Push.Seed)
		if err != nil {
			return nil, nil, err
		}
	}
	if out.Target != nil {
		return nil, out.Target, nil
	}
	if out.Follow != "" {
		return &step{event: out.Follow, extra: out.FollowExtra}, nil, nil
	}
	return next, nil, nil
}

func (d *Dispatcher) moveTo(ctx context.Context, req domain.Request, inst *Instance, to *domain.Node, event string) {
	if d.hooks.OnNodeLeave != nil {
		d.hooks.OnNodeLeave(ctx, d.nodeEvent(domain.EventNodeLeave, req, inst.Spec, inst.Node, event))
	}
	inst.Node = to
	if d.hooks.OnNodeEnter != nil {
		d.hooks.OnNodeEnter(ctx, d.nodeEvent(domain.EventNodeEnter, req, inst.Spec, to, event))
	}
}

func (d *Dispatcher) push(ctx context.Context, st *Stack, req domain.Request, name string, seed *domain.State) (*step, error) {
	spec, err := d.specs.Specification(name)
	if err != nil {
		return nil, err
	}
	if seed != nil && d.rehydrator != nil {
		if err := d.rehydrator.Rehydrate(ctx, seed); err != nil {
			return nil, err
		}
	}
	inst, err := NewInstance(spec, seed)
	if err != nil {
		return nil, err
	}
	st.Push(inst)
	d.logger.Debug("flow pushed", "spec", name, "depth", st.Depth())
	if d.hooks.OnPush != nil {
		d.hooks.OnPush(ctx, d.flowEvent(domain.EventFlowPush, req, name, st.Depth()))
	}
	if d.hooks.OnNodeEnter != nil {
		d.hooks.OnNodeEnter(ctx, d.nodeEvent(domain.EventNodeEnter, req, spec, inst.Node, ""))
	}

	if _, ok := inst.Node.Behavior.(domain.EventHandler); ok {
		return &step{event: domain.EventStart, optional: true}, nil
	}
	return nil, nil
}

func (d *Dispatcher) pop(ctx context.Context, st *Stack, req domain.Request) error {
	top, err := st.Pop()
	if err != nil {
		return err
	}
	d.logger.Debug("flow popped", "spec", top.Spec.Name, "depth", st.Depth())
	if d.hooks.OnPop != nil {
		d.hooks.OnPop(ctx, d.flowEvent(domain.EventFlowPop, req, top.Spec.Name, st.Depth()))
	}
	return nil
}

// finalize reverses symbolic routes and stamps where the top instance settled.
func (d *Dispatcher) finalize(ctx context.Context, inst *Instance, t domain.Target) (domain.Target, error) {
	if !t.Resolved() && t.Route != "" {
		if t.Params == nil {
			t.Params = inst.State.Params()
		}
		if d.router == nil {
			return domain.Target{}, fmt.Errorf("no router to reverse %q", t.Route)
		}
		url, err := d.router.Reverse(ctx, t.Route, t.Params)
		if err != nil {
			return domain.Target{}, fmt.Errorf("reverse %q: %w", t.Route, err)
		}
		t.URL = url
	}
	t.Spec = inst.Spec.Name
	t.Node = inst.Node.Name
	return t, nil
}

func (d *Dispatcher) nodeEvent(typ domain.EventType, req domain.Request, spec *domain.Specification, node *domain.Node, event string) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, SessionKey: req.SessionKey},
		Spec:      spec.Name,
		Node:      node.Name,
		Event:     event,
	}
}

func (d *Dispatcher) flowEvent(typ domain.EventType, req domain.Request, spec string, depth int) *domain.FlowEvent {
	return &domain.FlowEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, SessionKey: req.SessionKey},
		Spec:      spec,
		Depth:     depth,
	}
}
