package domain

import (
	"context"
	"fmt"
)

// EventStart is dispatched automatically when a pushed flow's entry node handles events.
const EventStart = "start"

// EventSync is dispatched by a render when the top node handles events, so
// handlers that track shared state can move the caller before the page is shown.
const EventSync = "sync"

// Request carries the per-request identity the engine needs.
type Request struct {
	// SessionKey identifies the persisted stack.
	SessionKey string
	// UserID identifies the person navigating; live coordination keys records by it.
	UserID string
}

// Extra carries event-specific data (form values, entity ids, resolved entities).
type Extra map[string]any

// String returns the value at key rendered as a string, or "" when absent.
func (x Extra) String(key string) string {
	v, ok := x[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Call is what a behavior hook sees: where the instance is and what was asked.
type Call struct {
	Request Request
	Node    *Node
	State   *State
	Event   string
	Extra   Extra
}

// Spec returns the specification of the node being visited.
func (c *Call) Spec() *Specification { return c.Node.spec }

// EventHandler intercepts events on a node before edge lookup.
// Returning a zero Outcome lets the event fall through to the matching edge.
type EventHandler interface {
	HandleEvent(ctx context.Context, call *Call) (Outcome, error)
}

// PathResolver computes a node's target dynamically, overriding its static Path.
type PathResolver interface {
	ResolvePath(ctx context.Context, call *Call) (Target, error)
}

// EdgeResolver computes an edge's destination. A zero Outcome means the static ToNode.
type EdgeResolver interface {
	ResolveEdge(ctx context.Context, call *Call, edge *Edge) (Outcome, error)
}

// PushRequest asks the dispatcher to enter a nested flow.
type PushRequest struct {
	Spec string
	Seed *State
}

// Outcome is the result of a hook. Fields are applied in order:
// Node, Pop, Push, then Target or Follow.
type Outcome struct {
	// Node moves the current instance to this node (same specification).
	Node *Node
	// Pop removes the current instance; the instance beneath becomes current.
	Pop bool
	// Push enters a nested flow on top of the stack.
	Push *PushRequest
	// Target ends dispatch with an explicit redirect.
	Target *Target
	// Follow chains another event on the (possibly new) top instance.
	Follow      string
	FollowExtra Extra
}

// Handled reports whether the hook asked for anything.
func (o Outcome) Handled() bool {
	return o.Node != nil || o.Pop || o.Push != nil || o.Target != nil || o.Follow != ""
}

// MoveTo settles the instance on n.
func MoveTo(n *Node) Outcome { return Outcome{Node: n} }

// Follow chains event after the current step.
func Follow(event string, extra Extra) Outcome {
	return Outcome{Follow: event, FollowExtra: extra}
}

// Redirect ends dispatch at t.
func Redirect(t Target) Outcome { return Outcome{Target: &t} }

// PushFlow enters the named specification seeded with state.
func PushFlow(spec string, seed *State) Outcome {
	return Outcome{Push: &PushRequest{Spec: spec, Seed: seed}}
}

// PopFlow leaves the current flow.
func PopFlow() Outcome { return Outcome{Pop: true} }
