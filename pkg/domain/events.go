package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventFlowPush  EventType = "flow_push"
	EventFlowPop   EventType = "flow_pop"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	SessionKey string    `json:"session_key"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	Spec  string `json:"spec"`
	Node  string `json:"node"`
	Event string `json:"event,omitempty"`
}

// FlowEvent represents a nested flow entering or leaving the stack.
type FlowEvent struct {
	EventBase
	Spec  string `json:"spec"`
	Depth int    `json:"depth"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnPush      func(context.Context, *FlowEvent)
	OnPop       func(context.Context, *FlowEvent)
}
