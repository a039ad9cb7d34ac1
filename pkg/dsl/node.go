package dsl

import "github.com/aretw0/courselet/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    *domain.Node
	edges   []*domain.Edge
	builder *Builder
}

// Title sets the display title.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Help sets the help text shown on the node.
func (n *NodeBuilder) Help(help string) *NodeBuilder {
	n.node.Help = help
	return n
}

// Path sets the symbolic route the node renders at.
func (n *NodeBuilder) Path(route string) *NodeBuilder {
	n.node.Path = route
	return n
}

// Behavior attaches node logic (EventHandler and/or PathResolver).
func (n *NodeBuilder) Behavior(b any) *NodeBuilder {
	n.node.Behavior = b
	return n
}

// On adds an edge named event leading to toNode.
func (n *NodeBuilder) On(event, toNode, title string) *NodeBuilder {
	n.edges = append(n.edges, &domain.Edge{Name: event, ToNode: toNode, Title: title})
	return n
}

// Resolve adds an edge whose destination is computed by r.
func (n *NodeBuilder) Resolve(event, toNode, title string, r domain.EdgeResolver) *NodeBuilder {
	n.edges = append(n.edges, &domain.Edge{Name: event, ToNode: toNode, Title: title, Behavior: r})
	return n
}

// Add returns to the parent builder to declare another node.
func (n *NodeBuilder) Add(name string) *NodeBuilder {
	return n.builder.Add(name)
}

// Build finishes the specification from inside a node chain.
func (n *NodeBuilder) Build() (*domain.Specification, error) {
	return n.builder.Build()
}

// MustBuild is Build that panics on error.
func (n *NodeBuilder) MustBuild() *domain.Specification {
	return n.builder.MustBuild()
}
