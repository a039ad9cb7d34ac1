package dsl

import (
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
)

// Builder manages specification construction.
type Builder struct {
	name     string
	title    string
	hideTabs bool
	entry    string
	nodes    map[string]*NodeBuilder
	order    []string
}

// New creates a builder for the named specification.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Title sets the specification title.
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// HideTabs marks the flow as one that hides the surrounding navigation tabs.
func (b *Builder) HideTabs() *Builder {
	b.hideTabs = true
	return b
}

// Entry overrides the entry node (START by default).
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Add creates a new node in the specification.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    &domain.Node{Name: name},
		builder: b,
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Build assembles and validates the specification.
func (b *Builder) Build() (*domain.Specification, error) {
	nodes := make([]*domain.Node, 0, len(b.order))
	for _, name := range b.order {
		nb := b.nodes[name]
		n := domain.NewNode(nb.node.Name, nb.node.Title, nb.node.Path, nb.edges...)
		n.Help = nb.node.Help
		n.Behavior = nb.node.Behavior
		nodes = append(nodes, n)
	}

	spec, err := domain.NewSpecification(b.name, b.title, nodes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build specification: %w", err)
	}
	spec.HideTabs = b.hideTabs
	spec.Entry = b.entry
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// MustBuild is like Build but panics on error. Intended for package-level flow definitions.
func (b *Builder) MustBuild() *domain.Specification {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}
