package domain

import "fmt"

// EntryNode is the conventional entry node name of a specification.
const EntryNode = "START"

// Specification is an immutable, named navigation flow.
// It owns its nodes; nodes and edges only hold back references.
type Specification struct {
	Name     string
	Title    string
	HideTabs bool
	// Entry names the node an instance starts on. Empty means EntryNode.
	Entry string

	nodes map[string]*Node
	order []string
}

// Node is a state of a specification.
type Node struct {
	Name  string
	Title string
	Help  string
	// Path is a symbolic route name, resolved by a ports.Router.
	Path string
	// Behavior optionally implements EventHandler and/or PathResolver.
	Behavior any

	edges []*Edge
	spec  *Specification
}

// Edge is a named transition leaving a node.
type Edge struct {
	Name   string
	ToNode string
	Title  string
	// Behavior optionally implements EdgeResolver.
	Behavior any

	from *Node
}

// NewSpecification assembles a specification and wires back references.
// Node names must be unique and each node's edge names must be unique.
func NewSpecification(name, title string, nodes ...*Node) (*Specification, error) {
	if name == "" {
		return nil, fmt.Errorf("specification name is required")
	}
	s := &Specification{
		Name:  name,
		Title: title,
		nodes: make(map[string]*Node, len(nodes)),
	}
	for _, n := range nodes {
		if n == nil || n.Name == "" {
			return nil, fmt.Errorf("specification %s: node missing name", name)
		}
		if _, dup := s.nodes[n.Name]; dup {
			return nil, fmt.Errorf("specification %s: duplicate node %s", name, n.Name)
		}
		seen := make(map[string]bool, len(n.edges))
		for _, e := range n.edges {
			if seen[e.Name] {
				return nil, fmt.Errorf("specification %s: node %s has duplicate edge %s", name, n.Name, e.Name)
			}
			seen[e.Name] = true
			e.from = n
		}
		n.spec = s
		s.nodes[n.Name] = n
		s.order = append(s.order, n.Name)
	}
	return s, nil
}

// NewNode creates a node with the given outgoing edges.
func NewNode(name, title, path string, edges ...*Edge) *Node {
	return &Node{Name: name, Title: title, Path: path, edges: edges}
}

// EntryName returns the node an instance of this specification starts on.
func (s *Specification) EntryName() string {
	if s.Entry == "" {
		return EntryNode
	}
	return s.Entry
}

// Node returns the named node.
func (s *Specification) Node(name string) (*Node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, &NotFoundError{Kind: "node", Name: name, In: s.Name}
	}
	return n, nil
}

// Nodes returns the nodes in declaration order.
func (s *Specification) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.nodes[name])
	}
	return out
}

// Validate checks that the entry node exists and that every edge target resolves.
func (s *Specification) Validate() error {
	if _, err := s.Node(s.EntryName()); err != nil {
		return fmt.Errorf("specification %s has no entry node: %w", s.Name, err)
	}
	for _, n := range s.Nodes() {
		for _, e := range n.edges {
			if _, err := s.Node(e.ToNode); err != nil {
				return fmt.Errorf("edge %s.%s.%s: %w", s.Name, n.Name, e.Name, err)
			}
		}
	}
	return nil
}

// Spec returns the owning specification.
func (n *Node) Spec() *Specification { return n.spec }

// Edges returns the outgoing edges in declaration order.
func (n *Node) Edges() []*Edge {
	out := make([]*Edge, len(n.edges))
	copy(out, n.edges)
	return out
}

// Edge returns the outgoing edge with the given name.
func (n *Node) Edge(name string) (*Edge, bool) {
	for _, e := range n.edges {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// IsTerminal reports whether the node has no outgoing edges.
func (n *Node) IsTerminal() bool { return len(n.edges) == 0 }

// From returns the node this edge leaves.
func (e *Edge) From() *Node { return e.from }

// Target resolves the static destination against the owning specification.
func (e *Edge) Target() (*Node, error) {
	return e.from.spec.Node(e.ToNode)
}
