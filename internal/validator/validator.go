package validator

import (
	"github.com/aretw0/courselet/pkg/domain"
)

// Report is the result of crawling a specification from its entry node.
type Report struct {
	Spec      string
	Reachable []string
	// Unreachable lists nodes no static edge leads to, in declaration order.
	Unreachable []string
	// Dynamic is set when a visited node handles events or a traversed edge
	// has a resolver. Either can route anywhere, so Unreachable is only a
	// guess.
	Dynamic bool
}

// Crawl walks edges breadth-first from the entry node.
func Crawl(spec *domain.Specification) Report {
	rep := Report{Spec: spec.Name}
	visited := make(map[string]bool)
	queue := []string{spec.EntryName()}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		node, err := spec.Node(name)
		if err != nil {
			continue
		}
		visited[name] = true
		rep.Reachable = append(rep.Reachable, name)

		if _, ok := node.Behavior.(domain.EventHandler); ok {
			rep.Dynamic = true
		}
		for _, e := range node.Edges() {
			if _, ok := e.Behavior.(domain.EdgeResolver); ok {
				rep.Dynamic = true
			}
			if e.ToNode != "" && !visited[e.ToNode] {
				queue = append(queue, e.ToNode)
			}
		}
	}

	for _, n := range spec.Nodes() {
		if !visited[n.Name] {
			rep.Unreachable = append(rep.Unreachable, n.Name)
		}
	}
	return rep
}

// Warn reports whether the crawl found nodes that certainly cannot be reached.
func (r Report) Warn() bool {
	return !r.Dynamic && len(r.Unreachable) > 0
}
