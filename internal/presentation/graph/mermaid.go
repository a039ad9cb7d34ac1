package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/courselet/pkg/domain"
)

// Overlay marks nodes of a running session on the chart.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart for spec. Shapes:
//   - entry: ((circle))
//   - event handler: [[subroutine]]
//   - terminal: ([stadium])
//   - default: [rectangle]
//
// Edges computed by a resolver are drawn dotted, to their fallback node.
func GenerateMermaid(spec *domain.Specification, overlay *Overlay) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%%%% %s\n", escape(spec.Title))
	sb.WriteString("graph TD\n")

	entry := spec.EntryName()
	for _, node := range spec.Nodes() {
		id := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		_, handles := node.Behavior.(domain.EventHandler)
		switch {
		case node.Name == entry:
			opener, closer = "((", "))"
		case handles:
			opener, closer = "[[", "]]"
		case node.IsTerminal():
			opener, closer = "([", "])"
		}

		label := node.Name
		if node.Title != "" {
			label += "<br/>" + escape(node.Title)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		for _, edge := range node.Edges() {
			if edge.ToNode == "" {
				continue
			}
			arrow := fmt.Sprintf("-- \"%s\" -->", escape(edge.Name))
			if _, dynamic := edge.Behavior.(domain.EdgeResolver); dynamic {
				arrow = fmt.Sprintf("-. \"%s\" .->", escape(edge.Name))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, sanitizeMermaidID(edge.ToNode))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedNodes {
			id := sanitizeMermaidID(name)
			if id == "" || seen[id] {
				continue
			}
			if _, err := spec.Node(name); err != nil {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
