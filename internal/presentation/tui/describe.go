package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/courselet/pkg/domain"
)

// Describe renders spec as a markdown document: one section per node with its
// route and outgoing events.
func Describe(spec *domain.Specification) string {
	var sb strings.Builder
	title := spec.Title
	if title == "" {
		title = spec.Name
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Specification `%s`, entry node `%s`", spec.Name, spec.EntryName())
	if spec.HideTabs {
		sb.WriteString(", tabs hidden")
	}
	sb.WriteString(".\n")

	for _, node := range spec.Nodes() {
		fmt.Fprintf(&sb, "\n## %s\n\n", node.Name)
		if node.Title != "" {
			fmt.Fprintf(&sb, "**%s**\n\n", node.Title)
		}
		if node.Help != "" {
			fmt.Fprintf(&sb, "%s\n\n", node.Help)
		}
		if node.Path != "" {
			fmt.Fprintf(&sb, "- route: `%s`\n", node.Path)
		}
		if _, ok := node.Behavior.(domain.EventHandler); ok {
			sb.WriteString("- handles events before edge lookup\n")
		}
		if _, ok := node.Behavior.(domain.PathResolver); ok {
			sb.WriteString("- computes its target dynamically\n")
		}
		if node.IsTerminal() {
			sb.WriteString("- terminal\n")
			continue
		}

		sb.WriteString("\n| event | to | title |\n|---|---|---|\n")
		for _, edge := range node.Edges() {
			to := edge.ToNode
			if _, ok := edge.Behavior.(domain.EdgeResolver); ok {
				to += " (resolved)"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", edge.Name, to, edge.Title)
		}
	}
	return sb.String()
}
