package routes

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aretw0/courselet/pkg/domain"
)

// Table maps symbolic route names to URL patterns with {param} placeholders.
// Placeholders take their value from the target's params; unused params are dropped.
type Table map[string]string

// Default is the route table used by the bundled flows.
var Default = Table{
	"home":                 "/ct/",
	"about":                "/ct/about/",
	"elsewhere":            "/ct/some/where/else/",
	"unit":                 "/ct/units/{unit}/",
	"unit_concepts":        "/ct/units/{unit}/concepts/",
	"lesson":               "/ct/units/{unit}/lessons/{unitLesson}/",
	"live_respond":         "/ct/live/{liveSession}/questions/{liveQuestion}/respond/",
	"live_assess":          "/ct/live/{liveSession}/questions/{liveQuestion}/assess/",
	"live_wait":            "/ct/live/{liveSession}/wait/",
	"live_join":            "/ct/live/{liveSession}/questions/{liveQuestion}/join/",
	"live_done":            "/ct/live/{liveSession}/questions/{liveQuestion}/results/",
	"live_control":         "/ct/live/{liveSession}/control/",
	"live_question_status": "/ct/live/{liveSession}/questions/{liveQuestion}/",
}

// Router reverses names from a Table.
type Router struct {
	table Table
}

// New creates a router. Pass nil to use Default.
func New(table Table) *Router {
	if table == nil {
		table = Default
	}
	return &Router{table: table}
}

// Reverse substitutes params into the named pattern. Values are path-escaped.
func (r *Router) Reverse(_ context.Context, name string, params map[string]string) (string, error) {
	pattern, ok := r.table[name]
	if !ok {
		return "", &domain.NotFoundError{Kind: "route", Name: name}
	}

	var b strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("route %s: unterminated placeholder in %q", name, pattern)
		}
		key := rest[open+1 : open+end]
		v := params[key]
		if v == "" {
			return "", fmt.Errorf("route %s: missing parameter %q", name, key)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(v))
		rest = rest[open+end+1:]
	}
	return b.String(), nil
}

// Names returns the known route names, sorted.
func (r *Router) Names() []string {
	out := make([]string, 0, len(r.table))
	for k := range r.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
