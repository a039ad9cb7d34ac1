package runner

import (
	"io"
	"log/slog"
	"sort"
)

// Option configures a Runner.
type Option func(*Runner)

// WithInput sets where commands are read from.
func WithInput(in io.Reader) Option {
	return func(r *Runner) { r.in = in }
}

// WithOutput sets where targets and errors are written.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) { r.out = out }
}

// WithRenderer renders each target line, typically markdown to ANSI.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) { r.renderer = renderer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(r *Runner) { r.maxInput = n }
}

// WithPrompt replaces the "> " prompt.
func WithPrompt(p string) Option {
	return func(r *Runner) { r.prompt = p }
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
