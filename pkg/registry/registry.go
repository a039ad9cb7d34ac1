package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/pkg/domain"
)

// Provider contributes specifications. Each provider is called exactly once by New.
type Provider func() ([]*domain.Specification, error)

// Specs adapts a fixed list of specifications into a Provider.
func Specs(specs ...*domain.Specification) Provider {
	return func() ([]*domain.Specification, error) { return specs, nil }
}

// Registry holds the loaded specifications. It is immutable after New returns,
// so lookups take no locks.
type Registry struct {
	specs map[string]*domain.Specification
	names []string
}

// Option configures New.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger configures a logger for load-time diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New loads every provider, rejects duplicate names and validates each specification.
func New(providers []Provider, opts ...Option) (*Registry, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{specs: make(map[string]*domain.Specification)}
	for i, p := range providers {
		specs, err := p()
		if err != nil {
			return nil, fmt.Errorf("provider %d: %w", i, err)
		}
		for _, s := range specs {
			if _, dup := r.specs[s.Name]; dup {
				return nil, fmt.Errorf("duplicate specification %q", s.Name)
			}
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("invalid specification %q: %w", s.Name, err)
			}
			r.specs[s.Name] = s
			r.names = append(r.names, s.Name)
			o.logger.Debug("specification registered", "spec", s.Name, "nodes", len(s.Nodes()))
		}
	}
	sort.Strings(r.names)
	return r, nil
}

// Specification returns the named specification.
func (r *Registry) Specification(name string) (*domain.Specification, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "specification", Name: name}
	}
	return s, nil
}

// Node returns a node of the named specification.
func (r *Registry) Node(spec, node string) (*domain.Node, error) {
	s, err := r.Specification(spec)
	if err != nil {
		return nil, err
	}
	return s.Node(node)
}

// Names returns the registered specification names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered specifications.
func (r *Registry) Len() int { return len(r.names) }
