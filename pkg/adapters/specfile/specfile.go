package specfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/dsl"
	"github.com/aretw0/courselet/pkg/registry"
)

// Document is the on-disk shape of a specification.
type Document struct {
	Name     string         `yaml:"name"`
	Title    string         `yaml:"title,omitempty"`
	HideTabs bool           `yaml:"hide_tabs,omitempty"`
	Entry    string         `yaml:"entry,omitempty"`
	Nodes    []NodeDocument `yaml:"nodes"`
}

type NodeDocument struct {
	Name     string         `yaml:"name"`
	Title    string         `yaml:"title,omitempty"`
	Help     string         `yaml:"help,omitempty"`
	Path     string         `yaml:"path,omitempty"`
	Behavior string         `yaml:"behavior,omitempty"`
	Edges    []EdgeDocument `yaml:"edges,omitempty"`
}

type EdgeDocument struct {
	Event    string `yaml:"event"`
	To       string `yaml:"to"`
	Title    string `yaml:"title,omitempty"`
	Resolver string `yaml:"resolver,omitempty"`
}

// Loader turns documents into specifications.
type Loader struct {
	behaviors map[string]any
}

type Option func(*Loader)

// WithBehavior makes b available to documents under name. Nodes reference it
// with `behavior:`, edges with `resolver:` (b must then be a domain.EdgeResolver).
func WithBehavior(name string, b any) Option {
	return func(l *Loader) {
		l.behaviors[name] = b
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{behaviors: make(map[string]any)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Parse decodes one YAML document. Unknown fields are rejected.
func (l *Loader) Parse(data []byte) (*domain.Specification, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty specification document")
		}
		return nil, fmt.Errorf("failed to decode specification: %w", err)
	}
	return l.Build(doc)
}

// Build converts a decoded document into a validated specification.
func (l *Loader) Build(doc Document) (*domain.Specification, error) {
	if doc.Name == "" {
		return nil, errors.New("specification name is required")
	}

	b := dsl.New(doc.Name).Title(doc.Title)
	if doc.HideTabs {
		b.HideTabs()
	}
	if doc.Entry != "" {
		b.Entry(doc.Entry)
	}

	for _, nd := range doc.Nodes {
		nb := b.Add(nd.Name).Title(nd.Title).Help(nd.Help).Path(nd.Path)
		if nd.Behavior != "" {
			behavior, ok := l.behaviors[nd.Behavior]
			if !ok {
				return nil, &domain.NotFoundError{Kind: "behavior", Name: nd.Behavior, In: doc.Name + "." + nd.Name}
			}
			nb.Behavior(behavior)
		}
		for _, ed := range nd.Edges {
			if ed.Resolver == "" {
				nb.On(ed.Event, ed.To, ed.Title)
				continue
			}
			r, ok := l.behaviors[ed.Resolver].(domain.EdgeResolver)
			if !ok {
				return nil, &domain.NotFoundError{Kind: "edge resolver", Name: ed.Resolver, In: doc.Name + "." + nd.Name}
			}
			nb.Resolve(ed.Event, ed.To, ed.Title, r)
		}
	}
	return b.Build()
}

// LoadFile parses the specification stored at path.
func (l *Loader) LoadFile(path string) (*domain.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	spec, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Provider loads every file matched by patterns (doublestar globs, e.g.
// "specs/**/*.yaml") when the registry is built.
func (l *Loader) Provider(patterns ...string) registry.Provider {
	return func() ([]*domain.Specification, error) {
		files, err := Glob(patterns...)
		if err != nil {
			return nil, err
		}
		specs := make([]*domain.Specification, 0, len(files))
		for _, f := range files {
			spec, err := l.LoadFile(f)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	}
}

// Glob expands patterns into a sorted, de-duplicated list of files.
func Glob(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
