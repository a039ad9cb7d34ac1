package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/courselet/internal/validator"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/adapters/specfile"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/registry"
)

// LoadSpecs builds a registry from the built-in flows and the YAML files
// matched by patterns, against empty in-memory repositories.
func LoadSpecs(patterns []string, logger *slog.Logger) (*registry.Registry, error) {
	coord := live.NewCoordinator(memory.NewLiveRepository(), live.WithLogger(logger))
	return NewRegistry(memory.NewCatalog(), coord, patterns, logger)
}

// Validate loads the specifications and writes a report to out.
func Validate(out io.Writer, patterns []string, logger *slog.Logger) error {
	files, err := specfile.Glob(patterns...)
	if err != nil {
		return err
	}
	reg, err := LoadSpecs(patterns, logger)
	if err != nil {
		fmt.Fprintf(out, "invalid: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "%d specification file(s), %d specification(s) loaded:\n", len(files), reg.Len())
	for _, name := range reg.Names() {
		spec, _ := reg.Specification(name)
		fmt.Fprintf(out, "  %-12s %2d nodes  %s\n", name, len(spec.Nodes()), spec.Title)
		if rep := validator.Crawl(spec); rep.Warn() {
			fmt.Fprintf(out, "  warning: %s: unreachable from %s: %s\n",
				name, spec.EntryName(), strings.Join(rep.Unreachable, ", "))
		}
	}
	return nil
}

// WatchSpecs validates once, then again after every change to a matched file,
// until ctx is done.
func WatchSpecs(ctx context.Context, out io.Writer, patterns []string, logger *slog.Logger) error {
	_ = Validate(out, patterns, logger)
	w := specfile.NewWatcher(patterns, specfile.WithWatchLogger(logger))
	return w.Run(ctx, func() {
		fmt.Fprintln(out, ">>> change detected, revalidating")
		_ = Validate(out, patterns, logger)
	})
}
