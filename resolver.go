package courselet

import (
	"context"
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
)

// Resolver resolves course entities from a Catalog and live entities from a
// LiveRepository.
type Resolver struct {
	catalog ports.Catalog
	live    ports.LiveRepository
}

// NewResolver creates a Resolver. Either source may be nil.
func NewResolver(catalog ports.Catalog, live ports.LiveRepository) *Resolver {
	return &Resolver{catalog: catalog, live: live}
}

func (r *Resolver) Resolve(ctx context.Context, kind domain.EntityKind, id string) (any, error) {
	switch {
	case kind == domain.KindUnit && r.catalog != nil:
		return r.catalog.Unit(ctx, id)
	case kind == domain.KindUnitLesson && r.catalog != nil:
		return r.catalog.UnitLesson(ctx, id)
	case kind == domain.KindLiveSession && r.live != nil:
		return r.live.Session(ctx, id)
	case kind == domain.KindLiveQuestion && r.live != nil:
		return r.live.Question(ctx, id)
	}
	return nil, fmt.Errorf("no resolver for %s entities", kind)
}
