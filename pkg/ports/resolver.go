package ports

import (
	"context"

	"github.com/aretw0/courselet/pkg/domain"
)

// EntityResolver turns a persisted id back into a live entity during rehydration.
// Missing entities are reported with a *domain.NotFoundError.
type EntityResolver interface {
	Resolve(ctx context.Context, kind domain.EntityKind, id string) (any, error)
}

// Router turns a symbolic route name into a concrete address.
type Router interface {
	Reverse(ctx context.Context, name string, params map[string]string) (string, error)
}
