package flows

import (
	"context"
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
	"github.com/aretw0/courselet/pkg/registry"
)

// Names of the bundled specifications.
const (
	Browse    = "browse"
	Slideshow = "slideshow"
	Test      = "test"
)

// Provider returns the bundled browsing flows backed by catalog.
func Provider(catalog ports.Catalog) registry.Provider {
	return func() ([]*domain.Specification, error) {
		browse, err := NewBrowse(catalog)
		if err != nil {
			return nil, err
		}
		slideshow, err := NewSlideshow(catalog)
		if err != nil {
			return nil, err
		}
		test, err := NewTest()
		if err != nil {
			return nil, err
		}
		return []*domain.Specification{browse, slideshow, test}, nil
	}
}

// unitOf returns the unit bound to the state, loading it when only the id is known.
func unitOf(ctx context.Context, catalog ports.Catalog, state *domain.State) (*domain.Unit, error) {
	if u, ok := state.Unit(); ok {
		return u, nil
	}
	id, ok := state.Get(domain.KeyUnit)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: no unit selected", domain.ErrInvalidInput)
	}
	u, err := catalog.Unit(ctx, id)
	if err != nil {
		return nil, err
	}
	return u, state.Bind(domain.KeyUnit, id, u)
}

// unitLessonOf is unitOf for the current slide.
func unitLessonOf(ctx context.Context, catalog ports.Catalog, state *domain.State) (*domain.UnitLesson, error) {
	if ul, ok := state.UnitLesson(); ok {
		return ul, nil
	}
	id, ok := state.Get(domain.KeyUnitLesson)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: no lesson selected", domain.ErrInvalidInput)
	}
	ul, err := catalog.UnitLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	return ul, state.Bind(domain.KeyUnitLesson, id, ul)
}
