package flows

import (
	"context"
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/dsl"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/ports"
)

// NewBrowse is the default flow every stack starts on. From any node a user can
// start a unit's slideshow or join a live session; both are pushed on top.
func NewBrowse(catalog ports.Catalog) (*domain.Specification, error) {
	node := &browseNode{catalog: catalog}
	sel := &selectUnit{catalog: catalog}
	return dsl.New(Browse).
		Title("Browse courselets").
		Add("START").
		Title("Course home").
		Path("home").
		Behavior(node).
		Resolve("unit", "UNIT", "Open courselet", sel).
		Add("UNIT").
		Title("Courselet").
		Path("unit").
		Behavior(node).
		Resolve("unit", "UNIT", "Open another courselet", sel).
		Resolve("home", "START", "Back to course", clearUnit{}).
		On("concepts", "CONCEPTS", "Study concepts").
		Add("CONCEPTS").
		Title("Courselet concepts").
		Path("unit_concepts").
		Behavior(node).
		On("back", "UNIT", "Back to courselet").
		Resolve("home", "START", "Back to course", clearUnit{}).
		Build()
}

type browseNode struct {
	catalog ports.Catalog
}

func (b *browseNode) HandleEvent(ctx context.Context, call *domain.Call) (domain.Outcome, error) {
	switch call.Event {
	case Slideshow:
		seed := domain.NewState()
		if id := call.Extra.String("unit"); id != "" {
			if err := seed.Set(domain.KeyUnit, id); err != nil {
				return domain.Outcome{}, err
			}
		} else {
			unit, err := unitOf(ctx, b.catalog, call.State)
			if err != nil {
				return domain.Outcome{}, err
			}
			if err := seed.Bind(domain.KeyUnit, unit.ID, unit); err != nil {
				return domain.Outcome{}, err
			}
		}
		return domain.PushFlow(Slideshow, seed), nil
	case live.SpecName:
		id := call.Extra.String("liveSession")
		if id == "" {
			return domain.Outcome{}, fmt.Errorf("%w: liveSession is required", domain.ErrInvalidInput)
		}
		seed := domain.NewState()
		if err := seed.Set(domain.KeyLiveSession, id); err != nil {
			return domain.Outcome{}, err
		}
		return domain.PushFlow(live.SpecName, seed), nil
	}
	return domain.Outcome{}, nil
}

// selectUnit binds the unit named by the event's "unit" value.
type selectUnit struct {
	catalog ports.Catalog
}

func (s *selectUnit) ResolveEdge(ctx context.Context, call *domain.Call, _ *domain.Edge) (domain.Outcome, error) {
	id := call.Extra.String("unit")
	if id == "" {
		return domain.Outcome{}, fmt.Errorf("%w: unit is required", domain.ErrInvalidInput)
	}
	unit, err := s.catalog.Unit(ctx, id)
	if err != nil {
		return domain.Outcome{}, err
	}
	if err := call.State.Bind(domain.KeyUnit, unit.ID, unit); err != nil {
		return domain.Outcome{}, err
	}
	if err := call.State.Set(domain.KeyTitle, unit.Title); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Outcome{}, nil
}

type clearUnit struct{}

func (clearUnit) ResolveEdge(_ context.Context, call *domain.Call, _ *domain.Edge) (domain.Outcome, error) {
	call.State.Delete(domain.KeyUnit)
	call.State.Delete(domain.KeyTitle)
	return domain.Outcome{}, nil
}
