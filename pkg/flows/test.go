package flows

import (
	"context"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/dsl"
)

// NewTest is a small flow exercising every capability: a computed path, a start
// interception and an edge that overrides its declared destination.
func NewTest() (*domain.Specification, error) {
	return dsl.New(Test).
		Title("try this").
		Add("START").
		Title("start here").
		Path("home").
		Behavior(testStart{}).
		Resolve("next", "END", "go go go", toMid{}).
		Add("MID").
		Title("in the middle").
		Path("about").
		Add("END").
		Title("end here").
		Path("home").
		Build()
}

type testStart struct{}

func (testStart) ResolvePath(context.Context, *domain.Call) (domain.Target, error) {
	return domain.URL("/ct/some/where/else/"), nil
}

func (testStart) HandleEvent(_ context.Context, call *domain.Call) (domain.Outcome, error) {
	if call.Event == domain.EventStart {
		return domain.Follow("next", call.Extra), nil
	}
	return domain.Outcome{}, nil
}

type toMid struct{}

func (toMid) ResolveEdge(_ context.Context, call *domain.Call, _ *domain.Edge) (domain.Outcome, error) {
	mid, err := call.Spec().Node("MID")
	if err != nil {
		return domain.Outcome{}, err
	}
	return domain.MoveTo(mid), nil
}
