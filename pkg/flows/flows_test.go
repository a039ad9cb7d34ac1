package flows_test

import (
	"context"
	"testing"

	"github.com/aretw0/courselet/internal/runtime"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/flows"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() *memory.Catalog {
	c := memory.NewCatalog()
	c.AddUnit(domain.Unit{ID: "u1", Title: "Newton"},
		domain.UnitLesson{ID: "intro", Kind: domain.LessonExplanation, Order: 1},
		domain.UnitLesson{ID: "q1", Kind: domain.LessonQuestion, Order: 2},
		domain.UnitLesson{ID: "q1a", Kind: domain.LessonAnswer, ParentID: "q1"},
		domain.UnitLesson{ID: "q2", Kind: domain.LessonQuestion, Order: 3},
	)
	c.AddUnit(domain.Unit{ID: "empty", Title: "Nothing yet"})
	return c
}

type fixture struct {
	ctx  context.Context
	reg  *registry.Registry
	disp *runtime.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog()
	coord := live.NewCoordinator(memory.NewLiveRepository())
	reg, err := registry.New([]registry.Provider{flows.Provider(cat), live.Provider(coord)})
	require.NoError(t, err)
	return &fixture{ctx: context.Background(), reg: reg, disp: runtime.NewDispatcher(reg, routes.New(nil))}
}

func (f *fixture) stack(t *testing.T, spec string) *runtime.Stack {
	t.Helper()
	s, err := f.reg.Specification(spec)
	require.NoError(t, err)
	inst, err := runtime.NewInstance(s, nil)
	require.NoError(t, err)
	return runtime.NewStack(inst)
}

func TestProvider_RegistersBundledFlows(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"browse", "live", "slideshow", "test"}, f.reg.Names())
}

func TestTestFlow(t *testing.T) {
	f := newFixture(t)
	st := f.stack(t, flows.Browse)

	target, err := f.disp.Push(f.ctx, st, domain.Request{}, flows.Test, nil)
	require.NoError(t, err)
	assert.Equal(t, "MID", target.Node, "start is intercepted and next is redirected to MID")
	assert.Equal(t, "/ct/about/", target.URL)

	target, err = f.disp.Pop(f.ctx, st, domain.Request{})
	require.NoError(t, err)
	assert.Equal(t, "/ct/", target.URL)
}

func TestTestFlow_DynamicStartPath(t *testing.T) {
	f := newFixture(t)
	st := f.stack(t, flows.Test)

	target, err := f.disp.Render(f.ctx, st, domain.Request{})
	require.NoError(t, err)
	assert.Equal(t, "/ct/some/where/else/", target.URL)
}

func TestSlideshow_WalksUnit(t *testing.T) {
	f := newFixture(t)
	st := f.stack(t, flows.Browse)

	target, err := f.disp.Transition(f.ctx, st, domain.Request{}, "unit", domain.Extra{"unit": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/", target.URL)

	target, err = f.disp.Transition(f.ctx, st, domain.Request{}, flows.Slideshow, nil)
	require.NoError(t, err)
	assert.Equal(t, "slideshow", target.Spec)
	assert.Equal(t, "/ct/units/u1/lessons/intro/", target.URL)

	top, _ := st.Current()
	assert.Equal(t, "Slideshow: Newton", top.State.Title())

	var seen []string
	for i := 0; i < 3; i++ {
		target, err = f.disp.Transition(f.ctx, st, domain.Request{}, "next", nil)
		require.NoError(t, err)
		id, _ := top.State.Get(domain.KeyUnitLesson)
		seen = append(seen, id)
	}
	assert.Equal(t, []string{"q1", "q1a", "q2"}, seen, "questions are followed by their answer")

	target, err = f.disp.Transition(f.ctx, st, domain.Request{}, "next", nil)
	require.NoError(t, err)
	assert.Equal(t, "END", target.Node)
	assert.Equal(t, "/ct/units/u1/concepts/", target.URL)

	_, err = f.disp.Transition(f.ctx, st, domain.Request{}, "next", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestSlideshow_EmptyUnitEndsImmediately(t *testing.T) {
	f := newFixture(t)
	st := f.stack(t, flows.Browse)

	target, err := f.disp.Transition(f.ctx, st, domain.Request{}, flows.Slideshow, domain.Extra{"unit": "empty"})
	require.NoError(t, err)
	assert.Equal(t, "END", target.Node)
}

func TestSlideshow_RequiresUnit(t *testing.T) {
	f := newFixture(t)
	st := f.stack(t, flows.Browse)

	_, err := f.disp.Transition(f.ctx, st, domain.Request{}, flows.Slideshow, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "no unit selected")
	assert.Equal(t, 1, st.Depth())

	_, err = f.disp.Transition(f.ctx, st, domain.Request{}, "unit", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBrowse_UnitNavigation(t *testing.T) {
	f := newFixture(t)
	st := f.stack(t, flows.Browse)

	_, err := f.disp.Transition(f.ctx, st, domain.Request{}, "unit", domain.Extra{"unit": "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.disp.Transition(f.ctx, st, domain.Request{}, "unit", domain.Extra{"unit": "u1"})
	require.NoError(t, err)
	target, err := f.disp.Transition(f.ctx, st, domain.Request{}, "concepts", nil)
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/concepts/", target.URL)

	target, err = f.disp.Transition(f.ctx, st, domain.Request{}, "home", nil)
	require.NoError(t, err)
	assert.Equal(t, "START", target.Node)
	top, _ := st.Current()
	assert.Equal(t, 0, top.State.Len())
}

func TestBrowse_LiveRequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.disp.Transition(f.ctx, f.stack(t, flows.Browse), domain.Request{}, live.SpecName, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "liveSession is required")
}
