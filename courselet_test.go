package courselet_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/flows"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/observability"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/aretw0/courselet/pkg/session"
)

type world struct {
	ctx     context.Context
	catalog *memory.Catalog
	repo    *memory.LiveRepository
	coord   *live.Coordinator
	store   *memory.Store
	reg     *registry.Registry
}

func newWorld(t *testing.T) *world {
	t.Helper()
	cat := memory.NewCatalog()
	cat.AddUnit(domain.Unit{ID: "u1", Title: "Newton"},
		domain.UnitLesson{ID: "intro", Kind: domain.LessonExplanation, Order: 1},
		domain.UnitLesson{ID: "q1", Kind: domain.LessonQuestion, Order: 2},
		domain.UnitLesson{ID: "q1a", Kind: domain.LessonAnswer, ParentID: "q1"},
	)
	repo := memory.NewLiveRepository()
	coord := live.NewCoordinator(repo)
	reg, err := registry.New([]registry.Provider{flows.Provider(cat), live.Provider(coord)})
	require.NoError(t, err)
	return &world{
		ctx:     context.Background(),
		catalog: cat,
		repo:    repo,
		coord:   coord,
		store:   memory.NewStore(),
		reg:     reg,
	}
}

func (w *world) engine(t *testing.T, opts ...courselet.Option) *courselet.Engine {
	t.Helper()
	opts = append([]courselet.Option{
		courselet.WithEntityResolver(courselet.NewResolver(w.catalog, w.repo)),
	}, opts...)
	eng, err := courselet.New(w.reg, session.NewManager(w.store), routes.New(nil), opts...)
	require.NoError(t, err)
	return eng
}

func req(user string) domain.Request {
	return domain.Request{SessionKey: "sess-" + user, UserID: user}
}

func TestEngine_FreshSessionStartsOnDefaultFlow(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)

	target, err := eng.Render(w.ctx, req("alice"))
	require.NoError(t, err)
	assert.Equal(t, flows.Browse, target.Spec)
	assert.Equal(t, "START", target.Node)
	assert.Equal(t, "/ct/", target.URL)

	snap, err := eng.Inspect(w.ctx, "sess-alice")
	require.NoError(t, err)
	require.Len(t, snap.Frames, 1)
}

func TestEngine_SlideshowPushAndPop(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("alice")

	target, err := eng.Dispatch(w.ctx, r, "unit", domain.Extra{"unit": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/", target.URL)

	target, err = eng.Dispatch(w.ctx, r, flows.Slideshow, nil)
	require.NoError(t, err)
	assert.Equal(t, flows.Slideshow, target.Spec)
	assert.Equal(t, "/ct/units/u1/lessons/intro/", target.URL)

	target, err = eng.Dispatch(w.ctx, r, "next", nil)
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/lessons/q1/", target.URL)

	snap, err := eng.Inspect(w.ctx, r.SessionKey)
	require.NoError(t, err)
	require.Len(t, snap.Frames, 2)
	assert.Equal(t, "Slideshow: Newton", snap.Frames[1].State["title"])

	// Pop is the inverse of push: the unit page is back, untouched.
	target, err = eng.PopFlow(w.ctx, r)
	require.NoError(t, err)
	assert.Equal(t, flows.Browse, target.Spec)
	assert.Equal(t, "UNIT", target.Node)
	assert.Equal(t, "/ct/units/u1/", target.URL)
}

func TestEngine_UnknownEventLeavesStackUntouched(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("bob")

	_, err := eng.Dispatch(w.ctx, r, "unit", domain.Extra{"unit": "u1"})
	require.NoError(t, err)
	before, err := w.store.Load(w.ctx, r.SessionKey)
	require.NoError(t, err)

	_, err = eng.Dispatch(w.ctx, r, "fly", nil)
	var unknown *domain.UnknownEventError
	require.ErrorAs(t, err, &unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
	assert.Equal(t, "UNIT", unknown.Node)

	after, err := w.store.Load(w.ctx, r.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEngine_PopBaseFails(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)

	_, err := eng.PopFlow(w.ctx, req("carol"))
	assert.ErrorIs(t, err, domain.ErrEmptyStack)

	_, err = w.store.Load(w.ctx, "sess-carol")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "a failed request persists nothing")
}

func TestEngine_StackSurvivesRestart(t *testing.T) {
	w := newWorld(t)
	r := req("dave")

	_, err := w.engine(t).Dispatch(w.ctx, r, "unit", domain.Extra{"unit": "u1"})
	require.NoError(t, err)
	_, err = w.engine(t).Dispatch(w.ctx, r, flows.Slideshow, nil)
	require.NoError(t, err)

	// A new engine over the same store continues where the old one stopped.
	target, err := w.engine(t).Dispatch(w.ctx, r, "next", nil)
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/lessons/q1/", target.URL)
}

func TestEngine_ConcurrentRequestsSerialize(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("erin")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.PushFlow(w.ctx, r, flows.Test, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := eng.Inspect(w.ctx, r.SessionKey)
	require.NoError(t, err)
	assert.Len(t, snap.Frames, n+1, "no push is lost")
}

func TestEngine_LiveSessionEndPopsOnce(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("frank")

	sess, err := w.coord.StartSession(w.ctx, "u1", "instr-1")
	require.NoError(t, err)

	target, err := eng.Dispatch(w.ctx, r, live.SpecName, domain.Extra{"liveSession": sess.ID})
	require.NoError(t, err)
	assert.Equal(t, live.NodeWait, target.Node)

	_, err = w.coord.EndSession(w.ctx, sess.ID)
	require.NoError(t, err)

	target, err = eng.Dispatch(w.ctx, r, "sync", nil)
	require.NoError(t, err)
	assert.Equal(t, flows.Browse, target.Spec)
	assert.Equal(t, "/ct/", target.URL)

	snap, err := eng.Inspect(w.ctx, r.SessionKey)
	require.NoError(t, err)
	assert.Len(t, snap.Frames, 1)

	stored, err := w.repo.Session(w.ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ActiveUsers)
}

func TestEngine_RenderSyncsLiveStudent(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("june")

	sess, err := w.coord.StartSession(w.ctx, "u1", "instr-1")
	require.NoError(t, err)
	target, err := eng.Dispatch(w.ctx, r, live.SpecName, domain.Extra{"liveSession": sess.ID})
	require.NoError(t, err)
	require.Equal(t, live.NodeWait, target.Node)

	_, err = w.coord.StartQuestion(w.ctx, sess.ID, "Q1", "")
	require.NoError(t, err)
	target, err = eng.Render(w.ctx, r)
	require.NoError(t, err)
	assert.Equal(t, live.NodeRespond, target.Node)

	_, err = w.coord.EndSession(w.ctx, sess.ID)
	require.NoError(t, err)
	target, err = eng.Render(w.ctx, r)
	require.NoError(t, err)
	assert.Equal(t, flows.Browse, target.Spec)

	// Browsing nodes ignore the sync and stay put.
	target, err = eng.Render(w.ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "START", target.Node)
	snap, err := eng.Inspect(w.ctx, r.SessionKey)
	require.NoError(t, err)
	assert.Len(t, snap.Frames, 1)
}

func TestEngine_PushSeedIsRehydrated(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)

	seed := domain.NewState()
	require.NoError(t, seed.Set(domain.KeyUnit, "u1"))
	target, err := eng.PushFlow(w.ctx, req("gina"), flows.Slideshow, seed)
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/lessons/intro/", target.URL)
}

func TestEngine_StaleEntityIsHardFailure(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("hank")

	require.NoError(t, w.store.Save(w.ctx, r.SessionKey,
		[]byte(`{"version":1,"frames":[{"spec":"browse","node":"UNIT","state":{"unit":"deleted-unit"}}]}`)))

	_, err := eng.Dispatch(w.ctx, r, "home", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	seed := domain.NewState()
	require.NoError(t, seed.Set(domain.KeyUnit, "deleted-unit"))
	_, err = eng.PushFlow(w.ctx, req("ivy"), flows.Slideshow, seed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_Reset(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t)
	r := req("hal")

	_, err := eng.PushFlow(w.ctx, r, flows.Test, nil)
	require.NoError(t, err)
	require.NoError(t, eng.Reset(w.ctx, r.SessionKey))

	_, err = eng.Inspect(w.ctx, r.SessionKey)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_Metrics(t *testing.T) {
	w := newWorld(t)
	m := observability.NewMetrics(prometheus.NewRegistry())
	eng := w.engine(t, courselet.WithMetrics(m))

	_, err := eng.PushFlow(w.ctx, req("ivy"), flows.Test, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Flows.WithLabelValues(flows.Test, "push")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues(flows.Test, "MID")))
}

func TestEngine_Validation(t *testing.T) {
	w := newWorld(t)

	_, err := courselet.New(w.reg, session.NewManager(w.store), routes.New(nil), courselet.WithDefaultSpec("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = w.engine(t).Dispatch(w.ctx, domain.Request{}, "unit", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEngine_HopLimit(t *testing.T) {
	w := newWorld(t)
	eng := w.engine(t, courselet.WithMaxHops(1))

	// test's start is intercepted and followed by next: two hops.
	_, err := eng.PushFlow(w.ctx, req("jo"), flows.Test, nil)
	assert.ErrorIs(t, err, domain.ErrHopLimit)
}

func ExampleEngine_Dispatch() {
	cat := memory.NewCatalog()
	cat.AddUnit(domain.Unit{ID: "u1", Title: "Newton"},
		domain.UnitLesson{ID: "intro", Kind: domain.LessonExplanation, Order: 1},
	)
	coord := live.NewCoordinator(memory.NewLiveRepository())
	reg, _ := registry.New([]registry.Provider{flows.Provider(cat), live.Provider(coord)})
	eng, _ := courselet.New(reg, session.NewManager(memory.NewStore()), routes.New(nil),
		courselet.WithEntityResolver(courselet.NewResolver(cat, coord.Repository())),
	)

	ctx := context.Background()
	r := domain.Request{SessionKey: "k", UserID: "alice"}
	target, _ := eng.Dispatch(ctx, r, "unit", domain.Extra{"unit": "u1"})
	fmt.Println(target.URL)
	target, _ = eng.Dispatch(ctx, r, flows.Slideshow, nil)
	fmt.Println(target.URL)
	// Output:
	// /ct/units/u1/
	// /ct/units/u1/lessons/intro/
}
