package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/flows"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/aretw0/courselet/pkg/session"
)

func newEngine(t *testing.T) *courselet.Engine {
	t.Helper()
	cat := memory.NewCatalog()
	cat.AddUnit(domain.Unit{ID: "u1", Title: "Newton"},
		domain.UnitLesson{ID: "intro", Kind: domain.LessonExplanation, Order: 1},
	)
	repo := memory.NewLiveRepository()
	reg, err := registry.New([]registry.Provider{flows.Provider(cat), live.Provider(live.NewCoordinator(repo))})
	require.NoError(t, err)
	eng, err := courselet.New(reg, session.NewManager(memory.NewStore()), routes.New(nil),
		courselet.WithEntityResolver(courselet.NewResolver(cat, repo)))
	require.NoError(t, err)
	return eng
}

func run(t *testing.T, input string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithInput(strings.NewReader(input)), WithOutput(&out)}, opts...)
	r := New(newEngine(t), domain.Request{SessionKey: "repl", UserID: "me"}, opts...)
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestRun_NavigatesAndInspects(t *testing.T) {
	out := run(t, strings.Join([]string{
		"unit unit=u1",
		":push slideshow unit=u1",
		":stack",
		":pop",
		"",
	}, "\n"))

	assert.Contains(t, out, "**browse** · START → `/ct/`")
	assert.Contains(t, out, "`/ct/units/u1/`")
	assert.Contains(t, out, "`/ct/units/u1/lessons/intro/`")
	assert.Contains(t, out, "0  browse:UNIT")
	assert.Contains(t, out, "unit=u1")
	assert.Contains(t, out, "1  slideshow:")
	assert.NotContains(t, out, "Error:")
}

func TestRun_ReportsErrorsAndContinues(t *testing.T) {
	out := run(t, "nowhere\n:pop\n:bogus\n:push nothing\nunit unit=u1\n:quit\nhome\n")

	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, `unknown command ":bogus"`)
	assert.Contains(t, out, "`/ct/units/u1/`")
	// Input after :quit is never applied.
	assert.Equal(t, 1, strings.Count(out, "`/ct/`"))
}

func TestRun_RendererAndHelp(t *testing.T) {
	out := run(t, ":help\n", WithRenderer(func(s string) (string, error) {
		return "<<" + s + ">>", nil
	}))
	assert.Contains(t, out, "<<**browse**")
	assert.Contains(t, out, ":push <spec>")
}

func TestRun_RejectsOversizedInput(t *testing.T) {
	out := run(t, strings.Repeat("x", 64)+"\n", WithMaxInputSize(16))
	assert.Contains(t, out, "input exceeds maximum allowed size")
}

func TestRun_StopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	r := New(newEngine(t), domain.Request{SessionKey: "c", UserID: "me"},
		WithInput(pr), WithOutput(io.Discard))

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
