package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/flows"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/aretw0/courselet/pkg/session"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	cat := memory.NewCatalog()
	cat.AddUnit(domain.Unit{ID: "u1", Title: "Newton"},
		domain.UnitLesson{ID: "intro", Kind: domain.LessonExplanation, Order: 1},
	)
	reg, err := registry.New([]registry.Provider{flows.Provider(cat)})
	require.NoError(t, err)
	eng, err := courselet.New(reg, session.NewManager(memory.NewStore()), routes.New(nil),
		courselet.WithEntityResolver(courselet.NewResolver(cat, nil)))
	require.NoError(t, err)
	return NewServer(eng, reg)
}

func TestTools_PushDispatchPop(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	var call mcp.CallToolRequest

	resp, err := s.handleRender(ctx, call, map[string]interface{}{"session": "s1"})
	require.NoError(t, err)
	assert.Equal(t, flows.Browse, resp.Target.Spec)
	assert.Equal(t, 1, resp.Depth)

	resp, err = s.handleDispatch(ctx, call, map[string]interface{}{
		"session": "s1",
		"event":   "unit",
		"extra":   map[string]any{"unit": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/", resp.Target.URL)

	resp, err = s.handlePush(ctx, call, map[string]interface{}{
		"session": "s1",
		"spec":    flows.Slideshow,
		"seed":    `{"unit":"u1"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/lessons/intro/", resp.Target.URL)
	assert.Equal(t, 2, resp.Depth)

	resp, err = s.handlePop(ctx, call, map[string]interface{}{"session": "s1"})
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/u1/", resp.Target.URL)
	assert.Equal(t, 1, resp.Depth)
}

func TestTools_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	var call mcp.CallToolRequest

	_, err := s.handleRender(ctx, call, map[string]interface{}{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.handleDispatch(ctx, call, map[string]interface{}{"session": "s1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.handleDispatch(ctx, call, map[string]interface{}{"session": "s1", "event": "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)

	_, err = s.handleDispatch(ctx, call, map[string]interface{}{"session": "s1", "event": "unit", "extra": 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.handlePush(ctx, call, map[string]interface{}{"session": "s1", "spec": flows.Slideshow, "seed": map[string]any{"colour": "red"}})
	assert.ErrorIs(t, err, domain.ErrUnknownStateKey)

	_, err = s.handlePop(ctx, call, map[string]interface{}{"session": "s1"})
	assert.ErrorIs(t, err, domain.ErrEmptyStack)
}

func TestInspectTool(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	var call mcp.CallToolRequest
	call.Params.Arguments = map[string]any{"session": "missing"}
	res, err := s.handleInspect(ctx, call)
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = s.handleRender(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session": "s2"})
	require.NoError(t, err)

	call.Params.Arguments = map[string]any{"session": "s2"}
	res, err = s.handleInspect(ctx, call)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var snap courselet.Snapshot
	require.NoError(t, json.Unmarshal([]byte(text.Text), &snap))
	require.Len(t, snap.Frames, 1)
	assert.Equal(t, flows.Browse, snap.Frames[0].Spec)
}

func TestSpecsResource(t *testing.T) {
	s := newServer(t)
	specs, err := s.specs()
	require.NoError(t, err)

	names := make([]string, 0, len(specs))
	for _, e := range specs {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{flows.Browse, flows.Slideshow, flows.Test}, names)
}
