package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct{}

func (stubResolver) ResolveEdge(context.Context, *domain.Call, *domain.Edge) (domain.Outcome, error) {
	return domain.Outcome{}, nil
}

func TestBuilder_SimpleFlow(t *testing.T) {
	spec, err := New("simple").
		Title("Simple").
		HideTabs().
		Add("START").Title("Begin").Path("home").On("next", "MID", "Next").
		Add("MID").Help("middle").Resolve("next", "END", "Finish", stubResolver{}).
		Add("END").Path("done").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "simple", spec.Name)
	assert.True(t, spec.HideTabs)
	assert.Equal(t, domain.EntryNode, spec.EntryName())

	names := []string{}
	for _, n := range spec.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"START", "MID", "END"}, names)

	mid, err := spec.Node("MID")
	require.NoError(t, err)
	assert.Equal(t, "middle", mid.Help)
	e, ok := mid.Edge("next")
	require.True(t, ok)
	assert.IsType(t, stubResolver{}, e.Behavior)
	assert.Same(t, mid, e.From())

	end, err := e.Target()
	require.NoError(t, err)
	assert.True(t, end.IsTerminal())
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New("x")
	first := b.Add("START")
	assert.Same(t, first, b.Add("START"))
}

func TestBuilder_RejectsDanglingEdge(t *testing.T) {
	_, err := New("broken").Add("START").On("next", "GONE", "").Build()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuilder_RejectsDuplicateEdge(t *testing.T) {
	_, err := New("dup").
		Add("START").On("next", "START", "").On("next", "START", "").
		Build()
	assert.ErrorContains(t, err, "duplicate edge")
}

func TestBuilder_CustomEntry(t *testing.T) {
	b := New("custom").Entry("HOME")
	b.Add("HOME").Path("home")
	spec := b.MustBuild()
	assert.Equal(t, "HOME", spec.EntryName())
}
