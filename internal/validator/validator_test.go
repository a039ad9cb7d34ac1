package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courselet/internal/validator"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/dsl"
)

type resolver struct{}

func (resolver) ResolveEdge(context.Context, *domain.Call, *domain.Edge) (domain.Outcome, error) {
	return domain.Outcome{}, nil
}

func TestCrawl_Static(t *testing.T) {
	spec, err := dsl.New("static").
		Add("START").On("next", "MID", "").
		Add("MID").On("back", "START", "").On("done", "END", "").
		Add("ORPHAN").On("next", "END", "").
		Add("END").
		Build()
	require.NoError(t, err)

	rep := validator.Crawl(spec)
	assert.Equal(t, []string{"START", "MID", "END"}, rep.Reachable)
	assert.Equal(t, []string{"ORPHAN"}, rep.Unreachable)
	assert.False(t, rep.Dynamic)
	assert.True(t, rep.Warn())
}

func TestCrawl_DynamicSuppressesWarning(t *testing.T) {
	spec, err := dsl.New("dynamic").
		Add("START").Resolve("next", "MID", "", resolver{}).
		Add("MID").
		Add("ELSEWHERE").
		Build()
	require.NoError(t, err)

	rep := validator.Crawl(spec)
	assert.True(t, rep.Dynamic)
	assert.Equal(t, []string{"ELSEWHERE"}, rep.Unreachable)
	assert.False(t, rep.Warn())
}
