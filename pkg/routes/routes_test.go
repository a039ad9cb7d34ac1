package routes_test

import (
	"context"
	"testing"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse(t *testing.T) {
	r := routes.New(nil)
	ctx := context.Background()

	u, err := r.Reverse(ctx, "lesson", map[string]string{"unit": "3", "unitLesson": "a b", "title": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "/ct/units/3/lessons/a%20b/", u)

	u, err = r.Reverse(ctx, "home", nil)
	require.NoError(t, err)
	assert.Equal(t, "/ct/", u)
}

func TestReverse_Errors(t *testing.T) {
	r := routes.New(routes.Table{"bad": "/x/{open", "unit": "/u/{unit}/"})
	ctx := context.Background()

	_, err := r.Reverse(ctx, "nope", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Reverse(ctx, "unit", nil)
	assert.ErrorContains(t, err, `missing parameter "unit"`)

	_, err = r.Reverse(ctx, "bad", nil)
	assert.ErrorContains(t, err, "unterminated")

	assert.Equal(t, []string{"bad", "unit"}, r.Names())
}
