package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_CopiesBlobs(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	blob := []byte("abc")
	require.NoError(t, store.Save(ctx, "k", blob))
	blob[0] = 'x'

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryLiveRepository_Contract(t *testing.T) {
	ports.RunLiveRepositoryContract(t, memory.NewLiveRepository())
}

func TestMemoryCatalog(t *testing.T) {
	c := memory.NewCatalog()
	c.AddUnit(domain.Unit{ID: "u", Title: "Forces"},
		domain.UnitLesson{ID: "l2", Kind: domain.LessonQuestion, Order: 2},
		domain.UnitLesson{ID: "l1", Kind: domain.LessonExplanation, Order: 1},
		domain.UnitLesson{ID: "a2", Kind: domain.LessonAnswer, ParentID: "l2"},
	)
	ctx := context.Background()

	ex, err := c.Exercises(ctx, "u")
	require.NoError(t, err)
	require.Len(t, ex, 2)
	assert.Equal(t, "l1", ex[0].ID)
	assert.Equal(t, "u", ex[0].UnitID)

	answers, err := c.Answers(ctx, "l2")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "a2", answers[0].ID)

	next, err := c.NextLesson(ctx, ex[0])
	require.NoError(t, err)
	assert.Equal(t, "l2", next.ID)

	_, err = c.NextLesson(ctx, next)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Unit(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
