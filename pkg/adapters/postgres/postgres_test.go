//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courselet/pkg/adapters/postgres"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
)

var (
	_ ports.LiveRepository = (*postgres.LiveRepository)(nil)
	_ ports.Catalog        = (*postgres.Catalog)(nil)
)

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("COURSELET_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("COURSELET_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.RunMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	t.Run("LiveRepository", func(t *testing.T) {
		ports.RunLiveRepositoryContract(t, postgres.NewLiveRepository(pool))
	})

	t.Run("Catalog", func(t *testing.T) {
		catalog := postgres.NewCatalog(pool)
		require.NoError(t, catalog.SaveUnit(ctx, domain.Unit{ID: "pg-u1", Title: "Forces"},
			domain.UnitLesson{ID: "pg-l1", Kind: domain.LessonExplanation, Title: "Intro", Order: 1},
			domain.UnitLesson{ID: "pg-q1", Kind: domain.LessonQuestion, Title: "F=?", Order: 2},
			domain.UnitLesson{ID: "pg-a1", Kind: domain.LessonAnswer, Title: "ma", ParentID: "pg-q1"},
		))

		ex, err := catalog.Exercises(ctx, "pg-u1")
		require.NoError(t, err)
		require.Len(t, ex, 2)
		assert.Equal(t, "pg-l1", ex[0].ID)

		ans, err := catalog.Answers(ctx, "pg-q1")
		require.NoError(t, err)
		require.Len(t, ans, 1)
		assert.Equal(t, "pg-q1", ans[0].ParentID)

		next, err := catalog.NextLesson(ctx, ex[0])
		require.NoError(t, err)
		assert.Equal(t, "pg-q1", next.ID)

		_, err = catalog.NextLesson(ctx, next)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = catalog.Unit(ctx, "pg-missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
