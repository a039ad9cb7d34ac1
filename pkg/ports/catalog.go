package ports

import (
	"context"

	"github.com/aretw0/courselet/pkg/domain"
)

// Catalog reads course content. Lookups of missing records return *domain.NotFoundError.
type Catalog interface {
	Unit(ctx context.Context, id string) (*domain.Unit, error)
	UnitLesson(ctx context.Context, id string) (*domain.UnitLesson, error)

	// Exercises returns the unit's top-level lessons ordered by Order.
	Exercises(ctx context.Context, unitID string) ([]*domain.UnitLesson, error)

	// Answers returns the answers attached to a question.
	Answers(ctx context.Context, unitLessonID string) ([]*domain.UnitLesson, error)

	// NextLesson returns the top-level lesson following ul.
	// At the end of the unit it returns domain.ErrNotFound.
	NextLesson(ctx context.Context, ul *domain.UnitLesson) (*domain.UnitLesson, error)
}
