package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/adapters/postgres"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
)

// DemoUnit is the id of the unit installed by SeedDemo.
const DemoUnit = "newton"

func demoContent() (domain.Unit, []domain.UnitLesson) {
	return domain.Unit{ID: DemoUnit, Title: "Newton's laws"}, []domain.UnitLesson{
		{ID: "inertia", Kind: domain.LessonExplanation, Title: "Inertia", Order: 1},
		{ID: "cart", Kind: domain.LessonQuestion, Title: "The rolling cart", Order: 2},
		{ID: "cart-answer", Kind: domain.LessonAnswer, Title: "Why the cart stops", ParentID: "cart"},
		{ID: "force", Kind: domain.LessonExplanation, Title: "Force and acceleration", Order: 3},
	}
}

// SeedDemo installs a small unit so a fresh server has something to browse.
func SeedDemo(ctx context.Context, catalog ports.Catalog) error {
	unit, lessons := demoContent()
	switch c := catalog.(type) {
	case *memory.Catalog:
		c.AddUnit(unit, lessons...)
		return nil
	case *postgres.Catalog:
		return c.SaveUnit(ctx, unit, lessons...)
	default:
		return fmt.Errorf("cannot seed a %T catalog", catalog)
	}
}
