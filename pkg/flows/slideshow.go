package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/dsl"
	"github.com/aretw0/courselet/pkg/ports"
)

// NewSlideshow walks a unit lesson by lesson: each question is followed by its first
// answer, and the unit ends on its concept overview.
func NewSlideshow(catalog ports.Catalog) (*domain.Specification, error) {
	next := &nextLesson{catalog: catalog}
	return dsl.New(Slideshow).
		Title("View courselet as a slide show").
		HideTabs().
		Add("START").
		Title("Start This Courselet").
		Behavior(&slideshowStart{catalog: catalog}).
		Resolve("next", "LESSON", "View Next Lesson", next).
		Add("LESSON").
		Title("View an explanation or question").
		Path("lesson").
		Resolve("next", "LESSON", "View Next Slide", next).
		Add("END").
		Title("Courselet slide show completed").
		Path("unit_concepts").
		Help("Thanks for viewing this slide show. See below for suggested next steps on concepts you can study in this courselet.").
		Build()
}

type slideshowStart struct {
	catalog ports.Catalog
}

func (s *slideshowStart) HandleEvent(ctx context.Context, call *domain.Call) (domain.Outcome, error) {
	if call.Event != domain.EventStart {
		return domain.Outcome{}, nil
	}
	unit, err := unitOf(ctx, s.catalog, call.State)
	if err != nil {
		return domain.Outcome{}, err
	}
	if err := call.State.Set(domain.KeyTitle, "Slideshow: "+unit.Title); err != nil {
		return domain.Outcome{}, err
	}
	return domain.Follow("next", domain.Extra{"unit": unit}), nil
}

// nextLesson moves the slideshow to the following slide, or to END when the unit is done.
type nextLesson struct {
	catalog ports.Catalog
}

func (n *nextLesson) ResolveEdge(ctx context.Context, call *domain.Call, _ *domain.Edge) (domain.Outcome, error) {
	if unit, ok := call.Extra["unit"].(*domain.Unit); ok {
		exercises, err := n.catalog.Exercises(ctx, unit.ID)
		if err != nil {
			return domain.Outcome{}, err
		}
		if len(exercises) == 0 {
			return n.end(call)
		}
		return domain.Outcome{}, call.State.Bind(domain.KeyUnitLesson, exercises[0].ID, exercises[0])
	}

	ul, err := unitLessonOf(ctx, n.catalog, call.State)
	if err != nil {
		return domain.Outcome{}, err
	}
	if ul.IsQuestion() {
		answers, err := n.catalog.Answers(ctx, ul.ID)
		if err != nil {
			return domain.Outcome{}, err
		}
		if len(answers) > 0 {
			return domain.Outcome{}, call.State.Bind(domain.KeyUnitLesson, answers[0].ID, answers[0])
		}
	}
	if ul.ParentID != "" {
		if ul, err = n.catalog.UnitLesson(ctx, ul.ParentID); err != nil {
			return domain.Outcome{}, fmt.Errorf("answer parent: %w", err)
		}
	}
	following, err := n.catalog.NextLesson(ctx, ul)
	if errors.Is(err, domain.ErrNotFound) {
		return n.end(call)
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	return domain.Outcome{}, call.State.Bind(domain.KeyUnitLesson, following.ID, following)
}

func (n *nextLesson) end(call *domain.Call) (domain.Outcome, error) {
	end, err := call.Spec().Node("END")
	if err != nil {
		return domain.Outcome{}, err
	}
	return domain.MoveTo(end), nil
}
