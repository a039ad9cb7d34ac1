package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/courselet/pkg/domain"
)

// Catalog implements ports.Catalog in memory.
type Catalog struct {
	mu      sync.RWMutex
	units   map[string]domain.Unit
	lessons map[string]domain.UnitLesson
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		units:   make(map[string]domain.Unit),
		lessons: make(map[string]domain.UnitLesson),
	}
}

// AddUnit stores a unit and its lessons.
func (c *Catalog) AddUnit(u domain.Unit, lessons ...domain.UnitLesson) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units[u.ID] = u
	for _, ul := range lessons {
		ul.UnitID = u.ID
		c.lessons[ul.ID] = ul
	}
}

func (c *Catalog) Unit(_ context.Context, id string) (*domain.Unit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: string(domain.KindUnit), Name: id}
	}
	return &u, nil
}

func (c *Catalog) UnitLesson(_ context.Context, id string) (*domain.UnitLesson, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ul, ok := c.lessons[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: string(domain.KindUnitLesson), Name: id}
	}
	return &ul, nil
}

func (c *Catalog) Exercises(_ context.Context, unitID string) ([]*domain.UnitLesson, error) {
	return c.filter(func(ul domain.UnitLesson) bool {
		return ul.UnitID == unitID && ul.ParentID == ""
	}), nil
}

func (c *Catalog) Answers(_ context.Context, unitLessonID string) ([]*domain.UnitLesson, error) {
	return c.filter(func(ul domain.UnitLesson) bool {
		return ul.ParentID == unitLessonID && ul.Kind == domain.LessonAnswer
	}), nil
}

func (c *Catalog) NextLesson(ctx context.Context, ul *domain.UnitLesson) (*domain.UnitLesson, error) {
	exercises, _ := c.Exercises(ctx, ul.UnitID)
	for _, e := range exercises {
		if e.Order > ul.Order {
			return e, nil
		}
	}
	return nil, &domain.NotFoundError{Kind: string(domain.KindUnitLesson), Name: "after " + ul.ID}
}

func (c *Catalog) filter(keep func(domain.UnitLesson) bool) []*domain.UnitLesson {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*domain.UnitLesson
	for _, ul := range c.lessons {
		if keep(ul) {
			cp := ul
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}
