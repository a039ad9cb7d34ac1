package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aretw0/courselet/pkg/domain"
)

// Catalog implements ports.Catalog on PostgreSQL.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// SaveUnit upserts a unit and its lessons in one transaction.
func (c *Catalog) SaveUnit(ctx context.Context, u domain.Unit, lessons ...domain.UnitLesson) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO courselet_units (id, title) VALUES ($1,$2)
			ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title
		`, u.ID, u.Title); err != nil {
			return fmt.Errorf("save unit %s: %w", u.ID, err)
		}
		for _, ul := range lessons {
			if _, err := tx.Exec(ctx, `
				INSERT INTO courselet_unit_lessons (id, unit_id, kind, title, parent_id, position)
				VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (id) DO UPDATE SET unit_id=EXCLUDED.unit_id, kind=EXCLUDED.kind,
					title=EXCLUDED.title, parent_id=EXCLUDED.parent_id, position=EXCLUDED.position
			`, ul.ID, u.ID, string(ul.Kind), ul.Title, nullable(ul.ParentID), ul.Order); err != nil {
				return fmt.Errorf("save unit lesson %s: %w", ul.ID, err)
			}
		}
		return nil
	})
}

func (c *Catalog) Unit(ctx context.Context, id string) (*domain.Unit, error) {
	var u domain.Unit
	err := c.pool.QueryRow(ctx, `SELECT id, title FROM courselet_units WHERE id=$1`, id).Scan(&u.ID, &u.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: string(domain.KindUnit), Name: id}
		}
		return nil, fmt.Errorf("load unit %s: %w", id, err)
	}
	return &u, nil
}

const lessonColumns = `id, unit_id, kind, title, COALESCE(parent_id, ''), position`

func (c *Catalog) UnitLesson(ctx context.Context, id string) (*domain.UnitLesson, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM courselet_unit_lessons WHERE id=$1`, id)
	ul, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: string(domain.KindUnitLesson), Name: id}
		}
		return nil, fmt.Errorf("load unit lesson %s: %w", id, err)
	}
	return ul, nil
}

func (c *Catalog) Exercises(ctx context.Context, unitID string) ([]*domain.UnitLesson, error) {
	return c.list(ctx, `SELECT `+lessonColumns+` FROM courselet_unit_lessons
		WHERE unit_id=$1 AND parent_id IS NULL ORDER BY position, id`, unitID)
}

func (c *Catalog) Answers(ctx context.Context, unitLessonID string) ([]*domain.UnitLesson, error) {
	return c.list(ctx, `SELECT `+lessonColumns+` FROM courselet_unit_lessons
		WHERE parent_id=$1 AND kind=$2 ORDER BY position, id`, unitLessonID, string(domain.LessonAnswer))
}

func (c *Catalog) NextLesson(ctx context.Context, ul *domain.UnitLesson) (*domain.UnitLesson, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM courselet_unit_lessons
		WHERE unit_id=$1 AND parent_id IS NULL AND position > $2 ORDER BY position, id LIMIT 1`,
		ul.UnitID, ul.Order)
	next, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: string(domain.KindUnitLesson), Name: "after " + ul.ID}
		}
		return nil, fmt.Errorf("next lesson after %s: %w", ul.ID, err)
	}
	return next, nil
}

func (c *Catalog) list(ctx context.Context, sql string, args ...any) ([]*domain.UnitLesson, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list unit lessons: %w", err)
	}
	defer rows.Close()

	var out []*domain.UnitLesson
	for rows.Next() {
		ul, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ul)
	}
	return out, rows.Err()
}

func scanLesson(row pgx.Row) (*domain.UnitLesson, error) {
	var ul domain.UnitLesson
	var kind string
	if err := row.Scan(&ul.ID, &ul.UnitID, &kind, &ul.Title, &ul.ParentID, &ul.Order); err != nil {
		return nil, err
	}
	ul.Kind = domain.LessonKind(kind)
	return &ul, nil
}
