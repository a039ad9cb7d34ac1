package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aretw0/courselet/pkg/domain"
)

// LiveRepository implements ports.LiveRepository on PostgreSQL.
type LiveRepository struct {
	pool *pgxpool.Pool
}

func NewLiveRepository(pool *pgxpool.Pool) *LiveRepository {
	return &LiveRepository{pool: pool}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *LiveRepository) CreateSession(ctx context.Context, s *domain.LiveSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courselet_live_sessions
		(id, unit_id, instructor_id, current_question_id, started_at, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, s.ID, s.UnitID, s.InstructorID, nullable(s.CurrentQuestionID), s.StartedAt, s.EndedAt)
	if err != nil {
		return fmt.Errorf("create live session %s: %w", s.ID, err)
	}
	return nil
}

func (r *LiveRepository) Session(ctx context.Context, id string) (*domain.LiveSession, error) {
	var s domain.LiveSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, unit_id, instructor_id, COALESCE(current_question_id, ''), started_at, ended_at
		FROM courselet_live_sessions WHERE id=$1
	`, id).Scan(&s.ID, &s.UnitID, &s.InstructorID, &s.CurrentQuestionID, &s.StartedAt, &s.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: id}
		}
		return nil, fmt.Errorf("load live session %s: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM courselet_live_users WHERE session_id=$1 ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load active users of %s: %w", id, err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("load active users of %s: %w", id, err)
	}
	s.ActiveUsers = users
	return &s, nil
}

// UpdateSession leaves the active-user registry alone; Join and Leave own it.
func (r *LiveRepository) UpdateSession(ctx context.Context, s *domain.LiveSession) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE courselet_live_sessions
		SET unit_id=$2, instructor_id=$3, current_question_id=$4, started_at=$5, ended_at=$6
		WHERE id=$1
	`, s.ID, s.UnitID, s.InstructorID, nullable(s.CurrentQuestionID), s.StartedAt, s.EndedAt)
	if err != nil {
		return fmt.Errorf("update live session %s: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: s.ID}
	}
	return nil
}

func (r *LiveRepository) Join(ctx context.Context, sessionID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO courselet_live_users (session_id, user_id)
		SELECT id, $2 FROM courselet_live_sessions WHERE id=$1
		ON CONFLICT (session_id, user_id) DO NOTHING
	`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("join %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.exists(ctx, sessionID)
	}
	return nil
}

func (r *LiveRepository) Leave(ctx context.Context, sessionID, userID string) error {
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM courselet_live_users WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID); err != nil {
		return fmt.Errorf("leave %s: %w", sessionID, err)
	}
	return r.exists(ctx, sessionID)
}

func (r *LiveRepository) exists(ctx context.Context, sessionID string) error {
	var found bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM courselet_live_sessions WHERE id=$1)
	`, sessionID).Scan(&found); err != nil {
		return fmt.Errorf("check live session %s: %w", sessionID, err)
	}
	if !found {
		return &domain.NotFoundError{Kind: string(domain.KindLiveSession), Name: sessionID}
	}
	return nil
}

func (r *LiveRepository) CreateQuestion(ctx context.Context, q *domain.LiveQuestion) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courselet_live_questions
		(id, session_id, unit_lesson_id, title, stage, stage_started_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, q.ID, q.SessionID, nullable(q.UnitLessonID), q.Title, string(q.Stage), q.StageStartedAt, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create live question %s: %w", q.ID, err)
	}
	return nil
}

func (r *LiveRepository) Question(ctx context.Context, id string) (*domain.LiveQuestion, error) {
	var q domain.LiveQuestion
	var stage string
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, COALESCE(unit_lesson_id, ''), title, stage, stage_started_at, created_at
		FROM courselet_live_questions WHERE id=$1
	`, id).Scan(&q.ID, &q.SessionID, &q.UnitLessonID, &q.Title, &stage, &q.StageStartedAt, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: string(domain.KindLiveQuestion), Name: id}
		}
		return nil, fmt.Errorf("load live question %s: %w", id, err)
	}
	q.Stage = domain.Stage(stage)
	return &q, nil
}

func (r *LiveRepository) UpdateQuestion(ctx context.Context, q *domain.LiveQuestion) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE courselet_live_questions
		SET unit_lesson_id=$2, title=$3, stage=$4, stage_started_at=$5
		WHERE id=$1
	`, q.ID, nullable(q.UnitLessonID), q.Title, string(q.Stage), q.StageStartedAt)
	if err != nil {
		return fmt.Errorf("update live question %s: %w", q.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: string(domain.KindLiveQuestion), Name: q.ID}
	}
	return nil
}

func (r *LiveRepository) SaveResponse(ctx context.Context, resp *domain.Response) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courselet_live_responses
		(question_id, user_id, text, confidence, selfeval, status, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (question_id, user_id) DO UPDATE SET
			text=EXCLUDED.text, confidence=EXCLUDED.confidence, selfeval=EXCLUDED.selfeval,
			status=EXCLUDED.status, submitted_at=EXCLUDED.submitted_at
	`, resp.QuestionID, resp.UserID, resp.Text, string(resp.Confidence), string(resp.SelfEval),
		string(resp.Status), resp.SubmittedAt)
	if err != nil {
		return fmt.Errorf("save response of %s: %w", resp.UserID, err)
	}
	return nil
}

func (r *LiveRepository) Response(ctx context.Context, questionID, userID string) (*domain.Response, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT question_id, user_id, text, confidence, selfeval, status, submitted_at
		FROM courselet_live_responses WHERE question_id=$1 AND user_id=$2
	`, questionID, userID)
	resp, err := scanResponse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "response", Name: userID, In: questionID}
		}
		return nil, fmt.Errorf("load response of %s: %w", userID, err)
	}
	return resp, nil
}

func (r *LiveRepository) Responses(ctx context.Context, questionID string) ([]*domain.Response, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT question_id, user_id, text, confidence, selfeval, status, submitted_at
		FROM courselet_live_responses WHERE question_id=$1 ORDER BY submitted_at, user_id
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list responses of %s: %w", questionID, err)
	}
	defer rows.Close()

	var out []*domain.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func scanResponse(row pgx.Row) (*domain.Response, error) {
	var r domain.Response
	var confidence, selfeval, status string
	if err := row.Scan(&r.QuestionID, &r.UserID, &r.Text, &confidence, &selfeval, &status, &r.SubmittedAt); err != nil {
		return nil, err
	}
	r.Confidence = domain.Confidence(confidence)
	r.SelfEval = domain.SelfEval(selfeval)
	r.Status = domain.ResponseStatus(status)
	return &r, nil
}
